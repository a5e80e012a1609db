package client

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"allowance_manager/internal/app/port"
	"allowance_manager/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

// EVMClient implements port.ChainClient over an HTTP JSON-RPC endpoint.
type EVMClient struct {
	ethClient      *ethclient.Client
	netDef         entity.ChainDefinition
	rpcCallTimeout time.Duration
	limiter        *rate.Limiter // nil disables throttling
}

// NewEVMClient dials the chain's endpoint. The limiter may be nil.
func NewEVMClient(netDef entity.ChainDefinition, connectionTimeout, rpcCallTimeout time.Duration, limiter *rate.Limiter) (*EVMClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, netDef.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s for chain %s: %w", netDef.RPCURL, netDef.Name, err)
	}
	return &EVMClient{ethClient: client, netDef: netDef, rpcCallTimeout: rpcCallTimeout, limiter: limiter}, nil
}

var _ port.ChainClient = (*EVMClient)(nil)

// Definition returns the chain definition for this client.
func (c *EVMClient) Definition() entity.ChainDefinition {
	return c.netDef
}

// Close releases the underlying RPC connection.
func (c *EVMClient) Close() {
	c.ethClient.Close()
}

// callContext applies the per-call timeout and waits for the rate limiter.
func (c *EVMClient) callContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	if c.limiter != nil {
		if err := c.limiter.Wait(callCtx); err != nil {
			cancel()
			return nil, nil, fmt.Errorf("rate limiter for %s: %w", c.netDef.Name, err)
		}
	}
	return callCtx, cancel, nil
}

// ChainID returns the chain id reported by the node.
func (c *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	callCtx, cancel, err := c.callContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return c.ethClient.ChainID(callCtx)
}

// CallContract executes eth_call against the latest block.
func (c *EVMClient) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	callCtx, cancel, err := c.callContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return c.ethClient.CallContract(callCtx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

// BatchCallContract sends all calls as one JSON-RPC batch.
func (c *EVMClient) BatchCallContract(ctx context.Context, calls []entity.ContractCall) ([]entity.ContractCallResult, error) {
	if len(calls) == 0 {
		return []entity.ContractCallResult{}, nil
	}

	batchElems := make([]rpc.BatchElem, len(calls))
	for i, call := range calls {
		callArgs := map[string]interface{}{
			"to":   common.HexToAddress(call.To),
			"data": hexutil.Bytes(call.Data),
		}
		batchElems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args:   []interface{}{callArgs, "latest"},
			Result: new(hexutil.Bytes),
		}
	}

	callCtx, cancel, err := c.callContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	if err := c.ethClient.Client().BatchCallContext(callCtx, batchElems); err != nil {
		return nil, fmt.Errorf("RPC batch call failed: %w", err)
	}

	results := make([]entity.ContractCallResult, len(calls))
	for i, elem := range batchElems {
		if elem.Error != nil {
			results[i].Error = elem.Error
			continue
		}
		out, ok := elem.Result.(*hexutil.Bytes)
		if !ok || out == nil {
			results[i].Error = fmt.Errorf("unexpected eth_call result type %T for %s", elem.Result, calls[i].To)
			continue
		}
		results[i].Data = *out
	}
	return results, nil
}

// NonceAt returns the pending transaction count of account, so a broadcast that
// timed out waiting for its receipt is not reused.
func (c *EVMClient) NonceAt(ctx context.Context, account common.Address) (uint64, error) {
	callCtx, cancel, err := c.callContext(ctx)
	if err != nil {
		return 0, err
	}
	defer cancel()
	return c.ethClient.PendingNonceAt(callCtx, account)
}

// SuggestGasPrice returns the node's legacy gas price suggestion.
func (c *EVMClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	callCtx, cancel, err := c.callContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return c.ethClient.SuggestGasPrice(callCtx)
}

// EstimateGas estimates the gas needed for msg.
func (c *EVMClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	callCtx, cancel, err := c.callContext(ctx)
	if err != nil {
		return 0, err
	}
	defer cancel()
	return c.ethClient.EstimateGas(callCtx, msg)
}

// SendTransaction broadcasts a signed transaction.
func (c *EVMClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	callCtx, cancel, err := c.callContext(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return c.ethClient.SendTransaction(callCtx, tx)
}

// TransactionReceipt returns ethereum.NotFound while tx is pending.
func (c *EVMClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	callCtx, cancel, err := c.callContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	return c.ethClient.TransactionReceipt(callCtx, txHash)
}
