package port

import (
	"context"
	"math/big"

	"allowance_manager/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainClient is the JSON-RPC capability of one EVM chain.
type ChainClient interface {
	// Definition returns the chain definition the client was built for.
	Definition() entity.ChainDefinition

	// ChainID returns the chain id reported by the node.
	ChainID(ctx context.Context) (*big.Int, error)

	// CallContract runs a read-only eth_call against the latest block.
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)

	// BatchCallContract runs several eth_calls in one JSON-RPC batch.
	// The returned error is set only when the batch itself failed.
	BatchCallContract(ctx context.Context, calls []entity.ContractCall) ([]entity.ContractCallResult, error)

	NonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error

	// TransactionReceipt returns ethereum.NotFound while the transaction is pending.
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// ChainRegistry maps a chain name to its client. Clients are built once at startup.
type ChainRegistry interface {
	Resolve(name entity.ChainName) (ChainClient, error)
	Has(name entity.ChainName) bool
	Names() []entity.ChainName
	Close()
}
