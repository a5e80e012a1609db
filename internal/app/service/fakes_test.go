package service

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync"

	"allowance_manager/internal/domain/entity"
	"allowance_manager/internal/infrastructure/abiloader"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	escrowAddr   = "0x05a81d8564a3eA298660e34e03E5Eff9a29d7a2A"
	stellaRouter = "0x70085a09d30d6f8c4ecf6ee10120d1847383bb57"
	beamRouter   = "0x96b244391d98b62d19ae89b1a4dccf0fc56970c7"
)

var testABI = abiloader.Default()

type fakeToken struct {
	symbol   string
	name     string
	decimals uint8
	// failDecimals makes only the decimals read revert.
	failDecimals bool
}

// fakeChain is an in-memory chain holding ERC-20 metadata and allowances for one owner.
type fakeChain struct {
	mu         sync.Mutex
	def        entity.ChainDefinition
	tokens     map[common.Address]fakeToken
	allowances map[[2]common.Address]*big.Int
	receipts   map[common.Hash]*types.Receipt
	nonce      uint64

	sendErr    error
	revert     bool
	noReceipt  bool
	callErr    error
	sent       []*types.Transaction
	checkCalls int
	batchCalls int
	nonceCalls int
}

func newFakeChain(name entity.ChainName, chainID uint64) *fakeChain {
	return &fakeChain{
		def:        entity.ChainDefinition{Name: name, ChainID: chainID},
		tokens:     make(map[common.Address]fakeToken),
		allowances: make(map[[2]common.Address]*big.Int),
		receipts:   make(map[common.Hash]*types.Receipt),
	}
}

func (f *fakeChain) addToken(addr string, tok fakeToken) {
	f.tokens[common.HexToAddress(addr)] = tok
}

func (f *fakeChain) setAllowance(token, spender string, amount *big.Int) {
	f.allowances[[2]common.Address{common.HexToAddress(token), common.HexToAddress(spender)}] = amount
}

func (f *fakeChain) allowance(token, spender common.Address) *big.Int {
	if a, ok := f.allowances[[2]common.Address{token, spender}]; ok {
		return a
	}
	return big.NewInt(0)
}

func (f *fakeChain) Definition() entity.ChainDefinition { return f.def }

func (f *fakeChain) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).SetUint64(f.def.ChainID), nil
}

func (f *fakeChain) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkCalls++
	if f.callErr != nil {
		return nil, f.callErr
	}
	method, err := testABI.MethodById(data[:4])
	if err != nil || method.Name != "allowance" {
		return nil, errors.New("execution reverted")
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(f.allowance(to, args[1].(common.Address)))
}

func (f *fakeChain) BatchCallContract(ctx context.Context, calls []entity.ContractCall) ([]entity.ContractCallResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	out := make([]entity.ContractCallResult, len(calls))
	for i, call := range calls {
		tok, ok := f.tokens[common.HexToAddress(call.To)]
		if !ok {
			out[i].Error = errors.New("execution reverted")
			continue
		}
		method, err := testABI.MethodById(call.Data[:4])
		if err != nil {
			out[i].Error = err
			continue
		}
		switch method.Name {
		case "symbol":
			out[i].Data, out[i].Error = method.Outputs.Pack(tok.symbol)
		case "name":
			out[i].Data, out[i].Error = method.Outputs.Pack(tok.name)
		case "decimals":
			if tok.failDecimals {
				out[i].Error = errors.New("execution reverted")
				continue
			}
			out[i].Data, out[i].Error = method.Outputs.Pack(tok.decimals)
		default:
			out[i].Error = errors.New("unexpected method " + method.Name)
		}
	}
	return out, nil
}

func (f *fakeChain) NonceAt(ctx context.Context, account common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonceCalls++
	return f.nonce, nil
}

func (f *fakeChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(100_000_000_000), nil
}

func (f *fakeChain) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return 46_000, nil
}

func (f *fakeChain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	if tx.Nonce() != f.nonce {
		return errors.New("nonce too low")
	}
	method, err := testABI.MethodById(tx.Data()[:4])
	if err != nil || method.Name != "approve" {
		return errors.New("unexpected transaction")
	}
	args, err := method.Inputs.Unpack(tx.Data()[4:])
	if err != nil {
		return err
	}

	f.sent = append(f.sent, tx)
	f.nonce++
	status := types.ReceiptStatusSuccessful
	if f.revert {
		status = types.ReceiptStatusFailed
	} else {
		f.allowances[[2]common.Address{*tx.To(), args[0].(common.Address)}] = args[1].(*big.Int)
	}
	if !f.noReceipt {
		f.receipts[tx.Hash()] = &types.Receipt{Status: status, BlockNumber: big.NewInt(4_200_000), GasUsed: 46_000, TxHash: tx.Hash()}
	}
	return nil
}

func (f *fakeChain) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.receipts[hash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (f *fakeChain) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// fakeSigner returns the transaction unchanged, or err if set.
type fakeSigner struct {
	addr common.Address
	err  error
}

func (s *fakeSigner) Address() common.Address { return s.addr }

func (s *fakeSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return tx, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func approveArgs(tx *types.Transaction) (common.Address, *big.Int) {
	method := testABI.Methods["approve"]
	if !bytes.Equal(tx.Data()[:4], method.ID) {
		return common.Address{}, nil
	}
	args, err := method.Inputs.Unpack(tx.Data()[4:])
	if err != nil {
		return common.Address{}, nil
	}
	return args[0].(common.Address), args[1].(*big.Int)
}
