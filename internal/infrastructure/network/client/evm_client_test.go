package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"allowance_manager/internal/config"
	"allowance_manager/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const revertingContract = "0x000000000000000000000000000000000000dead"

// fakeEth serves the handful of eth_ methods the client uses.
type fakeEth struct {
	nonce uint64
}

func (f *fakeEth) ChainId() *hexutil.Big {
	return (*hexutil.Big)(hexutil.MustDecodeBig("0x504"))
}

func (f *fakeEth) GetTransactionCount(addr common.Address, block string) hexutil.Uint64 {
	return hexutil.Uint64(f.nonce)
}

// Call echoes the call data back, or reverts for revertingContract.
func (f *fakeEth) Call(args map[string]interface{}, block string) (hexutil.Bytes, error) {
	to, _ := args["to"].(string)
	if strings.EqualFold(to, revertingContract) {
		return nil, errors.New("execution reverted")
	}
	data, ok := args["input"].(string)
	if !ok {
		data, _ = args["data"].(string)
	}
	if data == "" {
		return hexutil.Bytes{}, nil
	}
	return hexutil.Decode(data)
}

func newFakeNode(t *testing.T, svc *fakeEth) *httptest.Server {
	t.Helper()
	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", svc))
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})
	return ts
}

func newTestClient(t *testing.T, url string, limiter *rate.Limiter) *EVMClient {
	t.Helper()
	def := entity.ChainDefinition{Name: "moonbeam", ChainID: 1284, RPCURL: url}
	c, err := NewEVMClient(def, time.Second, 2*time.Second, limiter)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestEVMClient_ChainIDAndNonce(t *testing.T) {
	ts := newFakeNode(t, &fakeEth{nonce: 7})
	c := newTestClient(t, ts.URL, nil)

	id, err := c.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1284), id.Int64())

	nonce, err := c.NonceAt(context.Background(), common.HexToAddress("0x05a81d8564a3eA298660e34e03E5Eff9a29d7a2A"))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), nonce)
}

func TestEVMClient_CallContract(t *testing.T) {
	ts := newFakeNode(t, &fakeEth{})
	c := newTestClient(t, ts.URL, nil)

	out, err := c.CallContract(context.Background(), common.HexToAddress("0x01"), []byte{0x06, 0xfd, 0xde, 0x03})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x06, 0xfd, 0xde, 0x03}, out)
}

func TestEVMClient_BatchCallContract(t *testing.T) {
	ts := newFakeNode(t, &fakeEth{})
	c := newTestClient(t, ts.URL, nil)

	calls := []entity.ContractCall{
		{To: "0x0000000000000000000000000000000000000001", Data: []byte{0x01}},
		{To: revertingContract, Data: []byte{0x02}},
		{To: "0x0000000000000000000000000000000000000003", Data: []byte{0x03}},
	}
	results, err := c.BatchCallContract(context.Background(), calls)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Error)
	assert.Equal(t, []byte{0x01}, results[0].Data)
	assert.Error(t, results[1].Error)
	assert.NoError(t, results[2].Error)
	assert.Equal(t, []byte{0x03}, results[2].Data)
}

func TestEVMClient_BatchCallContractEmpty(t *testing.T) {
	ts := newFakeNode(t, &fakeEth{})
	c := newTestClient(t, ts.URL, nil)

	results, err := c.BatchCallContract(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEVMClient_LimiterBoundsCalls(t *testing.T) {
	ts := newFakeNode(t, &fakeEth{})
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	c := newTestClient(t, ts.URL, limiter)

	_, err := c.ChainID(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.ChainID(ctx)
	assert.Error(t, err)
}

func TestEVMClientProvider_Registry(t *testing.T) {
	ts := newFakeNode(t, &fakeEth{})
	cfg := &config.Config{
		Performance: config.PerformanceConfig{RPCCallTimeoutSeconds: 2, ConnectionTimeoutSeconds: 1},
		Networks: []config.NetworkNode{
			{Name: "moonbeam", Endpoint: ts.URL, LimiterPeriod: "10ms", LimiterBurst: 2},
		},
	}
	defs := []entity.ChainDefinition{
		{Name: "moonbeam", ChainID: 1284, RPCURL: ts.URL},
		{Name: "astar", ChainID: 592, RPCURL: ts.URL},
	}
	noop := func(string, ...any) {}

	reg, err := NewEVMClientProvider(defs, cfg, noop, noop)
	require.NoError(t, err)
	defer reg.Close()

	assert.Equal(t, []entity.ChainName{"astar", "moonbeam"}, reg.Names())
	assert.True(t, reg.Has("moonbeam"))
	assert.False(t, reg.Has("polygon"))

	c, err := reg.Resolve("astar")
	require.NoError(t, err)
	assert.Equal(t, uint64(592), c.Definition().ChainID)

	_, err = reg.Resolve("polygon")
	assert.ErrorIs(t, err, entity.ErrUnknownChain)
}

func TestEVMClientProvider_InvalidLimiter(t *testing.T) {
	cfg := &config.Config{
		Performance: config.PerformanceConfig{RPCCallTimeoutSeconds: 1, ConnectionTimeoutSeconds: 1},
		Networks:    []config.NetworkNode{{Name: "moonbeam", LimiterPeriod: "often"}},
	}
	defs := []entity.ChainDefinition{{Name: "moonbeam", RPCURL: "http://127.0.0.1:1"}}
	noop := func(string, ...any) {}

	_, err := NewEVMClientProvider(defs, cfg, noop, noop)
	assert.Error(t, err)
}
