package walletloader

import (
	"fmt"
	"math/big"
	"strings"
	"testing"

	"allowance_manager/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known test key, never funded.
const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func testAddress(t *testing.T) common.Address {
	t.Helper()
	k, err := crypto.HexToECDSA(testKey)
	require.NoError(t, err)
	return crypto.PubkeyToAddress(k.PublicKey)
}

func TestNewKeyHolder(t *testing.T) {
	h, err := NewKeyHolder("0x" + testKey)
	require.NoError(t, err)
	assert.Equal(t, testAddress(t), h.Address())

	_, err = NewKeyHolder("  ")
	assert.True(t, entity.IsFatal(err))

	_, err = NewKeyHolder("zz")
	assert.True(t, entity.IsFatal(err))
}

func TestKeyHolder_SignTx(t *testing.T) {
	h, err := NewKeyHolder(testKey)
	require.NoError(t, err)

	to := common.HexToAddress("0x70085a09d30d6f8c4ecf6ee10120d1847383bb57")
	tx := types.NewTx(&types.LegacyTx{Nonce: 3, To: &to, Gas: 50000, GasPrice: big.NewInt(1), Value: big.NewInt(0)})
	chainID := big.NewInt(1284)

	signed, err := h.SignTx(tx, chainID)
	require.NoError(t, err)
	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, h.Address(), sender)
}

func TestKeyHolder_Release(t *testing.T) {
	h, err := NewKeyHolder(testKey)
	require.NoError(t, err)
	h.Release()
	h.Release()

	to := common.HexToAddress("0x01")
	tx := types.NewTx(&types.LegacyTx{To: &to, Gas: 21000, GasPrice: big.NewInt(1)})
	_, err = h.SignTx(tx, big.NewInt(592))
	assert.True(t, entity.IsFatal(err))
	assert.ErrorIs(t, err, entity.ErrKeyReleased)
}

func TestKeyHolder_ReleaseWipesScalar(t *testing.T) {
	h, err := NewKeyHolder(testKey)
	require.NoError(t, err)
	words := h.key.D.Bits()
	require.NotEmpty(t, words)

	h.Release()

	for i, w := range words {
		assert.Zerof(t, w, "word %d still set", i)
	}
	assert.Nil(t, h.key)
}

func TestKeyHolder_NeverFormatsKey(t *testing.T) {
	h, err := NewKeyHolder(testKey)
	require.NoError(t, err)

	for _, s := range []string{fmt.Sprint(h), fmt.Sprintf("%v", h), fmt.Sprintf("%s", h), h.LogValue().String()} {
		assert.NotContains(t, strings.ToLower(s), testKey)
	}
}

func TestLoadEscrowKey(t *testing.T) {
	t.Setenv("TEST_ESCROW_KEY", testKey)

	h, err := LoadEscrowKey("TEST_ESCROW_KEY", testAddress(t).Hex(), nil)
	require.NoError(t, err)
	assert.Equal(t, testAddress(t), h.Address())

	_, err = LoadEscrowKey("TEST_ESCROW_KEY", "0x05a81d8564a3eA298660e34e03E5Eff9a29d7a2A", nil)
	assert.True(t, entity.IsFatal(err))

	_, err = LoadEscrowKey("TEST_ESCROW_KEY_MISSING", "", nil)
	assert.True(t, entity.IsFatal(err))
}
