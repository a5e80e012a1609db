package walletloader

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"
	"sync"

	"allowance_manager/internal/app/port"
	"allowance_manager/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyHolder owns the escrow signing key for the duration of a run.
// The key never leaves the holder; callers only get the address and signed transactions.
type KeyHolder struct {
	mu      sync.Mutex
	key     *ecdsa.PrivateKey
	address common.Address
}

var _ port.TransactionSigner = (*KeyHolder)(nil)

// LoadEscrowKey reads a hex private key from the environment variable envName.
// When expectedAddress is set, the key must derive to it.
func LoadEscrowKey(envName, expectedAddress string, loggerInfo func(msg string, args ...any)) (*KeyHolder, error) {
	raw, ok := os.LookupEnv(envName)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, &entity.FatalCredentialError{Err: fmt.Errorf("environment variable %s is not set", envName)}
	}
	h, err := NewKeyHolder(raw)
	if err != nil {
		return nil, err
	}
	if expectedAddress != "" && h.Address() != common.HexToAddress(expectedAddress) {
		h.Release()
		return nil, &entity.FatalCredentialError{Err: fmt.Errorf("key from %s does not match escrow address %s", envName, expectedAddress)}
	}
	if loggerInfo != nil {
		loggerInfo("Escrow signing key loaded", "env", envName, "address", h.Address().Hex())
	}
	return h, nil
}

// NewKeyHolder parses a hex encoded secp256k1 key, with or without 0x.
func NewKeyHolder(hexKey string) (*KeyHolder, error) {
	h := strings.TrimSpace(hexKey)
	h = strings.TrimPrefix(strings.TrimPrefix(h, "0x"), "0X")
	if h == "" {
		return nil, &entity.FatalCredentialError{Err: errors.New("empty private key")}
	}
	key, err := crypto.HexToECDSA(h)
	if err != nil {
		// decode errors can quote key characters, so only the length is reported
		return nil, &entity.FatalCredentialError{Err: fmt.Errorf("invalid private key (%d hex chars)", len(h))}
	}
	return &KeyHolder{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Address returns the account the key signs for.
func (h *KeyHolder) Address() common.Address {
	return h.address
}

// SignTx signs tx for chainID with the latest signer for that chain.
func (h *KeyHolder) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.key == nil {
		return nil, &entity.FatalCredentialError{Err: entity.ErrKeyReleased}
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), h.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}

// Release wipes the private scalar in place and drops the key. Later SignTx calls fail.
func (h *KeyHolder) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.key == nil {
		return
	}
	// SetInt64(0) only truncates the slice, the words behind it must be cleared.
	clear(h.key.D.Bits())
	h.key.D.SetInt64(0)
	h.key = nil
}

// String and LogValue only expose the address.
func (h *KeyHolder) String() string {
	return "escrow(" + h.address.Hex() + ")"
}

func (h *KeyHolder) LogValue() slog.Value {
	return slog.StringValue(h.address.Hex())
}
