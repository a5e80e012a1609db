package provider

import (
	"allowance_manager/internal/app/port"
	"allowance_manager/internal/config"
	"allowance_manager/internal/infrastructure/walletloader"
)

// NewEscrowSigner loads the escrow signing key named by cfg.PrivateKeyEnv.
// The caller must Release the returned holder.
func NewEscrowSigner(cfg config.EscrowConfig, logger port.Logger) (*walletloader.KeyHolder, error) {
	logger.Debug("Loading escrow signing key", "env", cfg.PrivateKeyEnv, "escrow", cfg.Address)
	h, err := walletloader.LoadEscrowKey(cfg.PrivateKeyEnv, cfg.Address, logger.Info)
	if err != nil {
		logger.Error("Failed to load escrow signing key", "env", cfg.PrivateKeyEnv, "error", err)
		return nil, err
	}
	return h, nil
}
