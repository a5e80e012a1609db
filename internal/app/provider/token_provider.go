package provider

import (
	"allowance_manager/internal/app/port"
	"allowance_manager/internal/domain/entity"
	"allowance_manager/internal/domain/tokenid"
	"allowance_manager/internal/infrastructure/tokenloader"
)

type tokenProviderImpl struct {
	inputPath string
	registry  port.ChainRegistry
	logger    port.Logger
	cache     *entity.TokenBatch
}

// NewTokenProvider creates a TokenProvider that decodes the input file against the
// chains in registry.
func NewTokenProvider(inputPath string, registry port.ChainRegistry, logger port.Logger) port.TokenProvider {
	return &tokenProviderImpl{
		inputPath: inputPath,
		registry:  registry,
		logger:    logger,
	}
}

// LoadTokens decodes the input file. The result is cached after the first successful load.
func (p *tokenProviderImpl) LoadTokens() (entity.TokenBatch, error) {
	if p.cache != nil {
		p.logger.Debug("Returning cached token batch")
		return *p.cache, nil
	}

	p.logger.Debug("Loading token list from disk", "path", p.inputPath)
	loader := tokenloader.NewTokenLoader(p.inputPath, tokenid.NewDecoder(p.registry.Has), p.logger.Info, p.logger.Warn)
	batch, err := loader.LoadTokens()
	if err != nil {
		p.logger.Error("Failed to load token list", "path", p.inputPath, "error", err)
		return entity.TokenBatch{}, err
	}

	p.cache = &batch
	return batch, nil
}
