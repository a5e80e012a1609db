package service

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"allowance_manager/internal/app/port"
	"allowance_manager/internal/domain/entity"
	"allowance_manager/internal/pkg/metrics"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var metadataMethods = []string{"symbol", "name", "decimals"}

// tokenMetadataServiceImpl implements port.TokenMetadataResolver.
type tokenMetadataServiceImpl struct {
	erc20   abi.ABI
	logger  port.Logger
	metrics *metrics.Metrics
}

// NewTokenMetadataService creates a resolver that reads symbol, name and decimals in one batch.
func NewTokenMetadataService(erc20 abi.ABI, l port.Logger, m *metrics.Metrics) port.TokenMetadataResolver {
	return &tokenMetadataServiceImpl{erc20: erc20, logger: l, metrics: m}
}

// Resolve fails as a whole if any of the three reads fails. Nothing is cached.
func (s *tokenMetadataServiceImpl) Resolve(ctx context.Context, client port.ChainClient, token entity.DecodedToken) (entity.ResolvedToken, error) {
	chain := client.Definition().Name

	calls := make([]entity.ContractCall, len(metadataMethods))
	for i, method := range metadataMethods {
		data, err := s.erc20.Pack(method)
		if err != nil {
			return entity.ResolvedToken{}, fmt.Errorf("failed to pack %s: %w", method, err)
		}
		calls[i] = entity.ContractCall{To: token.Address, Data: data}
	}

	results, err := client.BatchCallContract(ctx, calls)
	if err != nil {
		s.metrics.IncMetadata(string(chain), "error")
		return entity.ResolvedToken{}, &entity.RPCError{Chain: chain, Target: token.Address, Method: "metadata batch", Err: err}
	}
	if len(results) != len(calls) {
		s.metrics.IncMetadata(string(chain), "error")
		return entity.ResolvedToken{}, &entity.RPCError{Chain: chain, Target: token.Address, Method: "metadata batch",
			Err: fmt.Errorf("expected %d results, got %d", len(calls), len(results))}
	}

	var meta entity.TokenMetadata
	for i, method := range metadataMethods {
		if err := s.decode(method, results[i], &meta); err != nil {
			s.metrics.IncMetadata(string(chain), "error")
			s.logger.Debug("Token metadata read failed", "chain", chain, "token", token.Address, "method", method, "error", err)
			return entity.ResolvedToken{}, &entity.RPCError{Chain: chain, Target: token.Address, Method: method, Err: err}
		}
	}

	s.metrics.IncMetadata(string(chain), "ok")
	return entity.ResolvedToken{
		LineNumber: token.LineNumber,
		Chain:      token.Chain,
		Spec:       token.Spec,
		Address:    token.Address,
		Symbol:     meta.Symbol,
		Name:       meta.Name,
		Decimals:   meta.Decimals,
	}, nil
}

func (s *tokenMetadataServiceImpl) decode(method string, res entity.ContractCallResult, meta *entity.TokenMetadata) error {
	if res.Error != nil {
		return res.Error
	}
	if len(res.Data) == 0 {
		return fmt.Errorf("empty result, not a token contract")
	}

	switch method {
	case "symbol", "name":
		str, err := s.unpackString(method, res.Data)
		if err != nil {
			return err
		}
		if method == "symbol" {
			meta.Symbol = str
		} else {
			meta.Name = str
		}
	case "decimals":
		out, err := s.erc20.Unpack(method, res.Data)
		if err != nil {
			return fmt.Errorf("failed to unpack decimals: %w", err)
		}
		switch v := out[0].(type) {
		case uint8:
			meta.Decimals = v
		case *big.Int:
			if !v.IsUint64() || v.Uint64() > 255 {
				return fmt.Errorf("decimals %s out of range", v)
			}
			meta.Decimals = uint8(v.Uint64())
		default:
			return fmt.Errorf("unexpected decimals type %T", out[0])
		}
	}
	return nil
}

// unpackString also accepts the bytes32 encoding some older tokens use.
func (s *tokenMetadataServiceImpl) unpackString(method string, data []byte) (string, error) {
	out, err := s.erc20.Unpack(method, data)
	if err == nil {
		if str, ok := out[0].(string); ok {
			return str, nil
		}
	}
	if len(data) == 32 {
		return string(bytes.TrimRight(data, "\x00")), nil
	}
	if err == nil {
		err = fmt.Errorf("unexpected %s type %T", method, out[0])
	}
	return "", fmt.Errorf("failed to unpack %s: %w", method, err)
}
