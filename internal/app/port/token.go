package port

import (
	"context"
	"math/big"

	"allowance_manager/internal/domain/entity"
)

// TokenProvider reads and decodes the encoded token list.
type TokenProvider interface {
	LoadTokens() (entity.TokenBatch, error)
}

// TokenMetadataResolver fetches symbol, name and decimals for a decoded token.
type TokenMetadataResolver interface {
	Resolve(ctx context.Context, client ChainClient, token entity.DecodedToken) (entity.ResolvedToken, error)
}

// AllowanceChecker reads allowance(owner, spender) on a token.
type AllowanceChecker interface {
	Allowance(ctx context.Context, client ChainClient, token, owner, spender string) (*big.Int, error)
}

// ApprovalSubmitter builds, signs, broadcasts and confirms an approval transaction.
type ApprovalSubmitter interface {
	Approve(ctx context.Context, client ChainClient, req entity.ApprovalRequest) (entity.ApprovalReceipt, error)
}
