package service

import (
	"context"
	"fmt"
	"math/big"

	"allowance_manager/internal/app/port"
	"allowance_manager/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// allowanceServiceImpl implements port.AllowanceChecker.
type allowanceServiceImpl struct {
	erc20 abi.ABI
}

// NewAllowanceService creates an AllowanceChecker backed by erc20's allowance method.
func NewAllowanceService(erc20 abi.ABI) port.AllowanceChecker {
	return &allowanceServiceImpl{erc20: erc20}
}

// Allowance returns allowance(owner, spender). Zero is a valid result.
func (s *allowanceServiceImpl) Allowance(ctx context.Context, client port.ChainClient, token, owner, spender string) (*big.Int, error) {
	chain := client.Definition().Name
	data, err := s.erc20.Pack("allowance", common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, fmt.Errorf("failed to pack allowance: %w", err)
	}

	out, err := client.CallContract(ctx, common.HexToAddress(token), data)
	if err != nil {
		return nil, &entity.RPCError{Chain: chain, Target: token, Method: "allowance", Err: err}
	}
	values, err := s.erc20.Unpack("allowance", out)
	if err != nil {
		return nil, &entity.RPCError{Chain: chain, Target: token, Method: "allowance", Err: fmt.Errorf("failed to unpack: %w", err)}
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, &entity.RPCError{Chain: chain, Target: token, Method: "allowance", Err: fmt.Errorf("unexpected result type %T", values[0])}
	}
	return amount, nil
}
