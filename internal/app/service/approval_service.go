package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"allowance_manager/internal/app/port"
	"allowance_manager/internal/domain/entity"
	"allowance_manager/internal/pkg/metrics"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Submission stages reported in entity.SubmissionError.
const (
	StageBuild   = "build"
	StageNonce   = "nonce"
	StageGas     = "gas"
	StageSign    = "sign"
	StageSend    = "send"
	StageConfirm = "confirm"
)

// approvalServiceImpl implements port.ApprovalSubmitter.
type approvalServiceImpl struct {
	erc20               abi.ABI
	signer              port.TransactionSigner
	confirmationTimeout time.Duration
	pollInterval        time.Duration
	logger              port.Logger
	metrics             *metrics.Metrics
}

// NewApprovalService creates a submitter that signs with signer and waits at most
// confirmationTimeout for each receipt.
func NewApprovalService(
	erc20 abi.ABI,
	signer port.TransactionSigner,
	confirmationTimeout, pollInterval time.Duration,
	l port.Logger,
	m *metrics.Metrics,
) port.ApprovalSubmitter {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &approvalServiceImpl{
		erc20:               erc20,
		signer:              signer,
		confirmationTimeout: confirmationTimeout,
		pollInterval:        pollInterval,
		logger:              l,
		metrics:             m,
	}
}

// Approve submits approve(spender, amount) from the signer's account and blocks until
// the receipt arrives. A reverted transaction is returned with Success false, not as an error.
// Credential failures come back as *entity.FatalCredentialError; everything else as
// *entity.SubmissionError.
func (s *approvalServiceImpl) Approve(ctx context.Context, client port.ChainClient, req entity.ApprovalRequest) (entity.ApprovalReceipt, error) {
	def := client.Definition()
	fail := func(stage string, err error) (entity.ApprovalReceipt, error) {
		s.metrics.IncApproval(string(def.Name), "error")
		return entity.ApprovalReceipt{}, &entity.SubmissionError{Chain: def.Name, Token: req.Token, Spender: req.Spender, Stage: stage, Err: err}
	}

	owner := s.signer.Address()
	if req.Owner != "" && common.HexToAddress(req.Owner) != owner {
		return entity.ApprovalReceipt{}, &entity.FatalCredentialError{
			Err: fmt.Errorf("signer %s cannot approve for owner %s", owner.Hex(), req.Owner)}
	}

	amount := req.Amount
	if amount == nil {
		amount = entity.MaxUint256
	}
	data, err := s.erc20.Pack("approve", common.HexToAddress(req.Spender), amount)
	if err != nil {
		return fail(StageBuild, err)
	}
	token := common.HexToAddress(req.Token)

	nonce, err := client.NonceAt(ctx, owner)
	if err != nil {
		return fail(StageNonce, err)
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return fail(StageGas, err)
	}
	gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{From: owner, To: &token, Data: data})
	if err != nil {
		return fail(StageGas, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &token,
		Value:    big.NewInt(0),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	chainID := new(big.Int).SetUint64(def.ChainID)
	if def.ChainID == 0 {
		if chainID, err = client.ChainID(ctx); err != nil {
			return fail(StageBuild, err)
		}
	}
	signed, err := s.signer.SignTx(tx, chainID)
	if err != nil {
		if entity.IsFatal(err) {
			s.metrics.IncApproval(string(def.Name), "error")
			return entity.ApprovalReceipt{}, err
		}
		return fail(StageSign, err)
	}

	if err := client.SendTransaction(ctx, signed); err != nil {
		return fail(StageSend, err)
	}
	s.logger.Info("Approval transaction sent", "chain", def.Name, "token", req.Token, "spender", req.Spender,
		"nonce", nonce, "tx", signed.Hash().Hex())

	start := time.Now()
	receipt, err := s.waitMined(ctx, client, signed.Hash())
	if err != nil {
		return fail(StageConfirm, err)
	}
	s.metrics.ObserveConfirmation(string(def.Name), time.Since(start).Seconds())

	out := entity.ApprovalReceipt{
		Chain:   def.Name,
		Token:   req.Token,
		Spender: req.Spender,
		Nonce:   nonce,
		TxHash:  signed.Hash().Hex(),
		GasUsed: receipt.GasUsed,
		Success: receipt.Status == types.ReceiptStatusSuccessful,
	}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if out.Success {
		s.metrics.IncApproval(string(def.Name), "approved")
	} else {
		s.metrics.IncApproval(string(def.Name), "reverted")
		s.logger.Warn("Approval transaction reverted", "chain", def.Name, "token", req.Token, "spender", req.Spender, "tx", out.TxHash)
	}
	return out, nil
}

// waitMined polls for the receipt until it shows up or confirmationTimeout passes.
func (s *approvalServiceImpl) waitMined(ctx context.Context, client port.ChainClient, hash common.Hash) (*types.Receipt, error) {
	if s.confirmationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.confirmationTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		receipt, err := client.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			s.logger.Debug("Receipt poll failed, retrying", "tx", hash.Hex(), "error", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timeout waiting for tx %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
