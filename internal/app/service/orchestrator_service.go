package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"allowance_manager/internal/app/port"
	"allowance_manager/internal/domain/entity"
	"allowance_manager/internal/pkg/metrics"
	"allowance_manager/internal/pkg/utils"

	"golang.org/x/sync/errgroup"
)

// OrchestratorConfig carries the run settings the orchestrator needs.
type OrchestratorConfig struct {
	Mode                  entity.RunMode
	Escrow                string
	MaxConcurrentRoutines int
	Routers               map[entity.ChainName][]entity.Router
}

// allowanceOrchestratorImpl implements port.AllowanceOrchestrator.
type allowanceOrchestratorImpl struct {
	registry  port.ChainRegistry
	resolver  port.TokenMetadataResolver
	checker   port.AllowanceChecker
	submitter port.ApprovalSubmitter
	cfg       OrchestratorConfig
	logger    port.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewAllowanceOrchestrator wires the workflow. submitter may be nil unless cfg.Mode is approve.
func NewAllowanceOrchestrator(
	registry port.ChainRegistry,
	resolver port.TokenMetadataResolver,
	checker port.AllowanceChecker,
	submitter port.ApprovalSubmitter,
	cfg OrchestratorConfig,
	l port.Logger,
	m *metrics.Metrics,
) port.AllowanceOrchestrator {
	if cfg.MaxConcurrentRoutines <= 0 {
		cfg.MaxConcurrentRoutines = 1
	}
	return &allowanceOrchestratorImpl{
		registry:  registry,
		resolver:  resolver,
		checker:   checker,
		submitter: submitter,
		cfg:       cfg,
		logger:    l,
		metrics:   m,
		now:       time.Now,
	}
}

// chainResult is everything one chain contributes to the report.
type chainResult struct {
	tokens    []entity.ResolvedToken
	failures  []entity.LineFailure
	approvals []entity.ApprovalLogEntry
	receipts  []entity.ApprovalReceipt
	submitted int
	failed    int
}

// Run processes every chain of batch independently and in parallel. Within a chain,
// metadata reads run with bounded concurrency while allowance checks and approvals
// run one at a time. Only a fatal credential error stops the run; the partial report
// is still returned alongside it.
func (s *allowanceOrchestratorImpl) Run(ctx context.Context, batch entity.TokenBatch) (*entity.Report, error) {
	report := &entity.Report{
		Mode:        s.cfg.Mode,
		GeneratedAt: s.now().UTC(),
		Tokens:      []entity.ResolvedToken{},
		Skipped:     batch.Skipped,
		Failures:    append([]entity.LineFailure(nil), batch.Failures...),
		Stats: entity.ReportStats{
			TotalLines:     batch.TotalLines,
			Decoded:        len(batch.Tokens),
			Skipped:        len(batch.Skipped),
			DecodeFailures: len(batch.Failures),
		},
	}
	for range batch.Tokens {
		s.metrics.IncLine("decoded")
	}
	for range batch.Skipped {
		s.metrics.IncLine("skipped")
	}
	for range batch.Failures {
		s.metrics.IncLine("failed")
	}

	byChain := make(map[entity.ChainName][]entity.DecodedToken)
	for _, t := range batch.Tokens {
		byChain[t.Chain] = append(byChain[t.Chain], t)
	}
	chains := make([]entity.ChainName, 0, len(byChain))
	for c := range byChain {
		chains = append(chains, c)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })

	s.logger.Info("Starting allowance run", "mode", s.cfg.Mode, "chains", len(chains), "tokens", len(batch.Tokens))

	results := make([]chainResult, len(chains))
	g, gctx := errgroup.WithContext(ctx)
	for i, chain := range chains {
		g.Go(func() error {
			res, err := s.processChain(gctx, chain, byChain[chain])
			results[i] = res
			return err
		})
	}
	runErr := g.Wait()

	for _, res := range results {
		report.Tokens = append(report.Tokens, res.tokens...)
		report.Failures = append(report.Failures, res.failures...)
		report.Approvals = append(report.Approvals, res.approvals...)
		report.Receipts = append(report.Receipts, res.receipts...)
		report.Stats.ApprovalsSubmitted += res.submitted
		report.Stats.ApprovalFailures += res.failed
	}
	sort.SliceStable(report.Tokens, func(i, j int) bool { return report.Tokens[i].LineNumber < report.Tokens[j].LineNumber })
	sort.SliceStable(report.Failures, func(i, j int) bool { return report.Failures[i].LineNumber < report.Failures[j].LineNumber })
	report.Stats.Resolved = len(report.Tokens)
	report.Stats.ResolveFailures = len(report.Failures) - len(batch.Failures)

	if runErr != nil {
		s.logger.Error("Allowance run aborted", "error", runErr)
		return report, runErr
	}
	s.logger.Info("Allowance run finished", "resolved", report.Stats.Resolved, "resolve_failures", report.Stats.ResolveFailures,
		"approvals_submitted", report.Stats.ApprovalsSubmitted, "approval_failures", report.Stats.ApprovalFailures)
	return report, nil
}

func (s *allowanceOrchestratorImpl) processChain(ctx context.Context, chain entity.ChainName, tokens []entity.DecodedToken) (chainResult, error) {
	var res chainResult

	client, err := s.registry.Resolve(chain)
	if err != nil {
		for _, t := range tokens {
			res.failures = append(res.failures, tokenFailure(t, "resolve", err))
		}
		return res, nil
	}

	unique, lineIndex := dedupeTokens(tokens)
	resolved, errs := s.resolveMetadata(ctx, client, unique)
	for i, t := range tokens {
		u := lineIndex[i]
		if errs[u] != nil {
			res.failures = append(res.failures, tokenFailure(t, "metadata", errs[u]))
			continue
		}
		rt := resolved[u]
		rt.LineNumber, rt.Spec, rt.Address = t.LineNumber, t.Spec, t.Address
		res.tokens = append(res.tokens, rt)
	}
	if s.cfg.Mode == entity.ModeList {
		return res, nil
	}

	routers := s.cfg.Routers[chain]
	if len(routers) == 0 {
		s.logger.Debug("No routers configured, metadata only", "chain", chain)
		return res, nil
	}

	for u, token := range resolved {
		if errs[u] != nil {
			continue
		}
		for _, router := range routers {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if err := s.checkAndApprove(ctx, client, token, router, &res); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

// dedupeTokens keeps the first line of each contract address. lineIndex maps every
// input position to its entry in unique.
func dedupeTokens(tokens []entity.DecodedToken) (unique []entity.DecodedToken, lineIndex []int) {
	seen := make(map[string]int, len(tokens))
	lineIndex = make([]int, len(tokens))
	for i, t := range tokens {
		key := strings.ToLower(t.Address)
		u, ok := seen[key]
		if !ok {
			u = len(unique)
			seen[key] = u
			unique = append(unique, t)
		}
		lineIndex[i] = u
	}
	return unique, lineIndex
}

// resolveMetadata returns one result per token, in input order. Either the token or its error is set.
func (s *allowanceOrchestratorImpl) resolveMetadata(ctx context.Context, client port.ChainClient, tokens []entity.DecodedToken) ([]entity.ResolvedToken, []error) {
	resolved := make([]entity.ResolvedToken, len(tokens))
	errs := make([]error, len(tokens))

	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrentRoutines)
	for i, token := range tokens {
		g.Go(func() error {
			rt, err := s.resolver.Resolve(ctx, client, token)
			if err != nil {
				s.logger.Warn("Failed to resolve token metadata", "chain", token.Chain, "token", token.Address,
					"line_number", token.LineNumber, "error", err)
				errs[i] = err
				return nil
			}
			resolved[i] = rt
			return nil
		})
	}
	_ = g.Wait()
	return resolved, errs
}

// checkAndApprove handles one (token, router) pair. Only zero allowance triggers an approval.
func (s *allowanceOrchestratorImpl) checkAndApprove(
	ctx context.Context,
	client port.ChainClient,
	token entity.ResolvedToken,
	router entity.Router,
	res *chainResult,
) error {
	entry := entity.ApprovalLogEntry{
		Chain:        token.Chain,
		Token:        token.Address,
		TokenSymbol:  token.Symbol,
		Spender:      router.Address,
		SpenderLabel: router.Label,
	}
	chain := string(token.Chain)

	amount, err := s.checker.Allowance(ctx, client, token.Address, s.cfg.Escrow, router.Address)
	if err != nil {
		s.metrics.IncCheck(chain, "error")
		s.logger.Warn("Allowance check failed", "chain", chain, "token", token.Address, "router", router.Label, "error", err)
		entry.Decision = entity.DecisionCheckFailed
		entry.Error = err.Error()
		res.approvals = append(res.approvals, entry)
		return nil
	}
	entry.Allowance = amount.String()
	entry.Formatted = utils.FormatAllowance(amount, token.Decimals)

	record := entity.AllowanceRecord{Chain: token.Chain, Token: token.Address, Owner: s.cfg.Escrow, Spender: router.Address, Amount: amount}
	if !record.IsZero() {
		s.metrics.IncCheck(chain, "approved")
		s.logger.Debug("Allowance already set", "chain", chain, "token", token.Symbol, "router", router.Label, "allowance", entry.Formatted)
		entry.Decision = entity.DecisionAlreadyApproved
		res.approvals = append(res.approvals, entry)
		return nil
	}
	s.metrics.IncCheck(chain, "zero")

	if s.cfg.Mode != entity.ModeApprove || s.submitter == nil {
		entry.Decision = entity.DecisionNeedsApproval
		res.approvals = append(res.approvals, entry)
		return nil
	}

	s.logger.Info("Allowance is zero, submitting approval", "chain", chain, "token", token.Symbol, "router", router.Label)
	receipt, err := s.submitter.Approve(ctx, client, entity.ApprovalRequest{
		Chain:   token.Chain,
		Token:   token.Address,
		Owner:   s.cfg.Escrow,
		Spender: router.Address,
		Amount:  entity.MaxUint256,
	})
	if err != nil {
		entry.Decision = entity.DecisionSubmitFailed
		entry.Error = err.Error()
		res.approvals = append(res.approvals, entry)
		res.failed++
		if entity.IsFatal(err) {
			return err
		}
		var subErr *entity.SubmissionError
		if errors.As(err, &subErr) && subErr.Stage == StageConfirm {
			// the transaction was broadcast, only the wait failed
			res.submitted++
		}
		s.logger.Error("Approval submission failed", "chain", chain, "token", token.Address, "router", router.Label, "error", err)
		return nil
	}

	res.submitted++
	res.receipts = append(res.receipts, receipt)
	entry.TxHash = receipt.TxHash
	if receipt.Success {
		entry.Decision = entity.DecisionApproved
	} else {
		entry.Decision = entity.DecisionReverted
		res.failed++
	}
	res.approvals = append(res.approvals, entry)
	return nil
}

func tokenFailure(t entity.DecodedToken, stage string, err error) entity.LineFailure {
	return entity.LineFailure{
		LineNumber: t.LineNumber,
		Chain:      t.Chain,
		Spec:       t.Spec,
		Stage:      stage,
		Message:    err.Error(),
	}
}
