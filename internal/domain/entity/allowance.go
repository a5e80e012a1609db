package entity

import "math/big"

// MaxUint256 is the "infinite" approval amount, 2^256 - 1.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// AllowanceRecord is a single allowance read.
type AllowanceRecord struct {
	Chain   ChainName
	Token   string
	Owner   string
	Spender string
	Amount  *big.Int
}

// IsZero reports whether the spender has not been approved yet.
func (r AllowanceRecord) IsZero() bool {
	return r.Amount == nil || r.Amount.Sign() == 0
}

// ApprovalRequest describes one approve(spender, amount) transaction to submit.
type ApprovalRequest struct {
	Chain   ChainName
	Token   string
	Owner   string
	Spender string
	Amount  *big.Int
}

// ApprovalReceipt is the outcome of a confirmed approval transaction.
type ApprovalReceipt struct {
	Chain       ChainName `json:"chain"`
	Token       string    `json:"token"`
	Spender     string    `json:"spender"`
	Nonce       uint64    `json:"nonce"`
	TxHash      string    `json:"txHash"`
	BlockNumber uint64    `json:"blockNumber"`
	GasUsed     uint64    `json:"gasUsed"`
	Success     bool      `json:"success"`
}

// ApprovalDecision is what the orchestrator did for one (token, router) pair.
type ApprovalDecision string

const (
	DecisionAlreadyApproved ApprovalDecision = "already_approved"
	DecisionNeedsApproval   ApprovalDecision = "needs_approval"
	DecisionApproved        ApprovalDecision = "approved"
	DecisionReverted        ApprovalDecision = "reverted"
	DecisionCheckFailed     ApprovalDecision = "check_failed"
	DecisionSubmitFailed    ApprovalDecision = "submit_failed"
)

// ApprovalLogEntry is one line of the approval log in the report.
type ApprovalLogEntry struct {
	Chain        ChainName        `json:"chain"`
	Token        string           `json:"token"`
	TokenSymbol  string           `json:"tokenSymbol"`
	Spender      string           `json:"spender"`
	SpenderLabel string           `json:"spenderLabel"`
	Allowance    string           `json:"allowance,omitempty"`
	Formatted    string           `json:"allowanceFormatted,omitempty"`
	Decision     ApprovalDecision `json:"decision"`
	TxHash       string           `json:"txHash,omitempty"`
	Error        string           `json:"error,omitempty"`
}
