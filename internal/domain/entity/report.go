package entity

import "time"

// RunMode selects how far the pipeline goes for each token.
type RunMode string

const (
	ModeList    RunMode = "list"
	ModeCheck   RunMode = "check"
	ModeApprove RunMode = "approve"
)

// SkippedLine is an input line with a token spec this tool does not handle.
type SkippedLine struct {
	LineNumber int    `json:"lineNumber"`
	Line       string `json:"line"`
}

// LineFailure is a per-line or per-token failure recorded in the report.
type LineFailure struct {
	LineNumber int       `json:"lineNumber"`
	Chain      ChainName `json:"chain,omitempty"`
	Spec       string    `json:"spec,omitempty"`
	Stage      string    `json:"stage"`
	Message    string    `json:"message"`
}

// TokenBatch is the decoded content of an input file.
type TokenBatch struct {
	TotalLines int
	Tokens     []DecodedToken
	Skipped    []SkippedLine
	Failures   []LineFailure
}

// ReportStats summarizes a run.
type ReportStats struct {
	TotalLines         int `json:"totalLines"`
	Decoded            int `json:"decoded"`
	Skipped            int `json:"skipped"`
	DecodeFailures     int `json:"decodeFailures"`
	Resolved           int `json:"resolved"`
	ResolveFailures    int `json:"resolveFailures"`
	ApprovalsSubmitted int `json:"approvalsSubmitted"`
	ApprovalFailures   int `json:"approvalFailures"`
}

// Report is the output of one orchestrator run.
type Report struct {
	Mode        RunMode            `json:"mode"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Tokens      []ResolvedToken    `json:"tokens"`
	Approvals   []ApprovalLogEntry `json:"approvals,omitempty"`
	Receipts    []ApprovalReceipt  `json:"receipts,omitempty"`
	Skipped     []SkippedLine      `json:"skipped,omitempty"`
	Failures    []LineFailure      `json:"failures,omitempty"`
	Stats       ReportStats        `json:"stats"`
}
