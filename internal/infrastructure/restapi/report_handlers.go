package restapi

import (
	"net/http"

	"allowance_manager/internal/app/port"
	"allowance_manager/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// APIResponse wraps every payload served by the report API.
type APIResponse struct {
	Data          any    `json:"data,omitempty"`
	StatusMessage string `json:"status_message"`
}

// ReportHandler serves the latest run report.
type ReportHandler struct {
	repo port.ReportRepository
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(repo port.ReportRepository) *ReportHandler {
	return &ReportHandler{repo: repo}
}

// latest picks the report for the optional ?mode= query, or writes a 404/400.
func (h *ReportHandler) latest(c *gin.Context) (*entity.Report, bool) {
	var (
		report *entity.Report
		ok     bool
	)
	switch mode := entity.RunMode(c.Query("mode")); mode {
	case "":
		report, ok = h.repo.Latest()
	case entity.ModeList, entity.ModeCheck, entity.ModeApprove:
		report, ok = h.repo.LatestForMode(mode)
	default:
		c.JSON(http.StatusBadRequest, APIResponse{StatusMessage: "Unknown mode " + string(mode) + "."})
		return nil, false
	}
	if !ok {
		c.JSON(http.StatusNotFound, APIResponse{StatusMessage: "No report available yet."})
		return nil, false
	}
	return report, true
}

// GetReportHandler returns the whole report.
func (h *ReportHandler) GetReportHandler(c *gin.Context) {
	report, ok := h.latest(c)
	if !ok {
		return
	}
	msg := "Report retrieved successfully."
	if len(report.Failures) > 0 {
		msg = "Report retrieved. Some lines or tokens failed, see failures."
	}
	c.JSON(http.StatusOK, APIResponse{Data: report, StatusMessage: msg})
}

// GetTokensHandler returns the resolved token list.
func (h *ReportHandler) GetTokensHandler(c *gin.Context) {
	report, ok := h.latest(c)
	if !ok {
		return
	}
	tokens := report.Tokens
	if tokens == nil {
		tokens = []entity.ResolvedToken{}
	}
	c.JSON(http.StatusOK, APIResponse{Data: tokens, StatusMessage: "Tokens retrieved successfully."})
}

// GetApprovalsHandler returns the approval log, optionally filtered by ?decision=.
func (h *ReportHandler) GetApprovalsHandler(c *gin.Context) {
	report, ok := h.latest(c)
	if !ok {
		return
	}
	decision := entity.ApprovalDecision(c.Query("decision"))
	entries := make([]entity.ApprovalLogEntry, 0, len(report.Approvals))
	for _, a := range report.Approvals {
		if decision == "" || a.Decision == decision {
			entries = append(entries, a)
		}
	}
	c.JSON(http.StatusOK, APIResponse{Data: entries, StatusMessage: "Approvals retrieved successfully."})
}

// HealthzHandler always answers 200 while the server runs.
func (h *ReportHandler) HealthzHandler(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{StatusMessage: "ok"})
}
