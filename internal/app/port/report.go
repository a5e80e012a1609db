package port

import (
	"context"

	"allowance_manager/internal/domain/entity"
)

// AllowanceOrchestrator drives resolution and the approval workflow for a token batch.
type AllowanceOrchestrator interface {
	Run(ctx context.Context, batch entity.TokenBatch) (*entity.Report, error)
}

// ReportRepository keeps the latest run report for the HTTP API.
type ReportRepository interface {
	Save(report *entity.Report)
	Latest() (*entity.Report, bool)
	LatestForMode(mode entity.RunMode) (*entity.Report, bool)
}

// ReportWriter persists a report.
type ReportWriter interface {
	Write(report *entity.Report) error
}
