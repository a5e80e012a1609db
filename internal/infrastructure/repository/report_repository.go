package repository

import (
	"time"

	"allowance_manager/internal/app/port"
	"allowance_manager/internal/domain/entity"

	"github.com/patrickmn/go-cache"
)

const latestKey = "report:latest"

// reportRepositoryImpl keeps run reports in memory with a retention window.
type reportRepositoryImpl struct {
	reports *cache.Cache
}

// NewReportRepository creates a repository whose entries expire after ttl.
func NewReportRepository(ttl, cleanupInterval time.Duration) port.ReportRepository {
	return &reportRepositoryImpl{reports: cache.New(ttl, cleanupInterval)}
}

// Save stores report as the latest one, and as the latest for its mode.
func (r *reportRepositoryImpl) Save(report *entity.Report) {
	if report == nil {
		return
	}
	r.reports.Set(latestKey, report, cache.DefaultExpiration)
	r.reports.Set(modeKey(report.Mode), report, cache.DefaultExpiration)
}

// Latest returns the most recently saved report, if it has not expired.
func (r *reportRepositoryImpl) Latest() (*entity.Report, bool) {
	return r.get(latestKey)
}

// LatestForMode returns the most recent report produced in mode.
func (r *reportRepositoryImpl) LatestForMode(mode entity.RunMode) (*entity.Report, bool) {
	return r.get(modeKey(mode))
}

func (r *reportRepositoryImpl) get(key string) (*entity.Report, bool) {
	v, ok := r.reports.Get(key)
	if !ok {
		return nil, false
	}
	report, ok := v.(*entity.Report)
	return report, ok
}

func modeKey(mode entity.RunMode) string {
	return "report:" + string(mode)
}
