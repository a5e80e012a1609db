// Package reportwriter persists the token list and the run report as JSON files.
package reportwriter

import (
	"fmt"
	"os"
	"path/filepath"

	"allowance_manager/internal/app/port"
	"allowance_manager/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileWriter writes the resolved token list to tokenListPath and, when reportPath
// is set, the whole report to reportPath.
type FileWriter struct {
	tokenListPath string
	reportPath    string
	logger        *zap.Logger
}

var _ port.ReportWriter = (*FileWriter)(nil)

// NewFileWriter creates a FileWriter. An empty tokenListPath disables the token list.
func NewFileWriter(tokenListPath, reportPath string, logger *zap.Logger) *FileWriter {
	return &FileWriter{
		tokenListPath: tokenListPath,
		reportPath:    reportPath,
		logger:        logger.Named("ReportWriter"),
	}
}

// Write stores both files. The token list is always a JSON array, possibly empty.
func (w *FileWriter) Write(report *entity.Report) error {
	if report == nil {
		return fmt.Errorf("nil report")
	}
	if w.tokenListPath != "" {
		tokens := report.Tokens
		if tokens == nil {
			tokens = []entity.ResolvedToken{}
		}
		if err := writeJSON(w.tokenListPath, tokens); err != nil {
			return err
		}
		w.logger.Info("Token list written", zap.String("path", w.tokenListPath), zap.Int("tokens", len(tokens)))
	}
	if w.reportPath != "" {
		if err := writeJSON(w.reportPath, report); err != nil {
			return err
		}
		w.logger.Info("Run report written", zap.String("path", w.reportPath),
			zap.Int("approvals", len(report.Approvals)), zap.Int("failures", len(report.Failures)))
	}
	return nil
}

// writeJSON writes through a temp file in the same directory so readers never see a partial file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
