package tokenloader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"allowance_manager/internal/domain/entity"
)

// LineDecoder decodes one `<chain>|<token-spec>` line.
type LineDecoder interface {
	Decode(line string) (entity.DecodedToken, error)
}

// TokenFileLoader reads the encoded token list, one identifier per line.
type TokenFileLoader struct {
	filePath   string
	decoder    LineDecoder
	loggerInfo func(msg string, args ...any)
	loggerWarn func(msg string, args ...any)
}

// NewTokenLoader creates a new TokenFileLoader.
func NewTokenLoader(
	filePath string,
	decoder LineDecoder,
	loggerInfo func(msg string, args ...any),
	loggerWarn func(msg string, args ...any),
) *TokenFileLoader {
	return &TokenFileLoader{
		filePath:   filePath,
		decoder:    decoder,
		loggerInfo: loggerInfo,
		loggerWarn: loggerWarn,
	}
}

// LoadTokens opens the configured file and decodes it.
func (l *TokenFileLoader) LoadTokens() (entity.TokenBatch, error) {
	file, err := os.Open(l.filePath)
	if err != nil {
		return entity.TokenBatch{}, fmt.Errorf("failed to open token list %s: %w", l.filePath, err)
	}
	defer file.Close()

	batch, err := l.Read(file)
	if err != nil {
		return entity.TokenBatch{}, fmt.Errorf("error scanning token list %s: %w", l.filePath, err)
	}
	if l.loggerInfo != nil {
		l.loggerInfo("Token list loaded", "path", l.filePath, "lines", batch.TotalLines,
			"decoded", len(batch.Tokens), "skipped", len(batch.Skipped), "failed", len(batch.Failures))
	}
	return batch, nil
}

// Read decodes every non-blank line of r. Line numbers are 1-based and count
// blank lines, so they match the file; TotalLines only counts non-blank lines.
// Unsupported specs go to Skipped and decode errors to Failures. Neither stops the read.
// Lines have no length limit; an oversized line fails to decode like any other.
func (l *TokenFileLoader) Read(r io.Reader) (entity.TokenBatch, error) {
	batch := entity.TokenBatch{
		Tokens:   []entity.DecodedToken{},
		Skipped:  []entity.SkippedLine{},
		Failures: []entity.LineFailure{},
	}

	reader := bufio.NewReader(r)
	lineNum := 0
	for {
		raw, err := reader.ReadString('\n')
		if raw != "" {
			lineNum++
			l.decodeLine(&batch, lineNum, strings.TrimSpace(raw))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return entity.TokenBatch{}, err
		}
	}
	return batch, nil
}

func (l *TokenFileLoader) decodeLine(batch *entity.TokenBatch, lineNum int, line string) {
	if line == "" {
		return
	}
	batch.TotalLines++

	token, err := l.decoder.Decode(line)
	switch {
	case err == nil:
		token.LineNumber = lineNum
		batch.Tokens = append(batch.Tokens, token)
	case errors.Is(err, entity.ErrDecodeSkip):
		batch.Skipped = append(batch.Skipped, entity.SkippedLine{LineNumber: lineNum, Line: line})
	default:
		if l.loggerWarn != nil {
			l.loggerWarn("Skipping undecodable token line", "line_number", lineNum, "line_length", len(line), "error", err)
		}
		chain, spec, _ := strings.Cut(line, "|")
		batch.Failures = append(batch.Failures, entity.LineFailure{
			LineNumber: lineNum,
			Chain:      entity.ChainName(strings.TrimSpace(chain)),
			Spec:       strings.TrimSpace(spec),
			Stage:      "decode",
			Message:    err.Error(),
		})
	}
}
