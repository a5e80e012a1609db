// Package abiloader loads the ERC-20 ABI descriptor used for every token read and approval.
package abiloader

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

//go:embed erc20_abi.json
var defaultERC20ABI []byte

// RequiredMethods are the token methods the tool calls.
var RequiredMethods = []string{"symbol", "name", "decimals", "allowance", "approve"}

// Loader reads an ABI descriptor from a file, an http(s) URL, or the built-in copy.
type Loader struct {
	client  *fasthttp.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewLoader creates a Loader. timeout bounds remote fetches.
func NewLoader(timeout time.Duration, logger *zap.Logger) *Loader {
	return &Loader{
		client:  &fasthttp.Client{},
		timeout: timeout,
		logger:  logger.Named("ABILoader"),
	}
}

// Load returns the parsed ABI for source. An empty source yields the built-in ERC-20 ABI.
func (l *Loader) Load(source string) (abi.ABI, error) {
	var (
		raw []byte
		err error
	)
	switch {
	case source == "":
		l.logger.Debug("Using built-in ERC-20 ABI")
		raw = defaultERC20ABI
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		raw, err = l.fetch(source)
	default:
		raw, err = os.ReadFile(source)
		if err != nil {
			err = fmt.Errorf("failed to read ABI file %s: %w", source, err)
		}
	}
	if err != nil {
		return abi.ABI{}, err
	}
	return Parse(raw)
}

// Parse parses raw ABI JSON and checks that every required method is present.
func Parse(raw []byte) (abi.ABI, error) {
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse ABI: %w", err)
	}
	for _, name := range RequiredMethods {
		if _, ok := parsed.Methods[name]; !ok {
			return abi.ABI{}, fmt.Errorf("ABI is missing required method %q", name)
		}
	}
	return parsed, nil
}

// Default returns the built-in ERC-20 ABI.
func Default() abi.ABI {
	parsed, err := Parse(defaultERC20ABI)
	if err != nil {
		panic(fmt.Sprintf("built-in ERC-20 ABI is invalid: %v", err))
	}
	return parsed
}

func (l *Loader) fetch(url string) ([]byte, error) {
	l.logger.Debug("Fetching ABI descriptor", zap.String("url", url))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := l.client.DoTimeout(req, resp, l.timeout); err != nil {
		l.logger.Error("Failed to fetch ABI descriptor", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch ABI from %s: %w", url, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("ABI request to %s failed with status %d", url, resp.StatusCode())
	}

	// resp.Body() is only valid until the response is released.
	return append([]byte(nil), resp.Body()...), nil
}
