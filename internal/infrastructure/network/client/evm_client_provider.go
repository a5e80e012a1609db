package client

import (
	"fmt"
	"sort"
	"time"

	"allowance_manager/internal/app/port"
	"allowance_manager/internal/config"
	"allowance_manager/internal/domain/entity"

	"golang.org/x/time/rate"
)

// evmClientProvider implements port.ChainRegistry. Every client is dialed once in
// NewEVMClientProvider and reused for the whole run.
type evmClientProvider struct {
	clients     map[entity.ChainName]port.ChainClient
	loggerInfo  func(msg string, args ...any)
	loggerError func(msg string, args ...any)
}

// NewEVMClientProvider builds one client per chain definition. Per-network timeouts
// and rate limits come from the matching config node, when present.
func NewEVMClientProvider(
	defs []entity.ChainDefinition,
	cfg *config.Config,
	loggerInfo func(msg string, args ...any),
	loggerError func(msg string, args ...any),
) (port.ChainRegistry, error) {
	p := &evmClientProvider{
		clients:     make(map[entity.ChainName]port.ChainClient, len(defs)),
		loggerInfo:  loggerInfo,
		loggerError: loggerError,
	}

	nodes := make(map[entity.ChainName]config.NetworkNode, len(cfg.Networks))
	for _, n := range cfg.Networks {
		nodes[entity.ChainName(n.Name)] = n
	}
	connectionTimeout := time.Duration(cfg.Performance.ConnectionTimeoutSeconds) * time.Second
	defaultCallTimeout := time.Duration(cfg.Performance.RPCCallTimeoutSeconds) * time.Second

	for _, def := range defs {
		node := nodes[def.Name]
		callTimeout := defaultCallTimeout
		if node.RPCTimeoutMs > 0 {
			callTimeout = time.Duration(node.RPCTimeoutMs) * time.Millisecond
		}
		var limiter *rate.Limiter
		period, burst, err := node.Limiter()
		if err != nil {
			p.Close()
			return nil, err
		}
		if period > 0 {
			limiter = rate.NewLimiter(rate.Every(period), burst)
		}

		p.loggerInfo("Creating EVM client", "chain", def.Name, "rpc", def.RPCURL, "call_timeout", callTimeout.String())
		c, err := NewEVMClient(def, connectionTimeout, callTimeout, limiter)
		if err != nil {
			p.loggerError("Failed to create EVM client", "chain", def.Name, "error", err)
			p.Close()
			return nil, fmt.Errorf("failed to create EVM client for %s: %w", def.Name, err)
		}
		p.clients[def.Name] = c
	}
	return p, nil
}

// NewStaticRegistry wraps prebuilt clients, keyed by their definition name.
func NewStaticRegistry(clients ...port.ChainClient) port.ChainRegistry {
	p := &evmClientProvider{
		clients:     make(map[entity.ChainName]port.ChainClient, len(clients)),
		loggerInfo:  func(string, ...any) {},
		loggerError: func(string, ...any) {},
	}
	for _, c := range clients {
		p.clients[c.Definition().Name] = c
	}
	return p
}

// Resolve returns the client for name or entity.ErrUnknownChain.
func (p *evmClientProvider) Resolve(name entity.ChainName) (port.ChainClient, error) {
	c, ok := p.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownChain, name)
	}
	return c, nil
}

// Has reports whether name is registered.
func (p *evmClientProvider) Has(name entity.ChainName) bool {
	_, ok := p.clients[name]
	return ok
}

// Names returns the registered chain names in sorted order.
func (p *evmClientProvider) Names() []entity.ChainName {
	names := make([]entity.ChainName, 0, len(p.clients))
	for name := range p.clients {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Close releases every client that owns a connection.
func (p *evmClientProvider) Close() {
	for _, c := range p.clients {
		if closer, ok := c.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}
