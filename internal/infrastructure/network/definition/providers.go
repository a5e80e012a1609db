package networkdefinition

import (
	"fmt"
	"sort"

	"allowance_manager/internal/app/port"
	"allowance_manager/internal/config"
	"allowance_manager/internal/domain/entity"
)

// Predefined chain definitions. Config entries with the same name override them.
var ( //nolint:gochecknoglobals // Global for definitions
	Moonbeam = entity.ChainDefinition{
		Name:             "moonbeam",
		ChainID:          1284,
		DisplayName:      "Moonbeam",
		NativeSymbol:     "GLMR",
		RPCURL:           "https://moonbeam.public.blastapi.io",
		BlockExplorerURL: "https://moonscan.io",
		Routers: []entity.Router{
			{Address: "0x70085a09d30d6f8c4ecf6ee10120d1847383bb57", Label: "StellaSwap"},
			{Address: "0x96b244391d98b62d19ae89b1a4dccf0fc56970c7", Label: "BeamSwap"},
		},
	}
	Astar = entity.ChainDefinition{
		Name:             "astar",
		ChainID:          592,
		DisplayName:      "Astar",
		NativeSymbol:     "ASTR",
		RPCURL:           "https://astar.public.blastapi.io",
		BlockExplorerURL: "https://blockscout.com/astar",
		Routers: []entity.Router{
			{Address: "0xe915d2393a08a00c5a463053edd31bae2199b9e7", Label: "ArthSwap"},
		},
	}
)

var allKnownDefinitions = map[entity.ChainName]entity.ChainDefinition{
	Moonbeam.Name: Moonbeam,
	Astar.Name:    Astar,
}

// NetworkDefinitionProvider provides the active chain definitions.
type NetworkDefinitionProvider struct {
	logger     port.Logger
	activeDefs map[entity.ChainName]entity.ChainDefinition
}

// NewNetworkDefinitionProvider merges configured networks over the predefined ones.
// With no networks configured every predefined chain is active.
func NewNetworkDefinitionProvider(log port.Logger, nodes []config.NetworkNode) (*NetworkDefinitionProvider, error) {
	p := &NetworkDefinitionProvider{
		logger:     log,
		activeDefs: make(map[entity.ChainName]entity.ChainDefinition),
	}

	if len(nodes) == 0 {
		for name, def := range allKnownDefinitions {
			p.activeDefs[name] = cloneDefinition(def)
		}
		p.logger.Info("No networks configured, using predefined chain definitions", "count", len(p.activeDefs))
		return p, nil
	}

	for _, node := range nodes {
		name := entity.ChainName(node.Name)
		def, known := allKnownDefinitions[name]
		if known {
			def = cloneDefinition(def)
		} else {
			def = entity.ChainDefinition{Name: name, DisplayName: node.Name}
		}
		if node.ChainID != 0 {
			def.ChainID = node.ChainID
		}
		if node.Endpoint != "" {
			def.RPCURL = node.Endpoint
		}
		if node.Routers != nil {
			def.Routers = append([]entity.Router(nil), node.Routers...)
		}
		if def.RPCURL == "" {
			return nil, fmt.Errorf("network %s has no endpoint and no predefined definition", name)
		}
		p.activeDefs[name] = def
		p.logger.Debug(fmt.Sprintf("Network '%s' activated from config (predefined: %t, routers: %d)", name, known, len(def.Routers)))
	}
	return p, nil
}

// GetAllNetworkDefinitions returns the active definitions sorted by name.
func (p *NetworkDefinitionProvider) GetAllNetworkDefinitions() []entity.ChainDefinition {
	if p == nil {
		return []entity.ChainDefinition{}
	}
	defs := make([]entity.ChainDefinition, 0, len(p.activeDefs))
	for _, def := range p.activeDefs {
		defs = append(defs, cloneDefinition(def))
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// GetNetworkDefinitionByName returns an active definition by chain name.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByName(name entity.ChainName) (entity.ChainDefinition, bool) {
	if p == nil {
		return entity.ChainDefinition{}, false
	}
	def, ok := p.activeDefs[name]
	if !ok {
		return entity.ChainDefinition{}, false
	}
	return cloneDefinition(def), true
}

// RoutersByChain returns the router set of every active chain that has one.
func (p *NetworkDefinitionProvider) RoutersByChain() map[entity.ChainName][]entity.Router {
	out := make(map[entity.ChainName][]entity.Router)
	for name, def := range p.activeDefs {
		if len(def.Routers) > 0 {
			out[name] = append([]entity.Router(nil), def.Routers...)
		}
	}
	return out
}

func cloneDefinition(def entity.ChainDefinition) entity.ChainDefinition {
	def.Routers = append([]entity.Router(nil), def.Routers...)
	return def
}
