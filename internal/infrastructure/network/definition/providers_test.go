package networkdefinition

import (
	"testing"

	"allowance_manager/internal/config"
	"allowance_manager/internal/domain/entity"
	"allowance_manager/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_PredefinedWhenNoConfig(t *testing.T) {
	p, err := NewNetworkDefinitionProvider(logger.NewSlogAdapter(), nil)
	require.NoError(t, err)

	defs := p.GetAllNetworkDefinitions()
	require.Len(t, defs, 2)
	assert.Equal(t, entity.ChainName("astar"), defs[0].Name)
	assert.Equal(t, entity.ChainName("moonbeam"), defs[1].Name)

	routers := p.RoutersByChain()
	assert.Len(t, routers["moonbeam"], 2)
	assert.Len(t, routers["astar"], 1)
	assert.Equal(t, "ArthSwap", routers["astar"][0].Label)
}

func TestProvider_ConfigOverridesAndExtends(t *testing.T) {
	nodes := []config.NetworkNode{
		{Name: "moonbeam", Endpoint: "http://127.0.0.1:9933"},
		{Name: "astar", Routers: []entity.Router{}},
		{Name: "devnet", ChainID: 1337, Endpoint: "http://127.0.0.1:8545"},
	}
	p, err := NewNetworkDefinitionProvider(logger.NewSlogAdapter(), nodes)
	require.NoError(t, err)

	moonbeam, ok := p.GetNetworkDefinitionByName("moonbeam")
	require.True(t, ok)
	assert.Equal(t, "http://127.0.0.1:9933", moonbeam.RPCURL)
	assert.Equal(t, uint64(1284), moonbeam.ChainID)
	assert.Len(t, moonbeam.Routers, 2)

	astar, ok := p.GetNetworkDefinitionByName("astar")
	require.True(t, ok)
	assert.Empty(t, astar.Routers)
	assert.Equal(t, Astar.RPCURL, astar.RPCURL)

	devnet, ok := p.GetNetworkDefinitionByName("devnet")
	require.True(t, ok)
	assert.Equal(t, uint64(1337), devnet.ChainID)

	routers := p.RoutersByChain()
	_, hasAstar := routers["astar"]
	assert.False(t, hasAstar)
	assert.Len(t, routers, 1)
}

func TestProvider_UnknownWithoutEndpoint(t *testing.T) {
	_, err := NewNetworkDefinitionProvider(logger.NewSlogAdapter(), []config.NetworkNode{{Name: "polygon"}})
	assert.Error(t, err)
}

func TestProvider_ReturnsCopies(t *testing.T) {
	p, err := NewNetworkDefinitionProvider(logger.NewSlogAdapter(), nil)
	require.NoError(t, err)

	def, _ := p.GetNetworkDefinitionByName("moonbeam")
	def.Routers[0].Label = "changed"

	again, _ := p.GetNetworkDefinitionByName("moonbeam")
	assert.Equal(t, "StellaSwap", again.Routers[0].Label)
	assert.Equal(t, "StellaSwap", Moonbeam.Routers[0].Label)
}
