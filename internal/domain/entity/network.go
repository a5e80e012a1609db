package entity

// Router is a DEX router contract that must hold infinite allowance.
type Router struct {
	Address string `json:"address" yaml:"address"`
	Label   string `json:"label" yaml:"label"`
}

// ChainDefinition holds the static configuration for one supported chain.
type ChainDefinition struct {
	Name             ChainName `json:"name" yaml:"name"`
	ChainID          uint64    `json:"chainId" yaml:"chainId"`
	DisplayName      string    `json:"displayName" yaml:"displayName"`
	NativeSymbol     string    `json:"nativeSymbol" yaml:"nativeSymbol"`
	RPCURL           string    `json:"rpcUrl" yaml:"rpcUrl"`
	BlockExplorerURL string    `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`
	Routers          []Router  `json:"routers" yaml:"routers"`
}
