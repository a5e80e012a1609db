package entity

import "math/big"

// ChainName identifies a supported chain, e.g. "moonbeam" or "astar".
type ChainName string

// TokenKind is the variant of an encoded token spec.
type TokenKind int

const (
	// ERC20Token is a plain contract address spec (`erc20,addr=0x...`).
	ERC20Token TokenKind = iota
	// XC20Token is a cross-chain asset exposed through a precompile address (`xc20,id...`).
	XC20Token
)

func (k TokenKind) String() string {
	switch k {
	case ERC20Token:
		return "erc20"
	case XC20Token:
		return "xc20"
	default:
		return "unknown"
	}
}

// DecodedToken is one input line decoded into a chain and a contract address.
type DecodedToken struct {
	LineNumber int       `json:"lineNumber"`
	Chain      ChainName `json:"chain"`
	Spec       string    `json:"spec"`
	Kind       TokenKind `json:"-"`
	Address    string    `json:"address"`
	AssetID    *big.Int  `json:"-"` // only set for XC20Token
}

// ResolvedToken is a decoded token enriched with on-chain metadata.
// The json keys match the token list format consumed downstream.
type ResolvedToken struct {
	LineNumber int       `json:"-"`
	Chain      ChainName `json:"chain"`
	Spec       string    `json:"token_name_encoded"`
	Address    string    `json:"address"`
	Symbol     string    `json:"symbol"`
	Name       string    `json:"name"`
	Decimals   uint8     `json:"decimals"`
}

// TokenMetadata is the result of the symbol/name/decimals reads.
type TokenMetadata struct {
	Symbol   string
	Name     string
	Decimals uint8
}
