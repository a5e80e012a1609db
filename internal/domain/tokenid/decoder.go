// Package tokenid decodes `<chain>|<token-spec>` identifier lines into a chain name
// and an EVM contract address.
package tokenid

import (
	"fmt"
	"math/big"
	"strings"

	"allowance_manager/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

const (
	erc20Prefix    = "erc20,addr="
	xc20AddrPrefix = "xc20,addr="
	xc20Prefix     = "xc20,id"

	// XC20 precompile addresses are 0xffffffff followed by the asset id,
	// zero-padded to 40 hex digits.
	xc20AddressPrefix = "ffffffff"
	xc20SuffixDigits  = 32
)

// Decoder turns encoded token lines into decoded tokens. The zero value accepts any chain.
type Decoder struct {
	knownChain func(entity.ChainName) bool
}

// NewDecoder returns a Decoder that rejects chains for which knownChain returns false.
// A nil knownChain accepts every chain name.
func NewDecoder(knownChain func(entity.ChainName) bool) *Decoder {
	return &Decoder{knownChain: knownChain}
}

// Decode parses a single line. Unsupported token specs return an error wrapping
// entity.ErrDecodeSkip; malformed input returns *entity.DecodeError.
func (d *Decoder) Decode(line string) (entity.DecodedToken, error) {
	chainPart, specPart, ok := strings.Cut(line, "|")
	if !ok || strings.TrimSpace(line) == "" {
		return entity.DecodedToken{}, &entity.DecodeError{Line: line, Err: entity.ErrMalformedLine}
	}
	chain := entity.ChainName(strings.TrimSpace(chainPart))
	spec := strings.TrimSpace(specPart)
	if chain == "" || spec == "" {
		return entity.DecodedToken{}, &entity.DecodeError{Line: line, Err: entity.ErrMalformedLine}
	}

	token := entity.DecodedToken{Chain: chain, Spec: spec}
	switch {
	case strings.HasPrefix(spec, erc20Prefix):
		addr := spec[len(erc20Prefix):]
		if !isHexAddress(addr) {
			return entity.DecodedToken{}, &entity.DecodeError{Line: line, Err: fmt.Errorf("%w: %q", entity.ErrInvalidAddress, addr)}
		}
		token.Kind = entity.ERC20Token
		token.Address = addr
	case strings.HasPrefix(spec, xc20AddrPrefix):
		addr := spec[len(xc20AddrPrefix):]
		if !isHexAddress(addr) {
			return entity.DecodedToken{}, &entity.DecodeError{Line: line, Err: fmt.Errorf("%w: %q", entity.ErrInvalidAddress, addr)}
		}
		token.Kind = entity.XC20Token
		token.Address = addr
	case strings.HasPrefix(spec, xc20Prefix):
		id, addr, err := XC20Address(spec[len(xc20Prefix):])
		if err != nil {
			return entity.DecodedToken{}, &entity.DecodeError{Line: line, Err: err}
		}
		token.Kind = entity.XC20Token
		token.AssetID = id
		token.Address = addr
	default:
		return entity.DecodedToken{}, fmt.Errorf("%w: %s", entity.ErrDecodeSkip, spec)
	}

	if d != nil && d.knownChain != nil && !d.knownChain(chain) {
		return entity.DecodedToken{}, &entity.DecodeError{Line: line, Err: fmt.Errorf("%w: %s", entity.ErrUnknownChain, chain)}
	}
	return token, nil
}

// XC20Address parses the asset id that follows the `xc20,id` prefix and returns the
// synthetic precompile address. A single non-digit separator before the id is skipped.
func XC20Address(rest string) (*big.Int, string, error) {
	if rest != "" && !isDigit(rest[0]) {
		rest = rest[1:]
	}
	if rest == "" {
		return nil, "", fmt.Errorf("%w: missing xc20 asset id", entity.ErrMalformedLine)
	}
	for i := 0; i < len(rest); i++ {
		if !isDigit(rest[i]) {
			return nil, "", fmt.Errorf("%w: xc20 asset id %q is not a base-10 integer", entity.ErrMalformedLine, rest)
		}
	}
	id, ok := new(big.Int).SetString(rest, 10)
	if !ok {
		return nil, "", fmt.Errorf("%w: xc20 asset id %q is not a base-10 integer", entity.ErrMalformedLine, rest)
	}

	suffix := id.Text(16)
	if len(suffix) > xc20SuffixDigits {
		return nil, "", fmt.Errorf("%w: %s needs %d hex digits", entity.ErrOverflow, rest, len(suffix))
	}
	return id, "0x" + xc20AddressPrefix + strings.Repeat("0", xc20SuffixDigits-len(suffix)) + suffix, nil
}

// isHexAddress requires the 0x prefix and exactly 40 hex digits, in any casing.
func isHexAddress(s string) bool {
	return len(s) == 2+2*common.AddressLength && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) && common.IsHexAddress(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
