package tokenregistry

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// Token is the metadata the price math needs about a token.
// Address only drives canonical ordering; Decimals drives price scaling.
type Token struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
}

// SortsBefore reports whether t is token0 of a pool containing t and other.
func (t Token) SortsBefore(other Token) bool {
	return bytes.Compare(t.Address.Bytes(), other.Address.Bytes()) < 0
}

// IsSameAddress reports whether both tokens share an address.
func IsSameAddress(a, b Token) bool {
	return a.Address == b.Address
}

// Sort returns the pair in canonical (token0, token1) order and whether the
// inputs were already in that order.
func Sort(a, b Token) (token0, token1 Token, sorted bool) {
	if a.SortsBefore(b) {
		return a, b, true
	}
	return b, a, false
}
