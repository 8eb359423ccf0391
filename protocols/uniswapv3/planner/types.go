package planner

import (
	"math/big"

	"github.com/defistate/defistate-lp-go/protocols/tokenregistry"
	uniswapv3 "github.com/defistate/defistate-lp-go/protocols/uniswapv3"
	"github.com/shopspring/decimal"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// PositionRequest describes a position to open in an existing pool.
type PositionRequest struct {
	Assumption Assumption
	Duration   Duration
	Base       tokenregistry.Token
	Quote      tokenregistry.Token
	Pool       uniswapv3.PoolView

	// Desired deposits in raw token units. Nil is treated as zero; when both
	// are nil only the range is planned.
	Amount0Desired *big.Int
	Amount1Desired *big.Int
}

// Position is a planned position: its range and, when deposits were
// requested, the liquidity they mint.
type Position struct {
	Token0      tokenregistry.Token     `json:"token0"`
	Token1      tokenregistry.Token     `json:"token1"`
	Fee         uniswapv3.FeeTier       `json:"fee"`
	TickSpacing int64                   `json:"tickSpacing"`
	Range       uniswapv3.PositionRange `json:"range"`

	// Price is one whole base token in quote units at the pool's current price.
	Price decimal.Decimal `json:"price"`
	// PriceLower and PriceUpper are the range bounds in the same units.
	PriceLower decimal.Decimal `json:"priceLower"`
	PriceUpper decimal.Decimal `json:"priceUpper"`

	Amounts *LiquidityAmounts `json:"amounts,omitempty"`
}
