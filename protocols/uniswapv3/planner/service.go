package planner

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/defistate/defistate-lp-go/protocols/tokenregistry"
	uniswapv3 "github.com/defistate/defistate-lp-go/protocols/uniswapv3"
	"github.com/defistate/defistate-lp-go/protocols/uniswapv3/calculator/pricemath"
	"github.com/defistate/defistate-lp-go/protocols/uniswapv3/calculator/tickmath"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

var ErrPoolMismatch = fmt.Errorf("%w: pool does not hold the requested pair", uniswapv3.ErrValidation)

// Config holds the planner's dependencies.
type Config struct {
	// WrappedNative is the token one side of every planned pair must be.
	// Defaults to MainnetWETH.
	WrappedNative common.Address
	Logger        Logger                // Required.
	Registry      prometheus.Registerer // Required.
}

// validate checks if the configuration is valid, ensuring required dependencies are present.
func (c *Config) validate() error {
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	return nil
}

// Planner plans concentrated-liquidity positions. It holds only immutable
// configuration and metric handles and is safe for concurrent use.
type Planner struct {
	wrappedNative common.Address
	logger        Logger
	metrics       *Metrics
}

// New constructs a Planner from a configuration, returning an error if the config is invalid.
func New(cfg Config) (*Planner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	wrappedNative := cfg.WrappedNative
	if wrappedNative == (common.Address{}) {
		wrappedNative = MainnetWETH
	}

	return &Planner{
		wrappedNative: wrappedNative,
		logger:        cfg.Logger,
		metrics:       NewMetrics(cfg.Registry),
	}, nil
}

// ComputePositionRange returns the tick range for a new position, checking
// the pair against the configured wrapped native token.
func (p *Planner) ComputePositionRange(
	assumption Assumption,
	duration Duration,
	base, quote tokenregistry.Token,
	fee uniswapv3.FeeTier,
	targetSqrtPriceX96 *big.Int,
) (uniswapv3.PositionRange, error) {
	rng, err := computePositionRange(p.wrappedNative, assumption, duration, base, quote, fee, targetSqrtPriceX96)
	if err != nil {
		p.metrics.errors.WithLabelValues("compute_range").Inc()
		p.logger.Debug("position range rejected",
			"base", base.Symbol,
			"quote", quote.Symbol,
			"assumption", assumption.String(),
			"duration", duration.String(),
			"error", err,
		)
		return rng, err
	}

	p.metrics.rangesComputed.WithLabelValues(assumption.String(), duration.String()).Inc()
	p.metrics.rangeWidth.Observe(float64(rng.Width()))
	p.logger.Debug("position range computed",
		"base", base.Symbol,
		"quote", quote.Symbol,
		"assumption", assumption.String(),
		"duration", duration.String(),
		"lower", rng.Lower,
		"upper", rng.Upper,
	)
	return rng, nil
}

// PlanPosition computes the range for req at the pool's current price and,
// when deposits are given, the liquidity they mint.
func (p *Planner) PlanPosition(req PositionRequest) (Position, error) {
	position, err := p.planPosition(req)
	if err != nil {
		p.metrics.errors.WithLabelValues("plan_position").Inc()
		p.logger.Debug("position plan failed", "base", req.Base.Symbol, "quote", req.Quote.Symbol, "error", err)
		return Position{}, err
	}
	return position, nil
}

func (p *Planner) planPosition(req PositionRequest) (Position, error) {
	token0, token1, _ := tokenregistry.Sort(req.Base, req.Quote)
	if req.Pool.Token0 != token0.Address || req.Pool.Token1 != token1.Address {
		return Position{}, fmt.Errorf("%w: pool holds %s/%s, request is %s/%s",
			ErrPoolMismatch, req.Pool.Token0.Hex(), req.Pool.Token1.Hex(), token0.Address.Hex(), token1.Address.Hex())
	}

	tickSpacing, err := req.Pool.Fee.TickSpacing()
	if err != nil {
		return Position{}, err
	}

	rng, err := p.ComputePositionRange(req.Assumption, req.Duration, req.Base, req.Quote, req.Pool.Fee, req.Pool.SqrtPriceX96)
	if err != nil {
		return Position{}, err
	}

	position := Position{
		Token0:      token0,
		Token1:      token1,
		Fee:         req.Pool.Fee,
		TickSpacing: tickSpacing,
		Range:       rng,
	}

	if position.Price, err = pricemath.FormatSqrtPriceX96(req.Pool.SqrtPriceX96, req.Base, req.Quote); err != nil {
		return Position{}, err
	}
	if position.PriceLower, err = priceAtTick(rng.Lower, req.Base, req.Quote); err != nil {
		return Position{}, err
	}
	if position.PriceUpper, err = priceAtTick(rng.Upper, req.Base, req.Quote); err != nil {
		return Position{}, err
	}
	// Ticks price token0; a token1 base reads the range the other way round.
	if position.PriceLower.GreaterThan(position.PriceUpper) {
		position.PriceLower, position.PriceUpper = position.PriceUpper, position.PriceLower
	}

	if req.Amount0Desired == nil && req.Amount1Desired == nil {
		return position, nil
	}

	amounts, err := GetLiquidityAmounts(req.Pool.SqrtPriceX96, rng, orZero(req.Amount0Desired), orZero(req.Amount1Desired))
	if err != nil {
		return Position{}, err
	}
	position.Amounts = &amounts

	p.logger.Debug("position planned",
		"token0", token0.Symbol,
		"token1", token1.Symbol,
		"liquidity", amounts.Liquidity.String(),
		"amount0", amounts.Amount0.String(),
		"amount1", amounts.Amount1.String(),
	)
	return position, nil
}

func priceAtTick(tick int64, base, quote tokenregistry.Token) (decimal.Decimal, error) {
	sqrtPriceX96 := new(big.Int)
	if err := tickmath.GetSqrtRatioAtTick(sqrtPriceX96, tick); err != nil {
		return decimal.Zero, err
	}
	return pricemath.FormatSqrtPriceX96(sqrtPriceX96, base, quote)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
