package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/defistate/defistate-lp-go/protocols/tokenregistry"
	uniswapv3 "github.com/defistate/defistate-lp-go/protocols/uniswapv3"
	"github.com/defistate/defistate-lp-go/protocols/uniswapv3/planner"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// TokenConfig describes one side of the pair.
type TokenConfig struct {
	Address  string `yaml:"address"`
	Symbol   string `yaml:"symbol"`
	Decimals uint8  `yaml:"decimals"`
}

// PlannerConfig is the YAML file read by cmd/planner.
type PlannerConfig struct {
	// WrappedNative overrides the mainnet WETH address.
	WrappedNative string      `yaml:"wrappedNative"`
	Assumption    string      `yaml:"assumption"`
	Duration      string      `yaml:"duration"`
	Fee           uint64      `yaml:"fee"`
	Base          TokenConfig `yaml:"base"`
	Quote         TokenConfig `yaml:"quote"`

	// Big integers are decimal strings.
	SqrtPriceX96   string `yaml:"sqrtPriceX96"`
	Amount0Desired string `yaml:"amount0Desired,omitempty"`
	Amount1Desired string `yaml:"amount1Desired,omitempty"`
}

// LoadConfig reads and validates the configuration at path.
func LoadConfig(path string) (*PlannerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg PlannerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every field is present and parseable.
func (c *PlannerConfig) Validate() error {
	var errs []error

	if c.WrappedNative != "" && !common.IsHexAddress(c.WrappedNative) {
		errs = append(errs, fmt.Errorf("wrappedNative: invalid address %q", c.WrappedNative))
	}
	if _, err := planner.ParseAssumption(c.Assumption); err != nil {
		errs = append(errs, fmt.Errorf("assumption: %w", err))
	}
	if _, err := planner.ParseDuration(c.Duration); err != nil {
		errs = append(errs, fmt.Errorf("duration: %w", err))
	}
	if _, err := uniswapv3.FeeTier(c.Fee).TickSpacing(); err != nil {
		errs = append(errs, fmt.Errorf("fee: %w", err))
	}
	if !common.IsHexAddress(c.Base.Address) {
		errs = append(errs, fmt.Errorf("base.address: invalid address %q", c.Base.Address))
	}
	if !common.IsHexAddress(c.Quote.Address) {
		errs = append(errs, fmt.Errorf("quote.address: invalid address %q", c.Quote.Address))
	}
	if _, err := parseBigInt(c.SqrtPriceX96, true); err != nil {
		errs = append(errs, fmt.Errorf("sqrtPriceX96: %w", err))
	}
	if _, err := parseBigInt(c.Amount0Desired, false); err != nil {
		errs = append(errs, fmt.Errorf("amount0Desired: %w", err))
	}
	if _, err := parseBigInt(c.Amount1Desired, false); err != nil {
		errs = append(errs, fmt.Errorf("amount1Desired: %w", err))
	}

	return errors.Join(errs...)
}

// WrappedNativeAddress returns the configured wrapped native token, or mainnet WETH.
func (c *PlannerConfig) WrappedNativeAddress() common.Address {
	if c.WrappedNative == "" {
		return planner.MainnetWETH
	}
	return common.HexToAddress(c.WrappedNative)
}

// PositionRequest converts the file into a planner request. The pool is
// described by the pair, the fee and the current sqrt price.
func (c *PlannerConfig) PositionRequest() (planner.PositionRequest, error) {
	if err := c.Validate(); err != nil {
		return planner.PositionRequest{}, err
	}

	// Validate has already parsed every field below.
	assumption, _ := planner.ParseAssumption(c.Assumption)
	duration, _ := planner.ParseDuration(c.Duration)
	sqrtPriceX96, _ := parseBigInt(c.SqrtPriceX96, true)
	amount0Desired, _ := parseBigInt(c.Amount0Desired, false)
	amount1Desired, _ := parseBigInt(c.Amount1Desired, false)

	base := c.Base.token()
	quote := c.Quote.token()
	token0, token1, _ := tokenregistry.Sort(base, quote)

	return planner.PositionRequest{
		Assumption: assumption,
		Duration:   duration,
		Base:       base,
		Quote:      quote,
		Pool: uniswapv3.PoolView{
			Token0:       token0.Address,
			Token1:       token1.Address,
			Fee:          uniswapv3.FeeTier(c.Fee),
			SqrtPriceX96: sqrtPriceX96,
		},
		Amount0Desired: amount0Desired,
		Amount1Desired: amount1Desired,
	}, nil
}

func (t TokenConfig) token() tokenregistry.Token {
	return tokenregistry.Token{
		Address:  common.HexToAddress(t.Address),
		Symbol:   t.Symbol,
		Decimals: t.Decimals,
	}
}

// parseBigInt parses a non-negative decimal integer. Empty input is nil
// unless the value is required.
func parseBigInt(s string, required bool) (*big.Int, error) {
	if s == "" {
		if required {
			return nil, errors.New("missing value")
		}
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative integer %q", s)
	}
	return v, nil
}
