// Package params holds runtime configuration for the matching daemon.
// Priority: environment variables > .env file > defaults.
package params

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/tbessho/matchbook/pkg/engine"
)

type Config struct {
	TickSize     float64 `env:"TICK_SIZE" envDefault:"0.01"`
	LotSize      float64 `env:"LOT_SIZE" envDefault:"0.00001"`
	MakerFeeRate float64 `env:"MAKER_FEE_RATE" envDefault:"0.001"`
	TakerFeeRate float64 `env:"TAKER_FEE_RATE" envDefault:"0.002"`

	SnapshotPath string `env:"SNAPSHOT_PATH" envDefault:"orderbook.snapshot"`
	TradeDBPath  string `env:"TRADE_DB_PATH" envDefault:"data/trades"`
}

func Default() Config {
	cfg, _ := env.ParseAs[Config]()
	return cfg
}

// Load reads the .env file at envPath (optional, missing file is fine) and
// then parses the environment on top of the defaults.
func Load(envPath string) (Config, error) {
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.TickSize <= 0 || cfg.LotSize <= 0 {
		return Config{}, fmt.Errorf("tick size and lot size must be positive")
	}
	return cfg, nil
}

// EngineParams converts the config to the engine's parameter block.
func (c Config) EngineParams() engine.Params {
	return engine.Params{
		TickSize:     c.TickSize,
		LotSize:      c.LotSize,
		MakerFeeRate: c.MakerFeeRate,
		TakerFeeRate: c.TakerFeeRate,
	}
}
