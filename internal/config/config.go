// Package config loads runtime configuration from a YAML file and the
// environment. Every knob has a default, so an empty config file yields a
// runnable (stub-backed) setup.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Scoring ScoringConfig `mapstructure:"scoring"`
	Risk    RiskConfig    `mapstructure:"risk"`
	Venue   VenueConfig   `mapstructure:"venue"`
	Storage StorageConfig `mapstructure:"storage"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// EngineConfig drives the poll loop and position lifecycle timing.
type EngineConfig struct {
	PollInterval        time.Duration `mapstructure:"poll_interval"`
	ConfirmationTimeout time.Duration `mapstructure:"confirmation_timeout"`
	MaxSellRetries      int           `mapstructure:"max_sell_retries"`
	StopLossPct         float64       `mapstructure:"stop_loss_pct"`
	TakeProfitPct       float64       `mapstructure:"take_profit_pct"`
	MaxHoldDuration     time.Duration `mapstructure:"max_hold_duration"`
	PriceStaleAfter     time.Duration `mapstructure:"price_stale_after"`
	DrawdownHaltPct     float64       `mapstructure:"drawdown_halt_pct"`
	SummaryCron         string        `mapstructure:"summary_cron"`
}

// ScoringConfig parameterizes candidate scoring.
type ScoringConfig struct {
	AcceptanceThreshold float64  `mapstructure:"acceptance_threshold"`
	BlacklistedTerms    []string `mapstructure:"blacklisted_terms"`
	LiquiditySaturation float64  `mapstructure:"liquidity_saturation"`
	MinBasePrice        float64  `mapstructure:"min_base_price"`
	MaxBasePrice        float64  `mapstructure:"max_base_price"`
}

// RiskConfig parameterizes the admission gate and sizer.
type RiskConfig struct {
	MaxAllocationPerToken float64       `mapstructure:"max_allocation_per_token"`
	CooldownPeriod        time.Duration `mapstructure:"cooldown_period"`
	MaxOpenPositions      int           `mapstructure:"max_open_positions"`
	MinTradeSize          float64       `mapstructure:"min_trade_size"`
	MinScoreFloor         float64       `mapstructure:"min_score_floor"`
}

// VenueConfig selects and configures the launch event source.
type VenueConfig struct {
	WSEndpoint string `mapstructure:"ws_endpoint"`
	ProgramID  string `mapstructure:"program_id"`
	UseStub    bool   `mapstructure:"use_stub"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend       string `mapstructure:"backend"` // "memory" or "postgres"
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"` // optional analytics sink
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.poll_interval", 2*time.Second)
	v.SetDefault("engine.confirmation_timeout", 30*time.Second)
	v.SetDefault("engine.max_sell_retries", 3)
	v.SetDefault("engine.stop_loss_pct", 0.15)
	v.SetDefault("engine.take_profit_pct", 0.50)
	v.SetDefault("engine.max_hold_duration", 24*time.Hour)
	v.SetDefault("engine.price_stale_after", 10*time.Second)
	v.SetDefault("engine.drawdown_halt_pct", 0.20)
	v.SetDefault("engine.summary_cron", "0 * * * *")

	v.SetDefault("scoring.acceptance_threshold", 0.70)
	v.SetDefault("scoring.blacklisted_terms", []string{"rug", "honeypot", "scam", "test"})
	v.SetDefault("scoring.liquidity_saturation", 50.0)
	v.SetDefault("scoring.min_base_price", 0.000001)
	v.SetDefault("scoring.max_base_price", 1.0)

	v.SetDefault("risk.max_allocation_per_token", 0.10)
	v.SetDefault("risk.cooldown_period", 5*time.Minute)
	v.SetDefault("risk.max_open_positions", 10)
	v.SetDefault("risk.min_trade_size", 0.01)
	v.SetDefault("risk.min_score_floor", 0.3)

	v.SetDefault("venue.ws_endpoint", "wss://api.mainnet-beta.solana.com")
	v.SetDefault("venue.program_id", "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	v.SetDefault("venue.use_stub", true)

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.clickhouse_dsn", "")

	v.SetDefault("metrics.addr", ":9090")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads configuration from the given file path, if any, with
// SNIPER_-prefixed environment variables taking precedence. An empty path
// loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SNIPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that would make the engine misbehave in
// non-obvious ways at runtime.
func (c *Config) Validate() error {
	if c.Engine.PollInterval <= 0 {
		return fmt.Errorf("engine.poll_interval must be positive, got %s", c.Engine.PollInterval)
	}
	if c.Engine.ConfirmationTimeout <= 0 {
		return fmt.Errorf("engine.confirmation_timeout must be positive, got %s", c.Engine.ConfirmationTimeout)
	}
	if c.Engine.StopLossPct <= 0 || c.Engine.StopLossPct >= 1 {
		return fmt.Errorf("engine.stop_loss_pct must be in (0,1), got %g", c.Engine.StopLossPct)
	}
	if c.Engine.TakeProfitPct <= 0 {
		return fmt.Errorf("engine.take_profit_pct must be positive, got %g", c.Engine.TakeProfitPct)
	}
	if c.Scoring.AcceptanceThreshold < 0 || c.Scoring.AcceptanceThreshold > 1 {
		return fmt.Errorf("scoring.acceptance_threshold must be in [0,1], got %g", c.Scoring.AcceptanceThreshold)
	}
	if c.Risk.MaxAllocationPerToken <= 0 || c.Risk.MaxAllocationPerToken > 1 {
		return fmt.Errorf("risk.max_allocation_per_token must be in (0,1], got %g", c.Risk.MaxAllocationPerToken)
	}
	if c.Risk.MinScoreFloor < 0 || c.Risk.MinScoreFloor > 1 {
		return fmt.Errorf("risk.min_score_floor must be in [0,1], got %g", c.Risk.MinScoreFloor)
	}
	switch c.Storage.Backend {
	case "memory", "postgres":
	default:
		return fmt.Errorf("storage.backend must be memory or postgres, got %q", c.Storage.Backend)
	}
	return nil
}
