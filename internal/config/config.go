package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Exchange is the fixed configuration of one upstream venue: where to reach
// it and how to substitute the requested symbol into its order book path.
type Exchange struct {
	Scheme string `yaml:"scheme" validate:"oneof=http https"`
	Host   string `yaml:"host" validate:"required"`
	Path   string `yaml:"path" validate:"required,contains={CURRENCY}"`
}

type Config struct {
	Logging struct {
		Level  string `yaml:"level" env:"UNIBOOK_LOG_LEVEL"`
		Pretty bool   `yaml:"pretty" env:"UNIBOOK_LOG_PRETTY"`
	} `yaml:"logging"`
	Server struct {
		Addr                string   `yaml:"addr" env:"UNIBOOK_HTTP_ADDR" validate:"required"`
		Pprof               bool     `yaml:"pprof" env:"UNIBOOK_PPROF"`
		ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
		IdleTimeoutSeconds  int      `yaml:"idle_timeout_seconds"`
		AdminAllowCIDRs     []string `yaml:"admin_allow_cidrs" env:"UNIBOOK_ADMIN_ALLOW_CIDRS"`
		RateLimitRPS        float64  `yaml:"rate_limit_rps" env:"UNIBOOK_RATE_LIMIT_RPS"`
		RateLimitBurst      int      `yaml:"rate_limit_burst" env:"UNIBOOK_RATE_LIMIT_BURST"`
	} `yaml:"server"`
	Cluster struct {
		// Workers is the number of serving processes; 0 means one per CPU.
		Workers int `yaml:"workers" env:"UNIBOOK_WORKERS" validate:"gte=0"`
	} `yaml:"cluster"`
	Fetch struct {
		// TimeoutSeconds bounds the whole adapter fan-out for one request.
		TimeoutSeconds int `yaml:"timeout_seconds" env:"UNIBOOK_FETCH_TIMEOUT_SECONDS" validate:"gt=0"`
	} `yaml:"fetch"`
	Stream struct {
		// IntervalSeconds is the push cadence of the /ws stream.
		IntervalSeconds int `yaml:"interval_seconds" env:"UNIBOOK_STREAM_INTERVAL_SECONDS" validate:"gt=0"`
	} `yaml:"stream"`
	Exchanges struct {
		Bittrex  Exchange `yaml:"bittrex"`
		Poloniex Exchange `yaml:"poloniex"`
		Binance  Exchange `yaml:"binance"`
	} `yaml:"exchanges"`
}

func defaultConfig() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Server.Addr = ":5000"
	c.Server.Pprof = false
	c.Server.ReadTimeoutSeconds = 5
	c.Server.WriteTimeoutSeconds = 10
	c.Server.IdleTimeoutSeconds = 60
	c.Server.AdminAllowCIDRs = []string{"127.0.0.0/8", "::1/128"}
	c.Server.RateLimitRPS = 0 // disabled
	c.Server.RateLimitBurst = 20
	c.Cluster.Workers = 0
	c.Fetch.TimeoutSeconds = 5
	c.Stream.IntervalSeconds = 5
	c.Exchanges.Bittrex = Exchange{
		Scheme: "https",
		Host:   "bittrex.com",
		Path:   "/api/v1.1/public/getorderbook?market=BTC-{CURRENCY}&type=both",
	}
	c.Exchanges.Poloniex = Exchange{
		Scheme: "https",
		Host:   "poloniex.com",
		Path:   "/public?command=returnOrderBook&currencyPair=BTC_{CURRENCY}&depth=1000",
	}
	c.Exchanges.Binance = Exchange{
		Scheme: "https",
		Host:   "api.binance.com",
		Path:   "/api/v1/depth?limit=1000&symbol={CURRENCY}BTC",
	}
	return c
}

// Load builds the effective configuration: defaults, then the YAML file named
// by UNIBOOK_CONFIG if any, then environment overrides (a local .env file is
// honored first), then validation.
func Load() (Config, error) {
	c := defaultConfig()
	_ = godotenv.Load()
	if path := os.Getenv("UNIBOOK_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(&c); err != nil {
		return c, fmt.Errorf("env overrides: %w", err)
	}
	if err := validator.New().Struct(c); err != nil {
		return c, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}
