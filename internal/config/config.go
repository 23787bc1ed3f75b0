package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/factsync/internal/recordstore"
)

// Config holds the full application configuration.
type Config struct {
	Notion  NotionConfig  `yaml:"notion" mapstructure:"notion"`
	Naver   NaverConfig   `yaml:"naver" mapstructure:"naver"`
	Yahoo   YahooConfig   `yaml:"yahoo" mapstructure:"yahoo"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Sync    SyncConfig    `yaml:"sync" mapstructure:"sync"`
	Verify  VerifyConfig  `yaml:"verify" mapstructure:"verify"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Sector  SectorConfig  `yaml:"sector" mapstructure:"sector"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// NotionConfig holds the Notion token, the security database and its
// column names.
type NotionConfig struct {
	Token      string                 `yaml:"token" mapstructure:"token"`
	DatabaseID string                 `yaml:"database_id" mapstructure:"database_id"`
	PageSize   int                    `yaml:"page_size" mapstructure:"page_size"`
	RateLimit  float64                `yaml:"rate_limit" mapstructure:"rate_limit"`
	Properties recordstore.Properties `yaml:"properties" mapstructure:"properties"`
}

// NaverConfig configures the Naver JSON API and the HTML fallback page.
type NaverConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	HTMLBaseURL string `yaml:"html_base_url" mapstructure:"html_base_url"`
	HTMLMarker  string `yaml:"html_marker" mapstructure:"html_marker"`
	HTMLColumn  int    `yaml:"html_column" mapstructure:"html_column"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// YahooConfig configures the Yahoo Finance adapter.
type YahooConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// SearchConfig selects the web search backend used for identity
// verification. An empty provider disables search.
type SearchConfig struct {
	Provider    string       `yaml:"provider" mapstructure:"provider"`
	Results     int          `yaml:"results" mapstructure:"results"`
	TimeoutSecs int          `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Google      GoogleConfig `yaml:"google" mapstructure:"google"`
	Jina        JinaConfig   `yaml:"jina" mapstructure:"jina"`
}

// GoogleConfig holds Google Custom Search credentials.
type GoogleConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	CX      string `yaml:"cx" mapstructure:"cx"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina Search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// SyncConfig controls the sync driver and the resolver chains.
type SyncConfig struct {
	Job             string        `yaml:"job" mapstructure:"job"`
	Fields          string        `yaml:"fields" mapstructure:"fields"`
	WriteDelayMs    int           `yaml:"write_delay_ms" mapstructure:"write_delay_ms"`
	MaxRuntimeMins  int           `yaml:"max_runtime_mins" mapstructure:"max_runtime_mins"`
	StaleHours      int           `yaml:"stale_hours" mapstructure:"stale_hours"`
	WriteMarketHint bool          `yaml:"write_market_hint" mapstructure:"write_market_hint"`
	HomeChain       []string      `yaml:"home_chain" mapstructure:"home_chain"`
	ForeignChain    []string      `yaml:"foreign_chain" mapstructure:"foreign_chain"`
	SummaryMaxRunes int           `yaml:"summary_max_runes" mapstructure:"summary_max_runes"`
	Retry           RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit         CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
}

// RetryConfig bounds record-store page-query retries.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
}

// CircuitConfig tunes the per-provider circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// VerifyConfig controls identity verification.
type VerifyConfig struct {
	// DailyLimit caps search queries per KST day across runs; 0 means the
	// default of 90.
	DailyLimit int `yaml:"daily_limit" mapstructure:"daily_limit"`
	// Persistent keeps the quota in the run state store; otherwise the
	// limit applies to a single run.
	Persistent bool `yaml:"persistent" mapstructure:"persistent"`
	// UnverifiedOnly restricts verify runs to records not yet Verified.
	UnverifiedOnly bool `yaml:"unverified_only" mapstructure:"unverified_only"`
}

// StoreConfig configures the run state database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path" mapstructure:"textfile_path"`
}

// SectorConfig points at an optional sector mapping override.
type SectorConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml (if present), environment
// variables prefixed with FACTSYNC_, and built-in defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FACTSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("notion.page_size", 100)
	v.SetDefault("notion.rate_limit", 3.0)
	setPropertyDefaults(v, recordstore.DefaultProperties())
	v.SetDefault("naver.base_url", "https://m.stock.naver.com/api/stock")
	v.SetDefault("naver.html_base_url", "https://finance.naver.com/item/main.naver")
	v.SetDefault("naver.html_marker", "주요재무정보")
	v.SetDefault("naver.html_column", 3)
	v.SetDefault("naver.timeout_secs", 10)
	v.SetDefault("yahoo.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("yahoo.timeout_secs", 10)
	v.SetDefault("search.provider", "google")
	v.SetDefault("search.results", 3)
	v.SetDefault("search.timeout_secs", 15)
	v.SetDefault("search.google.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("search.jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("sync.job", "price")
	v.SetDefault("sync.write_delay_ms", 400)
	v.SetDefault("sync.max_runtime_mins", 50)
	v.SetDefault("sync.stale_hours", 0)
	v.SetDefault("sync.write_market_hint", false)
	v.SetDefault("sync.home_chain", []string{"naver", "naverhtml", "yahoo"})
	v.SetDefault("sync.foreign_chain", []string{"yahoo"})
	v.SetDefault("sync.summary_max_runes", 1900)
	v.SetDefault("sync.retry.max_attempts", 3)
	v.SetDefault("sync.retry.initial_backoff_ms", 1000)
	v.SetDefault("sync.circuit.failure_threshold", 5)
	v.SetDefault("sync.circuit.reset_timeout_secs", 60)
	v.SetDefault("verify.daily_limit", 90)
	v.SetDefault("verify.persistent", true)
	v.SetDefault("verify.unverified_only", true)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "factsync.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// setPropertyDefaults registers every column name so each one can be
// overridden from the environment (FACTSYNC_NOTION_PROPERTIES_EPS, ...).
func setPropertyDefaults(v *viper.Viper, p recordstore.Properties) {
	for key, name := range map[string]string{
		"ticker":       p.Ticker,
		"market_hint":  p.MarketHint,
		"stored_name":  p.StoredName,
		"company_name": p.CompanyName,
		"price":        p.Price,
		"high52":       p.High52,
		"low52":        p.Low52,
		"eps":          p.EPS,
		"bps":          p.BPS,
		"sector":       p.Sector,
		"industry":     p.Industry,
		"summary":      p.Summary,
		"verification": p.Verification,
		"audit_log":    p.AuditLog,
		"last_updated": p.LastUpdated,
	} {
		v.SetDefault("notion.properties."+key, name)
	}
}

// Validate checks the settings a command needs. mode is "sync", "verify",
// "resolve" or "runs".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "sync", "verify":
		if c.Notion.Token == "" {
			errs = append(errs, "notion.token is required")
		}
		if c.Notion.DatabaseID == "" {
			errs = append(errs, "notion.database_id is required")
		}
		if c.Notion.Properties.Ticker == "" {
			errs = append(errs, "notion.properties.ticker is required")
		}
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validateChains()...)
		if c.Sync.WriteDelayMs < 0 {
			errs = append(errs, "sync.write_delay_ms must be >= 0")
		}
		if c.Sync.MaxRuntimeMins < 0 {
			errs = append(errs, "sync.max_runtime_mins must be >= 0")
		}
		if c.Notion.PageSize < 0 || c.Notion.PageSize > 100 {
			errs = append(errs, "notion.page_size must be between 0 and 100")
		}
		if mode == "verify" {
			errs = append(errs, c.validateSearch()...)
		}
	case "resolve":
		errs = append(errs, c.validateChains()...)
	case "runs":
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

func (c *Config) validateChains() []string {
	if len(c.Sync.HomeChain) == 0 && len(c.Sync.ForeignChain) == 0 {
		return []string{"sync.home_chain or sync.foreign_chain must name at least one provider"}
	}
	return nil
}

func (c *Config) validateSearch() []string {
	var errs []string
	switch c.Search.Provider {
	case "":
	case "google":
		if c.Search.Google.Key == "" || c.Search.Google.CX == "" {
			errs = append(errs, "search.google.key and search.google.cx are required")
		}
	case "jina":
		if c.Search.Jina.Key == "" {
			errs = append(errs, "search.jina.key is required")
		}
	default:
		errs = append(errs, "search.provider must be google, jina or empty")
	}
	if c.Search.Results < 1 || c.Search.Results > 10 {
		errs = append(errs, "search.results must be between 1 and 10")
	}
	if c.Verify.DailyLimit < 0 {
		errs = append(errs, "verify.daily_limit must be >= 0")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
