// Package config provides Viper-based configuration management for trendscout
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/FranksOps/trendscout/internal/report"
	"github.com/FranksOps/trendscout/pkg/httpclient"
)

// Config represents the complete trendscout configuration
type Config struct {
	Ollama      OllamaConfig      `mapstructure:"ollama"`
	Prompt      PromptConfig      `mapstructure:"prompt"`
	Trends      TrendsConfig      `mapstructure:"trends"`
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
	Output      OutputConfig      `mapstructure:"output"`
	Report      ReportConfig      `mapstructure:"report"`
	Archive     ArchiveConfig     `mapstructure:"archive"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// OllamaConfig points at the language model service
type OllamaConfig struct {
	Host        string        `mapstructure:"host"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// PromptConfig fills the term generation prompt
type PromptConfig struct {
	Template string `mapstructure:"template"`
	Count    int    `mapstructure:"count"`
	MaxWords int    `mapstructure:"max_words"`
	Year     int    `mapstructure:"year"`
}

// TrendsConfig contains Google Trends query and transport settings
type TrendsConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeframe   string        `mapstructure:"timeframe"`
	Geo         string        `mapstructure:"geo"`
	HL          string        `mapstructure:"hl"`
	TZ          int           `mapstructure:"tz"`
	Related     bool          `mapstructure:"related"`
	TopN        int           `mapstructure:"top_n"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RPS         float64       `mapstructure:"rps"`
	Jitter      float64       `mapstructure:"jitter"`
	TLSProfile  string        `mapstructure:"tls_profile"`
	ProxiesFile string        `mapstructure:"proxies_file"`
	UserAgents  []string      `mapstructure:"user_agents"`
}

// MarketplaceConfig contains the search tool invocation settings
type MarketplaceConfig struct {
	Binary   string        `mapstructure:"binary"`
	Dir      string        `mapstructure:"dir"`
	Count    int           `mapstructure:"count"`
	Country  string        `mapstructure:"country"`
	FileType string        `mapstructure:"filetype"`
	DelayMin time.Duration `mapstructure:"delay_min"`
	DelayMax time.Duration `mapstructure:"delay_max"`
}

// OutputConfig contains where and how artifacts are written
type OutputConfig struct {
	Dir        string `mapstructure:"dir"`
	ReportDir  string `mapstructure:"report_dir"`
	TrendChart string `mapstructure:"trend_chart"`
	Summary    string `mapstructure:"summary"`
}

// ReportConfig contains final report settings
type ReportConfig struct {
	ChartMetric string `mapstructure:"chart_metric"`
}

// ArchiveConfig selects the optional run archive
type ArchiveConfig struct {
	Backend string `mapstructure:"backend"`
	DSN     string `mapstructure:"dsn"`
}

// MetricsConfig contains the Prometheus endpoint settings; port 0 disables it
type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("trendscout")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/trendscout")
	}

	v.SetEnvPrefix("TRENDSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The Ollama CLI's own variable works too.
	_ = v.BindEnv("ollama.host", "TRENDSCOUT_OLLAMA_HOST", "OLLAMA_HOST")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// No config file is fine unless one was asked for.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Ollama.Host = normalizeHost(cfg.Ollama.Host)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("ollama.host", "http://localhost:11434")
	v.SetDefault("ollama.model", "llama3.1")
	v.SetDefault("ollama.temperature", 0.1)
	v.SetDefault("ollama.timeout", 2*time.Minute)

	v.SetDefault("prompt.template", "")
	v.SetDefault("prompt.count", 10)
	v.SetDefault("prompt.max_words", 2)
	v.SetDefault("prompt.year", time.Now().Year())

	v.SetDefault("trends.base_url", "https://trends.google.com")
	v.SetDefault("trends.timeframe", "today 12-m")
	v.SetDefault("trends.geo", "")
	v.SetDefault("trends.hl", "en-US")
	v.SetDefault("trends.tz", 360)
	v.SetDefault("trends.related", true)
	v.SetDefault("trends.top_n", 5)
	v.SetDefault("trends.timeout", 30*time.Second)
	v.SetDefault("trends.rps", 0.5)
	v.SetDefault("trends.jitter", 0.3)
	v.SetDefault("trends.tls_profile", "chrome")
	v.SetDefault("trends.proxies_file", "")
	v.SetDefault("trends.user_agents", []string{})

	v.SetDefault("marketplace.binary", "amazon-buddy-yitz-version")
	v.SetDefault("marketplace.dir", ".")
	v.SetDefault("marketplace.count", 10)
	v.SetDefault("marketplace.country", "US")
	v.SetDefault("marketplace.filetype", "csv")
	v.SetDefault("marketplace.delay_min", 5*time.Second)
	v.SetDefault("marketplace.delay_max", 10*time.Second)

	v.SetDefault("output.dir", "output")
	v.SetDefault("output.report_dir", ".")
	v.SetDefault("output.trend_chart", "png")
	v.SetDefault("output.summary", "text")

	v.SetDefault("report.chart_metric", "result_count")

	v.SetDefault("archive.backend", "")
	v.SetDefault("archive.dsn", "")

	v.SetDefault("metrics.port", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// normalizeHost accepts the host:port form OLLAMA_HOST often carries.
func normalizeHost(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host != "" && !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return host
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s (must be text or json)", cfg.Logging.Format)
	}

	if cfg.Ollama.Host == "" || cfg.Ollama.Model == "" {
		return errors.New("ollama host and model are required")
	}
	if cfg.Ollama.Temperature < 0 || cfg.Ollama.Temperature > 2 {
		return fmt.Errorf("invalid ollama temperature: %v (must be between 0 and 2)", cfg.Ollama.Temperature)
	}

	if cfg.Prompt.Count <= 0 || cfg.Prompt.MaxWords <= 0 {
		return errors.New("prompt count and max_words must be positive")
	}

	if cfg.Trends.Timeframe == "" {
		return errors.New("trends timeframe is required")
	}
	if cfg.Trends.TopN <= 0 {
		return fmt.Errorf("invalid trends top_n: %d (must be positive)", cfg.Trends.TopN)
	}
	if cfg.Trends.RPS < 0 || cfg.Trends.Jitter < 0 || cfg.Trends.Jitter > 1 {
		return errors.New("trends rps must be >= 0 and jitter between 0 and 1")
	}
	if _, err := httpclient.ParseProfile(cfg.Trends.TLSProfile); err != nil {
		return fmt.Errorf("invalid trends tls_profile: %s", cfg.Trends.TLSProfile)
	}

	validFileTypes := map[string]bool{"csv": true, "json": true}
	if !validFileTypes[cfg.Marketplace.FileType] {
		return fmt.Errorf("invalid marketplace filetype: %s (must be csv or json)", cfg.Marketplace.FileType)
	}
	if cfg.Marketplace.Count <= 0 {
		return fmt.Errorf("invalid marketplace count: %d (must be positive)", cfg.Marketplace.Count)
	}
	if cfg.Marketplace.DelayMin < 0 || cfg.Marketplace.DelayMax < cfg.Marketplace.DelayMin {
		return fmt.Errorf("invalid marketplace delay range: %s..%s", cfg.Marketplace.DelayMin, cfg.Marketplace.DelayMax)
	}

	validCharts := map[string]bool{"png": true, "html": true}
	if !validCharts[cfg.Output.TrendChart] {
		return fmt.Errorf("invalid output trend_chart: %s (must be png or html)", cfg.Output.TrendChart)
	}
	validSummaries := map[string]bool{"": true, "none": true, "text": true, "json": true, "html": true}
	if !validSummaries[cfg.Output.Summary] {
		return fmt.Errorf("invalid output summary: %s (must be none, text, json, or html)", cfg.Output.Summary)
	}

	if _, err := report.ParseMetric(cfg.Report.ChartMetric); err != nil {
		return err
	}

	switch cfg.Archive.Backend {
	case "":
	case "csv", "json", "sqlite", "postgres":
		if cfg.Archive.DSN == "" {
			return fmt.Errorf("archive backend %s requires archive.dsn", cfg.Archive.Backend)
		}
	default:
		return fmt.Errorf("invalid archive backend: %s (must be csv, json, sqlite, or postgres)", cfg.Archive.Backend)
	}

	if cfg.Metrics.Port < 0 || cfg.Metrics.Port > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.Metrics.Port)
	}

	return nil
}
