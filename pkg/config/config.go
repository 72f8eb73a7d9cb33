package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/goran-ethernal/TransferCrawler/internal/common"
	"github.com/goran-ethernal/TransferCrawler/internal/logger"
	"github.com/shopspring/decimal"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	// DefaultAddressVersion is the version byte prepended to 20-byte account hashes on Tron.
	DefaultAddressVersion = 0x41
)

// Config represents the complete configuration for the crawler.
type Config struct {
	// ActiveNetwork selects one entry of Networks
	ActiveNetwork string `yaml:"active_network" json:"active_network" toml:"active_network"`

	// Networks contains per-network node and token settings keyed by network name
	Networks map[string]NetworkConfig `yaml:"networks" json:"networks" toml:"networks"`

	// Crawler contains the block loop configuration
	Crawler CrawlerConfig `yaml:"crawler" json:"crawler" toml:"crawler"`

	// DB contains relational store configuration
	DB DatabaseConfig `yaml:"db" json:"db" toml:"db"`

	// Notifier contains the outbound alert configuration
	Notifier NotifierConfig `yaml:"notifier" json:"notifier" toml:"notifier"`

	// Control contains the control server configuration
	Control ControlConfig `yaml:"control" json:"control" toml:"control"`

	// Logging contains logging configuration
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty"`

	// Metrics contains Prometheus metrics configuration
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty" toml:"metrics,omitempty"`
}

// NetworkConfig holds the settings that differ between ledger networks.
type NetworkConfig struct {
	// APIHost is the base URL of the node HTTP API, e.g. "https://nile.trongrid.io/"
	APIHost string `yaml:"api_host" json:"api_host" toml:"api_host"`

	// APIKey is sent as TRON-PRO-API-KEY when set
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty" toml:"api_key,omitempty"`

	// TokenContract is the watched token contract, in hex ("41...") or base58 form
	TokenContract string `yaml:"token_contract" json:"token_contract" toml:"token_contract"`

	// CurrencyFactor divides raw token amounts into human-readable amounts, e.g. "1000000"
	CurrencyFactor string `yaml:"currency_factor" json:"currency_factor" toml:"currency_factor"`

	// AddressVersion is the version byte of account addresses (0x41 on Tron)
	AddressVersion byte `yaml:"address_version,omitempty" json:"address_version,omitempty" toml:"address_version,omitempty"`
}

// ApplyDefaults sets default values for optional network fields.
func (n *NetworkConfig) ApplyDefaults() {
	if n.AddressVersion == 0 {
		n.AddressVersion = DefaultAddressVersion
	}
}

// Validate checks if the network configuration is valid.
func (n *NetworkConfig) Validate() error {
	if n.APIHost == "" {
		return fmt.Errorf("api_host is required")
	}
	if n.TokenContract == "" {
		return fmt.Errorf("token_contract is required")
	}

	factor, err := n.Factor()
	if err != nil {
		return err
	}
	if !factor.IsPositive() {
		return fmt.Errorf("currency_factor must be positive")
	}

	return nil
}

// Factor parses CurrencyFactor.
func (n *NetworkConfig) Factor() (decimal.Decimal, error) {
	factor, err := decimal.NewFromString(n.CurrencyFactor)
	if err != nil {
		return decimal.Zero, fmt.Errorf("currency_factor %q is not a number: %w", n.CurrencyFactor, err)
	}
	return factor, nil
}

// CrawlerConfig represents the configuration of the block loop.
type CrawlerConfig struct {
	// StartHeight overrides the latest-block lookup at startup when non-zero
	StartHeight uint64 `yaml:"start_height,omitempty" json:"start_height,omitempty" toml:"start_height,omitempty"`

	// RetryInterval is the pause before refetching a height that is not available yet
	RetryInterval common.Duration `yaml:"retry_interval" json:"retry_interval" toml:"retry_interval"`

	// MaxInFlight caps the number of blocks processed concurrently
	MaxInFlight int `yaml:"max_in_flight" json:"max_in_flight" toml:"max_in_flight"`

	// RequestTimeout bounds a single node HTTP request
	RequestTimeout common.Duration `yaml:"request_timeout" json:"request_timeout" toml:"request_timeout"`

	// Retry configures the exponential backoff used to seed the cursor
	Retry *RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty" toml:"retry,omitempty"`
}

// ApplyDefaults sets default values for optional crawler configuration fields.
func (c *CrawlerConfig) ApplyDefaults() {
	if c.RetryInterval.Duration == 0 {
		c.RetryInterval = common.NewDuration(4 * time.Second) //nolint:mnd
	}
	if c.MaxInFlight == 0 {
		c.MaxInFlight = 16
	}
	if c.RequestTimeout.Duration == 0 {
		c.RequestTimeout = common.NewDuration(30 * time.Second) //nolint:mnd
	}
	if c.Retry == nil {
		c.Retry = &RetryConfig{}
	}
	c.Retry.ApplyDefaults()
}

// Validate checks if the crawler configuration is valid.
func (c *CrawlerConfig) Validate() error {
	if c.MaxInFlight < 1 {
		return fmt.Errorf("max_in_flight must be at least 1")
	}
	if c.RetryInterval.Duration < 0 {
		return fmt.Errorf("retry_interval must not be negative")
	}
	return nil
}

// RetryConfig represents RPC retry configuration with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial request)
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`

	// InitialBackoff is the initial backoff duration before first retry
	InitialBackoff common.Duration `yaml:"initial_backoff" json:"initial_backoff" toml:"initial_backoff"`

	// MaxBackoff is the maximum backoff duration
	MaxBackoff common.Duration `yaml:"max_backoff" json:"max_backoff" toml:"max_backoff"`

	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier" toml:"backoff_multiplier"`
}

// ApplyDefaults sets default values for retry configuration.
func (r *RetryConfig) ApplyDefaults() {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 5
	}
	if r.InitialBackoff.Duration == 0 {
		r.InitialBackoff = common.NewDuration(1 * time.Second)
	}
	if r.MaxBackoff.Duration == 0 {
		r.MaxBackoff = common.NewDuration(30 * time.Second) //nolint:mnd
	}
	if r.BackoffMultiplier == 0 {
		r.BackoffMultiplier = 2.0
	}
}

// DatabaseConfig represents database configuration.
type DatabaseConfig struct {
	// Driver is either "postgres" or "sqlite3"
	Driver string `yaml:"driver" json:"driver" toml:"driver"`

	// DSN is a full connection string; when empty it is built from the fields below
	DSN string `yaml:"dsn,omitempty" json:"dsn,omitempty" toml:"dsn,omitempty"`

	// Host, Port, User, Password, Name and SSLMode describe a Postgres connection
	Host     string `yaml:"host,omitempty" json:"host,omitempty" toml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty" json:"port,omitempty" toml:"port,omitempty"`
	User     string `yaml:"user,omitempty" json:"user,omitempty" toml:"user,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty" toml:"password,omitempty"`
	Name     string `yaml:"name,omitempty" json:"name,omitempty" toml:"name,omitempty"`
	SSLMode  string `yaml:"sslmode,omitempty" json:"sslmode,omitempty" toml:"sslmode,omitempty"`

	// Path is the file path to the SQLite database
	Path string `yaml:"path,omitempty" json:"path,omitempty" toml:"path,omitempty"`

	// MaxOpenConnections is the maximum number of open database connections
	MaxOpenConnections int `yaml:"max_open_connections" json:"max_open_connections" toml:"max_open_connections"`

	// MaxIdleConnections is the maximum number of idle connections in the pool
	MaxIdleConnections int `yaml:"max_idle_connections" json:"max_idle_connections" toml:"max_idle_connections"`

	// ConnMaxLifetime recycles pooled connections after this long (0 = forever)
	ConnMaxLifetime common.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" toml:"conn_max_lifetime"`
}

// ApplyDefaults sets default values for optional database configuration fields.
func (d *DatabaseConfig) ApplyDefaults() {
	if d.Driver == "" {
		d.Driver = DriverPostgres
	}
	if d.Driver == DriverPostgres {
		if d.Port == 0 {
			d.Port = 5432
		}
		if d.SSLMode == "" {
			d.SSLMode = "disable"
		}
	}
	if d.MaxOpenConnections == 0 {
		d.MaxOpenConnections = 25
	}
	if d.MaxIdleConnections == 0 {
		d.MaxIdleConnections = 5
	}
}

// Validate checks if the database configuration is valid.
func (d *DatabaseConfig) Validate() error {
	switch d.Driver {
	case DriverPostgres:
		if d.DSN == "" && (d.Host == "" || d.Name == "") {
			return fmt.Errorf("db: dsn or host and name are required for postgres")
		}
	case DriverSQLite:
		if d.Path == "" {
			return fmt.Errorf("db: path is required for sqlite3")
		}
	default:
		return fmt.Errorf("db.driver must be one of: %s, %s", DriverPostgres, DriverSQLite)
	}
	return nil
}

// ConnectionString returns the driver specific data source name.
func (d *DatabaseConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}

	if d.Driver == DriverSQLite {
		return fmt.Sprintf("file:%s?_txlock=immediate&_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", d.Path)
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		quoteDSNValue(d.Host), d.Port, quoteDSNValue(d.User), quoteDSNValue(d.Password),
		quoteDSNValue(d.Name), quoteDSNValue(d.SSLMode))
}

// quoteDSNValue quotes a libpq keyword/value so empty values and values with
// spaces, quotes or backslashes survive parsing.
func quoteDSNValue(v string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
	return "'" + escaped + "'"
}

// NotifierConfig configures the Telegram notifier.
type NotifierConfig struct {
	// BotToken is the Telegram bot credential; an empty token disables notifications
	BotToken string `yaml:"bot_token" json:"bot_token" toml:"bot_token"`

	// ChatID is the chat the alerts are posted to
	ChatID string `yaml:"chat_id" json:"chat_id" toml:"chat_id"`

	// BaseURL is the Bot API endpoint
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty" toml:"base_url,omitempty"`

	// Timeout bounds a single send
	Timeout common.Duration `yaml:"timeout" json:"timeout" toml:"timeout"`
}

// ApplyDefaults sets default values for optional notifier configuration fields.
func (n *NotifierConfig) ApplyDefaults() {
	if n.BaseURL == "" {
		n.BaseURL = "https://api.telegram.org"
	}
	if n.Timeout.Duration == 0 {
		n.Timeout = common.NewDuration(10 * time.Second) //nolint:mnd
	}
}

// Enabled reports whether notifications can be sent.
func (n *NotifierConfig) Enabled() bool {
	return n.BotToken != ""
}

// Validate checks if the notifier configuration is valid.
func (n *NotifierConfig) Validate() error {
	if n.Enabled() && n.ChatID == "" {
		return fmt.Errorf("notifier.chat_id is required when bot_token is set")
	}
	return nil
}

// ControlConfig configures the control HTTP server.
type ControlConfig struct {
	// ListenAddress is the address to bind the control server to
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout common.Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response
	WriteTimeout common.Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout common.Duration `yaml:"idle_timeout" json:"idle_timeout" toml:"idle_timeout"`
}

// ApplyDefaults sets default values for optional control server fields.
func (c *ControlConfig) ApplyDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = ":8080"
	}
	if c.ReadTimeout.Duration == 0 {
		c.ReadTimeout = common.NewDuration(5 * time.Second) //nolint:mnd
	}
	if c.WriteTimeout.Duration == 0 {
		c.WriteTimeout = common.NewDuration(10 * time.Second) //nolint:mnd
	}
	if c.IdleTimeout.Duration == 0 {
		c.IdleTimeout = common.NewDuration(60 * time.Second) //nolint:mnd
	}
}

// LoggingConfig configures logging behavior with per-component log levels.
type LoggingConfig struct {
	// DefaultLevel is the default log level for all components
	// Options: "debug", "info", "warn", "error"
	DefaultLevel string `yaml:"default_level" json:"default_level" toml:"default_level"`

	// Development enables development mode (stack traces, console encoder)
	Development bool `yaml:"development" json:"development" toml:"development"`

	// ComponentLevels sets log levels for specific components
	// Available components:
	//   - crawler: block loop and task dispatch
	//   - ledger: node HTTP client
	//   - processor: block and call data decoding
	//   - store: relational store
	//   - watchlist: watched address registry
	//   - notifier: outbound alerts
	//   - control: control server
	ComponentLevels map[string]string `yaml:"component_levels,omitempty" json:"component_levels,omitempty" toml:"component_levels,omitempty"` //nolint:lll
}

// ApplyDefaults sets default values for optional logging configuration fields.
func (l *LoggingConfig) ApplyDefaults() {
	if l.DefaultLevel == "" {
		l.DefaultLevel = "info"
	}
	if l.ComponentLevels == nil {
		l.ComponentLevels = make(map[string]string)
	}
}

// Validate checks if the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	if l.DefaultLevel != "" {
		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(l.DefaultLevel)]; !valid {
			return fmt.Errorf("logging.default_level: must be one of: debug, info, warn, error")
		}
	}

	for component, level := range l.ComponentLevels {
		if _, validComponent := common.AllComponents[common.ToLowerWithTrim(component)]; !validComponent {
			return fmt.Errorf("logging.component_levels: unknown component '%s'", component)
		}

		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(level)]; !valid {
			return fmt.Errorf("logging.component_levels[%s]: must be one of: debug, info, warn, error", component)
		}
	}

	return nil
}

// GetComponentLevel returns the log level for a specific component.
// Falls back to DefaultLevel if no component-specific level is set.
func (l *LoggingConfig) GetComponentLevel(component string) string {
	if level, ok := l.ComponentLevels[component]; ok {
		return common.ToLowerWithTrim(level)
	}
	return common.ToLowerWithTrim(l.DefaultLevel)
}

// GetDefaultLevel returns the default log level.
func (l *LoggingConfig) GetDefaultLevel() string {
	return common.ToLowerWithTrim(l.DefaultLevel)
}

// IsDevelopment returns whether development mode is enabled.
func (l *LoggingConfig) IsDevelopment() bool {
	return l.Development
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP endpoint are active
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the metrics HTTP server to
	// Format: "host:port" or ":port"
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// Path is the HTTP path where metrics are exposed
	Path string `yaml:"path" json:"path" toml:"path"`
}

// ApplyDefaults sets default values for optional metrics configuration fields.
func (m *MetricsConfig) ApplyDefaults() {
	if m.ListenAddress == "" {
		m.ListenAddress = ":9090"
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

// Validate checks if the metrics configuration is valid.
func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.ListenAddress == "" {
			return fmt.Errorf("listen_address is required when metrics are enabled")
		}
		if m.Path == "" {
			return fmt.Errorf("path is required when metrics are enabled")
		}
		if m.Path[0] != '/' {
			return fmt.Errorf("path must start with '/'")
		}
	}
	return nil
}

// ApplyDefaults sets default values for optional configuration fields.
func (c *Config) ApplyDefaults() {
	for name, network := range c.Networks {
		network.ApplyDefaults()
		c.Networks[name] = network
	}

	c.Crawler.ApplyDefaults()
	c.DB.ApplyDefaults()
	c.Notifier.ApplyDefaults()
	c.Control.ApplyDefaults()

	if c.Logging != nil {
		c.Logging.ApplyDefaults()
	}

	if c.Metrics != nil {
		c.Metrics.ApplyDefaults()
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ActiveNetwork == "" {
		return fmt.Errorf("active_network is required")
	}

	network, ok := c.Networks[c.ActiveNetwork]
	if !ok {
		names := make([]string, 0, len(c.Networks))
		for name := range c.Networks {
			names = append(names, name)
		}
		slices.Sort(names)
		return fmt.Errorf("active_network %q is not configured (available: %v)", c.ActiveNetwork, names)
	}

	if err := network.Validate(); err != nil {
		return fmt.Errorf("networks.%s: %w", c.ActiveNetwork, err)
	}

	if err := c.Crawler.Validate(); err != nil {
		return fmt.Errorf("crawler: %w", err)
	}

	if err := c.DB.Validate(); err != nil {
		return err
	}

	if err := c.Notifier.Validate(); err != nil {
		return err
	}

	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return err
		}
	}

	if c.Metrics != nil {
		if err := c.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	return nil
}

// Network returns the settings of the active network.
// It must only be called on a validated configuration.
func (c *Config) Network() NetworkConfig {
	return c.Networks[c.ActiveNetwork]
}
