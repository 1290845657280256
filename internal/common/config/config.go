// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Gateways GatewaysConfig          `mapstructure:"gateways"`
	Policy   PolicyConfig            `mapstructure:"policy"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Upstream Gateway Configuration ---

// GatewayConfig holds the settings for one upstream vendor API. Credentials
// are carried here explicitly and handed to each client at construction;
// nothing reads them from process globals after startup.
type GatewayConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// GatewaysConfig groups the three upstream systems the siba core talks to.
type GatewaysConfig struct {
	ChannelManager GatewayConfig `mapstructure:"channel_manager"`
	LocalTax       GatewayConfig `mapstructure:"local_tax"`
	Catalog        GatewayConfig `mapstructure:"catalog"`
}

// --- Compliance Policy Configuration ---

// FallbackProperty is one entry of the hardcoded fleet used when the
// property catalog is unreachable.
type FallbackProperty struct {
	ID   int64  `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// PolicyConfig holds the registration-compliance policy knobs. The legal
// grace period is not pinned down by the municipal authority docs, so it
// lives here rather than as a constant.
type PolicyConfig struct {
	GraceDays                 int                `mapstructure:"grace_days"`
	DueSoonDays               int                `mapstructure:"due_soon_days"`
	PendingWindowDays         int                `mapstructure:"pending_window_days"`
	LookbackDays              int                `mapstructure:"lookback_days"`
	SubmissionIntervalMonths  int                `mapstructure:"submission_interval_months"`
	LowComplianceThreshold    int                `mapstructure:"low_compliance_threshold"`
	ExtraSubmissionDateFields []string           `mapstructure:"extra_submission_date_fields"` // "source:field" entries
	FallbackProperties        []FallbackProperty `mapstructure:"fallback_properties"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
