package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// envPrefix namespaces all environment variables, e.g. BAKERY_SERVER_PORT.
const envPrefix = "BAKERY"

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Drive     DriveConfig     `yaml:"drive" envconfig:"DRIVE"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// DriveConfig points at the Google Drive folder holding the daily exports.
// When Enabled is false the service reads exports from Paths.DataDir instead.
type DriveConfig struct {
	Enabled         bool   `yaml:"enabled" envconfig:"ENABLED" default:"false"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE" default:"service_account.json"`
	FolderID        string `yaml:"folder_id" envconfig:"FOLDER_ID"`
}

// PathsConfig contains file system paths.
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"reports"`
}

// AnalyticsConfig tunes the analytics views.
type AnalyticsConfig struct {
	// FirstSaleDate is the earliest date with sales data; requested ranges
	// are clamped to it.
	FirstSaleDate      string `yaml:"first_sale_date" envconfig:"FIRST_SALE_DATE" default:"2024-05-29"`
	BusinessHoursStart int    `yaml:"business_hours_start" envconfig:"BUSINESS_HOURS_START" default:"8"`
	BusinessHoursEnd   int    `yaml:"business_hours_end" envconfig:"BUSINESS_HOURS_END" default:"22"`
	// PieSlices is the top-N size for mix breakdowns; the remainder
	// collapses into an Others slice.
	PieSlices int `yaml:"pie_slices" envconfig:"PIE_SLICES" default:"6"`
}

// FirstSale parses the configured first-sale date.
func (a AnalyticsConfig) FirstSale() (time.Time, error) {
	t, err := time.Parse("2006-01-02", a.FirstSaleDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid first_sale_date %q: %w", a.FirstSaleDate, err)
	}
	return t, nil
}

// Load loads configuration from environment variables, with an optional
// config.yaml overlay taking precedence when present.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if data, err := os.ReadFile("config.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config.yaml: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Drive.Enabled && c.Drive.FolderID == "" {
		return fmt.Errorf("drive is enabled but folder_id is empty")
	}
	if c.Analytics.BusinessHoursStart < 0 || c.Analytics.BusinessHoursEnd > 23 ||
		c.Analytics.BusinessHoursStart > c.Analytics.BusinessHoursEnd {
		return fmt.Errorf("invalid business hours: %d-%d",
			c.Analytics.BusinessHoursStart, c.Analytics.BusinessHoursEnd)
	}
	if _, err := c.Analytics.FirstSale(); err != nil {
		return err
	}
	return nil
}
