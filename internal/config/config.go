package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"labmanager/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Seed       SeedConfig       `yaml:"seed"`
	Admin      AdminConfig      `yaml:"admin"`
	API        APIConfig        `yaml:"api"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SeedConfig controls first-run population of the resource registry. The
// template receives the one-based resource index, e.g. "PC-%02d".
type SeedConfig struct {
	ResourceCount int    `yaml:"resource_count"`
	NameTemplate  string `yaml:"name_template"`
}

// AdminConfig bootstraps the first administrator account if absent.
type AdminConfig struct {
	ExternalID string `yaml:"external_id"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
}

type APIConfig struct {
	Port           int                `yaml:"port"`
	SessionTTL     int                `yaml:"session_ttl"` // seconds
	RateLimit      APIRateLimitConfig `yaml:"rate_limit"`
	LoginAttempts  int                `yaml:"login_attempts"`
	LoginWindowSec int                `yaml:"login_window"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Expand ${VAR} references before parsing so secrets stay out of the file.
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Seed.ResourceCount <= 0 {
		return errors.New("seed resource_count must be positive")
	}
	if !strings.Contains(c.Seed.NameTemplate, "%") {
		return fmt.Errorf("seed name_template %q must contain a numeric verb", c.Seed.NameTemplate)
	}
	if c.Admin.ExternalID == "" || c.Admin.Password == "" {
		return errors.New("admin external_id and password are required")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "labmanager"
	}
	if c.Seed.NameTemplate == "" {
		c.Seed.NameTemplate = "PC-%02d"
	}
	if c.Admin.Name == "" {
		c.Admin.Name = "Administrator"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.SessionTTL == 0 {
		c.API.SessionTTL = models.DefaultSessionTTL
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}
	if c.API.LoginAttempts == 0 {
		c.API.LoginAttempts = models.LoginRateLimitAttempts
	}
	if c.API.LoginWindowSec == 0 {
		c.API.LoginWindowSec = models.LoginRateLimitWindow
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
