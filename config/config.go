package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	DB      DBConfig      `mapstructure:"db"`
	Vision  VisionConfig  `mapstructure:"vision"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	Cleanup CleanupConfig `mapstructure:"cleanup"`
}

// ServerConfig holds settings for the HTTP API (serve mode).
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	DataDir      string   `mapstructure:"data_dir"`
	UploadDir    string   `mapstructure:"upload_dir"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DBConfig holds database settings for the annotation history.
type DBConfig struct {
	File string `mapstructure:"file"` // SQLite database file
}

// VisionConfig holds settings for the Google Cloud Vision integration.
type VisionConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"` // optional, ADC is used when empty
	Endpoint        string `mapstructure:"endpoint"`         // optional override, e.g. for a regional endpoint
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	MaxResults      int    `mapstructure:"max_results"` // default max results per feature
}

// MQTTConfig holds the configuration for the MQTT result publisher.
type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
}

// CleanupConfig holds retention settings for the annotation history.
type CleanupConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

// Load reads the configuration from file, environment variables and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Warnf("Config file %s does not exist, using defaults", configPath)
		} else {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			log.Debugf("Config loaded from %s", configPath)
		}
	}

	// Environment variables overlay the file values
	v.AutomaticEnv()
	v.SetEnvPrefix("GCVISION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Vision.MaxResults <= 0 {
		return fmt.Errorf("vision.max_results must be positive, got %d", c.Vision.MaxResults)
	}
	if c.Vision.TimeoutSeconds <= 0 {
		return fmt.Errorf("vision.timeout_seconds must be positive, got %d", c.Vision.TimeoutSeconds)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Vision.CredentialsFile != "" {
		if _, err := os.Stat(c.Vision.CredentialsFile); err != nil {
			return fmt.Errorf("vision.credentials_file not readable: %w", err)
		}
	}
	return nil
}

// EnsureDirectories creates the directories the configuration points at.
// Called by the commands that actually write data (serve, batch --save).
func (c *Config) EnsureDirectories() error {
	if c.Server.DataDir != "" {
		if err := os.MkdirAll(c.Server.DataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	if c.Server.UploadDir != "" {
		if err := os.MkdirAll(c.Server.UploadDir, 0755); err != nil {
			return fmt.Errorf("failed to create upload directory: %w", err)
		}
	}

	if c.DB.File != "" {
		dbDir := filepath.Dir(c.DB.File)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	if c.Log.File != "" {
		logDir := filepath.Dir(c.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	return nil
}

// setDefaults registers the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.data_dir", "data")
	v.SetDefault("server.upload_dir", "data/uploads")
	v.SetDefault("server.allow_origins", []string{"*"})

	// Log defaults; no log file for a CLI unless configured
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	// DB defaults
	v.SetDefault("db.file", "data/gcvision.db")

	// Vision defaults
	v.SetDefault("vision.credentials_file", "")
	v.SetDefault("vision.endpoint", "")
	v.SetDefault("vision.timeout_seconds", 30)
	v.SetDefault("vision.max_results", 5)

	// MQTT defaults
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.client_id", "gcvision-go")
	v.SetDefault("mqtt.topic", "gcvision/results")

	// Cleanup defaults
	v.SetDefault("cleanup.retention_days", 30)
}
