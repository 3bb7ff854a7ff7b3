package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Backend constants select which mail-store implementation to use.
const (
	BackendHTTP = "http"
	BackendIMAP = "imap"
)

// HTTPConfig holds settings for the REST mail-store backend.
type HTTPConfig struct {
	// BaseURL is the root URL of the webmail API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// IMAPConfig holds settings for the IMAP gateway backend.
type IMAPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`

	// Mailboxes maps folder names to server-side mailbox names.
	// Missing entries fall back to conventional names (Sent, Drafts, ...).
	Mailboxes map[string]string `mapstructure:"mailboxes" yaml:"mailboxes"`
}

// SMTPConfig holds the submission server settings used by the IMAP backend.
type SMTPConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme    string `mapstructure:"theme" yaml:"theme"`
	PageSize int    `mapstructure:"page_size" yaml:"page_size"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// Backend selects the mail-store implementation: "http" or "imap".
	Backend string        `mapstructure:"backend" yaml:"backend"`
	HTTP    HTTPConfig    `mapstructure:"http" yaml:"http"`
	IMAP    IMAPConfig    `mapstructure:"imap" yaml:"imap"`
	SMTP    SMTPConfig    `mapstructure:"smtp" yaml:"smtp"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`

	// LogFile is where diagnostic logs are written; the terminal is
	// owned by the UI and cannot carry log output.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/webmail/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "webmail", "config.yaml")
}

// defaultLogPath returns the default diagnostic log location.
func defaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "webmail.log")
	}
	return filepath.Join(home, ".config", "webmail", "webmail.log")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Backend: BackendHTTP,
		Display: DisplayConfig{
			Theme:    "default",
			PageSize: 10,
		},
		LogFile: defaultLogPath(),
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("backend", BackendHTTP)
	v.SetDefault("display.theme", "default")
	v.SetDefault("display.page_size", 10)
	v.SetDefault("log_file", defaultLogPath())
	v.SetDefault("imap.tls", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Display.PageSize <= 0 {
		cfg.Display.PageSize = 10
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend", cfg.Backend)
	v.Set("http", cfg.HTTP)
	v.Set("imap", cfg.IMAP)
	v.Set("smtp", cfg.SMTP)
	v.Set("display", cfg.Display)
	v.Set("log_file", cfg.LogFile)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
