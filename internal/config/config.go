package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dalnet/pongbot/internal/pong"
)

// Config holds all bot configuration
type Config struct {
	Nick          string   `yaml:"nick"`
	NickPass      string   `yaml:"nick_pass"`
	Alternate     string   `yaml:"alternate"`
	Server        string   `yaml:"server"`
	Port          int      `yaml:"port"`
	TLS           bool     `yaml:"tls"`
	TLSInsecure   bool     `yaml:"tls_insecure"`
	ServerPass    string   `yaml:"server_pass"`
	SASLLogin     string   `yaml:"sasl_login"`
	SASLPassword  string   `yaml:"sasl_password"`
	IRCName       string   `yaml:"irc_name"`
	Username      string   `yaml:"username"`
	Channels      []string `yaml:"channels"`
	AdminPass     string   `yaml:"admin_pass"`
	CommandPrefix string   `yaml:"command_prefix"`
	DataDir       string   `yaml:"data_dir"`
	LogLevel      string   `yaml:"log_level"`
	LogFormat     string   `yaml:"log_format"`
	MetricsAddr   string   `yaml:"metrics_addr"`

	Pong pong.Settings `yaml:"pong"`
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and fills in defaults. Pong settings
// missing from the file keep their stock values.
func Parse(data []byte) (*Config, error) {
	cfg := Config{Pong: pong.DefaultSettings()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.Port == 0 {
		cfg.Port = 6667
		if cfg.TLS {
			cfg.Port = 6697
		}
	}
	if cfg.Alternate == "" && cfg.Nick != "" {
		cfg.Alternate = cfg.Nick + "_"
	}
	if cfg.Username == "" {
		cfg.Username = cfg.Nick
	}
	if cfg.IRCName == "" {
		cfg.IRCName = "pongbot"
	}
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "!"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	return &cfg, nil
}

// Validate checks that the configuration can be used to connect and run.
func (c *Config) Validate() error {
	var errs []error
	if c.Nick == "" {
		errs = append(errs, errors.New("nick is required"))
	}
	if c.Server == "" {
		errs = append(errs, errors.New("server is required"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	for _, ch := range c.Channels {
		if !strings.HasPrefix(ch, "#") && !strings.HasPrefix(ch, "&") {
			errs = append(errs, fmt.Errorf("channel %q must start with # or &", ch))
		}
	}
	if err := c.Pong.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("pong: %w", err))
	}
	return errors.Join(errs...)
}
