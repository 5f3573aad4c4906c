// Package config provides configuration file parsing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fgeck/gorouter-reset/internal/models"
	"github.com/spf13/viper"
)

// Default timings mirror the waits the reset workflow needs: a short pause
// after dropping the cellular uplink, a longer one after reconnecting, and a
// full minute for a device reboot.
const (
	defaultDisconnectWait = 5 * time.Second
	defaultReconnectWait  = 10 * time.Second
	defaultRestartWait    = 60 * time.Second

	defaultLookupURL     = "https://api.ipify.org?format=json"
	defaultLookupTimeout = 10 * time.Second
	defaultRouterTimeout = 15 * time.Second
)

// Parser handles configuration file parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")
	return &Parser{v: v}
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.ResetConfig, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a reader (useful for testing).
func (p *Parser) LoadReader(content string) (*models.ResetConfig, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

func (p *Parser) parse() (*models.ResetConfig, error) {
	cfg := &models.ResetConfig{}

	// Parse router config (required).
	cfg.Router = models.RouterConfig{
		Address:  p.v.GetString("router.address"),
		Username: p.v.GetString("router.username"),
		Password: p.expandEnv(p.v.GetString("router.password")),
		Timeout:  p.v.GetDuration("router.timeout"),
	}

	if cfg.Router.Address == "" {
		return nil, fmt.Errorf("router.address is required")
	}
	if cfg.Router.Password == "" {
		return nil, fmt.Errorf("router.password is required")
	}
	if cfg.Router.Username == "" {
		cfg.Router.Username = "admin"
	}
	if cfg.Router.Timeout == 0 {
		cfg.Router.Timeout = defaultRouterTimeout
	}

	// Parse lookup settings.
	cfg.Lookup = models.LookupConfig{
		URL:     p.v.GetString("lookup.url"),
		Timeout: p.v.GetDuration("lookup.timeout"),
	}

	if cfg.Lookup.URL == "" {
		cfg.Lookup.URL = defaultLookupURL
	}
	if cfg.Lookup.Timeout == 0 {
		cfg.Lookup.Timeout = defaultLookupTimeout
	}

	// Parse timing settings.
	cfg.Timing = models.TimingSettings{
		DisconnectWait: p.v.GetDuration("timing.disconnect_wait"),
		ReconnectWait:  p.v.GetDuration("timing.reconnect_wait"),
		RestartWait:    p.v.GetDuration("timing.restart_wait"),
	}

	if cfg.Timing.DisconnectWait == 0 {
		cfg.Timing.DisconnectWait = defaultDisconnectWait
	}
	if cfg.Timing.ReconnectWait == 0 {
		cfg.Timing.ReconnectWait = defaultReconnectWait
	}
	if cfg.Timing.RestartWait == 0 {
		cfg.Timing.RestartWait = defaultRestartWait
	}

	// Parse optional SSH restart config.
	if p.v.IsSet("ssh_restart") {
		cfg.SSHRestart = &models.SSHRestartConfig{
			Host:     p.v.GetString("ssh_restart.host"),
			Port:     p.v.GetInt("ssh_restart.port"),
			Username: p.v.GetString("ssh_restart.username"),
			KeyPath:  p.expandEnv(p.v.GetString("ssh_restart.key_path")),
			Command:  p.v.GetString("ssh_restart.command"),
		}

		if cfg.SSHRestart.KeyPath == "" {
			return nil, fmt.Errorf("ssh_restart.key_path is required when ssh_restart is configured")
		}

		// Set defaults.
		if cfg.SSHRestart.Host == "" {
			cfg.SSHRestart.Host = cfg.Router.Address
		}
		if cfg.SSHRestart.Port == 0 {
			cfg.SSHRestart.Port = 22
		}
		if cfg.SSHRestart.Username == "" {
			cfg.SSHRestart.Username = "root"
		}
		if cfg.SSHRestart.Command == "" {
			cfg.SSHRestart.Command = "reboot"
		}
	}

	// Parse optional Telegram config.
	if p.v.IsSet("telegram") {
		cfg.Telegram = &models.TelegramConfig{
			BotToken: p.expandEnv(p.v.GetString("telegram.bot_token")),
			ChatID:   p.expandEnv(p.v.GetString("telegram.chat_id")),
		}

		if cfg.Telegram.BotToken == "" {
			return nil, fmt.Errorf("telegram.bot_token is required when telegram is configured")
		}
		if cfg.Telegram.ChatID == "" {
			return nil, fmt.Errorf("telegram.chat_id is required when telegram is configured")
		}
	}

	cfg.LogDir = p.expandEnv(p.v.GetString("log_dir"))

	return cfg, nil
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate performs validation on the loaded configuration.
func Validate(cfg *models.ResetConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if cfg.Router.Address == "" {
		return fmt.Errorf("router.address is required")
	}

	if cfg.Router.Password == "" {
		return fmt.Errorf("router.password is required")
	}

	if cfg.Lookup.URL == "" {
		return fmt.Errorf("lookup.url is required")
	}

	return nil
}
