package main

import (
	"fmt"
	"os"

	"github.com/fgeck/gorouter-reset/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file without touching the router.`,
	RunE:  validateConfig,
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		log.Error().Msg("config file is required")
		return cmd.Help()
	}

	// Check if file exists
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Error().Str("file", configFile).Msg("config file not found")
		return fmt.Errorf("config file not found: %s", configFile)
	}

	// Load configuration
	parser := config.NewParser()
	cfg, err := parser.LoadFile(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to parse config")
		return err
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("configuration validation failed")
		return err
	}

	// Print configuration summary
	fmt.Println("Configuration is valid!")
	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  Router: %s\n", cfg.Router.Address)
	fmt.Printf("  Username: %s\n", cfg.Router.Username)
	fmt.Printf("  Password: (configured)\n")
	fmt.Printf("  Lookup URL: %s\n", cfg.Lookup.URL)
	fmt.Println()
	fmt.Println("Timing:")
	fmt.Printf("  Disconnect wait: %s\n", cfg.Timing.DisconnectWait)
	fmt.Printf("  Reconnect wait: %s\n", cfg.Timing.ReconnectWait)
	fmt.Printf("  Restart wait: %s\n", cfg.Timing.RestartWait)
	fmt.Println()
	fmt.Println("Optional Features:")
	fmt.Printf("  SSH Restart: %v\n", cfg.SSHRestart != nil)
	fmt.Printf("  Telegram: %v\n", cfg.Telegram != nil)
	fmt.Printf("  Log File: %v\n", cfg.LogDir != "")

	if cfg.SSHRestart != nil {
		fmt.Println()
		fmt.Println("SSH Restart Configuration:")
		fmt.Printf("  Host: %s\n", cfg.SSHRestart.Host)
		fmt.Printf("  Port: %d\n", cfg.SSHRestart.Port)
		fmt.Printf("  Username: %s\n", cfg.SSHRestart.Username)
		fmt.Printf("  Command: %s\n", cfg.SSHRestart.Command)
	}

	if cfg.Telegram != nil {
		fmt.Println()
		fmt.Println("Telegram Configuration:")
		fmt.Printf("  Chat ID: %s\n", cfg.Telegram.ChatID)
		fmt.Printf("  Bot Token: (configured)\n")
	}

	if cfg.LogDir != "" {
		fmt.Println()
		fmt.Println("Logging:")
		fmt.Printf("  Log directory: %s\n", cfg.LogDir)
	}

	return nil
}
