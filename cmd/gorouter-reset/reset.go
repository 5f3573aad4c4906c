package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fgeck/gorouter-reset/internal/config"
	"github.com/fgeck/gorouter-reset/internal/models"
	"github.com/fgeck/gorouter-reset/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var resetMethod string

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Execute the IP reset workflow",
	Long: `Execute the complete IP reset workflow:
1. Query the current public IP
2. Log in to the router's admin interface
3. Cycle the cellular connection (or restart the device)
4. Wait for the uplink to come back
5. Re-query the public IP and compare
6. Fall back to a full restart if the connection cycle changed nothing
7. Send a Telegram notification (if configured)`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().StringVarP(&resetMethod, "method", "m", "auto",
		"reset method: auto, cycle or restart")
}

func runReset(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		log.Error().Msg("config file is required")
		return cmd.Help()
	}

	method, err := parseMethod(resetMethod)
	if err != nil {
		log.Error().Err(err).Msg("invalid method")
		return err
	}

	// Load configuration
	parser := config.NewParser()
	cfg, err := parser.LoadFile(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to load config")
		return err
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}

	if cfg.LogDir != "" {
		closeLog, err := attachLogFile(cfg.LogDir)
		if err != nil {
			log.Error().Err(err).Msg("failed to set up log file")
			return err
		}
		defer closeLog()
	}

	log.Info().
		Str("config", configFile).
		Str("router", cfg.Router.Address).
		Str("lookup", cfg.Lookup.URL).
		Msg("configuration loaded")

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
		cancel()
	}()

	// Run reset
	runnerSvc, err := runner.New(log.Logger, *cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to create runner")
		return err
	}

	result, err := runnerSvc.Run(ctx, *cfg, method)
	if err != nil {
		log.Error().Err(err).Msg("IP reset failed")
		return err
	}

	if !result.Success {
		fmt.Printf("IP reset failed: %s\n", errorMessage(result))
		return fmt.Errorf("IP reset failed")
	}

	fmt.Printf("IP reset successful: %s -> %s (%s)\n", result.OldIP, result.NewIP, result.Method)
	return nil
}

func parseMethod(s string) (models.ResetMethod, error) {
	switch s {
	case "auto", "":
		return "", nil
	case "cycle", string(models.MethodConnectionCycle):
		return models.MethodConnectionCycle, nil
	case "restart":
		return models.MethodRestart, nil
	default:
		return "", fmt.Errorf("method must be one of: auto, cycle, restart")
	}
}

func errorMessage(result *models.ResetResult) string {
	if result.Error != nil {
		return result.Error.Error()
	}
	return "unknown error"
}
