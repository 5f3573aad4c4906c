package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fgeck/gorouter-reset/internal/config"
	"github.com/fgeck/gorouter-reset/internal/services/router"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the router's connection status",
	Long:  `Log in to the router and print its connection status payload as JSON.`,
	RunE:  showStatus,
}

func showStatus(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		log.Error().Msg("config file is required")
		return cmd.Help()
	}

	parser := config.NewParser()
	cfg, err := parser.LoadFile(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to load config")
		return err
	}

	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}

	ctx := context.Background()

	routerSvc, err := router.New(log.Logger, cfg.Router)
	if err != nil {
		log.Error().Err(err).Msg("failed to create router client")
		return err
	}

	if err := routerSvc.Login(ctx); err != nil {
		log.Error().Err(err).Msg("login failed")
		return err
	}

	status, err := routerSvc.Status(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch status")
		return err
	}

	out, err := json.MarshalIndent(status.Payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render status: %w", err)
	}

	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
