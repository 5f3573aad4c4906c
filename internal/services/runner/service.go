// Package runner orchestrates the IP reset workflow.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/fgeck/gorouter-reset/internal/models"
	"github.com/fgeck/gorouter-reset/internal/services/lookup"
	"github.com/fgeck/gorouter-reset/internal/services/router"
	"github.com/fgeck/gorouter-reset/internal/services/ssh"
	"github.com/fgeck/gorouter-reset/internal/services/telegram"
	"github.com/rs/zerolog"
)

// Service defines the interface for the reset runner.
type Service interface {
	Run(ctx context.Context, cfg models.ResetConfig, method models.ResetMethod) (*models.ResetResult, error)
}

// Impl implements the runner Service interface.
type Impl struct {
	lookupSvc   lookup.Service
	routerSvc   router.Service
	sshSvc      ssh.Service
	telegramSvc telegram.Service
	logger      zerolog.Logger
}

// New creates a new runner service for the configured router.
func New(logger zerolog.Logger, cfg models.ResetConfig) (*Impl, error) {
	routerSvc, err := router.New(logger, cfg.Router)
	if err != nil {
		return nil, fmt.Errorf("failed to create router client: %w", err)
	}

	return &Impl{
		lookupSvc:   lookup.New(logger),
		routerSvc:   routerSvc,
		sshSvc:      ssh.New(logger),
		telegramSvc: telegram.New(logger),
		logger:      logger,
	}, nil
}

// NewWithServices creates a new runner service with custom services (for testing).
func NewWithServices(
	logger zerolog.Logger,
	lookupSvc lookup.Service,
	routerSvc router.Service,
	sshSvc ssh.Service,
	telegramSvc telegram.Service,
) *Impl {
	return &Impl{
		lookupSvc:   lookupSvc,
		routerSvc:   routerSvc,
		sshSvc:      sshSvc,
		telegramSvc: telegramSvc,
		logger:      logger,
	}
}

// Run executes the reset workflow. An empty method means automatic: try the
// connection cycle first and fall back to a full restart if the public IP did
// not change. A concrete method runs that single attempt.
func (s *Impl) Run(ctx context.Context, cfg models.ResetConfig, method models.ResetMethod) (*models.ResetResult, error) {
	startTime := time.Now()
	var result *models.ResetResult

	s.logger.Info().
		Str("router", cfg.Router.Address).
		Str("method", methodLabel(method)).
		Msg("starting IP reset run")

	defer func() {
		// Send notification if configured
		if cfg.Telegram != nil && result != nil {
			s.sendNotification(ctx, cfg, startTime, result)
		}
	}()

	switch method {
	case models.MethodConnectionCycle:
		result = s.ResetViaConnectionCycle(ctx, cfg)
	case models.MethodRestart:
		result = s.ResetViaRestart(ctx, cfg)
	default:
		result = s.ResetViaConnectionCycle(ctx, cfg)
		if !result.Success {
			s.logger.Warn().
				Err(result.Error).
				Msg("connection cycle did not change the IP, falling back to restart")
			result = s.ResetViaRestart(ctx, cfg)
		}
	}

	if result.Success {
		s.logger.Info().
			Str("old_ip", result.OldIP).
			Str("new_ip", result.NewIP).
			Str("method", string(result.Method)).
			Dur("duration", time.Since(startTime)).
			Msg("IP reset completed successfully")
	} else {
		s.logger.Error().
			Err(result.Error).
			Str("method", string(result.Method)).
			Dur("duration", time.Since(startTime)).
			Msg("IP reset failed")
	}

	return result, nil
}

// ResetViaConnectionCycle forces an IP change by cycling the cellular uplink:
// disconnect, wait, reconnect, wait, then compare public IPs.
func (s *Impl) ResetViaConnectionCycle(ctx context.Context, cfg models.ResetConfig) *models.ResetResult {
	oldIP := s.currentIP(ctx, cfg.Lookup, "before")

	if err := s.routerSvc.Login(ctx); err != nil {
		return &models.ResetResult{Method: models.MethodConnectionCycle, OldIP: oldIP, Error: err}
	}

	if err := s.routerSvc.Disconnect(ctx); err != nil {
		return &models.ResetResult{Method: models.MethodConnectionCycle, OldIP: oldIP, Error: err}
	}
	if err := s.wait(ctx, cfg.Timing.DisconnectWait); err != nil {
		return &models.ResetResult{Method: models.MethodConnectionCycle, OldIP: oldIP, Error: err}
	}

	if err := s.routerSvc.Connect(ctx); err != nil {
		return &models.ResetResult{Method: models.MethodConnectionCycle, OldIP: oldIP, Error: err}
	}
	if err := s.wait(ctx, cfg.Timing.ReconnectWait); err != nil {
		return &models.ResetResult{Method: models.MethodConnectionCycle, OldIP: oldIP, Error: err}
	}

	newIP := s.currentIP(ctx, cfg.Lookup, "after")

	return models.EvaluateIPChange(models.MethodConnectionCycle, oldIP, newIP)
}

// ResetViaRestart forces an IP change by rebooting the device, waiting for it
// to come back, then comparing public IPs. The reboot goes over SSH when an
// ssh_restart block is configured, otherwise through the HTTP admin endpoint.
func (s *Impl) ResetViaRestart(ctx context.Context, cfg models.ResetConfig) *models.ResetResult {
	oldIP := s.currentIP(ctx, cfg.Lookup, "before")

	if cfg.SSHRestart != nil {
		if err := s.rebootViaSSH(ctx, cfg.SSHRestart); err != nil {
			return &models.ResetResult{Method: models.MethodRestart, OldIP: oldIP, Error: err}
		}
	} else {
		if err := s.routerSvc.Login(ctx); err != nil {
			return &models.ResetResult{Method: models.MethodRestart, OldIP: oldIP, Error: err}
		}
		if err := s.routerSvc.Restart(ctx); err != nil {
			return &models.ResetResult{Method: models.MethodRestart, OldIP: oldIP, Error: err}
		}
	}

	s.logger.Info().
		Dur("wait", cfg.Timing.RestartWait).
		Msg("waiting for router restart")

	if err := s.wait(ctx, cfg.Timing.RestartWait); err != nil {
		return &models.ResetResult{Method: models.MethodRestart, OldIP: oldIP, Error: err}
	}

	newIP := s.currentIP(ctx, cfg.Lookup, "after")

	return models.EvaluateIPChange(models.MethodRestart, oldIP, newIP)
}

func (s *Impl) rebootViaSSH(ctx context.Context, cfg *models.SSHRestartConfig) error {
	result, err := s.sshSvc.Reboot(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("SSH reboot failed: %w", err)
	}
	if result.Error != nil {
		return fmt.Errorf("SSH reboot failed: %w", result.Error)
	}
	if !result.CommandRun {
		return fmt.Errorf("SSH reboot command was not run")
	}
	return nil
}

// currentIP resolves the public IP, logging and returning an empty string on
// failure. The comparison at the end of an attempt treats the empty string as
// an explicit lookup failure.
func (s *Impl) currentIP(ctx context.Context, cfg models.LookupConfig, phase string) string {
	ip, err := s.lookupSvc.CurrentIP(ctx, cfg)
	if err != nil {
		s.logger.Error().Err(err).Str("phase", phase).Msg("public IP lookup failed")
		return ""
	}

	s.logger.Info().Str("ip", ip).Str("phase", phase).Msg("public IP")
	return ip
}

func (s *Impl) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (s *Impl) sendNotification(
	ctx context.Context,
	cfg models.ResetConfig,
	startTime time.Time,
	res *models.ResetResult,
) {
	msg := models.TelegramMessage{
		Success:   res.Success,
		Router:    cfg.Router.Address,
		StartTime: startTime,
		Duration:  time.Since(startTime),
		OldIP:     res.OldIP,
		NewIP:     res.NewIP,
		Method:    res.Method,
	}

	if res.Error != nil {
		msg.ErrorMessage = res.Error.Error()
	}

	result, err := s.telegramSvc.SendNotification(ctx, *cfg.Telegram, msg)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to send Telegram notification")
		return
	}
	if result.Error != nil {
		s.logger.Error().Err(result.Error).Msg("failed to send Telegram notification")
		return
	}

	s.logger.Info().Msg("Telegram notification sent")
}

func methodLabel(m models.ResetMethod) string {
	if m == "" {
		return "auto"
	}
	return string(m)
}
