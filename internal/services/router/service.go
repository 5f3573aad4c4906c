// Package router provides an HTTP client for the router's admin interface.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/fgeck/gorouter-reset/internal/models"
	"github.com/rs/zerolog"
)

// Service defines the interface for router admin operations. All operations
// except Login assume a prior successful Login on the same client; the
// session cookie set by the firmware lives in the client's cookie jar.
type Service interface {
	Login(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Connect(ctx context.Context) error
	Restart(ctx context.Context) error
	Status(ctx context.Context) (*models.ConnectionStatus, error)
}

// HTTPClient allows mocking HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Impl implements the router Service interface.
type Impl struct {
	httpClient HTTPClient
	logger     zerolog.Logger
	baseURL    string
	cfg        models.RouterConfig
}

// New creates a new router client for the given credentials. The underlying
// HTTP client carries a cookie jar so the login session survives across
// requests.
func New(logger zerolog.Logger, cfg models.RouterConfig) (*Impl, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Impl{
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: cfg.Timeout,
		},
		logger:  logger,
		baseURL: "http://" + cfg.Address,
		cfg:     cfg,
	}, nil
}

// NewWithClient creates a new router client with a custom HTTP client (for testing).
func NewWithClient(logger zerolog.Logger, httpClient HTTPClient, baseURL string, cfg models.RouterConfig) *Impl {
	return &Impl{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		cfg:        cfg,
	}
}

// Login posts the admin credentials to the router's login endpoint. Any
// non-2xx status or transport error is a failure.
func (s *Impl) Login(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", s.cfg.Username)
	form.Set("password", s.cfg.Password)

	s.logger.Debug().Str("user", s.cfg.Username).Msg("logging in to router")

	if err := s.postForm(ctx, "/login", form); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	s.logger.Info().Str("router", s.cfg.Address).Msg("logged in to router")
	return nil
}

// Disconnect drops the cellular uplink.
func (s *Impl) Disconnect(ctx context.Context) error {
	if err := s.postForm(ctx, "/connection/disconnect", nil); err != nil {
		return fmt.Errorf("disconnect failed: %w", err)
	}

	s.logger.Info().Msg("cellular connection disconnected")
	return nil
}

// Connect re-establishes the cellular uplink.
func (s *Impl) Connect(ctx context.Context) error {
	if err := s.postForm(ctx, "/connection/connect", nil); err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}

	s.logger.Info().Msg("cellular connection reconnected")
	return nil
}

// Restart reboots the router device.
func (s *Impl) Restart(ctx context.Context) error {
	form := url.Values{}
	form.Set("action", "restart")

	if err := s.postForm(ctx, "/restart", form); err != nil {
		return fmt.Errorf("restart failed: %w", err)
	}

	s.logger.Info().Msg("restart command sent")
	return nil
}

// Status fetches the router's connection status payload.
func (s *Impl) Status(ctx context.Context) (*models.ConnectionStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/status", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("router returned status %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode status payload: %w", err)
	}

	return &models.ConnectionStatus{
		Payload:   payload,
		FetchedAt: time.Now(),
	}, nil
}

func (s *Impl) postForm(ctx context.Context, path string, form url.Values) error {
	var body string
	if form != nil {
		body = form.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("router returned status %d", resp.StatusCode)
	}

	return nil
}
