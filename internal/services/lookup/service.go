// Package lookup resolves the network's public IP via an external service.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/fgeck/gorouter-reset/internal/models"
	"github.com/rs/zerolog"
)

// Service defines the interface for public IP lookups.
type Service interface {
	CurrentIP(ctx context.Context, cfg models.LookupConfig) (string, error)
}

// HTTPClient allows mocking HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Impl implements the lookup Service interface.
type Impl struct {
	httpClient HTTPClient
	logger     zerolog.Logger
}

// New creates a new lookup service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// NewWithClient creates a new lookup service with a custom HTTP client (for testing).
func NewWithClient(logger zerolog.Logger, httpClient HTTPClient) *Impl {
	return &Impl{
		httpClient: httpClient,
		logger:     logger,
	}
}

// ipResponse is the lookup service's response body, e.g. {"ip": "1.2.3.4"}.
type ipResponse struct {
	IP string `json:"ip"`
}

// CurrentIP fetches the current public IP address. There is no retry; the
// caller decides what a failed lookup means for the workflow.
func (s *Impl) CurrentIP(ctx context.Context, cfg models.LookupConfig) (string, error) {
	reqCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, cfg.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach lookup service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lookup service returned status %d", resp.StatusCode)
	}

	var body ipResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode lookup response: %w", err)
	}

	if net.ParseIP(body.IP) == nil {
		return "", fmt.Errorf("lookup service returned invalid IP %q", body.IP)
	}

	s.logger.Debug().Str("ip", body.IP).Msg("public IP resolved")

	return body.IP, nil
}
