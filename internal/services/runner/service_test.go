package runner

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/fgeck/gorouter-reset/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock implementations.
type mockLookupService struct {
	ips   []string
	errs  []error
	calls int
}

// CurrentIP replays the configured sequence of IPs/errors; the last entry
// repeats once the sequence is exhausted.
func (m *mockLookupService) CurrentIP(ctx context.Context, cfg models.LookupConfig) (string, error) {
	i := m.calls
	m.calls++
	if i >= len(m.ips) {
		i = len(m.ips) - 1
	}
	if i < 0 {
		return "", errors.New("no lookup result configured")
	}
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	return m.ips[i], err
}

type mockRouterService struct {
	loginFunc   func(ctx context.Context) error
	loginCalls  int
	disconnects int
	connects    int
	restarts    int
	statusFunc  func(ctx context.Context) (*models.ConnectionStatus, error)
}

func (m *mockRouterService) Login(ctx context.Context) error {
	m.loginCalls++
	if m.loginFunc != nil {
		return m.loginFunc(ctx)
	}
	return nil
}

func (m *mockRouterService) Disconnect(ctx context.Context) error {
	m.disconnects++
	return nil
}

func (m *mockRouterService) Connect(ctx context.Context) error {
	m.connects++
	return nil
}

func (m *mockRouterService) Restart(ctx context.Context) error {
	m.restarts++
	return nil
}

func (m *mockRouterService) Status(ctx context.Context) (*models.ConnectionStatus, error) {
	if m.statusFunc != nil {
		return m.statusFunc(ctx)
	}
	return &models.ConnectionStatus{Payload: map[string]any{}}, nil
}

type mockSSHService struct {
	rebootFunc  func(ctx context.Context, cfg models.SSHRestartConfig) (*models.SSHResult, error)
	rebootCalls int
}

func (m *mockSSHService) Reboot(ctx context.Context, cfg models.SSHRestartConfig) (*models.SSHResult, error) {
	m.rebootCalls++
	if m.rebootFunc != nil {
		return m.rebootFunc(ctx, cfg)
	}
	return &models.SSHResult{CommandRun: true}, nil
}

type mockTelegramService struct {
	sendFunc func(ctx context.Context, cfg models.TelegramConfig, msg models.TelegramMessage) (*models.TelegramResult, error)
}

func (m *mockTelegramService) SendNotification(ctx context.Context, cfg models.TelegramConfig, msg models.TelegramMessage) (*models.TelegramResult, error) {
	if m.sendFunc != nil {
		return m.sendFunc(ctx, cfg, msg)
	}
	return &models.TelegramResult{MessageSent: true}, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testConfig() models.ResetConfig {
	return models.ResetConfig{
		Router: models.RouterConfig{
			Address:  "192.168.1.1",
			Username: "admin",
			Password: "secret",
		},
		Lookup: models.LookupConfig{
			URL: "https://api.ipify.org?format=json",
		},
		Timing: models.TimingSettings{
			DisconnectWait: time.Millisecond,
			ReconnectWait:  time.Millisecond,
			RestartWait:    time.Millisecond,
		},
	}
}

func newTestRunner(
	lookupSvc *mockLookupService,
	routerSvc *mockRouterService,
	sshSvc *mockSSHService,
	telegramSvc *mockTelegramService,
) *Impl {
	return NewWithServices(testLogger(), lookupSvc, routerSvc, sshSvc, telegramSvc)
}

func TestRun_ConnectionCycleSuccess(t *testing.T) {
	lookupSvc := &mockLookupService{ips: []string{"1.2.3.4", "5.6.7.8"}}
	routerSvc := &mockRouterService{}

	runner := newTestRunner(lookupSvc, routerSvc, &mockSSHService{}, &mockTelegramService{})
	result, err := runner.Run(context.Background(), testConfig(), "")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "1.2.3.4", result.OldIP)
	assert.Equal(t, "5.6.7.8", result.NewIP)
	assert.Equal(t, models.MethodConnectionCycle, result.Method)

	assert.Equal(t, 1, routerSvc.disconnects)
	assert.Equal(t, 1, routerSvc.connects)
	// No fallback when the cycle already changed the IP
	assert.Equal(t, 0, routerSvc.restarts)
}

func TestRun_UnchangedIP_FallsBackToRestart(t *testing.T) {
	// Cycle sees the same IP twice, restart finally gets a new one.
	lookupSvc := &mockLookupService{ips: []string{"1.2.3.4", "1.2.3.4", "1.2.3.4", "5.6.7.8"}}
	routerSvc := &mockRouterService{}

	runner := newTestRunner(lookupSvc, routerSvc, &mockSSHService{}, &mockTelegramService{})
	result, err := runner.Run(context.Background(), testConfig(), "")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.MethodRestart, result.Method)
	assert.Equal(t, "5.6.7.8", result.NewIP)

	assert.Equal(t, 1, routerSvc.disconnects)
	assert.Equal(t, 1, routerSvc.restarts)
}

func TestRun_LoginFails_NoDisruptiveAction(t *testing.T) {
	lookupSvc := &mockLookupService{ips: []string{"1.2.3.4"}}
	routerSvc := &mockRouterService{
		loginFunc: func(ctx context.Context) error {
			return errors.New("login failed: router returned status 401")
		},
	}

	runner := newTestRunner(lookupSvc, routerSvc, &mockSSHService{}, &mockTelegramService{})
	result, err := runner.Run(context.Background(), testConfig(), "")

	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Contains(t, result.Error.Error(), "login failed")

	// Nothing disruptive was sent on either attempt
	assert.Equal(t, 0, routerSvc.disconnects)
	assert.Equal(t, 0, routerSvc.connects)
	assert.Equal(t, 0, routerSvc.restarts)
}

func TestRun_ForcedCycle_NoFallback(t *testing.T) {
	lookupSvc := &mockLookupService{ips: []string{"1.2.3.4", "1.2.3.4"}}
	routerSvc := &mockRouterService{}

	runner := newTestRunner(lookupSvc, routerSvc, &mockSSHService{}, &mockTelegramService{})
	result, err := runner.Run(context.Background(), testConfig(), models.MethodConnectionCycle)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.MethodConnectionCycle, result.Method)
	require.NotNil(t, result.Error)
	assert.Contains(t, result.Error.Error(), "unchanged")

	assert.Equal(t, 0, routerSvc.restarts)
}

func TestRun_ForcedRestart_HTTP(t *testing.T) {
	lookupSvc := &mockLookupService{ips: []string{"1.2.3.4", "5.6.7.8"}}
	routerSvc := &mockRouterService{}
	sshSvc := &mockSSHService{}

	runner := newTestRunner(lookupSvc, routerSvc, sshSvc, &mockTelegramService{})
	result, err := runner.Run(context.Background(), testConfig(), models.MethodRestart)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.MethodRestart, result.Method)

	assert.Equal(t, 1, routerSvc.loginCalls)
	assert.Equal(t, 1, routerSvc.restarts)
	assert.Equal(t, 0, routerSvc.disconnects)
	assert.Equal(t, 0, sshSvc.rebootCalls)
}

func TestRun_ForcedRestart_SSH(t *testing.T) {
	lookupSvc := &mockLookupService{ips: []string{"1.2.3.4", "5.6.7.8"}}
	routerSvc := &mockRouterService{}
	sshSvc := &mockSSHService{}

	cfg := testConfig()
	cfg.SSHRestart = &models.SSHRestartConfig{
		Host:     "192.168.1.1",
		Port:     22,
		Username: "root",
		Command:  "reboot",
	}

	runner := newTestRunner(lookupSvc, routerSvc, sshSvc, &mockTelegramService{})
	result, err := runner.Run(context.Background(), cfg, models.MethodRestart)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, sshSvc.rebootCalls)
	// SSH reboot bypasses the HTTP admin interface entirely
	assert.Equal(t, 0, routerSvc.loginCalls)
	assert.Equal(t, 0, routerSvc.restarts)
}

func TestRun_SSHRebootFails(t *testing.T) {
	lookupSvc := &mockLookupService{ips: []string{"1.2.3.4"}}
	sshSvc := &mockSSHService{
		rebootFunc: func(ctx context.Context, cfg models.SSHRestartConfig) (*models.SSHResult, error) {
			return &models.SSHResult{Error: errors.New("connection refused")}, nil
		},
	}

	cfg := testConfig()
	cfg.SSHRestart = &models.SSHRestartConfig{Host: "192.168.1.1", Port: 22, Username: "root", Command: "reboot"}

	runner := newTestRunner(lookupSvc, &mockRouterService{}, sshSvc, &mockTelegramService{})
	result, err := runner.Run(context.Background(), cfg, models.MethodRestart)

	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Contains(t, result.Error.Error(), "SSH reboot failed")
}

func TestRun_BothLookupsFail(t *testing.T) {
	lookupSvc := &mockLookupService{
		ips:  []string{""},
		errs: []error{errors.New("lookup service unreachable")},
	}
	routerSvc := &mockRouterService{}

	runner := newTestRunner(lookupSvc, routerSvc, &mockSSHService{}, &mockTelegramService{})
	result, err := runner.Run(context.Background(), testConfig(), models.MethodConnectionCycle)

	require.NoError(t, err)
	// Two failed lookups must never be read as a changed IP
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Contains(t, result.Error.Error(), "before and after")
}

func TestRun_NewLookupFails(t *testing.T) {
	lookupSvc := &mockLookupService{
		ips:  []string{"1.2.3.4", ""},
		errs: []error{nil, errors.New("lookup service unreachable")},
	}

	runner := newTestRunner(lookupSvc, &mockRouterService{}, &mockSSHService{}, &mockTelegramService{})
	result, err := runner.Run(context.Background(), testConfig(), models.MethodConnectionCycle)

	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Contains(t, result.Error.Error(), "after reset")
}

func TestRun_ContextCancelled(t *testing.T) {
	lookupSvc := &mockLookupService{ips: []string{"1.2.3.4"}}
	routerSvc := &mockRouterService{}

	cfg := testConfig()
	cfg.Timing.DisconnectWait = 10 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	runner := newTestRunner(lookupSvc, routerSvc, &mockSSHService{}, &mockTelegramService{})
	result, err := runner.Run(ctx, cfg, models.MethodConnectionCycle)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Error, context.Canceled)
	// Cancelled before the reconnect was issued
	assert.Equal(t, 0, routerSvc.connects)
}

func TestRun_TelegramNotificationOnSuccess(t *testing.T) {
	var capturedMsg models.TelegramMessage

	lookupSvc := &mockLookupService{ips: []string{"1.2.3.4", "5.6.7.8"}}
	telegramSvc := &mockTelegramService{
		sendFunc: func(ctx context.Context, cfg models.TelegramConfig, msg models.TelegramMessage) (*models.TelegramResult, error) {
			capturedMsg = msg
			return &models.TelegramResult{MessageSent: true}, nil
		},
	}

	cfg := testConfig()
	cfg.Telegram = &models.TelegramConfig{BotToken: "123:ABC", ChatID: "42"}

	runner := newTestRunner(lookupSvc, &mockRouterService{}, &mockSSHService{}, telegramSvc)
	result, err := runner.Run(context.Background(), cfg, "")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, capturedMsg.Success)
	assert.Equal(t, "1.2.3.4", capturedMsg.OldIP)
	assert.Equal(t, "5.6.7.8", capturedMsg.NewIP)
	assert.Equal(t, models.MethodConnectionCycle, capturedMsg.Method)
	assert.Equal(t, "192.168.1.1", capturedMsg.Router)
}

func TestRun_TelegramNotificationOnFailure(t *testing.T) {
	var capturedMsg models.TelegramMessage

	lookupSvc := &mockLookupService{ips: []string{"1.2.3.4"}}
	telegramSvc := &mockTelegramService{
		sendFunc: func(ctx context.Context, cfg models.TelegramConfig, msg models.TelegramMessage) (*models.TelegramResult, error) {
			capturedMsg = msg
			return &models.TelegramResult{MessageSent: true}, nil
		},
	}

	cfg := testConfig()
	cfg.Telegram = &models.TelegramConfig{BotToken: "123:ABC", ChatID: "42"}

	runner := newTestRunner(lookupSvc, &mockRouterService{}, &mockSSHService{}, telegramSvc)
	result, err := runner.Run(context.Background(), cfg, "")

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.False(t, capturedMsg.Success)
	assert.Contains(t, capturedMsg.ErrorMessage, "unchanged")
}

func TestResetViaConnectionCycle_LoginShortCircuits(t *testing.T) {
	lookupSvc := &mockLookupService{ips: []string{"1.2.3.4"}}
	routerSvc := &mockRouterService{
		loginFunc: func(ctx context.Context) error {
			return errors.New("login failed: request failed")
		},
	}

	runner := newTestRunner(lookupSvc, routerSvc, &mockSSHService{}, &mockTelegramService{})
	result := runner.ResetViaConnectionCycle(context.Background(), testConfig())

	assert.False(t, result.Success)
	assert.Equal(t, models.MethodConnectionCycle, result.Method)
	assert.Equal(t, "1.2.3.4", result.OldIP)
	assert.Equal(t, 0, routerSvc.disconnects)
}

func TestResetViaRestart_WaitsBeforeSecondLookup(t *testing.T) {
	lookupSvc := &mockLookupService{ips: []string{"1.2.3.4", "5.6.7.8"}}
	routerSvc := &mockRouterService{}

	cfg := testConfig()
	cfg.Timing.RestartWait = 30 * time.Millisecond

	runner := newTestRunner(lookupSvc, routerSvc, &mockSSHService{}, &mockTelegramService{})

	start := time.Now()
	result := runner.ResetViaRestart(context.Background(), cfg)
	elapsed := time.Since(start)

	assert.True(t, result.Success)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}
