package serverapp

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"realtypress-graphql/internal/activation"
	"realtypress-graphql/internal/config"
	"realtypress-graphql/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Level: "info", Format: "text"})
}

// lockedBuffer lets the server goroutine log while the test reads.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWaitForStop_SignalWins(t *testing.T) {
	app := &App{logger: testLogger()}
	stop := make(chan os.Signal, 1)
	serverErrors := make(chan error, 1)

	stop <- syscall.SIGTERM

	reason, err := app.WaitForStop(stop, serverErrors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reason != StopSignal {
		t.Fatalf("expected reason=signal, got %q", reason)
	}
	if app.stopReason != StopSignal {
		t.Fatalf("stop reason not recorded, got %q", app.stopReason)
	}
}

func TestWaitForStop_ServerErrorWins(t *testing.T) {
	app := &App{logger: testLogger()}
	stop := make(chan os.Signal, 1)
	serverErrors := make(chan error, 1)
	serverErrors <- errors.New("boom")

	reason, err := app.WaitForStop(stop, serverErrors)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if reason != StopServerError {
		t.Fatalf("expected reason=server_error, got %q", reason)
	}
}

func TestWaitForStop_FallsBackToStartedServer(t *testing.T) {
	serverErrors := make(chan error, 1)
	app := &App{logger: testLogger(), serverErrors: serverErrors}
	serverErrors <- nil

	reason, err := app.WaitForStop(nil, nil)
	if err == nil || !strings.Contains(err.Error(), "stopped unexpectedly") {
		t.Fatalf("expected unexpected-stop error, got %v", err)
	}
	if reason != StopServerError {
		t.Fatalf("expected reason=server_error, got %q", reason)
	}

	if _, err := (&App{logger: testLogger()}).WaitForStop(nil, nil); err == nil {
		t.Fatalf("expected error when no channel is available")
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	app := &App{logger: testLogger()}
	var calls int32
	app.cleanup.push("test", func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := app.Shutdown(ctx); err != nil {
		t.Fatalf("first shutdown failed: %v", err)
	}
	if err := app.Shutdown(ctx); err != nil {
		t.Fatalf("second shutdown failed: %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected cleanup to run once, ran %d times", got)
	}
}

func TestShutdown_JoinsCleanupErrorsInReverseOrder(t *testing.T) {
	app := &App{logger: testLogger()}
	var order []string
	for _, name := range []string{"database", "tracer provider", "HTTP server"} {
		app.cleanup.push(name, func(context.Context) error {
			order = append(order, name)
			if name == "HTTP server" {
				return nil
			}
			return errors.New("close failed")
		})
	}

	err := app.Shutdown(context.Background())
	if err == nil {
		t.Fatalf("expected joined cleanup error")
	}
	for _, name := range []string{"database", "tracer provider"} {
		if !strings.Contains(err.Error(), name+": close failed") {
			t.Fatalf("error %q does not name %s", err, name)
		}
	}
	if strings.Join(order, ",") != "HTTP server,tracer provider,database" {
		t.Fatalf("unexpected release order %v", order)
	}
}

func TestStartAndShutdown_LogsActivation(t *testing.T) {
	buf := &lockedBuffer{}
	app := &App{
		cfg:         &config.Config{RealtyPress: config.RealtyPressConfig{TablePrefix: "wp_"}},
		logger:      logging.NewLogger(logging.Config{Level: "info", Format: "json", Output: buf}),
		activation:  activation.Status{Reason: activation.PluginMissingMessage},
		serverAddr:  "127.0.0.1:0",
		srv:         &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()},
		initialized: true,
		stopReason:  StopSignal,
	}
	app.cleanup.push("HTTP server", func(ctx context.Context) error {
		return app.srv.Shutdown(ctx)
	})

	if _, err := app.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	logs := buf.String()
	for _, want := range []string{
		`"msg":"serving RealtyPress projection"`,
		`"realtypress_enabled":false`,
		`"table_prefix":"wp_"`,
		`"msg":"stopping realtypress-graphql"`,
		`"stop_reason":"signal"`,
	} {
		if !strings.Contains(logs, want) {
			t.Fatalf("logs missing %s:\n%s", want, logs)
		}
	}
}

func TestStart_BeforeInit_Fails(t *testing.T) {
	app := &App{logger: testLogger()}
	if _, err := app.Start(); err == nil {
		t.Fatalf("expected start to fail before init")
	}
}

func TestStartAndShutdown_HappyPath(t *testing.T) {
	app := &App{
		cfg:        &config.Config{},
		logger:     testLogger(),
		serverAddr: "127.0.0.1:0",
		srv: &http.Server{
			Addr:    "127.0.0.1:0",
			Handler: http.NewServeMux(),
		},
		initialized: true,
	}
	app.cleanup.push("HTTP server", func(ctx context.Context) error {
		return app.srv.Shutdown(ctx)
	})

	if _, err := app.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}

func TestInitFailure_DoesNotMarkInitialized(t *testing.T) {
	appCfg := &config.Config{
		Database: config.DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     1,
			User:     "root",
			Password: "invalid",
			Database: "wordpress",
			TLS: config.DatabaseTLSConfig{
				Mode: "off",
			},
			Pool: config.PoolConfig{
				MaxOpen:     1,
				MaxIdle:     1,
				MaxLifetime: time.Second,
			},
			ConnectionTimeout:       0,
			ConnectionRetryInterval: 10 * time.Millisecond,
		},
		Server: config.ServerConfig{
			Port:                18089,
			GraphQLDefaultLimit: 10,
			GraphQLMaxLimit:     100,
			ReadTimeout:         time.Second,
			WriteTimeout:        time.Second,
			IdleTimeout:         time.Second,
			ShutdownTimeout:     time.Second,
			HealthCheckTimeout:  time.Second,
		},
		RealtyPress: config.RealtyPressConfig{
			TablePrefix: "wp_",
			RequireHost: true,
			PluginSlugs: []string{"realtypress-premium"},
		},
		Observability: config.ObservabilityConfig{
			ServiceName:    "realtypress-graphql",
			ServiceVersion: "test",
			Environment:    "test",
			Logging: config.LoggingConfig{
				Level:          "info",
				Format:         "text",
				ExportsEnabled: false,
			},
		},
	}

	app, err := New(appCfg, testLogger())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	if err := app.Init(context.Background()); err == nil {
		t.Fatalf("expected init to fail with unreachable database")
	}

	app.stateMu.Lock()
	initialized := app.initialized
	app.stateMu.Unlock()
	if initialized {
		t.Fatalf("app should not be marked initialized after failed Init")
	}
}

func TestNew_RequiresDatabaseName(t *testing.T) {
	if _, err := New(&config.Config{}, testLogger()); err == nil {
		t.Fatalf("expected error without a database name")
	}
	if _, err := New(nil, testLogger()); err == nil {
		t.Fatalf("expected error without config")
	}
}
