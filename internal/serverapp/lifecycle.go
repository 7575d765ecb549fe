package serverapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"realtypress-graphql/internal/logging"
)

// StopReason records why the serving loop ended.
type StopReason string

const (
	StopSignal      StopReason = "signal"
	StopServerError StopReason = "server_error"
)

// Start launches the HTTP server goroutine. It requires Init to have completed.
// Repeated calls return the channel of the running server.
func (a *App) Start() (<-chan error, error) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()

	if !a.initialized {
		return nil, fmt.Errorf("app is not initialized")
	}
	if a.started {
		return a.serverErrors, nil
	}

	a.logger.Info("serving RealtyPress projection", a.activationAttrs()...)
	a.serverErrors = startServer(a.cfg, a.logger, a.srv, a.serverAddr)
	a.started = true
	a.startedAt = time.Now()
	return a.serverErrors, nil
}

// activationAttrs describes which schema the server answers with. Callers hold stateMu.
func (a *App) activationAttrs() []any {
	attrs := []any{
		slog.Bool("realtypress_enabled", a.activation.Enabled),
		slog.String("table_prefix", a.cfg.RealtyPress.TablePrefix),
	}
	if a.activation.Enabled {
		return append(attrs, slog.String("plugin_source", a.activation.PluginSource))
	}
	return append(attrs, slog.String("reason", a.activation.Reason))
}

// WaitForStop blocks until an OS signal arrives or the server fails.
// A nil serverErrors falls back to the channel opened by Start.
func (a *App) WaitForStop(stop <-chan os.Signal, serverErrors <-chan error) (StopReason, error) {
	a.stateMu.Lock()
	if serverErrors == nil {
		serverErrors = a.serverErrors
	}
	a.stateMu.Unlock()

	if stop == nil && serverErrors == nil {
		return "", fmt.Errorf("both stop and serverErrors channels are nil")
	}

	// A nil channel never becomes ready, so one select covers every pairing.
	var (
		reason StopReason
		err    error
	)
	select {
	case sig := <-stop:
		reason = StopSignal
		a.logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case serveErr := <-serverErrors:
		reason = StopServerError
		if serveErr == nil {
			err = fmt.Errorf("server stopped unexpectedly")
		} else {
			err = fmt.Errorf("server failed: %w", serveErr)
		}
	}

	a.stateMu.Lock()
	a.stopReason = reason
	a.stateMu.Unlock()
	return reason, err
}

// Shutdown releases resources in reverse order of acquisition. Only the first
// call does work; it reports every cleanup failure joined together.
func (a *App) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var err error
	a.shutdownOnce.Do(func() {
		a.stateMu.Lock()
		cleanup := a.cleanup
		attrs := []any{slog.String("stop_reason", string(a.stopReason))}
		if a.started {
			attrs = append(attrs, slog.Duration("uptime", time.Since(a.startedAt).Round(time.Millisecond)))
		}
		if a.cfg != nil {
			attrs = append(attrs, a.activationAttrs()...)
		}
		a.started = false
		a.stateMu.Unlock()

		a.logger.Info("stopping realtypress-graphql", attrs...)
		err = cleanup.run(ctx, a.logger)
	})
	return err
}

// cleanupStack holds release functions in acquisition order.
type cleanupStack struct {
	items []cleanupItem
}

type cleanupItem struct {
	name string
	fn   func(context.Context) error
}

func (s *cleanupStack) push(name string, fn func(context.Context) error) {
	s.items = append(s.items, cleanupItem{name: name, fn: fn})
}

func (s *cleanupStack) run(ctx context.Context, logger *logging.Logger) error {
	var errs []error
	for i := len(s.items) - 1; i >= 0; i-- {
		item := s.items[i]
		err := item.fn(ctx)
		if err == nil {
			logger.Debug("released", slog.String("component", item.name))
			continue
		}
		logger.Warn("cleanup error",
			slog.String("component", item.name),
			slog.String("error", err.Error()),
		)
		errs = append(errs, fmt.Errorf("%s: %w", item.name, err))
	}
	return errors.Join(errs...)
}
