package serverapp

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"realtypress-graphql/internal/activation"
	"realtypress-graphql/internal/config"
	"realtypress-graphql/internal/dbexec"
	"realtypress-graphql/internal/logging"
	"realtypress-graphql/internal/observability"

	"github.com/graphql-go/graphql"
)

// App owns runtime resources for the realtypress-graphql server lifecycle.
type App struct {
	cfg    *config.Config
	logger *logging.Logger

	loggerProvider *observability.LoggerProvider

	effectiveDatabase string
	dsnPresent        bool

	meterProvider  *observability.MeterProvider
	graphqlMetrics *observability.GraphQLMetrics
	tracerProvider *observability.TracerProvider

	db         *sql.DB
	dbStatsReg interface{ Unregister() error }

	queryExecutor dbexec.QueryExecutor
	activation    activation.Status
	schema        graphql.Schema

	graphqlHandler http.Handler
	mux            *http.ServeMux
	handler        http.Handler

	serverAddr string
	srv        *http.Server

	cleanup cleanupStack

	stateMu      sync.Mutex
	initialized  bool
	started      bool
	startedAt    time.Time
	serverErrors chan error
	stopReason   StopReason

	shutdownOnce sync.Once
}

// New creates an App lifecycle wrapper.
func New(cfg *config.Config, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	effectiveDatabase := strings.TrimSpace(cfg.Database.Database)
	if effectiveDatabase == "" {
		return nil, fmt.Errorf("failed to resolve effective database configuration: no database configured")
	}

	return &App{
		cfg:               cfg,
		logger:            logger,
		effectiveDatabase: effectiveDatabase,
		dsnPresent:        strings.TrimSpace(cfg.Database.ConnectionString) != "",
	}, nil
}

// AttachLoggerProvider registers an optional logger provider for shutdown cleanup.
func (a *App) AttachLoggerProvider(provider *observability.LoggerProvider) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.loggerProvider = provider
}

// Activation reports the RealtyPress activation outcome recorded during Init.
func (a *App) Activation() activation.Status {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return a.activation
}
