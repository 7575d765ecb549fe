package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"realtypress-graphql/internal/sqlutil"
)

// ValidationError represents a configuration validation error with context.
type ValidationError struct {
	Field   string
	Message string
	Hint    string
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (hint: %s)", e.Field, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Field   string
	Message string
	Hint    string
}

// ValidationResult contains the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns a combined error message if there are validation errors.
func (r *ValidationResult) Error() string {
	if !r.HasErrors() {
		return ""
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func (r *ValidationResult) addError(field, message, hint string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message, Hint: hint})
}

func (r *ValidationResult) addWarning(field, message, hint string) {
	r.Warnings = append(r.Warnings, ValidationWarning{Field: field, Message: message, Hint: hint})
}

// Validate checks the configuration for errors and returns validation results.
// It returns both errors (fatal) and warnings (non-fatal issues).
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}

	c.Database.validate(result)
	c.Server.validate(result)
	c.RealtyPress.validate(result)
	c.Observability.validate(result)

	return result
}

func (d *DatabaseConfig) validate(result *ValidationResult) {
	if d.ConnectionString == "" && (d.Port < 1 || d.Port > 65535) {
		result.addError("database.port", fmt.Sprintf("port %d is out of valid range (1-65535)", d.Port), "")
	}

	d.TLS.validate(result)

	if d.Pool.MaxOpen < 0 {
		result.addError("database.pool.max_open", "max_open cannot be negative", "")
	}
	if d.Pool.MaxIdle < 0 {
		result.addError("database.pool.max_idle", "max_idle cannot be negative", "")
	}
	if d.Pool.MaxIdle > d.Pool.MaxOpen && d.Pool.MaxOpen > 0 {
		result.addWarning("database.pool.max_idle",
			"max_idle is greater than max_open",
			"idle connections will be limited to max_open")
	}

	if d.ConnectionTimeout < 0 {
		result.addError("database.connection_timeout", "connection_timeout cannot be negative", "")
	}
	if d.ConnectionRetryInterval < 0 {
		result.addError("database.connection_retry_interval", "connection_retry_interval cannot be negative", "")
	}
	if d.ConnectionTimeout > 0 && d.ConnectionRetryInterval == 0 {
		result.addError("database.connection_retry_interval",
			"connection_retry_interval must be greater than 0 when connection_timeout is set",
			"set a retry interval such as 2s, or set connection_timeout to 0 to disable retries")
	}
	if d.ConnectionTimeout > 0 && d.ConnectionRetryInterval > d.ConnectionTimeout {
		result.addWarning("database.connection_retry_interval",
			"connection_retry_interval is greater than connection_timeout",
			"only one connection attempt will be made")
	}
	if d.QueryTimeout < 0 {
		result.addError("database.query_timeout", "query_timeout cannot be negative", "set 0 to disable the per-statement timeout")
	}

	effective, err := resolveEffectiveDatabaseName(d.Database, d.ConnectionString)
	if err != nil {
		switch {
		case strings.HasPrefix(err.Error(), "database.dsn"):
			result.addError("database.dsn", err.Error(), "set a valid MySQL DSN in database.dsn/database.dsn_file")
		case strings.Contains(err.Error(), "mismatch"):
			result.addError("database.database", err.Error(), "either remove database.database or set it to match the DSN")
		default:
			result.addError("database.database", err.Error(), "set database.database to the WordPress schema")
		}
		return
	}
	d.Database = effective
}

func (t *DatabaseTLSConfig) validate(result *ValidationResult) {
	validModes := map[string]bool{"": true, "off": true, "skip-verify": true, "verify-ca": true, "verify-full": true}
	if !validModes[t.Mode] {
		result.addError("database.tls.mode",
			fmt.Sprintf("invalid TLS mode %q", t.Mode),
			"valid values are: off, skip-verify, verify-ca, verify-full")
	}

	if (t.Mode == "verify-ca" || t.Mode == "verify-full") && t.CAFile == "" {
		result.addError("database.tls.ca_file",
			"CA file is required for verify-ca and verify-full modes",
			"set database.tls.ca_file to the CA certificate")
	}

	if (t.CertFile != "") != (t.KeyFile != "") {
		result.addError("database.tls.cert_file",
			"both cert_file and key_file must be specified for client certificate authentication",
			"provide both cert_file and key_file, or neither")
	}

	if t.Mode == "skip-verify" {
		result.addWarning("database.tls.mode",
			"skip-verify mode does not verify server certificates",
			"use verify-ca or verify-full in production")
	}
}

func (s *ServerConfig) validate(result *ValidationResult) {
	if s.Port < 1 || s.Port > 65535 {
		result.addError("server.port", fmt.Sprintf("port %d is out of valid range (1-65535)", s.Port), "")
	}

	if s.GraphQLDefaultLimit < 0 {
		result.addError("server.graphql_default_limit", "graphql_default_limit cannot be negative", "")
	}
	if s.GraphQLMaxLimit < 0 {
		result.addError("server.graphql_max_limit", "graphql_max_limit cannot be negative", "set 0 to leave page sizes unbounded")
	}
	if s.GraphQLMaxLimit > 0 && s.GraphQLDefaultLimit > s.GraphQLMaxLimit {
		result.addError("server.graphql_default_limit",
			fmt.Sprintf("graphql_default_limit %d exceeds graphql_max_limit %d", s.GraphQLDefaultLimit, s.GraphQLMaxLimit),
			"lower the default or raise the maximum")
	}

	if s.CORSEnabled {
		if len(s.CORSAllowedOrigins) == 0 {
			result.addError("server.cors_allowed_origins",
				"CORS enabled but no allowed origins configured",
				"set cors_allowed_origins or disable CORS")
		}

		hasWildcard := false
		for _, origin := range s.CORSAllowedOrigins {
			if strings.TrimSpace(origin) == "*" {
				hasWildcard = true
				break
			}
		}
		if hasWildcard && s.CORSAllowCredentials {
			result.addError("server.cors_allowed_origins",
				"wildcard origin (*) cannot be used with credentials",
				"use specific origins with credentials, or wildcard without credentials")
		}
		if hasWildcard {
			result.addWarning("server.cors_allowed_origins",
				"CORS wildcard origin enabled",
				"use specific origins in production")
		}
		if s.CORSMaxAge < 0 {
			result.addError("server.cors_max_age", "cors_max_age cannot be negative", "")
		}
	}

	for field, d := range map[string]int64{
		"server.read_timeout":         int64(s.ReadTimeout),
		"server.write_timeout":        int64(s.WriteTimeout),
		"server.idle_timeout":         int64(s.IdleTimeout),
		"server.shutdown_timeout":     int64(s.ShutdownTimeout),
		"server.health_check_timeout": int64(s.HealthCheckTimeout),
	} {
		if d < 0 {
			result.addError(field, "timeout cannot be negative", "")
		}
	}
}

func (r *RealtyPressConfig) validate(result *ValidationResult) {
	if !sqlutil.ValidTablePrefix(r.TablePrefix) {
		result.addError("realtypress.table_prefix",
			fmt.Sprintf("invalid table prefix %q", r.TablePrefix),
			"use the $table_prefix from wp-config.php; letters, digits and underscores only")
	}
	for _, slug := range r.PluginSlugs {
		if strings.TrimSpace(slug) == "" || strings.Contains(slug, "/") {
			result.addError("realtypress.plugin_slugs",
				fmt.Sprintf("invalid plugin slug %q", slug),
				"use the plugin directory name, e.g. realtypress-premium")
		}
	}
	if !r.RequireHost && strings.TrimSpace(r.PluginVersion) == "" && len(r.PluginSlugs) > 0 {
		result.addWarning("realtypress.plugin_slugs",
			"plugin slugs are ignored when require_host is false",
			"detection falls back to probing the property table")
	}
}

func (o *ObservabilityConfig) validate(result *ValidationResult) {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[o.Logging.Level] {
		result.addError("observability.logging.level",
			fmt.Sprintf("invalid log level %q", o.Logging.Level),
			"valid values are: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[o.Logging.Format] {
		result.addError("observability.logging.format",
			fmt.Sprintf("invalid log format %q", o.Logging.Format),
			"valid values are: json, text")
	}

	if o.TraceSampleRatio < 0 || o.TraceSampleRatio > 1 {
		result.addError("observability.trace_sample_ratio",
			fmt.Sprintf("trace_sample_ratio %v is out of range", o.TraceSampleRatio),
			"use a value between 0.0 and 1.0")
	}

	o.OTLP.validate("observability.otlp", result)
	if o.Traces != nil {
		o.Traces.validate("observability.traces", result)
	}
	if o.Logs != nil {
		o.Logs.validate("observability.logs", result)
	}
	if o.Metrics != nil {
		o.Metrics.validate("observability.metrics", result)
	}
}

func (o *OTLPConfig) validate(prefix string, result *ValidationResult) {
	validProtocols := map[string]bool{"": true, "grpc": true, "http/protobuf": true}
	if !validProtocols[o.Protocol] {
		result.addError(prefix+".protocol",
			fmt.Sprintf("invalid OTLP protocol %q", o.Protocol),
			"valid values are: grpc, http/protobuf")
	}

	if o.Protocol == "http/protobuf" && !validOTLPEndpoint(o.Endpoint) {
		result.addError(prefix+".endpoint",
			fmt.Sprintf("invalid OTLP endpoint %q for http/protobuf", o.Endpoint),
			"use host:port or a full URL")
	}

	validCompressions := map[string]bool{"": true, "none": true, "gzip": true}
	if !validCompressions[o.Compression] {
		result.addError(prefix+".compression",
			fmt.Sprintf("invalid OTLP compression %q", o.Compression),
			"valid values are: none, gzip")
	}

	if o.Timeout < 0 {
		result.addError(prefix+".timeout", "timeout cannot be negative", "")
	}
}

func validOTLPEndpoint(endpoint string) bool {
	if endpoint == "" {
		return false
	}
	if strings.Contains(endpoint, "://") {
		parsed, err := url.Parse(endpoint)
		if err != nil {
			return false
		}
		return parsed.Host != ""
	}
	_, _, err := net.SplitHostPort(endpoint)
	return err == nil
}
