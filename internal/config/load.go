package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// EnvPrefix prefixes every environment variable, e.g. RPGQL_DATABASE_HOST.
const EnvPrefix = "RPGQL"

const defaultDatabaseName = "wordpress"

var defineFlagsOnce sync.Once

// Load loads configuration from multiple sources with the following precedence:
// 1. Explicit overrides (v.Set) – DSN/password files and the password prompt
// 2. Command line flags
// 3. Environment variables (a .env file fills in unset ones)
// 4. Config file
// 5. Default values
func Load() (*Config, error) {
	defineFlagsOnce.Do(func() {
		defineFlags(pflag.CommandLine)
	})
	if !pflag.Parsed() {
		pflag.Parse()
	}
	return load(pflag.CommandLine)
}

func load(flags *pflag.FlagSet) (*Config, error) {
	if err := loadEnvFile(flags); err != nil {
		return nil, err
	}

	v := viper.New()

	// Defaults (lowest priority)
	setDefaults(v)

	// --- Config file ---
	cfgPath, _ := flags.GetString("config")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.SetConfigName("realtypress-graphql")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/realtypress-graphql/")
		v.AddConfigPath("$HOME/.realtypress-graphql")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgPath != "" {
			return nil, fmt.Errorf("failed to read config file %q: %w", cfgPath, err)
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// --- Environment variables ---
	// Canonical keys: dot + snake_case
	// Env vars: RPGQL_DATABASE_POOL_MAX_OPEN
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// --- Flags binding (highest normal priority) ---
	bindChangedFlagsToViper(flags, v)
	databaseNameExplicit := databaseNameExplicitlyConfigured(flags, v)
	if err := validateSingleStdinFileSource(v); err != nil {
		return nil, err
	}

	// --- DSN from file (explicit override) ---
	if v.GetString("database.dsn") == "" && v.GetString("database.dsn_file") != "" {
		dsn, err := readSecretFile(v.GetString("database.dsn_file"))
		if err != nil {
			return nil, fmt.Errorf("failed to read database DSN file: %w", err)
		}
		v.Set("database.dsn", dsn)
	}

	// --- Secure password input (explicit override) ---
	if v.GetString("database.password") == "" && v.GetString("database.password_file") != "" {
		pwd, err := readSecretFile(v.GetString("database.password_file"))
		if err != nil {
			return nil, fmt.Errorf("failed to read database password file: %w", err)
		}
		v.Set("database.password", pwd)
	}
	if v.GetString("database.password") == "" && v.GetBool("database.password_prompt") {
		pwd, err := promptPassword()
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		v.Set("database.password", pwd)
	}

	// A DSN names its own schema; the default placeholder must not contradict it.
	if strings.TrimSpace(v.GetString("database.dsn")) != "" &&
		!databaseNameExplicit &&
		v.GetString("database.database") == defaultDatabaseName {
		v.Set("database.database", "")
	}

	effectiveDatabase, err := resolveEffectiveDatabaseName(
		v.GetString("database.database"),
		v.GetString("database.dsn"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve effective database name: %w", err)
	}
	v.Set("database.database", effectiveDatabase)

	// --- Unmarshal (strict) ---
	var cfg Config
	if err := v.UnmarshalExact(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		stringToStringSliceHookFunc(","),
	)
}

// loadEnvFile exports KEY=VALUE pairs from --env_file, or from ./.env when
// present. Variables already in the environment are left alone.
func loadEnvFile(flags *pflag.FlagSet) error {
	path, _ := flags.GetString("env_file")
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %q: %w", path, err)
	}
	return nil
}

// bindChangedFlagsToViper copies only explicitly-set flags into Viper,
// preserving precedence: flags > env > file > defaults.
func bindChangedFlagsToViper(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Visit(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "env_file" || f.Name == "version" {
			return
		}

		switch f.Value.Type() {
		case "string":
			val, _ := flags.GetString(f.Name)
			v.Set(f.Name, val)
		case "int":
			val, _ := flags.GetInt(f.Name)
			v.Set(f.Name, val)
		case "bool":
			val, _ := flags.GetBool(f.Name)
			v.Set(f.Name, val)
		case "float64":
			val, _ := flags.GetFloat64(f.Name)
			v.Set(f.Name, val)
		case "duration":
			val, _ := flags.GetDuration(f.Name)
			v.Set(f.Name, val)
		case "stringSlice":
			val, _ := flags.GetStringSlice(f.Name)
			v.Set(f.Name, val)
		default:
			v.Set(f.Name, f.Value.String())
		}
	})
}

// defineFlags defines all command line flags using canonical snake_case keys.
func defineFlags(flags *pflag.FlagSet) {
	// Database connection flags
	flags.String("database.dsn", "", "Complete MySQL DSN (user:pass@tcp(host:port)/db)")
	flags.String("database.dsn_file", "", "Path to file containing database DSN (use @- for stdin)")
	flags.String("database.host", "", "Database host")
	flags.Int("database.port", 0, "Database port")
	flags.String("database.user", "", "Database user")
	flags.String("database.password", "", "Database password")
	flags.String("database.password_file", "", "Path to file containing database password (use @- for stdin)")
	flags.Bool("database.password_prompt", false, "Prompt for database password securely")
	flags.String("database.database", "", "WordPress database name")

	// Database TLS flags
	flags.String("database.tls.mode", "", "TLS mode (off, skip-verify, verify-ca, verify-full)")
	flags.String("database.tls.ca_file", "", "Path to CA certificate for server verification")
	flags.String("database.tls.cert_file", "", "Path to client certificate for mTLS")
	flags.String("database.tls.key_file", "", "Path to client private key for mTLS")
	flags.String("database.tls.server_name", "", "Override TLS server name for verification")

	// Database pool and timing flags
	flags.Int("database.pool.max_open", 0, "Maximum open database connections")
	flags.Int("database.pool.max_idle", 0, "Maximum idle connections in pool")
	flags.Duration("database.pool.max_lifetime", 0, "Connection max lifetime (e.g. 5m, 30s)")
	flags.Duration("database.connection_timeout", 0, "Max time to wait for database on startup (0 = fail immediately)")
	flags.Duration("database.connection_retry_interval", 0, "Initial interval between connection retries")
	flags.Duration("database.query_timeout", 0, "Per-statement timeout while resolving a request (0 = none)")

	// Server flags
	flags.Int("server.port", 0, "HTTP server port")
	flags.Bool("server.graphiql_enabled", false, "Enable GraphiQL UI for /graphql (dev only)")
	flags.Int("server.graphql_default_limit", 0, "Default page size for connection fields (0 = unlimited)")
	flags.Int("server.graphql_max_limit", 0, "Largest page size a connection field accepts (0 = unbounded)")
	flags.Bool("server.cors_enabled", false, "Enable CORS (Cross-Origin Resource Sharing)")
	flags.StringSlice("server.cors_allowed_origins", nil, "Allowed CORS origins (comma-separated or repeated)")
	flags.StringSlice("server.cors_allowed_methods", nil, "Allowed CORS methods (comma-separated or repeated)")
	flags.StringSlice("server.cors_allowed_headers", nil, "Allowed CORS headers (comma-separated or repeated)")
	flags.StringSlice("server.cors_expose_headers", nil, "CORS headers to expose to browser (comma-separated or repeated)")
	flags.Bool("server.cors_allow_credentials", false, "Allow credentials in CORS requests")
	flags.Int("server.cors_max_age", 0, "CORS preflight cache duration (seconds)")
	flags.Duration("server.read_timeout", 0, "HTTP server read timeout")
	flags.Duration("server.write_timeout", 0, "HTTP server write timeout")
	flags.Duration("server.idle_timeout", 0, "HTTP server idle timeout")
	flags.Duration("server.shutdown_timeout", 0, "HTTP server graceful shutdown timeout")
	flags.Duration("server.health_check_timeout", 0, "Health check timeout")

	// RealtyPress flags
	flags.String("realtypress.table_prefix", "", "WordPress table prefix (default: wp_)")
	flags.Bool("realtypress.require_host", false, "Require the WordPress options table before activating")
	flags.String("realtypress.plugin_version", "", "Declare the installed RealtyPress version and skip plugin probing")
	flags.StringSlice("realtypress.plugin_slugs", nil, "Plugin slugs matched against active_plugins")

	// Observability flags
	flags.String("observability.service_name", "", "Service name for observability")
	flags.String("observability.service_version", "", "Service version for observability")
	flags.String("observability.environment", "", "Environment name (dev, staging, prod)")
	flags.Bool("observability.metrics_enabled", false, "Enable metrics collection")
	flags.Bool("observability.tracing_enabled", false, "Enable distributed tracing")
	flags.Float64("observability.trace_sample_ratio", 0, "Trace sampling ratio from 0.0 to 1.0")

	// Logging flags (under observability)
	flags.String("observability.logging.level", "", "Log level (debug, info, warn, error)")
	flags.String("observability.logging.format", "", "Log format (json, text)")
	flags.Bool("observability.logging.exports_enabled", false, "Enable OTLP log export")

	// Global OTLP flags
	flags.String("observability.otlp.endpoint", "", "OTLP endpoint for all signals (e.g., localhost:4317)")
	flags.String("observability.otlp.protocol", "", "OTLP protocol for all signals (grpc, http/protobuf)")
	flags.Bool("observability.otlp.insecure", false, "Use insecure connection (no TLS)")
	flags.String("observability.otlp.tls_cert_file", "", "Path to TLS certificate file for server verification")
	flags.String("observability.otlp.tls_client_cert_file", "", "Path to client certificate file for mTLS")
	flags.String("observability.otlp.tls_client_key_file", "", "Path to client key file for mTLS")
	flags.Duration("observability.otlp.timeout", 0, "OTLP export timeout")
	flags.String("observability.otlp.compression", "", "OTLP compression (none, gzip)")
	flags.Bool("observability.otlp.retry_enabled", false, "Enable retry on transient errors")

	// Signal-specific OTLP flags
	flags.String("observability.traces.endpoint", "", "OTLP endpoint for traces only")
	flags.String("observability.traces.protocol", "", "OTLP protocol for traces (grpc, http/protobuf)")
	flags.Bool("observability.traces.insecure", false, "Use insecure connection for traces")
	flags.Duration("observability.traces.timeout", 0, "Timeout for trace exports")
	flags.String("observability.logs.endpoint", "", "OTLP endpoint for logs only")
	flags.String("observability.logs.protocol", "", "OTLP protocol for logs (grpc, http/protobuf)")
	flags.Bool("observability.logs.insecure", false, "Use insecure connection for logs")
	flags.Duration("observability.logs.timeout", 0, "Timeout for log exports")

	flags.StringP("config", "c", "", "Config file path")
	flags.String("env_file", "", "Path to a .env file loaded before reading RPGQL_* variables")
}

// setDefaults sets default values (lowest precedence).
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.dsn_file", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "wordpress")
	v.SetDefault("database.password", "")
	v.SetDefault("database.password_file", "")
	v.SetDefault("database.password_prompt", false)
	v.SetDefault("database.database", defaultDatabaseName)
	v.SetDefault("database.tls.mode", "")
	v.SetDefault("database.tls.ca_file", "")
	v.SetDefault("database.tls.cert_file", "")
	v.SetDefault("database.tls.key_file", "")
	v.SetDefault("database.tls.server_name", "")
	v.SetDefault("database.pool.max_open", 25)
	v.SetDefault("database.pool.max_idle", 5)
	v.SetDefault("database.pool.max_lifetime", 5*time.Minute)
	v.SetDefault("database.connection_timeout", 60*time.Second)
	v.SetDefault("database.connection_retry_interval", 2*time.Second)
	v.SetDefault("database.query_timeout", 10*time.Second)

	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.graphiql_enabled", false)
	v.SetDefault("server.graphql_default_limit", 100)
	v.SetDefault("server.graphql_max_limit", 1000)
	v.SetDefault("server.cors_enabled", false)
	v.SetDefault("server.cors_allowed_origins", []string{})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Content-Type", "Authorization"})
	v.SetDefault("server.cors_expose_headers", []string{})
	v.SetDefault("server.cors_allow_credentials", false)
	v.SetDefault("server.cors_max_age", 86400)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.health_check_timeout", 2*time.Second)

	// RealtyPress defaults
	v.SetDefault("realtypress.table_prefix", "wp_")
	v.SetDefault("realtypress.require_host", true)
	v.SetDefault("realtypress.plugin_version", "")
	v.SetDefault("realtypress.plugin_slugs", []string{"realtypress-premium", "realtypress"})

	// Observability defaults
	v.SetDefault("observability.service_name", "realtypress-graphql")
	v.SetDefault("observability.service_version", "")
	v.SetDefault("observability.environment", "development")
	v.SetDefault("observability.metrics_enabled", true)
	v.SetDefault("observability.tracing_enabled", false)
	v.SetDefault("observability.trace_sample_ratio", 1.0)
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.logging.exports_enabled", false)
	v.SetDefault("observability.otlp.endpoint", "localhost:4317")
	v.SetDefault("observability.otlp.protocol", "grpc")
	v.SetDefault("observability.otlp.insecure", false)
	v.SetDefault("observability.otlp.tls_cert_file", "")
	v.SetDefault("observability.otlp.tls_client_cert_file", "")
	v.SetDefault("observability.otlp.tls_client_key_file", "")
	v.SetDefault("observability.otlp.headers", map[string]string{})
	v.SetDefault("observability.otlp.timeout", 10*time.Second)
	v.SetDefault("observability.otlp.compression", "gzip")
	v.SetDefault("observability.otlp.retry_enabled", true)
}

// promptPassword prompts the user for a password without echoing to terminal.
func promptPassword() (string, error) {
	fmt.Print("Enter database password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(bytePassword), nil
}

// readSecretFile reads a trimmed secret from path, or from stdin for "@-".
func readSecretFile(path string) (string, error) {
	var data []byte
	var err error

	if path == "@-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func validateSingleStdinFileSource(v *viper.Viper) error {
	stdinBackedKeys := []string{
		"database.dsn_file",
		"database.password_file",
	}

	var configured []string
	for _, key := range stdinBackedKeys {
		if strings.TrimSpace(v.GetString(key)) == "@-" {
			configured = append(configured, key)
		}
	}

	if len(configured) > 1 {
		return fmt.Errorf(
			"multiple stdin-backed file settings use @- (%s); only one @- source is allowed",
			strings.Join(configured, ", "),
		)
	}

	return nil
}

func databaseNameExplicitlyConfigured(flags *pflag.FlagSet, v *viper.Viper) bool {
	if _, ok := os.LookupEnv(EnvPrefix + "_DATABASE_DATABASE"); ok {
		return true
	}
	if flag := flags.Lookup("database.database"); flag != nil && flag.Changed {
		return true
	}
	return v.InConfig("database.database")
}

func stringToStringSliceHookFunc(sep string) mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf([]string{}) {
			return data, nil
		}

		raw := strings.TrimSpace(data.(string))
		if raw == "" {
			return []string{}, nil
		}

		parts := strings.Split(raw, sep)
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	}
}
