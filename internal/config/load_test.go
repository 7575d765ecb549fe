package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	defineFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(parseFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "wordpress", cfg.Database.Database)
	assert.Equal(t, 10*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, 100, cfg.Server.GraphQLDefaultLimit)
	assert.Equal(t, 1000, cfg.Server.GraphQLMaxLimit)
	assert.Equal(t, "wp_", cfg.RealtyPress.TablePrefix)
	assert.True(t, cfg.RealtyPress.RequireHost)
	assert.Equal(t, []string{"realtypress-premium", "realtypress"}, cfg.RealtyPress.PluginSlugs)
	assert.Equal(t, "realtypress-graphql", cfg.Observability.ServiceName)
	assert.True(t, cfg.Observability.OTLP.Retry())
	assert.Nil(t, cfg.Observability.Traces)
	assert.False(t, cfg.Validate().HasErrors())
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "realtypress-graphql.yaml", `
database:
  host: filehost
server:
  port: 9000
  graphiql_enabled: true
realtypress:
  table_prefix: wpx_
observability:
  traces:
    endpoint: traces.example.com:4317
`)
	t.Setenv("RPGQL_SERVER_PORT", "9100")
	t.Setenv("RPGQL_DATABASE_HOST", "envhost")

	cfg, err := load(parseFlags(t, "--config", path, "--server.port=9200"))
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Server.Port, "flag beats env and file")
	assert.Equal(t, "envhost", cfg.Database.Host, "env beats file")
	assert.Equal(t, "wpx_", cfg.RealtyPress.TablePrefix, "file beats default")
	assert.True(t, cfg.Server.GraphiQLEnabled)
	require.NotNil(t, cfg.Observability.Traces)
	assert.Equal(t, "traces.example.com:4317", cfg.Observability.GetTracesConfig().Endpoint)
	assert.Equal(t, "localhost:4317", cfg.Observability.GetLogsConfig().Endpoint)
}

func TestLoad_EnvFile(t *testing.T) {
	path := writeFile(t, "test.env", "RPGQL_DATABASE_USER=dotenv_user\nRPGQL_DATABASE_PORT=9999\nRPGQL_REALTYPRESS_PLUGIN_SLUGS=realtypress-premium, custom-rps\n")
	t.Setenv("RPGQL_DATABASE_PORT", "3310")
	t.Cleanup(func() {
		os.Unsetenv("RPGQL_DATABASE_USER")
		os.Unsetenv("RPGQL_REALTYPRESS_PLUGIN_SLUGS")
	})

	cfg, err := load(parseFlags(t, "--env_file", path))
	require.NoError(t, err)

	assert.Equal(t, "dotenv_user", cfg.Database.User)
	assert.Equal(t, 3310, cfg.Database.Port, "existing environment is not overridden")
	assert.Equal(t, []string{"realtypress-premium", "custom-rps"}, cfg.RealtyPress.PluginSlugs)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := load(parseFlags(t, "--env_file", filepath.Join(t.TempDir(), "absent.env")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load env file")
}

func TestLoad_SecretFiles(t *testing.T) {
	dsnPath := writeFile(t, "dsn", "reader:pw@tcp(mysql.internal:3306)/realty\n")
	cfg, err := load(parseFlags(t, "--database.dsn_file", dsnPath))
	require.NoError(t, err)
	assert.Equal(t, "reader:pw@tcp(mysql.internal:3306)/realty", cfg.Database.ConnectionString)
	assert.Equal(t, "realty", cfg.Database.Database, "DSN schema replaces the default name")

	pwPath := writeFile(t, "password", "  s3cret\n")
	cfg, err = load(parseFlags(t, "--database.password_file", pwPath))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Password)
}

func TestLoad_ExplicitDatabaseMustMatchDSN(t *testing.T) {
	_, err := load(parseFlags(t,
		"--database.dsn", "reader:pw@tcp(mysql.internal:3306)/realty",
		"--database.database", "wordpress",
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  graphql_max_depth: 5
`)
	_, err := load(parseFlags(t, "--config", path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "graphql_max_depth")
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := load(parseFlags(t, "--config", filepath.Join(t.TempDir(), "absent.yaml")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
