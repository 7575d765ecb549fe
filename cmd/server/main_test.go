package main

import (
	"testing"

	"realtypress-graphql/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportValidation(t *testing.T) {
	t.Run("warnings only", func(t *testing.T) {
		result := &config.ValidationResult{
			Warnings: []config.ValidationWarning{{Field: "realtypress.table_prefix", Message: "table prefix is empty"}},
		}
		assert.NoError(t, reportValidation(result))
	})

	t.Run("errors fail startup", func(t *testing.T) {
		result := &config.ValidationResult{
			Errors: []config.ValidationError{
				{Field: "server.port", Message: "port 0 is out of valid range (1-65535)"},
				{Field: "realtypress.table_prefix", Message: `invalid table prefix "wp-"`},
			},
		}
		err := reportValidation(result)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.port")
		assert.Contains(t, err.Error(), "realtypress.table_prefix")
	})

	t.Run("default config is valid", func(t *testing.T) {
		cfg := &config.Config{
			Database: config.DatabaseConfig{Host: "localhost", Port: 3306, Database: "wordpress"},
			Server:   config.ServerConfig{Port: 8080, GraphQLDefaultLimit: 100, GraphQLMaxLimit: 1000},
			RealtyPress: config.RealtyPressConfig{
				TablePrefix: "wp_",
				RequireHost: true,
				PluginSlugs: []string{"realtypress-premium", "realtypress"},
			},
			Observability: config.ObservabilityConfig{
				Logging: config.LoggingConfig{Level: "info", Format: "json"},
			},
		}
		assert.NoError(t, reportValidation(cfg.Validate()))
	})
}
