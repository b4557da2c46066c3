package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/echo-statements/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:               "localhost",
			Port:               8080,
			RateLimitPerSecond: 100,
			RateLimitBurst:     100,
			CORSOrigins:        []string{"http://localhost:3000"},
			MaxUploadMB:        5,
		},
		Pipeline: config.PipelineConfig{
			UseML:               true,
			ConfidenceThreshold: 0.7,
			FallbackToRules:     true,
			MerchantPolicy:      "lenient",
			TagPolicy:           "inferred",
			PersonalTransfer:    true,
			Workers:             2,
			ParseTimeout:        time.Minute,
		},
		Observability: config.ObservabilityConfig{MetricsEnabled: true},
		Logging:       config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitDependencies(t *testing.T) {
	deps, err := InitDependencies(testConfig(), discardLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"ICICI"}, deps.Registry.Banks())
	assert.NotNil(t, deps.Metrics)
	assert.NoError(t, deps.Pipeline.Ready())
}

func TestInitDependencies_RuleFiles(t *testing.T) {
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte(`
rules:
  - keywords: ["chai point"]
    category: Food & Dining
    subcategory: Cafes
`), 0o600))
	overrides := filepath.Join(dir, "overrides.yaml")
	require.NoError(t, os.WriteFile(overrides, []byte(`
overrides:
  - pattern: CHAI POINT
    match_type: contains
    merchant: Chai Point
`), 0o600))

	cfg := testConfig()
	cfg.Rules = config.RulesConfig{RulesFile: rules, MerchantOverridesFile: overrides}

	deps, err := InitDependencies(cfg, discardLogger())
	require.NoError(t, err)
	assert.Len(t, deps.Rules.Rules(), 1)

	got := deps.Rules.Enrich("UPI/CHAI POINT/123", 80, "DR")
	assert.Equal(t, "Chai Point", got.Merchant)
	assert.Equal(t, "Food & Dining", got.Category)
}

func TestInitDependencies_MissingRulesFile(t *testing.T) {
	cfg := testConfig()
	cfg.Rules.RulesFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := InitDependencies(cfg, discardLogger())
	assert.Error(t, err)
}

func TestNewServer(t *testing.T) {
	deps, err := InitDependencies(testConfig(), discardLogger())
	require.NoError(t, err)
	srv := newServer(deps)

	tests := []struct {
		path string
		want int
	}{
		{"/healthz", http.StatusOK},
		{"/v1/banks", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
