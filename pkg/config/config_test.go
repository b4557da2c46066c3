package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
	assert.Equal(t, 10, cfg.Server.MaxUploadMB)
	assert.True(t, cfg.Pipeline.UseML)
	assert.InDelta(t, 0.7, cfg.Pipeline.ConfidenceThreshold, 1e-9)
	assert.True(t, cfg.Pipeline.FallbackToRules)
	assert.Equal(t, "lenient", cfg.Pipeline.MerchantPolicy)
	assert.Equal(t, "inferred", cfg.Pipeline.TagPolicy)
	assert.True(t, cfg.Pipeline.PersonalTransfer)
	assert.Equal(t, 2*time.Minute, cfg.Pipeline.ParseTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("USE_ML", "false")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.55")
	t.Setenv("MERCHANT_POLICY", "STRICT")
	t.Setenv("TAG_POLICY", "observed")
	t.Setenv("PIPELINE_WORKERS", "4")
	t.Setenv("PARSE_TIMEOUT", "30s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RULES_FILE", "rules.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.False(t, cfg.Pipeline.UseML)
	assert.InDelta(t, 0.55, cfg.Pipeline.ConfidenceThreshold, 1e-9)
	assert.Equal(t, "strict", cfg.Pipeline.MerchantPolicy)
	assert.Equal(t, "observed", cfg.Pipeline.TagPolicy)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.ParseTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "rules.yaml", cfg.Rules.RulesFile)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"threshold above one", map[string]string{"CONFIDENCE_THRESHOLD": "1.5"}},
		{"negative threshold", map[string]string{"CONFIDENCE_THRESHOLD": "-0.1"}},
		{"unknown merchant policy", map[string]string{"MERCHANT_POLICY": "fuzzy"}},
		{"unknown tag policy", map[string]string{"TAG_POLICY": "all"}},
		{"negative workers", map[string]string{"PIPELINE_WORKERS": "-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
