package preprocessing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
)

func TestParseConfig(t *testing.T) {
	t.Setenv("GAUSSRANK_TEST_JOBS", "4")

	cfg, err := ParseConfig([]byte(`
epsilon: 0.001
interp_kind: ${GAUSSRANK_TEST_KIND:-pchip}
n_jobs: ${GAUSSRANK_TEST_JOBS}
`))
	require.NoError(t, err)

	assert.Equal(t, 0.001, cfg.Epsilon)
	assert.Equal(t, "pchip", cfg.InterpKind)
	assert.Equal(t, 4, cfg.NJobs)
	assert.True(t, cfg.Copy, "missing keys keep their defaults")
	assert.False(t, cfg.InterpCopy)
}

func TestParseConfig_Empty(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "alpha: 1\n"},
		{"bad epsilon", "epsilon: 1.5\n"},
		{"bad kind", "interp_kind: quintic\n"},
		{"malformed", "epsilon: [1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("GAUSSRANK_TEST_SET", "value")

	got := substituteEnvVars("a=${GAUSSRANK_TEST_SET} b=${GAUSSRANK_TEST_UNSET:-fallback} c=${GAUSSRANK_TEST_UNSET} d=$${GAUSSRANK_TEST_SET}")
	assert.Equal(t, "a=value b=fallback c= d=${GAUSSRANK_TEST_SET}", got)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scaler.yaml")
	require.NoError(t, os.WriteFile(path, []byte("epsilon: 0.01\ncopy: false\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.01, cfg.Epsilon)
	assert.False(t, cfg.Copy)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cfg, err = LoadConfigFromReader(strings.NewReader("n_jobs: -1\n"))
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.NJobs)
}

func TestNewGaussRankScalerFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InterpKind = "cubic"
	cfg.NJobs = 3

	scaler, err := NewGaussRankScalerFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "not-a-knot", scaler.GetParams()["interp_kind"])
	assert.Equal(t, 3, scaler.GetParams()["n_jobs"])

	got := scaler.Config()
	assert.Equal(t, "not-a-knot", got.InterpKind)

	cfg.Epsilon = 0
	_, err = NewGaussRankScalerFromConfig(cfg)
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}
