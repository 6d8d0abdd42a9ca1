package preprocessing

import (
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
)

// Config is the file form of the scaler hyperparameters.
//
//	epsilon: 1e-4
//	interp_kind: ${GAUSSRANK_INTERP:-linear}
//	copy: true
//	interp_copy: false
//	n_jobs: -1
type Config struct {
	Epsilon    float64 `yaml:"epsilon" json:"epsilon"`
	InterpKind string  `yaml:"interp_kind" json:"interp_kind"`
	Copy       bool    `yaml:"copy" json:"copy"`
	InterpCopy bool    `yaml:"interp_copy" json:"interp_copy"`
	NJobs      int     `yaml:"n_jobs" json:"n_jobs"`
}

// DefaultConfig returns the default hyperparameters.
func DefaultConfig() Config {
	return Config{
		Epsilon:    DefaultEpsilon,
		InterpKind: string(DefaultInterpKind),
		Copy:       true,
		NJobs:      DefaultNJobs,
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// LoadConfig reads a YAML config file. Keys missing from the file keep
// their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the caller
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return ParseConfig(data)
}

// LoadConfigFromReader reads a YAML config from r.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}
	return ParseConfig(data)
}

// ParseConfig substitutes environment variables in data, decodes it over
// DefaultConfig and validates the result. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	content := substituteEnvVars(string(data))

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(strings.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to parse YAML")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} with environment
// values. "$$" escapes a literal dollar sign.
func substituteEnvVars(content string) string {
	content = strings.ReplaceAll(content, "$$", "\x00ESCAPED_DOLLAR\x00")

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if value, exists := os.LookupEnv(submatches[1]); exists {
			return value
		}
		return submatches[2]
	})

	return strings.ReplaceAll(result, "\x00ESCAPED_DOLLAR\x00", "$")
}

// Validate checks the hyperparameters.
func (c *Config) Validate() error {
	if err := errors.CheckScalar("epsilon", c.Epsilon); err != nil {
		return err
	}
	if c.Epsilon <= 0 || c.Epsilon >= 1 {
		return errors.NewValidationError("epsilon", "must be in (0, 1)", c.Epsilon)
	}
	if _, err := ParseInterpKind(c.InterpKind); err != nil {
		return err
	}
	return nil
}

// Options converts the config into scaler options. The config must be
// valid.
func (c *Config) Options() []Option {
	kind, err := ParseInterpKind(c.InterpKind)
	if err != nil {
		kind = DefaultInterpKind
	}
	return []Option{
		WithEpsilon(c.Epsilon),
		WithInterpKind(kind),
		WithCopy(c.Copy),
		WithInterpCopy(c.InterpCopy),
		WithNJobs(c.NJobs),
	}
}

// NewGaussRankScalerFromConfig validates cfg and creates a scaler from
// it. Extra options are applied after the config.
func NewGaussRankScalerFromConfig(cfg Config, opts ...Option) (*GaussRankScaler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewGaussRankScaler(append(cfg.Options(), opts...)...), nil
}

// Config returns the scaler's hyperparameters as a Config.
func (s *GaussRankScaler) Config() Config {
	return Config{
		Epsilon:    s.epsilon,
		InterpKind: string(s.interpKind),
		Copy:       s.copy,
		InterpCopy: s.interpCopy,
		NJobs:      s.nJobs,
	}
}
