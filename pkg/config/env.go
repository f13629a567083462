package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultEnvironment is used when ENVIRONMENT is unset.
	DefaultEnvironment = "qa"

	// EnvironmentsDir holds one <name>.env file per environment.
	EnvironmentsDir = "environments"

	DefaultImplicitTimeout = 5000 * time.Millisecond
	DefaultAPITimeout      = 15000 * time.Millisecond
	DefaultSlowMo          = 500 * time.Millisecond
)

// Environment variable names.
const (
	EnvEnvironment     = "ENVIRONMENT"
	EnvBaseURL         = "BASE_URL"
	EnvMakeURL         = "MAKE_URL"
	EnvPopularURL      = "POPULAR_URL"
	EnvOverallURL      = "OVERALL_URL"
	EnvRegistrarURL    = "REGISTRAR_URL"
	EnvDashboardURL    = "DASHBOARD_URL"
	EnvAPIURL          = "API_URL"
	EnvImplicitTimeout = "TIMEOUT_IMPLICIT"
	EnvAPITimeout      = "API_TIMEOUT"

	EnvProjectRoot  = "UITEST_PROJECT_ROOT"
	EnvHeadless     = "UITEST_HEADLESS"
	EnvSlowMo       = "UITEST_SLOW_MO"
	EnvConsoleLevel = "UITEST_CONSOLE_LEVEL"
	EnvFileLevel    = "UITEST_FILE_LEVEL"
)

// CriticalVariables must be present and non-empty before any browser work.
var CriticalVariables = []string{
	EnvBaseURL,
	EnvMakeURL,
	EnvPopularURL,
	EnvOverallURL,
	EnvRegistrarURL,
	EnvDashboardURL,
}

// ErrMissingVariables is wrapped by ConfigurationError when critical
// variables are absent.
var ErrMissingVariables = errors.New("missing critical environment variables")

// ConfigurationError reports an environment that cannot be used.
type ConfigurationError struct {
	Environment string
	Missing     []string
	Reason      string
	Err         error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Environment != "" {
		fmt.Fprintf(&b, " (environment %q)", e.Environment)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing %s", strings.Join(e.Missing, ", "))
	}
	if e.Err != nil && len(e.Missing) == 0 {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// LoadOptions controls where and how Load reads the environment.
type LoadOptions struct {
	// ProjectRoot is the directory holding environments/, reports/ and tests/.
	// Defaults to UITEST_PROJECT_ROOT, then the working directory.
	ProjectRoot string

	// Environment overrides the ENVIRONMENT variable.
	Environment string

	// Lookup reads a variable. Defaults to os.LookupEnv.
	Lookup func(key string) (string, bool)

	// Setenv exports a file value. Defaults to os.Setenv.
	Setenv func(key, value string) error
}

// Config is the immutable configuration for one run.
type Config struct {
	Environment   string
	EnvFile       string
	EnvFileLoaded bool

	BaseURL      string
	MakeURL      string
	PopularURL   string
	OverallURL   string
	RegistrarURL string
	DashboardURL string
	APIURL       string

	ImplicitTimeout time.Duration
	APITimeout      time.Duration

	Headless     bool
	SlowMo       time.Duration
	ConsoleLevel string
	FileLevel    string

	Paths Paths

	// Warnings collects problems found while loading. They are reported once
	// a logger exists.
	Warnings []string

	values map[string]string
}

// Load resolves the environment name, loads environments/<name>.env into the
// process environment without overriding variables that are already set, and
// builds a Config.
//
// A missing env file is not an error; it is recorded in Warnings and the
// process environment is used as is.
func Load(opts LoadOptions) (*Config, error) {
	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	setenv := opts.Setenv
	if setenv == nil {
		setenv = os.Setenv
	}

	root := opts.ProjectRoot
	if root == "" {
		if v, ok := lookup(EnvProjectRoot); ok && v != "" {
			root = v
		}
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve project root: %w", err)
		}
		root = wd
	}

	env := opts.Environment
	if env == "" {
		if v, ok := lookup(EnvEnvironment); ok && strings.TrimSpace(v) != "" {
			env = strings.TrimSpace(v)
		} else {
			env = DefaultEnvironment
		}
	}

	cfg := &Config{
		Environment: env,
		EnvFile:     filepath.Join(root, EnvironmentsDir, env+".env"),
		Paths:       NewPaths(root),
		values:      make(map[string]string),
	}

	fileValues, err := godotenv.Read(cfg.EnvFile)
	switch {
	case err == nil:
		cfg.EnvFileLoaded = true
		if err := export(fileValues, lookup, setenv); err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", cfg.EnvFile, err)
		}
	case errors.Is(err, os.ErrNotExist):
		cfg.warnf("environment file %s not found, using process environment", cfg.EnvFile)
		fileValues = nil
	default:
		return nil, &ConfigurationError{
			Environment: env,
			Reason:      fmt.Sprintf("cannot parse %s", cfg.EnvFile),
			Err:         err,
		}
	}

	get := func(key string) string {
		if v, ok := lookup(key); ok {
			return v
		}
		return fileValues[key]
	}

	for key := range fileValues {
		cfg.values[key] = get(key)
	}
	for _, key := range knownVariables() {
		if v := get(key); v != "" {
			cfg.values[key] = v
		}
	}

	cfg.BaseURL = get(EnvBaseURL)
	cfg.MakeURL = get(EnvMakeURL)
	cfg.PopularURL = get(EnvPopularURL)
	cfg.OverallURL = get(EnvOverallURL)
	cfg.RegistrarURL = get(EnvRegistrarURL)
	cfg.DashboardURL = get(EnvDashboardURL)
	cfg.APIURL = get(EnvAPIURL)

	cfg.ImplicitTimeout = cfg.millis(EnvImplicitTimeout, get(EnvImplicitTimeout), DefaultImplicitTimeout)
	cfg.APITimeout = cfg.millis(EnvAPITimeout, get(EnvAPITimeout), DefaultAPITimeout)
	cfg.SlowMo = cfg.millis(EnvSlowMo, get(EnvSlowMo), DefaultSlowMo)

	if raw := get(EnvHeadless); raw != "" {
		headless, err := strconv.ParseBool(raw)
		if err != nil {
			cfg.warnf("invalid %s=%q, running headed", EnvHeadless, raw)
		}
		cfg.Headless = headless
	}

	cfg.ConsoleLevel = get(EnvConsoleLevel)
	cfg.FileLevel = get(EnvFileLevel)

	return cfg, nil
}

// export sets every file value the process does not already define.
func export(values map[string]string, lookup func(string) (string, bool), setenv func(string, string) error) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, ok := lookup(k); ok {
			continue
		}
		if err := setenv(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

func knownVariables() []string {
	return append(append([]string{}, CriticalVariables...),
		EnvAPIURL, EnvImplicitTimeout, EnvAPITimeout,
		EnvHeadless, EnvSlowMo, EnvConsoleLevel, EnvFileLevel)
}

// millis parses a millisecond value, falling back to def with a warning.
func (c *Config) millis(key, raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		c.warnf("invalid %s=%q, using default %dms", key, raw, def.Milliseconds())
		return def
	}
	return time.Duration(n) * time.Millisecond
}

func (c *Config) warnf(format string, args ...interface{}) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// Get returns any variable read for this environment, including ones Config
// has no field for (credentials, feature flags).
func (c *Config) Get(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Validate checks that every critical variable is present and non-empty.
// All missing names are reported together, in declaration order.
func (c *Config) Validate() error {
	var missing []string
	for _, key := range CriticalVariables {
		if strings.TrimSpace(c.values[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ConfigurationError{
		Environment: c.Environment,
		Missing:     missing,
		Err:         ErrMissingVariables,
	}
}
