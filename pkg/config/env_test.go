package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEnv is an in-memory process environment.
type fakeEnv map[string]string

func (e fakeEnv) lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

func (e fakeEnv) setenv(key, value string) error {
	e[key] = value
	return nil
}

func (e fakeEnv) options(root string) LoadOptions {
	return LoadOptions{ProjectRoot: root, Lookup: e.lookup, Setenv: e.setenv}
}

func writeEnvFile(t *testing.T, root, name, content string) {
	t.Helper()
	dir := filepath.Join(root, EnvironmentsDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".env"), []byte(content), 0o644))
}

const completeEnv = `BASE_URL=https://example.test
MAKE_URL=https://example.test/make
POPULAR_URL=https://example.test/model
OVERALL_URL=https://example.test/overall
REGISTRAR_URL=https://example.test/register
DASHBOARD_URL=https://example.test/dashboard
API_URL=https://api.example.test
TIMEOUT_IMPLICIT=7000
API_TIMEOUT=20000
USER_NAME=tester
`

func TestLoad(t *testing.T) {
	t.Run("defaults to qa and loads the env file", func(t *testing.T) {
		root := t.TempDir()
		writeEnvFile(t, root, "qa", completeEnv)
		env := fakeEnv{}

		cfg, err := Load(env.options(root))
		require.NoError(t, err)

		assert.Equal(t, "qa", cfg.Environment)
		assert.True(t, cfg.EnvFileLoaded)
		assert.Empty(t, cfg.Warnings)
		assert.Equal(t, "https://example.test", cfg.BaseURL)
		assert.Equal(t, "https://api.example.test", cfg.APIURL)
		assert.Equal(t, 7*time.Second, cfg.ImplicitTimeout)
		assert.Equal(t, 20*time.Second, cfg.APITimeout)
		assert.Equal(t, DefaultSlowMo, cfg.SlowMo)
		assert.False(t, cfg.Headless)

		user, ok := cfg.Get("USER_NAME")
		assert.True(t, ok)
		assert.Equal(t, "tester", user)

		assert.Equal(t, "https://example.test", env["BASE_URL"], "file values are exported")
		assert.NoError(t, cfg.Validate())
	})

	t.Run("process variables take precedence", func(t *testing.T) {
		root := t.TempDir()
		writeEnvFile(t, root, "qa", completeEnv)
		env := fakeEnv{"BASE_URL": "https://override.test"}

		cfg, err := Load(env.options(root))
		require.NoError(t, err)

		assert.Equal(t, "https://override.test", cfg.BaseURL)
		assert.Equal(t, "https://override.test", env["BASE_URL"])
	})

	t.Run("ENVIRONMENT selects the file", func(t *testing.T) {
		root := t.TempDir()
		writeEnvFile(t, root, "staging", "BASE_URL=https://staging.test\n")
		env := fakeEnv{"ENVIRONMENT": "staging"}

		cfg, err := Load(env.options(root))
		require.NoError(t, err)

		assert.Equal(t, "staging", cfg.Environment)
		assert.Equal(t, "https://staging.test", cfg.BaseURL)
	})

	t.Run("missing file warns and uses process environment", func(t *testing.T) {
		root := t.TempDir()
		env := fakeEnv{"BASE_URL": "https://from-process.test"}

		cfg, err := Load(env.options(root))
		require.NoError(t, err)

		assert.False(t, cfg.EnvFileLoaded)
		require.Len(t, cfg.Warnings, 1)
		assert.Contains(t, cfg.Warnings[0], "qa.env")
		assert.Equal(t, "https://from-process.test", cfg.BaseURL)
		assert.Equal(t, DefaultImplicitTimeout, cfg.ImplicitTimeout)
		assert.Equal(t, DefaultAPITimeout, cfg.APITimeout)
	})

	t.Run("invalid numbers fall back with a warning", func(t *testing.T) {
		root := t.TempDir()
		writeEnvFile(t, root, "qa", "TIMEOUT_IMPLICIT=soon\nAPI_TIMEOUT=-1\n")
		env := fakeEnv{}

		cfg, err := Load(env.options(root))
		require.NoError(t, err)

		assert.Equal(t, DefaultImplicitTimeout, cfg.ImplicitTimeout)
		assert.Equal(t, DefaultAPITimeout, cfg.APITimeout)
		assert.Len(t, cfg.Warnings, 2)
	})

	t.Run("runtime overrides", func(t *testing.T) {
		root := t.TempDir()
		env := fakeEnv{
			"UITEST_HEADLESS":      "true",
			"UITEST_SLOW_MO":       "0",
			"UITEST_CONSOLE_LEVEL": "debug",
		}

		cfg, err := Load(env.options(root))
		require.NoError(t, err)

		assert.True(t, cfg.Headless)
		assert.Zero(t, cfg.SlowMo)
		assert.Equal(t, "debug", cfg.ConsoleLevel)
	})

	t.Run("project root from UITEST_PROJECT_ROOT", func(t *testing.T) {
		root := t.TempDir()
		env := fakeEnv{"UITEST_PROJECT_ROOT": root}

		cfg, err := Load(LoadOptions{Lookup: env.lookup, Setenv: env.setenv})
		require.NoError(t, err)

		assert.Equal(t, root, cfg.Paths.Root)
		assert.Equal(t, filepath.Join(root, "environments", "qa.env"), cfg.EnvFile)
	})
}

func TestValidate(t *testing.T) {
	t.Run("missing BASE_URL is listed", func(t *testing.T) {
		root := t.TempDir()
		writeEnvFile(t, root, "qa", "MAKE_URL=https://example.test/make\n")

		cfg, err := Load(fakeEnv{}.options(root))
		require.NoError(t, err)

		err = cfg.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingVariables))
		assert.True(t, IsConfigurationError(err))

		var cfgErr *ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Contains(t, cfgErr.Missing, "BASE_URL")
		assert.NotContains(t, cfgErr.Missing, "MAKE_URL")
		assert.Equal(t, "qa", cfgErr.Environment)
		assert.Contains(t, err.Error(), "BASE_URL")
	})

	t.Run("empty values count as missing", func(t *testing.T) {
		env := fakeEnv{}
		for _, key := range CriticalVariables {
			env[key] = "https://example.test"
		}
		env["DASHBOARD_URL"] = "  "

		cfg, err := Load(env.options(t.TempDir()))
		require.NoError(t, err)

		var cfgErr *ConfigurationError
		require.ErrorAs(t, cfg.Validate(), &cfgErr)
		assert.Equal(t, []string{"DASHBOARD_URL"}, cfgErr.Missing)
	})

	t.Run("all six present passes", func(t *testing.T) {
		env := fakeEnv{}
		for _, key := range CriticalVariables {
			env[key] = "https://example.test"
		}

		cfg, err := Load(env.options(t.TempDir()))
		require.NoError(t, err)
		assert.NoError(t, cfg.Validate())
	})
}

func TestPaths(t *testing.T) {
	p := NewPaths("/project")

	assert.Equal(t, filepath.Join("/project", "reports", "video"), p.Video)
	assert.Equal(t, filepath.Join("/project", "reports", "traceview"), p.Trace)
	assert.Equal(t, filepath.Join("/project", "reports", "imagen"), p.Screenshot)
	assert.Equal(t, filepath.Join("/project", "reports", "log"), p.Log)
	assert.Equal(t, filepath.Join("/project", "tests", "files", "files_download"), p.Download)
	assert.Len(t, p.Evidence(), 8)
}
