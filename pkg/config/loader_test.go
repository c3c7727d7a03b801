package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/config"
)

type fanoutConfig struct {
	ProviderTimeout time.Duration `env:"TEST_PROVIDER_TIMEOUT" envDefault:"3s"`
	BufferSize      int           `env:"TEST_BUFFER_SIZE" envDefault:"64"`
	Enabled         bool          `env:"TEST_ENABLED" envDefault:"true"`
}

type requiredConfig struct {
	URL string `env:"TEST_REQUIRED_URL,required"`
}

type cachedConfig struct {
	Value string `env:"TEST_CACHED_VALUE" envDefault:"default"`
}

type fileConfig struct {
	Value string `env:"TEST_FILE_VALUE"`
}

func TestLoad(t *testing.T) {
	t.Run("reads environment", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_PROVIDER_TIMEOUT", "500ms")
		t.Setenv("TEST_BUFFER_SIZE", "8")
		t.Setenv("TEST_ENABLED", "false")

		var cfg fanoutConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 500*time.Millisecond, cfg.ProviderTimeout)
		assert.Equal(t, 8, cfg.BufferSize)
		assert.False(t, cfg.Enabled)
	})

	t.Run("applies defaults", func(t *testing.T) {
		config.Reset()
		os.Unsetenv("TEST_PROVIDER_TIMEOUT")
		os.Unsetenv("TEST_BUFFER_SIZE")
		os.Unsetenv("TEST_ENABLED")

		var cfg fanoutConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 3*time.Second, cfg.ProviderTimeout)
		assert.Equal(t, 64, cfg.BufferSize)
		assert.True(t, cfg.Enabled)
	})

	t.Run("missing required value", func(t *testing.T) {
		config.Reset()
		os.Unsetenv("TEST_REQUIRED_URL")

		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("failed parse is retried", func(t *testing.T) {
		config.Reset()
		os.Unsetenv("TEST_REQUIRED_URL")

		var cfg requiredConfig
		require.Error(t, config.Load(&cfg))

		t.Setenv("TEST_REQUIRED_URL", "http://localhost")
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "http://localhost", cfg.URL)
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *fanoutConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})
}

func TestLoad_Cached(t *testing.T) {
	config.Reset()
	t.Setenv("TEST_CACHED_VALUE", "first")

	var first cachedConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_CACHED_VALUE", "second")

	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)

	config.Reset()
	var third cachedConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "second", third.Value)
}

func TestLoadEnv(t *testing.T) {
	config.Reset()
	os.Unsetenv("TEST_FILE_VALUE")
	t.Cleanup(func() { os.Unsetenv("TEST_FILE_VALUE") })

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TEST_FILE_VALUE=from-file\n"), 0o600))

	require.NoError(t, config.LoadEnv(path))

	var cfg fileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "from-file", cfg.Value)

	err := config.LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}

func TestMustLoad(t *testing.T) {
	config.Reset()
	os.Unsetenv("TEST_REQUIRED_URL")

	var cfg requiredConfig
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}
