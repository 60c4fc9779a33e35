package feeders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MergesSourcesInOrder(t *testing.T) {
	base := writeFile(t, "app.yaml", `
debug: false
log:
  level: info
billing:
  currency: usd
  providers:
    stripe:
      provider: stripe
`)
	local := writeFile(t, "app.local.json", `{
  "debug": true,
  "billing": {"providers": {"paypal": {"provider": "paypal"}}}
}`)

	tree, err := Load(NewYamlFeeder(base), NewJSONFeeder(local))
	require.NoError(t, err)

	assert.Equal(t, true, tree["debug"])
	assert.Equal(t, map[string]any{"level": "info"}, tree["log"])

	billing, ok := tree["billing"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "usd", billing["currency"])
	providers, ok := billing["providers"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, providers, "stripe")
	assert.Contains(t, providers, "paypal")
}

func TestLoad_Toml(t *testing.T) {
	path := writeFile(t, "app.toml", `
debug = true

[log]
level = "debug"

[scheduler.jobs]
cleanup = "*/5 * * * *"
`)

	tree, err := Load(NewTomlFeeder(path))
	require.NoError(t, err)

	assert.Equal(t, true, tree["debug"])
	scheduler, ok := asMap(tree["scheduler"])
	require.True(t, ok)
	jobs, ok := asMap(scheduler["jobs"])
	require.True(t, ok)
	assert.Equal(t, "*/5 * * * *", jobs["cleanup"])
}

func TestLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := Load(NewYamlFeeder(missing))
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)

	tree, err := Load(NewYamlFeeder(missing).Optional())
	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestMerge_ReplacesScalarsAndCopiesMaps(t *testing.T) {
	src := map[string]any{"a": map[string]any{"b": 1}}
	dst := map[string]any{"a": "scalar", "keep": true}

	Merge(dst, src)

	assert.Equal(t, map[string]any{"b": 1}, dst["a"])
	assert.Equal(t, true, dst["keep"])

	// later changes to src must not leak into dst
	src["a"].(map[string]any)["b"] = 2
	assert.Equal(t, 1, dst["a"].(map[string]any)["b"])
}

func TestYamlFeeder_FeedKey(t *testing.T) {
	path := writeFile(t, "app.yaml", `
httpserver:
  port: 8081
  host: 127.0.0.1
`)
	var opts struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	}

	require.NoError(t, NewYamlFeeder(path).FeedKey("httpserver", &opts))
	assert.Equal(t, 8081, opts.Port)
	assert.Equal(t, "127.0.0.1", opts.Host)

	var untouched struct{ Port int }
	require.NoError(t, NewYamlFeeder(path).FeedKey("missing", &untouched))
	assert.Zero(t, untouched.Port)
}

func TestEnvFeeder_Feed(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_NAME", "billing")
	t.Setenv("APP_ENABLED", "true")

	var cfg struct {
		Port   int    `env:"PORT"`
		Nested struct {
			Name string `env:"NAME"`
		}
		Enabled bool   `env:"ENABLED"`
		Unset   string `env:"UNSET"`
	}
	cfg.Unset = "default"

	require.NoError(t, NewEnvFeeder("app").Feed(&cfg))
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "billing", cfg.Nested.Name)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "default", cfg.Unset)
}

func TestEnvFeeder_Errors(t *testing.T) {
	var notPointer struct{}
	require.ErrorIs(t, NewEnvFeeder("app").Feed(notPointer), ErrEnvInvalidStructure)

	t.Setenv("APP_PORT", "not-a-number")
	var cfg struct {
		Port int `env:"PORT"`
	}
	require.ErrorIs(t, NewEnvFeeder("app").Feed(&cfg), ErrEnvConversion)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("MODKIT_DEBUG", "true")
	t.Setenv("MODKIT_LOG_LEVEL", "warn")

	tree := map[string]any{
		"log": map[string]any{"format": "console"},
	}
	require.NoError(t, ApplyEnv(tree, DefaultEnvPrefix))

	assert.Equal(t, true, tree["debug"])
	assert.Equal(t, map[string]any{"format": "console", "level": "warn"}, tree["log"])
}

func TestApplyEnv_InvalidDebug(t *testing.T) {
	t.Setenv("MODKIT_DEBUG", "sometimes")

	err := ApplyEnv(map[string]any{}, DefaultEnvPrefix)
	require.ErrorIs(t, err, ErrEnvConversion)
}
