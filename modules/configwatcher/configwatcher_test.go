package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/modkit"
)

func newWatcher(t *testing.T, tree map[string]any) (*Module, error) {
	t.Helper()
	cfg, err := modkit.ConfigFromMap(tree)
	require.NoError(t, err)
	m, err := modkit.Create(context.Background(), New(), modkit.Props{Config: cfg, Logger: modkit.NopLogger()})
	if err != nil {
		return nil, err
	}
	return m.(*Module), nil
}

func TestModule_EmitsDebouncedChange(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "app.yaml")
	other := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(watched, []byte("debug: false\n"), 0o600))

	w, err := newWatcher(t, map[string]any{"paths": []any{watched}, "debounce": "100ms"})
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		batches [][]string
	)
	w.On(EventChange, func(args ...any) {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, args[0].([]string))
	})

	ctx := context.Background()
	require.NoError(t, w.Run(ctx))
	t.Cleanup(func() { _ = w.Stop(ctx) })

	require.NoError(t, os.WriteFile(other, []byte("ignored: true\n"), 0o600))
	for i := range 3 {
		require.NoError(t, os.WriteFile(watched, []byte("debug: true\n# "+string(rune('a'+i))+"\n"), 0o600))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) > 0
	}, 2*time.Second, 10*time.Millisecond)

	// let any trailing debounce window expire
	time.Sleep(300 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 1)
	abs, err := filepath.Abs(watched)
	require.NoError(t, err)
	assert.Equal(t, []string{abs}, batches[0])
}

func TestModule_RequiresPaths(t *testing.T) {
	_, err := newWatcher(t, map[string]any{})
	require.ErrorIs(t, err, ErrNoPaths)
}

func TestModule_StopWithoutRun(t *testing.T) {
	w, err := newWatcher(t, map[string]any{"paths": []any{"config.yaml"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.cfg.Debounce)
	assert.NoError(t, w.Stop(context.Background()))
}
