package modkit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestModule_BeforeInit(t *testing.T) {
	h := &host{subs: map[string]Factory{"db": leafFactory(nil)}}
	h.assign(h, quietProps())

	_, err := h.Module(context.Background(), "db")
	require.Error(t, err)
	assert.True(t, IsInvalidWorkflow(err))

	_, err = h.Modules(context.Background(), []string{"db"})
	assert.True(t, IsInvalidWorkflow(err))
	assert.False(t, h.HasModule("db"))
}

func TestModule_NotFound(t *testing.T) {
	h, err := createHost(context.Background(), nil)
	require.NoError(t, err)

	_, err = h.Module(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, err, ErrNotFound)

	var coded *Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, "nope", coded.Data["name"])
}

func TestModule_ReturnsSameInstance(t *testing.T) {
	ctx := context.Background()
	var built atomic.Int32

	h, err := createHost(ctx, func(h *host) {
		h.subs = map[string]Factory{"db": countingFactory(&built, 0, nil)}
	})
	require.NoError(t, err)

	first, err := h.Module(ctx, "db")
	require.NoError(t, err)
	second, err := h.Module(ctx, "db")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.EqualValues(t, 1, built.Load())
	assert.Equal(t, StageRunning, first.(*leaf).Stage())
	assert.Same(t, Module(h), first.(*leaf).Parent())
}

func TestModule_ConcurrentRequestsShareConstruction(t *testing.T) {
	ctx := context.Background()
	var built atomic.Int32

	h, err := createHost(ctx, func(h *host) {
		h.subs = map[string]Factory{"slow": countingFactory(&built, 20*time.Millisecond, nil)}
	})
	require.NoError(t, err)

	const callers = 32
	results := make([]Module, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := h.Module(ctx, "slow")
			assert.NoError(t, err)
			results[i] = m
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, built.Load())
	for _, m := range results {
		assert.Same(t, results[0], m)
	}
}

func TestModule_WaitHonorsContext(t *testing.T) {
	var built atomic.Int32
	h, err := createHost(context.Background(), func(h *host) {
		h.subs = map[string]Factory{"slow": countingFactory(&built, 200*time.Millisecond, nil)}
	})
	require.NoError(t, err)

	go func() { _, _ = h.Module(context.Background(), "slow") }()
	require.Eventually(t, func() bool { return built.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = h.Module(ctx, "slow")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestModules_Wildcard(t *testing.T) {
	ctx := context.Background()
	h, err := createHost(ctx, func(h *host) {
		h.subs = map[string]Factory{
			"dbUsers":  leafFactory(nil),
			"dbOrders": leafFactory(nil),
			"cache":    leafFactory(nil),
		}
	})
	require.NoError(t, err)

	got, err := h.Modules(ctx, []string{"db*"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "dbUsers")
	assert.Contains(t, got, "dbOrders")

	assert.Equal(t, map[string]bool{"dbUsers": true, "dbOrders": true}, h.HasModules("db*"))
	assert.Equal(t, map[string]bool{"cache": true, "queue": false}, h.HasModules("cache", "queue"))
	assert.True(t, h.HasModule("cache"))
	assert.True(t, h.HasModule("db*"))
	assert.False(t, h.HasModule("x*"))

	none, err := h.Modules(ctx, []string{"x*"})
	require.NoError(t, err)
	assert.Empty(t, none)

	// resolving again hands back the cached instances
	again, err := h.Modules(ctx, []string{"dbUsers", "db*"})
	require.NoError(t, err)
	assert.Len(t, again, 2)
	assert.Same(t, got["dbUsers"], again["dbUsers"])

	_, err = h.Module(ctx, "db*")
	assert.True(t, IsInvalidWorkflow(err))
}

func TestModules_FirstErrorWins(t *testing.T) {
	ctx := context.Background()
	h, err := createHost(ctx, func(h *host) {
		h.subs = map[string]Factory{
			"ok":  leafFactory(nil),
			"bad": leafFactory(func(l *leaf) { l.failInit = errBoom }),
		}
	})
	require.NoError(t, err)

	_, err = h.Modules(ctx, []string{"ok", "bad"})
	require.Error(t, err)
	assert.True(t, IsInjectingError(err))
	assert.ErrorIs(t, err, errBoom)
	assert.True(t, h.HasModule("ok"))

	_, err = h.Modules(ctx, []string{"ok", "missing"})
	assert.True(t, IsNotFound(err))
}

func TestModule_InjectingErrorFailsParentInit(t *testing.T) {
	ctx := context.Background()
	log := &MockLogger{}
	log.On("Fatal", "failed to inject module", mock.Anything).Return()

	props := quietProps()
	props.Logger = log
	_, err := Create(ctx, hostFactory(func(h *host) {
		h.subs = map[string]Factory{
			"rabbit": leafFactory(func(l *leaf) { l.failRun = errConnectionRefused }),
		}
		h.onInit = func(ctx context.Context, h *host) error {
			_, err := h.Module(ctx, "rabbit")
			return err
		}
	}), props)

	require.Error(t, err)
	assert.True(t, IsInjectingError(err))
	assert.ErrorIs(t, err, errConnectionRefused)

	var coded *Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, "rabbit", coded.Data["name"])
	log.AssertNumberOfCalls(t, "Fatal", 1)
}

func TestModule_ConstructionFailureIsNotCached(t *testing.T) {
	ctx := context.Background()
	var attempts atomic.Int32

	h, err := createHost(ctx, func(h *host) {
		h.subs = map[string]Factory{
			"flaky": func(ctx context.Context) (Module, error) {
				if attempts.Add(1) == 1 {
					return nil, errBoom
				}
				return leafFactory(nil)(ctx)
			},
		}
	})
	require.NoError(t, err)

	_, err = h.Module(ctx, "flaky")
	require.ErrorIs(t, err, errBoom)

	m, err := h.Module(ctx, "flaky")
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.EqualValues(t, 2, attempts.Load())
}

func TestModule_RunFailureKeepsInstanceCached(t *testing.T) {
	ctx := context.Background()
	var built atomic.Int32

	h, err := createHost(ctx, func(h *host) {
		h.subs = map[string]Factory{
			"rabbit": countingFactory(&built, 0, func(l *leaf) { l.failRun = errConnectionRefused }),
		}
	})
	require.NoError(t, err)

	_, err = h.Module(ctx, "rabbit")
	require.True(t, IsInjectingError(err))

	m, err := h.Module(ctx, "rabbit")
	require.NoError(t, err)
	assert.EqualValues(t, 1, built.Load())
	assert.EqualValues(t, 1, m.(*leaf).runs.Load())
}

func TestModule_ConfigCascade(t *testing.T) {
	ctx := context.Background()
	cfg, err := ConfigFromMap(map[string]any{
		"debug": true,
		"log":   map[string]any{"level": "info", "name": "root"},
		"billing": map[string]any{
			"currency": "eur",
		},
	})
	require.NoError(t, err)

	props := quietProps()
	props.Name = "App"
	props.Config = cfg
	m, err := Create(ctx, hostFactory(func(h *host) {
		h.subs = map[string]Factory{"billing": leafFactory(nil)}
	}), props)
	require.NoError(t, err)
	h := m.(*host)

	billing, err := ModuleAs[*leaf](ctx, h, "billing")
	require.NoError(t, err)

	assert.Equal(t, "App.billing", billing.Namespace())
	assert.True(t, billing.Debug())
	assert.Equal(t, "info", billing.Config().Log.Level)
	assert.Empty(t, billing.Config().Log.Name)

	var opts struct {
		Currency string `yaml:"currency"`
	}
	require.NoError(t, billing.Config().Decode(&opts))
	assert.Equal(t, "eur", opts.Currency)
}

func TestModule_ChildrenInheritLoggerProvider(t *testing.T) {
	ctx := context.Background()
	var (
		mu  sync.Mutex
		nss []string
	)
	props := Props{
		Name: "App",
		LoggerProvider: func(cfg LogConfig) Logger {
			mu.Lock()
			defer mu.Unlock()
			nss = append(nss, cfg.Ns)
			return NopLogger()
		},
	}
	m, err := Create(ctx, hostFactory(func(h *host) {
		h.subs = map[string]Factory{"worker": leafFactory(nil)}
	}), props)
	require.NoError(t, err)

	_, err = m.(*host).Module(ctx, "worker")
	require.NoError(t, err)
	assert.Equal(t, []string{"App", "App.worker"}, nss)
}

func TestModule_PropsModulesOverrideDeclared(t *testing.T) {
	ctx := context.Background()
	props := quietProps()
	props.Modules = map[string]Factory{
		"db":    leafFactory(func(l *leaf) { l.label = "override" }),
		"extra": leafFactory(nil),
	}

	m, err := Create(ctx, hostFactory(func(h *host) {
		h.subs = map[string]Factory{"db": leafFactory(func(l *leaf) { l.label = "declared" })}
	}), props)
	require.NoError(t, err)
	h := m.(*host)

	db, err := ModuleAs[*leaf](ctx, h, "db")
	require.NoError(t, err)
	assert.Equal(t, "override", db.label)
	assert.True(t, h.HasModule("extra"))
}

func TestModuleAs_WrongType(t *testing.T) {
	ctx := context.Background()
	h, err := createHost(ctx, func(h *host) {
		h.subs = map[string]Factory{"db": leafFactory(nil)}
	})
	require.NoError(t, err)

	_, err = ModuleAs[*host](ctx, h, "db")
	require.ErrorIs(t, err, ErrModuleType)
}

func TestModule_ResolveHooksAreInherited(t *testing.T) {
	ctx := context.Background()
	type call struct {
		ns  string
		err error
	}
	var (
		mu    sync.Mutex
		calls []call
	)

	props := quietProps()
	props.Name = "App"
	props.OnResolve = []ResolveHook{func(ns string, _ time.Duration, err error) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, call{ns: ns, err: err})
	}}

	m, err := Create(ctx, hostFactory(func(h *host) {
		h.subs = map[string]Factory{
			"billing": hostFactory(func(c *host) {
				c.subs = map[string]Factory{"stripe": leafFactory(nil)}
				c.onInit = func(ctx context.Context, c *host) error {
					_, err := c.Module(ctx, "stripe")
					return err
				}
			}),
			"broken": leafFactory(func(l *leaf) { l.failInit = errBoom }),
		}
	}), props)
	require.NoError(t, err)
	h := m.(*host)

	_, err = h.Module(ctx, "billing")
	require.NoError(t, err)
	_, err = h.Module(ctx, "broken")
	require.Error(t, err)

	require.Len(t, calls, 3)
	assert.Equal(t, "App.billing.stripe", calls[0].ns)
	assert.Equal(t, "App.billing", calls[1].ns)
	assert.Equal(t, "App.broken", calls[2].ns)
	assert.True(t, errors.Is(calls[2].err, errBoom))
}

func TestModule_StoppedParent(t *testing.T) {
	ctx := context.Background()
	h, err := createHost(ctx, func(h *host) {
		h.subs = map[string]Factory{"db": leafFactory(nil)}
	})
	require.NoError(t, err)
	require.NoError(t, h.Stop(ctx))

	_, err = h.Module(ctx, "db")
	assert.True(t, IsInvalidWorkflow(err))
}
