package modkit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	errBoom              = errors.New("boom")
	errConnectionRefused = errors.New("connection refused")
)

// recorder collects lifecycle calls across modules in call order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// leaf is a module without submodules.
type leaf struct {
	Base

	label    string
	rec      *recorder
	failInit error
	failRun  error
	failStop error

	inits atomic.Int32
	runs  atomic.Int32
	stops atomic.Int32
}

func (l *leaf) OnInit(context.Context) error {
	l.inits.Add(1)
	l.rec.add("init:" + l.label)
	return l.failInit
}

func (l *leaf) OnRun(context.Context) error {
	l.runs.Add(1)
	l.rec.add("run:" + l.label)
	return l.failRun
}

func (l *leaf) OnStop(context.Context) error {
	l.stops.Add(1)
	l.rec.add("stop:" + l.label)
	return l.failStop
}

func leafFactory(configure func(*leaf)) Factory {
	return func(context.Context) (Module, error) {
		l := &leaf{}
		if configure != nil {
			configure(l)
		}
		return l, nil
	}
}

// countingFactory counts constructions and optionally delays them.
func countingFactory(count *atomic.Int32, delay time.Duration, configure func(*leaf)) Factory {
	return func(ctx context.Context) (Module, error) {
		count.Add(1)
		if delay > 0 {
			time.Sleep(delay)
		}
		return leafFactory(configure)(ctx)
	}
}

// host declares submodules and optionally resolves some during init.
type host struct {
	Base

	label  string
	rec    *recorder
	subs   map[string]Factory
	onInit func(ctx context.Context, h *host) error
}

func (h *host) Submodules() map[string]Factory {
	return h.subs
}

func (h *host) OnInit(ctx context.Context) error {
	h.rec.add("init:" + h.label)
	if h.onInit != nil {
		return h.onInit(ctx, h)
	}
	return nil
}

func (h *host) OnStop(context.Context) error {
	h.rec.add("stop:" + h.label)
	return nil
}

func hostFactory(configure func(*host)) Factory {
	return func(context.Context) (Module, error) {
		h := &host{}
		if configure != nil {
			configure(h)
		}
		return h, nil
	}
}

func quietProps() Props {
	return Props{
		LoggerProvider: func(LogConfig) Logger { return NopLogger() },
	}
}

func createHost(ctx context.Context, configure func(*host)) (*host, error) {
	m, err := Create(ctx, hostFactory(configure), quietProps())
	if err != nil {
		return nil, err
	}
	return m.(*host), nil
}
