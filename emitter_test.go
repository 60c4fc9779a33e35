package modkit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitter_CallsListenersInOrder(t *testing.T) {
	var e Emitter
	var got []string

	e.On("change", func(args ...any) { got = append(got, "first:"+args[0].(string)) })
	e.On("change", func(args ...any) { got = append(got, "second:"+args[0].(string)) })
	e.On("other", func(...any) { got = append(got, "other") })

	assert.True(t, e.Emit("change", "billing"))
	assert.Equal(t, []string{"first:billing", "second:billing"}, got)
}

func TestEmitter_NoListeners(t *testing.T) {
	e := NewEmitter()
	e.On("change", nil)

	assert.False(t, e.Emit("change"))
	assert.Equal(t, 0, e.ListenerCount("change"))
}

func TestEmitter_RemoveAllListeners(t *testing.T) {
	e := NewEmitter()
	e.On("a", func(...any) {})
	e.On("b", func(...any) {})
	e.On("b", func(...any) {})

	e.RemoveAllListeners("a")
	assert.Equal(t, 0, e.ListenerCount("a"))
	assert.Equal(t, 2, e.ListenerCount("b"))

	e.RemoveAllListeners()
	assert.False(t, e.Emit("b"))
}

func TestEmitter_ReentrantListener(t *testing.T) {
	e := NewEmitter()
	calls := 0
	e.On("tick", func(...any) {
		calls++
		// subscriptions made while emitting apply to the next emit
		e.On("tick", func(...any) { calls += 10 })
		e.Emit("tock")
	})

	e.Emit("tick")
	assert.Equal(t, 1, calls)
	e.Emit("tick")
	assert.Equal(t, 12, calls)
}

func TestEmitter_Concurrent(t *testing.T) {
	e := NewEmitter()
	var mu sync.Mutex
	total := 0

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.On("inc", func(...any) {
				mu.Lock()
				total++
				mu.Unlock()
			})
			e.Emit("inc")
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, e.ListenerCount("inc"))
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, total, 16)
}
