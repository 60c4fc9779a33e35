package modkit

import (
	"context"
	"fmt"

	"github.com/GoCodeAlone/modkit/registry"
)

var plugins = registry.NewRegistry[Factory]()

// RegisterPlugin makes factory available process-wide under name, typically
// from an init function of the package implementing it.
func RegisterPlugin(name string, factory Factory) error {
	if factory == nil {
		return ErrNilFactory
	}
	if err := plugins.Register(name, factory); err != nil {
		return fmt.Errorf("%w: %w", ErrPluginRegistered, err)
	}
	return nil
}

// MustRegisterPlugin is RegisterPlugin that panics on failure.
func MustRegisterPlugin(name string, factory Factory) {
	if err := RegisterPlugin(name, factory); err != nil {
		panic(err)
	}
}

// Plugin returns a Factory that looks the plugin up when it is invoked, so a
// module may declare a plugin-backed submodule before the plugin registers.
func Plugin(name string) Factory {
	return func(ctx context.Context) (Module, error) {
		factory, ok := plugins.Get(name)
		if !ok {
			return nil, NewError(CodeNotFound, "plugin not registered", map[string]any{"plugin": name}, nil)
		}
		return factory(ctx)
	}
}

// PluginNames lists the registered plugins in ascending order.
func PluginNames() []string {
	return plugins.Names()
}
