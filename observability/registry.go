package observability

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

var (
	registry = map[string]Observer{
		"noop": NoOpObserver{},
		"slog": NewSlogObserver(slog.Default()),
	}
	registryMu sync.RWMutex
)

// GetObserver returns the observer registered under name. "noop" and "slog"
// (the default logger) are always available.
func GetObserver(name string) (Observer, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	obs, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown observer %q (registered: %v)", name, names())
	}
	return obs, nil
}

// Resolve is GetObserver with an empty name meaning "noop".
func Resolve(name string) (Observer, error) {
	if name == "" {
		return NoOpObserver{}, nil
	}
	return GetObserver(name)
}

// RegisterObserver adds or replaces a named observer.
func RegisterObserver(name string, observer Observer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = observer
}

// Observers returns the registered observer names in sorted order.
func Observers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return names()
}

func names() []string {
	return slices.Sorted(maps.Keys(registry))
}
