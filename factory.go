package filicious

import (
	"fmt"
	"sync"
)

// AdapterFactory builds an Adapter from the environment config.
type AdapterFactory func(cfg *Config) (Adapter, error)

var (
	adapterFactories = make(map[string]AdapterFactory)
	factoryMutex     sync.RWMutex
)

// RegisterAdapter registers an adapter factory under a name. Adapter
// packages call this from init; importing the package is enough to make
// the adapter constructible.
func RegisterAdapter(name string, factory AdapterFactory) {
	factoryMutex.Lock()
	defer factoryMutex.Unlock()
	adapterFactories[name] = factory
}

// NewAdapter builds the adapter named by cfg.Adapter.
func NewAdapter(cfg *Config) (Adapter, error) {
	factoryMutex.RLock()
	factory, exists := adapterFactories[cfg.Adapter]
	factoryMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("adapter %s not registered", cfg.Adapter)
	}

	return factory(cfg)
}
