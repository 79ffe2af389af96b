// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"fmt"
	"sort"
	"sync"
)

// BackendType names a backend.
type BackendType string

// Known backends.
const (
	BackendGL     BackendType = "gl"
	BackendD3D11  BackendType = "d3d11"
	BackendVulkan BackendType = "vk"
)

// BackendFactory creates a backend on a set up display.
type BackendFactory func(cfg Configuration, display Display) (Backend, error)

var (
	registryMu sync.RWMutex
	backends   = make(map[BackendType]BackendFactory)

	// First registered wins when no backend is configured.
	backendPriority = []BackendType{BackendVulkan, BackendD3D11, BackendGL}
)

// RegisterBackend registers a backend factory, usually from an init
// function of the backend's package. Registering again replaces it.
func RegisterBackend(typ BackendType, factory BackendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[typ] = factory
}

// UnregisterBackend removes a backend.
func UnregisterBackend(typ BackendType) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, typ)
}

// Backends returns the registered backends in name order.
func Backends() []BackendType {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]BackendType, 0, len(backends))
	for typ := range backends {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// IsRegistered reports whether a backend is registered.
func IsRegistered(typ BackendType) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[typ]
	return ok
}

// DefaultBackend returns the preferred registered backend, empty if none.
func DefaultBackend() BackendType {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, typ := range backendPriority {
		if _, ok := backends[typ]; ok {
			return typ
		}
	}
	for typ := range backends {
		return typ
	}
	return ""
}

// NewBackend creates a registered backend.
func NewBackend(typ BackendType, cfg Configuration, display Display) (Backend, error) {
	registryMu.RLock()
	factory, ok := backends[typ]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotRegistered, typ)
	}
	return factory(cfg, display)
}
