// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

type entry struct {
	locator  Locator
	useCount int
}

// Registry keeps the use counts of live resources and a lookup table from
// shared locators to their ids. It never owns the resources themselves.
type Registry struct {
	byLocator map[Locator]Id
	entries   map[Id]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byLocator: make(map[Locator]Id),
		entries:   make(map[Id]*entry),
	}
}

// Add registers a new resource with a use count of one.
// Returns false if the id is already registered or a live resource
// already holds the shared locator.
func (r *Registry) Add(loc Locator, id Id) bool {
	if _, ok := r.entries[id]; ok {
		return false
	}
	if loc.IsShared() {
		if _, ok := r.byLocator[loc]; ok {
			return false
		}
		r.byLocator[loc] = id
	}
	r.entries[id] = &entry{locator: loc, useCount: 1}
	return true
}

// Lookup finds the live resource for a shared locator and takes a use on it.
// Returns the invalid Id when nothing is found.
func (r *Registry) Lookup(loc Locator) Id {
	if !loc.IsShared() {
		return InvalidId()
	}
	id, ok := r.byLocator[loc]
	if !ok {
		return InvalidId()
	}
	r.entries[id].useCount++
	return id
}

// Retain takes another use of a registered id.
func (r *Registry) Retain(id Id) bool {
	e, ok := r.entries[id]
	if !ok {
		return false
	}
	e.useCount++
	return true
}

// Release drops one use of id. It reports whether the id was registered and
// whether the use count reached zero.
func (r *Registry) Release(id Id) (known, last bool) {
	e, ok := r.entries[id]
	if !ok {
		return false, false
	}
	e.useCount--
	return true, e.useCount <= 0
}

// Remove drops id from the registry regardless of its use count.
func (r *Registry) Remove(id Id) {
	e, ok := r.entries[id]
	if !ok {
		return
	}
	if e.locator.IsShared() && r.byLocator[e.locator] == id {
		delete(r.byLocator, e.locator)
	}
	delete(r.entries, id)
}

// UseCount returns the number of uses of id, zero if unknown.
func (r *Registry) UseCount(id Id) int {
	if e, ok := r.entries[id]; ok {
		return e.useCount
	}
	return 0
}

// Locator returns the locator id was registered with.
func (r *Registry) Locator(id Id) (Locator, bool) {
	if e, ok := r.entries[id]; ok {
		return e.locator, true
	}
	return Locator{}, false
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id Id) bool {
	_, ok := r.entries[id]
	return ok
}

// Len returns the number of registered resources.
func (r *Registry) Len() int {
	return len(r.entries)
}
