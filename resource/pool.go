// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"errors"
	"fmt"
)

// ErrPoolExhausted is returned when every slot of a pool is in use.
var ErrPoolExhausted = errors.New("resource pool exhausted")

// MaxPoolSize is the largest capacity a pool can have, bounded by the
// width of an Id's slot index.
const MaxPoolSize = 1 << 16

// Slot is one pool entry.
type Slot[T any] struct {
	Id    Id
	State State
	Value T
}

// Pool is a fixed capacity arena of slots. Slots are handed out by index
// and stamped with a fresh generation on every allocation.
type Pool[T any] struct {
	typ   Type
	stamp uint32
	slots []Slot[T]
	free  []uint16
	live  int
}

// NewPool creates a pool for resources of the given type.
func NewPool[T any](typ Type, capacity int) (*Pool[T], error) {
	if capacity <= 0 || capacity > MaxPoolSize {
		return nil, fmt.Errorf("resource pool capacity %d out of range (1..%d)", capacity, MaxPoolSize)
	}
	if typ == InvalidType {
		return nil, errors.New("resource pool needs a valid type")
	}
	p := &Pool[T]{
		typ:   typ,
		slots: make([]Slot[T], capacity),
		free:  make([]uint16, 0, capacity),
	}
	// Hand out low indices first.
	for i := capacity - 1; i >= 0; i-- {
		p.free = append(p.free, uint16(i))
	}
	return p, nil
}

// Alloc takes a free slot and returns it in the Initial state.
func (p *Pool[T]) Alloc() (*Slot[T], error) {
	if len(p.free) == 0 {
		return nil, ErrPoolExhausted
	}
	index := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]

	p.stamp++
	if p.stamp == 0 {
		p.stamp = 1
	}
	slot := &p.slots[index]
	slot.Id = Id{stamp: p.stamp, slot: index, typ: p.typ}
	slot.State = Initial
	p.live++
	return slot, nil
}

// Lookup returns the live slot for id, or nil if id is stale, foreign or free.
func (p *Pool[T]) Lookup(id Id) *Slot[T] {
	if !id.IsValid() || id.typ != p.typ || int(id.slot) >= len(p.slots) {
		return nil
	}
	slot := &p.slots[id.slot]
	if slot.Id != id {
		return nil
	}
	return slot
}

// QueryState returns the state of the resource, Invalid if it isn't live.
func (p *Pool[T]) QueryState(id Id) State {
	if slot := p.Lookup(id); slot != nil {
		return slot.State
	}
	return Invalid
}

// Free returns the slot to the pool, dropping its value. Returns false if
// the id was not live, which means a double free or a foreign id.
func (p *Pool[T]) Free(id Id) bool {
	slot := p.Lookup(id)
	if slot == nil {
		return false
	}
	var zero T
	slot.Value = zero
	slot.State = Initial
	slot.Id = Id{}
	p.free = append(p.free, id.slot)
	p.live--
	return true
}

// Each calls fn for every live slot in index order.
func (p *Pool[T]) Each(fn func(slot *Slot[T])) {
	for i := range p.slots {
		if p.slots[i].Id.IsValid() {
			fn(&p.slots[i])
		}
	}
}

// Live returns the number of slots in use.
func (p *Pool[T]) Live() int {
	return p.live
}

// Capacity returns the total number of slots.
func (p *Pool[T]) Capacity() int {
	return len(p.slots)
}

// Type returns the type tag of the pool's ids.
func (p *Pool[T]) Type() Type {
	return p.typ
}
