// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package resource implements the identity and lifecycle bookkeeping of
// pool allocated resources: locators, ids, states, pools and the registry
// that maps shared locators to live ids.
package resource

import "fmt"

// Type tags the kind of resource an Id points to.
type Type uint16

// InvalidType is never assigned to a pool.
const InvalidType Type = 0xFFFF

// Id is an opaque handle to a pool slot. The unique stamp changes every time
// a slot is reused, so an Id held past its resource's lifetime never
// resolves to the slot's next tenant. The zero Id is invalid.
type Id struct {
	stamp uint32
	slot  uint16
	typ   Type
}

// InvalidId returns the invalid Id.
func InvalidId() Id {
	return Id{typ: InvalidType}
}

// IsValid reports whether the Id was handed out by a pool. It says nothing
// about whether the resource is still alive.
func (id Id) IsValid() bool {
	return id.stamp != 0 && id.typ != InvalidType
}

// SlotIndex returns the index of the slot in its pool.
func (id Id) SlotIndex() int {
	return int(id.slot)
}

// UniqueStamp returns the generation stamp.
func (id Id) UniqueStamp() uint32 {
	return id.stamp
}

// Type returns the resource type tag.
func (id Id) Type() Type {
	return id.typ
}

func (id Id) String() string {
	if !id.IsValid() {
		return "Id(invalid)"
	}
	return fmt.Sprintf("Id(type=%d slot=%d stamp=%d)", id.typ, id.slot, id.stamp)
}
