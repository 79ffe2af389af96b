// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import "fmt"

// DefaultSignature is the signature given to locators that don't set one.
const DefaultSignature uint32 = 0xFFFFFFFF

// Locator names a resource for sharing. Two shared locators with the same
// location and signature always resolve to the same live resource.
type Locator struct {
	location  string
	signature uint32
	shared    bool
}

// NewLocator creates a shared locator with the default signature.
func NewLocator(location string) Locator {
	return Locator{
		location:  location,
		signature: DefaultSignature,
		shared:    location != "",
	}
}

// NewSignedLocator creates a shared locator with an explicit signature,
// used to tell apart differently set up resources of the same name.
func NewSignedLocator(location string, signature uint32) Locator {
	return Locator{
		location:  location,
		signature: signature,
		shared:    location != "",
	}
}

// NonShared returns a locator that is never deduplicated.
func NonShared(location string) Locator {
	return Locator{
		location:  location,
		signature: DefaultSignature,
	}
}

// Location returns the human readable name.
func (l Locator) Location() string {
	return l.location
}

// Signature returns the signature.
func (l Locator) Signature() uint32 {
	return l.signature
}

// IsShared reports whether the locator takes part in deduplication.
func (l Locator) IsShared() bool {
	return l.shared
}

func (l Locator) String() string {
	name := l.location
	if name == "" {
		name = "<anonymous>"
	}
	if l.signature == DefaultSignature {
		return name
	}
	return fmt.Sprintf("%s#%08x", name, l.signature)
}
