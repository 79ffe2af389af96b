// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx is the backend independent part of the renderer. It describes
// resources with setup values, keeps them in pools behind ids, realizes them
// through a backend factory and submits draws through a state cache that
// skips redundant native calls.
package gfx

import "github.com/devblok/korugfx/resource"

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// Object is a backend realization of a resource.
type Object interface {
	Releasable

	// LiveHandles returns the number of native handles the object still
	// holds. Zero after Release.
	LiveHandles() int
}

// Resource type tags used in ids.
const (
	TypeShader resource.Type = iota
	TypeProgramBundle
	TypeMesh
	TypeTexture
	TypeDrawState
	numResourceTypes
)

var typeNames = [...]string{
	TypeShader:        "shader",
	TypeProgramBundle: "programBundle",
	TypeMesh:          "mesh",
	TypeTexture:       "texture",
	TypeDrawState:     "drawState",
}

// TypeName returns a readable name for a resource type tag.
func TypeName(t resource.Type) string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// ResourceSetup is implemented by every setup descriptor.
type ResourceSetup interface {
	ResourceLocator() resource.Locator
	ResourceType() resource.Type
}
