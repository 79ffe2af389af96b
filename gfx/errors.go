// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"errors"
	"fmt"
)

// package errors
var (
	ErrNotSetup             = errors.New("gfx: not set up")
	ErrAlreadySetup         = errors.New("gfx: an instance is already set up, discard it first")
	ErrBackendNotRegistered = errors.New("gfx: backend not registered")
	ErrDependencyNotValid   = errors.New("gfx: dependency resource is not valid")
	ErrNoProgram            = errors.New("gfx: program bundle has no matching program")
	ErrNotSupported         = errors.New("gfx: not supported by the backend")
)

// CapacityError is returned when a fixed capacity table would overflow.
type CapacityError struct {
	Table string
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("gfx: %s table is full (capacity %d)", e.Table, e.Limit)
}

// ConfigurationError describes a configuration value outside its bounds.
type ConfigurationError struct {
	Field string
	Value int
	Limit int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("gfx: configuration %s=%d out of range (1..%d)", e.Field, e.Value, e.Limit)
}
