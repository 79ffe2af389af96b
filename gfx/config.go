// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"github.com/devblok/korugfx/resource"
	"github.com/sirupsen/logrus"
)

// Default pool capacities.
const (
	DefaultShaderPoolSize        = 64
	DefaultProgramBundlePoolSize = 64
	DefaultMeshPoolSize          = 128
	DefaultTexturePoolSize       = 128
	DefaultDrawStatePoolSize     = 128
)

// Configuration is used to set up a Gfx instance and its display.
type Configuration struct {
	Width        int
	Height       int
	Title        string
	Windowed     bool
	SwapInterval int

	// Backend selects the backend, empty picks DefaultBackend().
	Backend BackendType

	// SwapchainSize is the number of swapchain images, used by backends
	// that manage their own swapchain.
	SwapchainSize uint32

	ShaderPoolSize        int
	ProgramBundlePoolSize int
	MeshPoolSize          int
	TexturePoolSize       int
	DrawStatePoolSize     int

	// MaxProgramsPerBundle and MaxUniformBlocks tighten the compile time
	// capacities of bundle setups.
	MaxProgramsPerBundle int
	MaxUniformBlocks     int

	// Debug makes contract violations panic instead of being logged.
	Debug bool

	// Logger receives diagnostics, the standard logrus logger if nil.
	Logger logrus.FieldLogger
}

// DefaultConfiguration returns a windowed 640x400 configuration.
func DefaultConfiguration() Configuration {
	return Configuration{
		Width:                 640,
		Height:                400,
		Title:                 "korugfx",
		Windowed:              true,
		SwapInterval:          1,
		SwapchainSize:         2,
		ShaderPoolSize:        DefaultShaderPoolSize,
		ProgramBundlePoolSize: DefaultProgramBundlePoolSize,
		MeshPoolSize:          DefaultMeshPoolSize,
		TexturePoolSize:       DefaultTexturePoolSize,
		DrawStatePoolSize:     DefaultDrawStatePoolSize,
		MaxProgramsPerBundle:  MaxNumBundlePrograms,
		MaxUniformBlocks:      MaxNumUniformBlocks,
	}
}

// MaxSwapchainSize bounds Configuration.SwapchainSize.
const MaxSwapchainSize = 8

// Validate checks every capacity against its bounds.
func (c Configuration) Validate() error {
	checks := []struct {
		field string
		value int
		limit int
	}{
		{"Width", c.Width, 1 << 14},
		{"Height", c.Height, 1 << 14},
		{"SwapchainSize", int(c.SwapchainSize), MaxSwapchainSize},
		{"ShaderPoolSize", c.ShaderPoolSize, resource.MaxPoolSize},
		{"ProgramBundlePoolSize", c.ProgramBundlePoolSize, resource.MaxPoolSize},
		{"MeshPoolSize", c.MeshPoolSize, resource.MaxPoolSize},
		{"TexturePoolSize", c.TexturePoolSize, resource.MaxPoolSize},
		{"DrawStatePoolSize", c.DrawStatePoolSize, resource.MaxPoolSize},
		{"MaxProgramsPerBundle", c.MaxProgramsPerBundle, MaxNumBundlePrograms},
		{"MaxUniformBlocks", c.MaxUniformBlocks, MaxNumUniformBlocks},
	}
	for _, check := range checks {
		if check.value < 1 || check.value > check.limit {
			return &ConfigurationError{Field: check.field, Value: check.value, Limit: check.limit}
		}
	}
	return nil
}

// Log returns the configured logger.
func (c Configuration) Log() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}
