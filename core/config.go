package core

import (
	"fmt"
	"os"
	"strconv"

	"github.com/devblok/korugfx/gfx"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
)

// Environment keys read by LoadConfiguration.
const (
	EnvBackend        = "KORU_BACKEND"
	EnvWidth          = "KORU_WIDTH"
	EnvHeight         = "KORU_HEIGHT"
	EnvTitle          = "KORU_TITLE"
	EnvWindowed       = "KORU_WINDOWED"
	EnvDebug          = "KORU_DEBUG"
	EnvFPS            = "KORU_FPS"
	EnvEventPollDelay = "KORU_EVENT_POLL_DELAY"
	EnvSwapchainSize  = "KORU_SWAPCHAIN_SIZE"

	EnvShaderPoolSize        = "KORU_SHADER_POOL_SIZE"
	EnvProgramBundlePoolSize = "KORU_PROGRAM_BUNDLE_POOL_SIZE"
	EnvMeshPoolSize          = "KORU_MESH_POOL_SIZE"
	EnvTexturePoolSize       = "KORU_TEXTURE_POOL_SIZE"
	EnvDrawStatePoolSize     = "KORU_DRAW_STATE_POOL_SIZE"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Renderer gfx.Configuration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the milliseconds between system event polls.
	EventPollDelay int
}

// DefaultConfiguration returns a 60 fps configuration with the default
// renderer settings.
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 60,
			EventPollDelay:  50,
		},
		Renderer: gfx.DefaultConfiguration(),
	}
}

// LoadConfiguration reads the defaults overridden by the environment.
// The given dotenv files are loaded first, missing ones are skipped.
// Variables already set in the environment win over the files.
func LoadConfiguration(files ...string) (Configuration, error) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Configuration{}, fmt.Errorf("core: load %s: %w", f, err)
		}
	}
	envy.Reload()

	cfg := DefaultConfiguration()
	r := &cfg.Renderer
	r.Backend = gfx.BackendType(envy.Get(EnvBackend, string(r.Backend)))
	r.Title = envy.Get(EnvTitle, r.Title)

	ints := []struct {
		key string
		dst *int
	}{
		{EnvWidth, &r.Width},
		{EnvHeight, &r.Height},
		{EnvFPS, &cfg.Time.FramesPerSecond},
		{EnvEventPollDelay, &cfg.Time.EventPollDelay},
		{EnvShaderPoolSize, &r.ShaderPoolSize},
		{EnvProgramBundlePoolSize, &r.ProgramBundlePoolSize},
		{EnvMeshPoolSize, &r.MeshPoolSize},
		{EnvTexturePoolSize, &r.TexturePoolSize},
		{EnvDrawStatePoolSize, &r.DrawStatePoolSize},
	}
	for _, i := range ints {
		if err := envInt(i.key, i.dst); err != nil {
			return Configuration{}, err
		}
	}

	var swapchainSize = int(r.SwapchainSize)
	if err := envInt(EnvSwapchainSize, &swapchainSize); err != nil {
		return Configuration{}, err
	}
	if swapchainSize < 1 {
		return Configuration{}, fmt.Errorf("core: %s must be positive", EnvSwapchainSize)
	}
	r.SwapchainSize = uint32(swapchainSize)

	if err := envBool(EnvWindowed, &r.Windowed); err != nil {
		return Configuration{}, err
	}
	if err := envBool(EnvDebug, &r.Debug); err != nil {
		return Configuration{}, err
	}

	if cfg.Time.FramesPerSecond < 0 {
		return Configuration{}, fmt.Errorf("core: %s must not be negative", EnvFPS)
	}
	if err := r.Validate(); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

func envInt(key string, dst *int) error {
	v := envy.Get(key, "")
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("core: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	v := envy.Get(key, "")
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("core: %s: %w", key, err)
	}
	*dst = b
	return nil
}
