package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/devblok/korugfx/core"
	"github.com/devblok/korugfx/gfx"
	_ "github.com/devblok/korugfx/gfx/d3d11"
	_ "github.com/devblok/korugfx/gfx/gl/glnative"
	"github.com/devblok/korugfx/gfx/vk/vknative"
	log "github.com/sirupsen/logrus"
)

var (
	envFile = flag.String("env", ".env", "Dotenv file read before the environment")
	devices = flag.Bool("devices", false, "Also list the Vulkan physical devices")
)

// rendererInfo is the serializable part of gfx.Configuration.
type rendererInfo struct {
	Backend               gfx.BackendType
	Width                 int
	Height                int
	Title                 string
	Windowed              bool
	SwapInterval          int
	SwapchainSize         uint32
	ShaderPoolSize        int
	ProgramBundlePoolSize int
	MeshPoolSize          int
	TexturePoolSize       int
	DrawStatePoolSize     int
	Debug                 bool
}

type report struct {
	Time           core.TimeConfiguration
	Renderer       rendererInfo
	Backends       []gfx.BackendType
	DefaultBackend gfx.BackendType
	Devices        []vknative.PhysicalDeviceInfo `json:",omitempty"`
}

func main() {
	flag.Parse()

	cfg, err := core.LoadConfiguration(*envFile)
	if err != nil {
		log.Fatal(err)
	}
	r := cfg.Renderer
	out := report{
		Time: cfg.Time,
		Renderer: rendererInfo{
			Backend:               r.Backend,
			Width:                 r.Width,
			Height:                r.Height,
			Title:                 r.Title,
			Windowed:              r.Windowed,
			SwapInterval:          r.SwapInterval,
			SwapchainSize:         r.SwapchainSize,
			ShaderPoolSize:        r.ShaderPoolSize,
			ProgramBundlePoolSize: r.ProgramBundlePoolSize,
			MeshPoolSize:          r.MeshPoolSize,
			TexturePoolSize:       r.TexturePoolSize,
			DrawStatePoolSize:     r.DrawStatePoolSize,
			Debug:                 r.Debug,
		},
		Backends:       gfx.Backends(),
		DefaultBackend: gfx.DefaultBackend(),
	}
	if out.Renderer.Backend == "" {
		out.Renderer.Backend = out.DefaultBackend
	}

	if *devices {
		if out.Devices, err = vknative.PhysicalDevices(); err != nil {
			log.Fatal(err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal(err)
	}
}
