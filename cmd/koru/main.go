// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command koru renders a spinning box over a tiled plane with the backend
// selected by KORU_BACKEND.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
	"time"

	"github.com/devblok/korugfx/core"
	"github.com/devblok/korugfx/display/sdldisplay"
	"github.com/devblok/korugfx/gfx"
	_ "github.com/devblok/korugfx/gfx/gl/glnative"
	_ "github.com/devblok/korugfx/gfx/vk/vknative"
	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"
)

func init() {
	runtime.LockOSThread()
}

// Profiling
var (
	cpuProfile   = flag.String("cpuprofile", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprofile", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
	envFile      = flag.String("env", ".env", "Dotenv file read before the environment")
	debug        = flag.Bool("debug", false, "Panic on misuse and log at debug level")
)

func main() {
	flag.Parse()
	os.Exit(profiled())
}

// profiled runs the sample under the requested profilers and returns the
// exit code once they are flushed.
func profiled() int {
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Error(err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Error(err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			log.Error(err)
			return 1
		}
		defer f.Close()
		if err := trace.Start(f); err != nil {
			log.Error(err)
			return 1
		}
		defer trace.Stop()
	}

	if err := run(); err != nil {
		log.Error(err)
		return 1
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.Error(err)
			return 1
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Error(err)
			return 1
		}
	}
	return 0
}

func run() error {
	configuration, err := core.LoadConfiguration(*envFile)
	if err != nil {
		return err
	}
	if *debug {
		configuration.Renderer.Debug = true
		log.SetLevel(log.DebugLevel)
	}
	configuration.Renderer.Logger = log.StandardLogger()

	g, err := gfx.Setup(configuration.Renderer, sdldisplay.New())
	if err != nil {
		return err
	}
	defer g.Discard()

	s, err := newScene(g, packr.NewBox("./shaders"))
	if err != nil {
		return err
	}

	timeService := core.NewTime(configuration.Time)
	defer timeService.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	programSync := sync.WaitGroup{}

	/* Frame counter loop */
	programSync.Add(1)
	go func() {
		defer programSync.Done()
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.WithFields(log.Fields{
					"fps":      timeService.TakeFrameCount(),
					"cgoCalls": runtime.NumCgoCall(),
				}).Info("frame count")
			}
		}
	}()

	/* Render and event loop, gfx stays on the locked main thread */
Loop:
	for {
		select {
		case <-timeService.EventTicker().C:
			if g.QuitRequested() {
				break Loop
			}
		case <-timeService.FpsTicker().C:
			s.frame()
			timeService.CountFrame()
		}
	}

	cancel()
	programSync.Wait()
	info := g.LastFrameInfo()
	log.WithField("frame", info).Info("exited")
	return nil
}
