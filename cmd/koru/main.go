// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"runtime"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/kvk/backend"
	"github.com/devblok/kvk/core"
	"github.com/devblok/kvk/gfx"
	"github.com/devblok/kvk/gfx/vkr"
)

func init() {
	runtime.LockOSThread()
}

var envFile = flag.String("env", "", "Optional .env file with KORU_* settings")

func main() {
	flag.Parse()

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	configuration, err := core.LoadConfiguration(files...)
	if err != nil {
		log.Fatal(err)
	}
	if err := core.ConfigureStandardLogger(configuration.Log); err != nil {
		log.Fatal(err)
	}

	if err := run(configuration); err != nil {
		log.WithError(err).Fatal("Renderer stopped")
	}
}

func run(configuration core.Configuration) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return err
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		return err
	}
	defer sdl.VulkanUnloadLibrary()

	window, err := newWindow(configuration.Instance.ApplicationName,
		configuration.Renderer.ScreenWidth,
		configuration.Renderer.ScreenHeight)
	if err != nil {
		return err
	}
	defer window.Destroy()

	shaders, err := openShaders(configuration.Renderer)
	if err != nil {
		return err
	}
	defer shaders.Close()

	b, err := backend.Make(gfx.BackendVulkan, backend.Options{
		Config: configuration,
		Window: window,
		Logger: log.StandardLogger(),
	})
	if err != nil {
		return err
	}
	defer vkr.ReleaseInstances()
	defer b.Release()

	for _, info := range b.Device().PhysicalDevices() {
		log.WithField("device", info.Name).WithField("vendor", info.VendorID).Info("Physical device")
	}

	r, err := newRenderer(b, window, shaders, configuration.Renderer.MaxFramesInFlight)
	if err != nil {
		return err
	}
	defer r.Release()

	time := core.NewTime(configuration.Time)
	defer time.Stop()
	exitC := make(chan struct{}, 2)
	log.WithField("fps", time.Fps()).Info("Entering event loop")

EventLoop:
	for {
		select {
		case <-exitC:
			log.Println("Event loop exited")
			break EventLoop
		case <-time.EventTicker().C:
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch et := event.(type) {
				case *sdl.KeyboardEvent:
					if et.Keysym.Sym == sdl.K_ESCAPE {
						exitC <- struct{}{}
						continue EventLoop
					}
				case *sdl.WindowEvent:
					if et.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
						r.resized = true
					}
				case *sdl.QuitEvent:
					exitC <- struct{}{}
					continue EventLoop
				}
			}
		case <-time.FpsTicker().C:
			r.scene.Update(time.Frame())
			if err := r.Frame(); err != nil {
				return errors.Wrap(err, "frame")
			}
		}
	}

	return b.Device().WaitIdle()
}
