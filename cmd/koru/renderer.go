// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/devblok/kvk/gfx"
)

// renderer drives the frame cycle of one swapchain.
type renderer struct {
	backend gfx.Backend
	window  gfx.Window

	swapchain gfx.SwapchainRef
	commands  []gfx.CommandBufferRef
	frame     int
	resized   bool

	scene *scene
}

func newRenderer(backend gfx.Backend, window gfx.Window, shaders shaderSource, framesInFlight uint32) (*renderer, error) {
	if framesInFlight == 0 {
		framesInFlight = 1
	}
	r := &renderer{
		backend: backend,
		window:  window,
	}

	var err error
	if r.swapchain, err = backend.Swapchains().MakeSwapchain(window); err != nil {
		return nil, err
	}
	if r.commands, err = backend.Commands().MakeCommandBuffers(framesInFlight, gfx.CommandBufferReusable); err != nil {
		r.Release()
		return nil, err
	}

	format, err := backend.Swapchains().ColorFormat(r.swapchain)
	if err != nil {
		r.Release()
		return nil, err
	}
	if r.scene, err = newScene(backend, shaders, format); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

func (r *renderer) recreate() error {
	width, height := r.window.PixelSize()
	if width == 0 || height == 0 {
		// minimised, try again later
		return nil
	}
	ref, err := r.backend.Swapchains().RecreateSwapchain(r.swapchain, r.window)
	if err != nil {
		return err
	}
	r.swapchain = ref
	r.resized = false
	return nil
}

// skip logs a failed acquire or present and drops the frame. A swapchain
// the failure left outside the idle state is recreated.
func (r *renderer) skip(err error) error {
	log.WithError(err).WithField("frame", r.frame).Warn("Frame skipped")
	state, serr := r.backend.Swapchains().FrameState(r.swapchain)
	if serr != nil {
		return serr
	}
	if state != gfx.FrameIdle {
		return r.recreate()
	}
	return nil
}

// Frame renders and presents one frame. Out of date swapchains are
// recreated and the frame is skipped, as are frames whose acquire or
// present fails.
func (r *renderer) Frame() error {
	swapchains := r.backend.Swapchains()
	if r.resized {
		return r.recreate()
	}

	result, err := swapchains.BeginFrame(r.swapchain)
	switch {
	case result == gfx.FrameRecreationRequired:
		return r.recreate()
	case result == gfx.FrameError:
		return r.skip(err)
	case err != nil:
		return err
	}

	extent, err := swapchains.Extent(r.swapchain)
	if err != nil {
		return err
	}

	cmds := r.backend.Commands()
	cmd := r.commands[r.frame%len(r.commands)]
	r.frame++

	if err := cmds.BeginCommandBuffer(cmd); err != nil {
		return err
	}
	if err := swapchains.BeginRendering(r.swapchain, cmd, gfx.ClearValues{
		Color: [4]float32{0.1, 0.1, 0.12, 1},
		Depth: 1,
	}); err != nil {
		return err
	}
	if err := r.scene.Record(cmd, extent); err != nil {
		return err
	}
	if err := swapchains.EndRendering(r.swapchain, cmd); err != nil {
		return err
	}
	if err := cmds.EndCommandBuffer(cmd); err != nil {
		return err
	}

	result, err = swapchains.EndFrame(r.swapchain, cmd)
	switch {
	case result == gfx.FrameRecreationRequired:
		log.WithField("frame", r.frame).Debug("Presentation out of date")
		return r.recreate()
	case result == gfx.FrameError:
		return r.skip(err)
	case err != nil:
		return err
	}
	return nil
}

// Release waits for the device and erases everything the renderer made.
func (r *renderer) Release() {
	if err := r.backend.Device().WaitIdle(); err != nil {
		log.WithError(err).Warn("Wait idle before release")
	}
	if r.scene != nil {
		r.scene.Release()
	}
	for _, cmd := range r.commands {
		r.backend.Commands().EraseCommandBuffer(cmd)
	}
	r.backend.Swapchains().EraseSwapchain(r.swapchain)
}
