// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
)

// sdlWindow adapts an SDL window to gfx.Window.
type sdlWindow struct {
	*sdl.Window
}

func newWindow(title string, width, height uint32) (*sdlWindow, error) {
	window, err := sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(width),
		int32(height),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, err
	}
	return &sdlWindow{Window: window}, nil
}

func (w *sdlWindow) PixelSize() (uint32, uint32) {
	width, height := w.VulkanGetDrawableSize()
	return uint32(width), uint32(height)
}

func (w *sdlWindow) InstanceExtensions() []string {
	return w.VulkanGetInstanceExtensions()
}

func (w *sdlWindow) CreateSurface(instance interface{}) (unsafe.Pointer, error) {
	return w.VulkanCreateSurface(instance)
}

func (w *sdlWindow) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}
