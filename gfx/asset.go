// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"image"
	"math/bits"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/devblok/kvk/core"
)

// ImageData is decoded, tightly packed image data.
type ImageData struct {
	Width     uint32
	Height    uint32
	Channels  uint32
	MipLevels uint32
	Pixels    []byte
}

// Validate checks that the pixel data matches the declared dimensions.
func (d ImageData) Validate() error {
	if d.Width == 0 || d.Height == 0 {
		return errors.Wrap(ErrInvalidParameters, "image data has no extent")
	}
	if d.Channels != 4 {
		return errors.Wrapf(ErrInvalidParameters, "image data has %d channels, expected 4", d.Channels)
	}
	if d.MipLevels == 0 || d.MipLevels > MaxMipLevels(d.Width, d.Height) {
		return errors.Wrapf(ErrInvalidParameters, "image data mip levels %d out of range", d.MipLevels)
	}
	if uint64(len(d.Pixels)) != uint64(d.Width)*uint64(d.Height)*uint64(d.Channels) {
		return errors.Wrapf(ErrInvalidParameters, "image data holds %d bytes, expected %d",
			len(d.Pixels), d.Width*d.Height*d.Channels)
	}
	return nil
}

// Size returns the number of bytes of the base level.
func (d ImageData) Size() uint64 {
	return uint64(len(d.Pixels))
}

// NewImageData converts a decoded image into RGBA ImageData. When mips is
// set the full mip chain is requested.
func NewImageData(img image.Image, mips bool) (ImageData, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return ImageData{}, errors.Wrap(ErrInvalidParameters, "empty image")
	}
	pixels, err := core.GetPixels(img, 0)
	if err != nil {
		return ImageData{}, err
	}
	width, height := uint32(bounds.Dx()), uint32(bounds.Dy())
	levels := uint32(1)
	if mips {
		levels = MaxMipLevels(width, height)
	}
	return ImageData{
		Width:     width,
		Height:    height,
		Channels:  4,
		MipLevels: levels,
		Pixels:    pixels,
	}, nil
}

// MaxMipLevels returns the length of the full mip chain for an extent.
func MaxMipLevels(width, height uint32) uint32 {
	largest := width
	if height > largest {
		largest = height
	}
	if largest == 0 {
		return 0
	}
	return uint32(bits.Len32(largest))
}

// MeshData is decoded mesh geometry.
type MeshData struct {
	Positions []glm.Vec3
	Indices   []uint32
	// TexCoords holds one slice per texture coordinate channel, each
	// as long as Positions.
	TexCoords [][]glm.Vec2
}

// Validate checks the mesh indices and channels.
func (m MeshData) Validate() error {
	if len(m.Positions) == 0 {
		return errors.Wrap(ErrInvalidParameters, "mesh has no vertices")
	}
	for idx, channel := range m.TexCoords {
		if len(channel) != len(m.Positions) {
			return errors.Wrapf(ErrInvalidParameters, "texture channel %d has %d coordinates for %d vertices",
				idx, len(channel), len(m.Positions))
		}
	}
	for _, index := range m.Indices {
		if int(index) >= len(m.Positions) {
			return errors.Wrapf(ErrInvalidParameters, "index %d out of range", index)
		}
	}
	return nil
}
