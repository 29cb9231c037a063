// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unsafe"

	"golang.org/x/image/draw"
)

const shaderSuffix = ".spv"

// ShaderFile is a compiled shader found on disk.
type ShaderFile struct {
	// Path is the full path to the file
	Path string
	// Name is the file name without stage and suffix
	Name string
	// Stage is either "vert" or "frag"
	Stage string
}

// LoadShaderFiles gets the list of files that are compiled shaders.
// It is important that the file name does not contain more than two dots,
// the first is always the name of the shader, second is type, and the third one
// ensures that the shader is compiled (only compiled shaders have an .spv extension).
func LoadShaderFiles(dir string) ([]ShaderFile, error) {
	var shaders []ShaderFile
	if err := filepath.Walk(dir, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if f.IsDir() || !strings.HasSuffix(f.Name(), shaderSuffix) {
			return nil
		}

		nodes := strings.Split(strings.TrimSuffix(f.Name(), shaderSuffix), ".")
		if len(nodes) != 2 {
			return nil
		}
		switch nodes[1] {
		case "vert", "frag":
			shaders = append(shaders, ShaderFile{
				Path:  path,
				Name:  nodes[0],
				Stage: nodes[1],
			})
		}
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Slice(shaders, func(i, j int) bool {
		return shaders[i].Path < shaders[j].Path
	})
	return shaders, nil
}

// SliceUint32 reslices bytes into a uint32, that is used
// to submit vulkan shaders for processing
func SliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

// SafeString null terminates a string for the native API
func SafeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

// SafeStrings null terminates every string of the slice
func SafeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, SafeString(s))
	}
	return safe
}

// TrimString removes the null terminator and padding of a native string
func TrimString(s string) string {
	if idx := strings.IndexByte(s, 0); idx >= 0 {
		return s[:idx]
	}
	return s
}

// GetPixels transforms a given image into right arrangement of pixels
// by drawing the decoded image onto a controlled RGBA canvas.
// A rowPitch wider than the tightly packed row pads every row,
// zero keeps the rows tightly packed.
func GetPixels(img image.Image, rowPitch int) ([]uint8, error) {
	bounds := img.Bounds()
	newImg := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if rowPitch > newImg.Stride {
		newImg.Stride = rowPitch
		newImg.Pix = make([]uint8, rowPitch*bounds.Dy())
	}
	draw.Draw(newImg, newImg.Bounds(), img, bounds.Min, draw.Src)
	return newImg.Pix, nil
}
