// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"encoding/binary"
	"math"

	glm "github.com/go-gl/mathgl/mgl32"
)

// PushMatrices packs matrices into push constant bytes, column major as
// shaders expect them.
func PushMatrices(matrices ...glm.Mat4) []byte {
	data := make([]byte, len(matrices)*16*4)
	for i, m := range matrices {
		for j, f := range m {
			binary.LittleEndian.PutUint32(data[(i*16+j)*4:], math.Float32bits(f))
		}
	}
	return data
}

// PushVec4 packs a vector into push constant bytes.
func PushVec4(v glm.Vec4) []byte {
	data := make([]byte, 16)
	for i, f := range v {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(f))
	}
	return data
}
