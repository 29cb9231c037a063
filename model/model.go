// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model defines the engine vertex layout and turns decoded
// mesh data into vertices ready for upload.
package model

import (
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/kvk/gfx"
)

// Vertex is a model vertex
type Vertex struct {
	Pos      glm.Vec3
	Color    glm.Vec4
	TexCoord glm.Vec2
}

// Uniform defines a model-view-projection object
type Uniform struct {
	Model      glm.Mat4
	View       glm.Mat4
	Projection glm.Mat4
}

// DefaultColor is assigned to every vertex converted from mesh data.
var DefaultColor = glm.Vec4{1.0, 1.0, 1.0, 1.0}

// VertexBindings return the vertex buffer bindings matching Vertex
func VertexBindings() []gfx.VertexInputBinding {
	return []gfx.VertexInputBinding{{
		Binding: 0,
		Stride:  uint32(unsafe.Sizeof(Vertex{})),
		Rate:    gfx.InputRateVertex,
	}}
}

// VertexAttributes return the attribute layout matching Vertex
func VertexAttributes() []gfx.VertexInputAttribute {
	return []gfx.VertexInputAttribute{
		{
			Binding:  0,
			Location: 0,
			Format:   gfx.FormatR32G32B32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   gfx.FormatR32G32B32A32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
		{
			Binding:  0,
			Location: 2,
			Format:   gfx.FormatR32G32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.TexCoord)),
		},
	}
}

// Vertices converts mesh data into vertices. The first texture
// coordinate channel is used, if there is one.
func Vertices(mesh gfx.MeshData) ([]Vertex, error) {
	if err := mesh.Validate(); err != nil {
		return nil, err
	}

	vertices := make([]Vertex, len(mesh.Positions))
	for idx, pos := range mesh.Positions {
		vertices[idx] = Vertex{
			Pos:   pos,
			Color: DefaultColor,
		}
		if len(mesh.TexCoords) > 0 {
			vertices[idx].TexCoord = mesh.TexCoords[0][idx]
		}
	}
	return vertices, nil
}

// Bytes returns the vertices as tightly packed bytes, the layout
// expected by a vertex buffer described with VertexBindings.
func Bytes(vertices []Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	size := len(vertices) * int(unsafe.Sizeof(Vertex{}))
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), size))
	return out
}

// Indices returns the mesh indices as bytes for a gfx.IndexUint32 buffer.
func Indices(mesh gfx.MeshData) []byte {
	if len(mesh.Indices) == 0 {
		return nil
	}
	size := len(mesh.Indices) * 4
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(&mesh.Indices[0])), size))
	return out
}

// Cube returns a unit cube centred on the origin, with one texture
// coordinate channel.
func Cube() gfx.MeshData {
	positions := []glm.Vec3{
		{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5},
		{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5},
	}
	coords := []glm.Vec2{
		{0, 1}, {1, 1}, {1, 0}, {0, 0},
		{1, 1}, {0, 1}, {0, 0}, {1, 0},
	}
	return gfx.MeshData{
		Positions: positions,
		Indices: []uint32{
			0, 1, 2, 2, 3, 0,
			1, 5, 6, 6, 2, 1,
			5, 4, 7, 7, 6, 5,
			4, 0, 3, 3, 7, 4,
			3, 2, 6, 6, 7, 3,
			4, 5, 1, 1, 0, 4,
		},
		TexCoords: [][]glm.Vec2{coords},
	}
}
