// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"encoding/binary"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/kvk/core"
	"github.com/devblok/kvk/gfx"
	"github.com/devblok/kvk/gfx/handle"
)

const spirvMagic = 0x07230203

type shaderModule struct {
	drv    driver
	device vk.Device
	module vk.ShaderModule
}

func (s *shaderModule) Release() {
	s.drv.DestroyShaderModule(s.device, s.module)
}

// ShaderUnit implements gfx.ShaderUnit.
type ShaderUnit struct {
	shared
}

// NewShaderUnit creates a shader unit over the session.
func NewShaderUnit(state *handle.Counted[*Session]) (*ShaderUnit, error) {
	s, err := newShared(state)
	if err != nil {
		return nil, err
	}
	return &ShaderUnit{shared: s}, nil
}

// MakeShader implements interface
func (u *ShaderUnit) MakeShader(code []byte) (gfx.ShaderRef, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return gfx.ShaderRef{}, errors.Wrapf(gfx.ErrInvalidShaderByteCode, "%d bytes", len(code))
	}
	if binary.LittleEndian.Uint32(code) != spirvMagic {
		return gfx.ShaderRef{}, errors.Wrap(gfx.ErrInvalidShaderByteCode, "missing SPIR-V magic number")
	}

	s := u.session()
	module, err := s.drv.CreateShaderModule(s.device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    core.SliceUint32(code),
	})
	if err != nil {
		return gfx.ShaderRef{}, errors.WithStack(&creationError{sentinel: gfx.ErrShaderCreationFailed, cause: err})
	}

	ref := handle.Insert[handle.Shader](s.storage, &shaderModule{drv: s.drv, device: s.device, module: module})
	u.logger("shader").WithField("ref", ref).Debug("shader created")
	return ref, nil
}

// EraseShader implements interface
func (u *ShaderUnit) EraseShader(ref gfx.ShaderRef) {
	erase(u.session(), ref)
}
