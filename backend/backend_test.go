// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package backend

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/devblok/kvk/core"
	"github.com/devblok/kvk/gfx"
)

func TestMakeUnknownKind(t *testing.T) {
	c := qt.New(t)
	log, hook := test.NewNullLogger()

	b, err := Make(gfx.BackendKind(7), Options{Config: core.DefaultConfiguration(), Logger: log})
	c.Assert(err, qt.ErrorIs, gfx.ErrUnsupportedBackendKind)
	c.Assert(err, qt.ErrorMatches, "backend kind 7: .*")
	c.Assert(b, qt.IsNil)
	c.Assert(hook.AllEntries(), qt.HasLen, 0)
}

func TestBackendKindString(t *testing.T) {
	c := qt.New(t)
	c.Assert(gfx.BackendVulkan.String(), qt.Equals, "vulkan")
	c.Assert(gfx.BackendKind(3).String(), qt.Equals, "unknown")
}
