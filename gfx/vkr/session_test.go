// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/devblok/kvk/core"
	"github.com/devblok/kvk/gfx"
	"github.com/devblok/kvk/gfx/handle"
)

type releaseRecorder struct {
	name  string
	order *[]string
}

func (r releaseRecorder) Release() {
	*r.order = append(*r.order, r.name)
}

func TestUnitsNeedSharedState(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, false)

	dead := handle.NewCounted(&Session{released: true})
	dead.Release()

	_, err := NewDeviceUnit(dead)
	c.Assert(err, qt.ErrorIs, gfx.ErrNullSharedState)
	_, err = NewShaderUnit(dead)
	c.Assert(err, qt.ErrorIs, gfx.ErrNullSharedState)
	_, err = NewSwapchainUnit(nil)
	c.Assert(err, qt.ErrorIs, gfx.ErrNullSharedState)
	_, err = newSession(f.drv, nil, nil, core.DefaultConfiguration().Renderer, logrusNull())
	c.Assert(err, qt.ErrorIs, gfx.ErrNullSharedState)
}

func TestUnitsKeepSessionAlive(t *testing.T) {
	c := qt.New(t)
	drv := newFakeDriver()
	log := logrusNull()

	instance, err := newInstance(drv, core.DefaultConfiguration().Instance, nil, log)
	c.Assert(err, qt.IsNil)
	holder := handle.NewCounted(instance)
	backend, err := newBackend(drv, holder, nil, core.DefaultConfiguration().Renderer, log)
	c.Assert(err, qt.IsNil)
	holder.Release()

	shaders, err := NewShaderUnit(backend.Session())
	c.Assert(err, qt.IsNil)
	backend.Release()
	c.Assert(drv.calls["DestroyDevice"], qt.Equals, 0)

	ref, err := shaders.MakeShader(spirv())
	c.Assert(err, qt.IsNil)
	c.Assert(ref.Valid(), qt.IsTrue)

	shaders.Release()
	c.Assert(drv.calls["DestroyDevice"], qt.Equals, 1)
	c.Assert(drv.calls["DestroyShaderModule"], qt.Equals, 1)
	c.Assert(drv.calls["DestroyCommandPool"], qt.Equals, 1)
	c.Assert(drv.calls["DestroyInstance"], qt.Equals, 1)
}

func TestHeadlessSession(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, false)

	session := f.backend.state.Get()
	c.Assert(f.storage().LenKind(handle.KindQueue), qt.Equals, 1)
	c.Assert(f.storage().LenKind(handle.KindSurface), qt.Equals, 0)
	_, ok := session.surface()
	c.Assert(ok, qt.IsFalse)
	c.Assert(session.queueFamily, qt.Equals, uint32(1))
}

func TestWindowedSession(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, true)

	c.Assert(f.storage().LenKind(handle.KindSurface), qt.Equals, 1)
	_, ok := f.backend.state.Get().surface()
	c.Assert(ok, qt.IsTrue)

	f.backend.Release()
	c.Assert(f.drv.calls["DestroySurface"], qt.Equals, 1)
	c.Assert(f.drv.calls["DestroyDevice"], qt.Equals, 1)
}

func TestNoSuitableDevice(t *testing.T) {
	c := qt.New(t)
	drv := newFakeDriver()
	drv.devices = 0
	log := logrusNull()

	instance, err := newInstance(drv, core.DefaultConfiguration().Instance, nil, log)
	c.Assert(err, qt.IsNil)
	holder := handle.NewCounted(instance)
	defer holder.Release()

	_, err = newBackend(drv, holder, &fakeWindow{width: 1, height: 1}, core.DefaultConfiguration().Renderer, log)
	c.Assert(err, qt.ErrorIs, gfx.ErrNativeFailure)
	c.Assert(drv.calls["DestroySurface"], qt.Equals, 1)
	c.Assert(holder.Refs(), qt.Equals, 1)
}

func TestCollectInSubmissionOrder(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, false)
	session := f.backend.state.Get()

	var order []string
	session.retire(releaseRecorder{name: "immediate", order: &order})
	c.Assert(order, qt.DeepEquals, []string{"immediate"})

	first := session.track(nil, func() { order = append(order, "first done") })
	session.retire(releaseRecorder{name: "after first", order: &order})
	session.track(nil, nil)
	session.retire(releaseRecorder{name: "after second", order: &order})

	f.drv.fencesPending = true
	c.Assert(session.Collect(), qt.IsNil)
	c.Assert(session.Pending(), qt.Equals, 2)
	c.Assert(first.completed, qt.IsFalse)

	f.drv.fencesPending = false
	c.Assert(session.Collect(), qt.IsNil)
	c.Assert(first.completed, qt.IsTrue)
	c.Assert(order, qt.DeepEquals, []string{"immediate", "first done", "after first", "after second"})
}

func TestSessionReleaseIsIdempotent(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, false)
	session := f.backend.state.Get()

	session.Release()
	session.Release()
	c.Assert(f.drv.calls["DestroyDevice"], qt.Equals, 1)
}

func TestInstanceCache(t *testing.T) {
	c := qt.New(t)
	drv := newFakeDriver()
	log := logrusNull()
	c.Cleanup(ReleaseInstances)

	cfg := core.InstanceConfiguration{Extensions: []string{"VK_KHR_surface"}}
	first, err := acquireInstance(drv, cfg, nil, log)
	c.Assert(err, qt.IsNil)
	second, err := acquireInstance(drv, core.InstanceConfiguration{}, nil, log)
	c.Assert(err, qt.IsNil)
	c.Assert(second.Get(), qt.Equals, first.Get())
	c.Assert(drv.calls["CreateInstance"], qt.Equals, 1)

	_, err = acquireInstance(drv, core.InstanceConfiguration{Extensions: []string{"VK_KHR_xcb_surface"}}, nil, log)
	c.Assert(err, qt.ErrorIs, gfx.ErrInvalidParameters)

	first.Release()
	second.Release()
	c.Assert(drv.calls["DestroyInstance"], qt.Equals, 0)

	ReleaseInstances()
	c.Assert(drv.calls["DestroyInstance"], qt.Equals, 1)

	third, err := acquireInstance(drv, cfg, nil, log)
	c.Assert(err, qt.IsNil)
	defer third.Release()
	c.Assert(drv.calls["CreateInstance"], qt.Equals, 2)
}

func TestInstanceCacheConcurrentAcquire(t *testing.T) {
	c := qt.New(t)
	drv := newFakeDriver()
	log := logrusNull()
	c.Cleanup(ReleaseInstances)

	const n = 16
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		holders = make([]*handle.Counted[*Instance], n)
		errs    = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			holders[i], errs[i] = acquireInstance(drv, core.InstanceConfiguration{}, nil, log)
		}(i)
	}
	close(start)
	wg.Wait()

	c.Assert(drv.calls["CreateInstance"], qt.Equals, 1)
	for i := 0; i < n; i++ {
		c.Assert(errs[i], qt.IsNil)
		c.Assert(holders[i].Get(), qt.Equals, holders[0].Get())
	}
	c.Assert(holders[0].Refs(), qt.Equals, n+1)

	for _, h := range holders {
		h.Release()
	}
	c.Assert(drv.calls["DestroyInstance"], qt.Equals, 0)
	ReleaseInstances()
	c.Assert(drv.calls["DestroyInstance"], qt.Equals, 1)
}

func TestDebugInstance(t *testing.T) {
	c := qt.New(t)
	drv := newFakeDriver()

	instance, err := newInstance(drv, core.InstanceConfiguration{DebugMode: true}, nil, logrusNull())
	c.Assert(err, qt.IsNil)
	defer instance.Release()

	c.Assert(instance.Extensions(), qt.DeepEquals, []string{debugExtension})
	c.Assert(instance.AvailableDevices(), qt.HasLen, 1)
	c.Assert(drv.calls["Init"], qt.Equals, 1)
}

func logrusNull() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}
