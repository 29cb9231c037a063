// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"

	"github.com/devblok/kvk/core"
)

func TestDefaultConfiguration(t *testing.T) {
	c := qt.New(t)

	cfg := core.DefaultConfiguration()
	c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 60)
	c.Assert(cfg.Renderer.SwapchainSize, qt.Equals, uint32(3))
	c.Assert(cfg.Renderer.DeviceExtensions, qt.DeepEquals, []string{"VK_KHR_swapchain"})
	c.Assert(cfg.Log.Level, qt.Equals, "info")
}

func TestLoadConfigurationOverlay(t *testing.T) {
	c := qt.New(t)

	dir := t.TempDir()
	env := filepath.Join(dir, "test.env")
	err := os.WriteFile(env, []byte("KORU_FPS=30\nKORU_LAYERS=VK_LAYER_a, VK_LAYER_b\n"), 0o600)
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() {
		os.Unsetenv("KORU_FPS")
		os.Unsetenv("KORU_LAYERS")
	})
	c.Setenv("KORU_SCREEN_WIDTH", "1024")
	c.Setenv("KORU_VSYNC", "false")

	cfg, err := core.LoadConfiguration(env)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 30)
	c.Assert(cfg.Renderer.ScreenWidth, qt.Equals, uint32(1024))
	c.Assert(cfg.Renderer.ScreenHeight, qt.Equals, uint32(600))
	c.Assert(cfg.Renderer.VSync, qt.IsFalse)
	c.Assert(cfg.Instance.Layers, qt.DeepEquals, []string{"VK_LAYER_a", "VK_LAYER_b"})
}

func TestLoadConfigurationMissingFile(t *testing.T) {
	c := qt.New(t)

	cfg, err := core.LoadConfiguration(filepath.Join(t.TempDir(), "absent.env"))
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Renderer.ScreenHeight, qt.Equals, core.DefaultConfiguration().Renderer.ScreenHeight)
}

func TestLoadConfigurationMalformed(t *testing.T) {
	c := qt.New(t)

	c.Setenv("KORU_SWAPCHAIN_SIZE", "three")
	_, err := core.LoadConfiguration(filepath.Join(t.TempDir(), "absent.env"))
	c.Assert(err, qt.ErrorIs, core.ErrConfiguration)
}

func TestNewLogger(t *testing.T) {
	c := qt.New(t)

	log, err := core.NewLogger(core.LogConfiguration{Level: "debug", Format: "json"})
	c.Assert(err, qt.IsNil)
	c.Assert(log.IsLevelEnabled(logrus.DebugLevel), qt.IsTrue)

	_, err = core.NewLogger(core.LogConfiguration{Level: "loud"})
	c.Assert(err, qt.ErrorIs, core.ErrConfiguration)

	_, err = core.NewLogger(core.LogConfiguration{Format: "xml"})
	c.Assert(err, qt.ErrorIs, core.ErrConfiguration)
}
