// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"os"
	"strconv"
	"strings"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// ErrConfiguration is returned when a configuration value can't be parsed.
var ErrConfiguration = errors.New("malformed configuration value")

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Renderer RendererConfiguration
	Instance InstanceConfiguration
	Log      LogConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the delay between event polls in milliseconds
	EventPollDelay int
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	SwapchainSize    uint32
	DeviceExtensions []string

	ScreenWidth  uint32
	ScreenHeight uint32

	// ShaderPack is a kar archive containing compiled shaders,
	// when empty shaders are read from ShaderDirectory.
	ShaderPack      string
	ShaderDirectory string

	MaxFramesInFlight    uint32
	PreferredSampleCount uint32
	VSync                bool
}

// InstanceConfiguration configures the native API instance
type InstanceConfiguration struct {
	ApplicationName string
	DebugMode       bool
	Extensions      []string
	Layers          []string
}

// LogConfiguration configures logging
type LogConfiguration struct {
	// Level is a logrus level name
	Level string
	// Format is either "text" or "json"
	Format string
}

// DefaultConfiguration returns the configuration used when nothing is overridden.
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 60,
			EventPollDelay:  50,
		},
		Renderer: RendererConfiguration{
			ScreenWidth:   800,
			ScreenHeight:  600,
			SwapchainSize: 3,
			DeviceExtensions: []string{
				"VK_KHR_swapchain",
			},
			ShaderDirectory:      "./shaders",
			MaxFramesInFlight:    2,
			PreferredSampleCount: 1,
			VSync:                true,
		},
		Instance: InstanceConfiguration{
			ApplicationName: "Koru3D",
		},
		Log: LogConfiguration{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfiguration reads the optional .env files given (or ".env" when
// none are) and overlays KORU_* environment variables on the defaults.
func LoadConfiguration(files ...string) (Configuration, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Configuration{}, errors.Wrapf(err, "godotenv.Load(%s)", f)
		}
	}
	envy.Reload()

	cfg := DefaultConfiguration()
	var err error
	if cfg.Time.FramesPerSecond, err = envInt("KORU_FPS", cfg.Time.FramesPerSecond); err != nil {
		return Configuration{}, err
	}
	if cfg.Time.EventPollDelay, err = envInt("KORU_EVENT_POLL_DELAY", cfg.Time.EventPollDelay); err != nil {
		return Configuration{}, err
	}
	if cfg.Renderer.ScreenWidth, err = envUint32("KORU_SCREEN_WIDTH", cfg.Renderer.ScreenWidth); err != nil {
		return Configuration{}, err
	}
	if cfg.Renderer.ScreenHeight, err = envUint32("KORU_SCREEN_HEIGHT", cfg.Renderer.ScreenHeight); err != nil {
		return Configuration{}, err
	}
	if cfg.Renderer.SwapchainSize, err = envUint32("KORU_SWAPCHAIN_SIZE", cfg.Renderer.SwapchainSize); err != nil {
		return Configuration{}, err
	}
	if cfg.Renderer.MaxFramesInFlight, err = envUint32("KORU_FRAMES_IN_FLIGHT", cfg.Renderer.MaxFramesInFlight); err != nil {
		return Configuration{}, err
	}
	if cfg.Renderer.PreferredSampleCount, err = envUint32("KORU_SAMPLES", cfg.Renderer.PreferredSampleCount); err != nil {
		return Configuration{}, err
	}
	if cfg.Renderer.VSync, err = envBool("KORU_VSYNC", cfg.Renderer.VSync); err != nil {
		return Configuration{}, err
	}
	if cfg.Instance.DebugMode, err = envBool("KORU_DEBUG", cfg.Instance.DebugMode); err != nil {
		return Configuration{}, err
	}
	cfg.Renderer.ShaderPack = envy.Get("KORU_SHADER_PACK", cfg.Renderer.ShaderPack)
	cfg.Renderer.ShaderDirectory = envy.Get("KORU_SHADER_DIR", cfg.Renderer.ShaderDirectory)
	cfg.Instance.ApplicationName = envy.Get("KORU_APP_NAME", cfg.Instance.ApplicationName)
	cfg.Instance.Layers = envList("KORU_LAYERS", cfg.Instance.Layers)
	cfg.Log.Level = envy.Get("KORU_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envy.Get("KORU_LOG_FORMAT", cfg.Log.Format)
	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(ErrConfiguration, "%s=%q", key, raw)
	}
	return v, nil
}

func envUint32(key string, def uint32) (uint32, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(ErrConfiguration, "%s=%q", key, raw)
	}
	return uint32(v), nil
}

func envBool(key string, def bool) (bool, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.Wrapf(ErrConfiguration, "%s=%q", key, raw)
	}
	return v, nil
}

func envList(key string, def []string) []string {
	raw := envy.Get(key, "")
	if raw == "" {
		return def
	}
	var list []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
