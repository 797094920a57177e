package config

import (
	"time"

	"github.com/teslashibe/go-overstim/pkg/subject"
	"github.com/teslashibe/go-overstim/pkg/tracking"
	"github.com/teslashibe/go-overstim/pkg/vibe"
)

// Default configuration values.
const (
	DefaultWebsocketAddress = "ws://localhost:12345"
	DefaultDashboardAddress = "127.0.0.1:8080"
	DefaultMaxRefreshRate   = 30
	DefaultIdleRefreshRate  = 5
)

// Default returns the built-in configuration.
func Default() Config {
	g := subject.DefaultGraces()
	return Config{
		LogLevel: "info",
		Output: Output{
			MaxIntensity:        1.0,
			UsingIntiface:       true,
			WebsocketAddress:    DefaultWebsocketAddress,
			ContinuousScanning:  true,
			ExcludedDeviceNames: []string{"XBox (XInput) Compatible Gamepad"},
			SerialBaud:          115200,
		},
		Capture: Capture{
			Source:          "0",
			TemplateDir:     "resources",
			MaxRefreshRate:  DefaultMaxRefreshRate,
			IdleRefreshRate: DefaultIdleRefreshRate,
		},
		Tracking: Tracking{
			MercyBeamDisconnectBuffer: g.MercyBeam,
			LucioCrossfadeBuffer:      g.LucioCrossfade,
			ZenOrbDisconnectBuffer:    g.ZenOrb,
			NotificationRows:          tracking.DefaultConfig().NotificationRows,
		},
		Dashboard: Dashboard{
			Enabled: true,
			Address: DefaultDashboardAddress,
		},
		Paths: Paths{
			Store: "~/.local/share/overstim/overstim.db",
			Lock:  "~/.local/share/overstim/overstim.lock",
		},
	}
}

// Graces returns the debounce grace periods.
func (c *Config) Graces() subject.Graces {
	return subject.Graces{
		MercyBeam:      c.Tracking.MercyBeamDisconnectBuffer,
		LucioCrossfade: c.Tracking.LucioCrossfadeBuffer,
		ZenOrb:         c.Tracking.ZenOrbDisconnectBuffer,
	}
}

// TrackerConfig returns the tracker settings.
func (c *Config) TrackerConfig(auto bool) tracking.Config {
	tc := tracking.DefaultConfig()
	tc.Graces = c.Graces()
	tc.NotificationRows = c.Tracking.NotificationRows
	tc.AutoDetect = auto
	return tc
}

// VibeSettings returns the output limits.
func (c *Config) VibeSettings() vibe.Settings {
	return vibe.Settings{MaxIntensity: c.Output.MaxIntensity, ScaleByMax: c.Output.ScaleByMax}
}

// Interval returns the minimum tick duration while alive (idle false) or
// dead (idle true).
func (c *Config) Interval(idle bool) time.Duration {
	rate := c.Capture.MaxRefreshRate
	if idle {
		rate = c.Capture.IdleRefreshRate
	}
	return time.Second / time.Duration(rate)
}
