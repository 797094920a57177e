// Package config loads the OverStim TOML configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Config is the full configuration file.
type Config struct {
	LogLevel  string    `toml:"log_level"`
	Output    Output    `toml:"output"`
	Capture   Capture   `toml:"capture"`
	Tracking  Tracking  `toml:"tracking"`
	Dashboard Dashboard `toml:"dashboard"`
	Paths     Paths     `toml:"paths"`
}

// Output configures the devices.
type Output struct {
	MaxIntensity        float64  `toml:"max_intensity"`
	ScaleByMax          bool     `toml:"scale_by_max"`
	UsingIntiface       bool     `toml:"using_intiface"`
	WebsocketAddress    string   `toml:"websocket_address"`
	ContinuousScanning  bool     `toml:"continuous_scanning"`
	ExcludedDeviceNames []string `toml:"excluded_device_names"`
	SerialPort          string   `toml:"serial_port"`
	SerialBaud          int      `toml:"serial_baud"`
}

// Capture configures the frame source.
type Capture struct {
	Source          string `toml:"source"`
	TemplateDir     string `toml:"template_dir"`
	MaxRefreshRate  int    `toml:"max_refresh_rate"`
	IdleRefreshRate int    `toml:"idle_refresh_rate"`
}

// Tracking holds the debounce grace periods, in frames.
type Tracking struct {
	MercyBeamDisconnectBuffer int `toml:"mercy_beam_disconnect_buffer"`
	LucioCrossfadeBuffer      int `toml:"lucio_crossfade_buffer"`
	ZenOrbDisconnectBuffer    int `toml:"zen_orb_disconnect_buffer"`
	NotificationRows          int `toml:"notification_rows"`
}

// Dashboard configures the status web server.
type Dashboard struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
}

// Paths locates state files.
type Paths struct {
	Store string `toml:"store"`
	Lock  string `toml:"lock"`
}

// DefaultPath returns ~/.config/overstim/config.toml.
func DefaultPath() (string, error) {
	return expandPath("~/.config/overstim/config.toml")
}

// Load reads the configuration at path, or the default location when path is
// empty. A missing file yields the defaults. It returns the resolved path and
// whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolvePath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// ApplyEnv applies OVERSTIM_* environment overrides.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OVERSTIM_WEBSOCKET"); v != "" {
		c.Output.WebsocketAddress = v
	}
	if v := os.Getenv("OVERSTIM_CAPTURE"); v != "" {
		c.Capture.Source = v
	}
	if v := os.Getenv("OVERSTIM_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// WriteSample writes the commented sample configuration to path.
func WriteSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func (c *Config) normalize() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	var err error
	if c.Paths.Store, err = expandPath(c.Paths.Store); err != nil {
		return err
	}
	if c.Paths.Lock, err = expandPath(c.Paths.Lock); err != nil {
		return err
	}
	if c.Capture.TemplateDir, err = expandPath(c.Capture.TemplateDir); err != nil {
		return err
	}
	return nil
}

func resolvePath(path string) (string, bool, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return "", false, err
		}
	} else {
		var err error
		if path, err = expandPath(path); err != nil {
			return "", false, err
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", path)
	}
	return path, true, nil
}

func expandPath(p string) (string, error) {
	if p == "" {
		return p, nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if p == "~" {
			p = home
		} else if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}
