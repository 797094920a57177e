package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is wrapped by every ValidationError.
var ErrInvalid = errors.New("invalid configuration")

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("log_level", "unknown level %q", c.LogLevel)
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateTracking(); err != nil {
		return err
	}
	if c.Dashboard.Enabled && c.Dashboard.Address == "" {
		return invalid("dashboard.address", "must be set when the dashboard is enabled")
	}
	if c.Paths.Store == "" {
		return invalid("paths.store", "must be set")
	}
	return nil
}

func (c *Config) validateOutput() error {
	o := c.Output
	if o.MaxIntensity < 0 || o.MaxIntensity > 1 {
		return invalid("output.max_intensity", "must be between 0 and 1, got %g", o.MaxIntensity)
	}
	if o.UsingIntiface {
		if !strings.HasPrefix(o.WebsocketAddress, "ws://") && !strings.HasPrefix(o.WebsocketAddress, "wss://") {
			return invalid("output.websocket_address", "must be a ws:// or wss:// URL, got %q", o.WebsocketAddress)
		}
		return nil
	}
	if o.SerialPort == "" {
		return invalid("output.serial_port", "required when using_intiface is false")
	}
	if o.SerialBaud <= 0 {
		return invalid("output.serial_baud", "must be positive")
	}
	return nil
}

func (c *Config) validateCapture() error {
	if c.Capture.Source == "" {
		return invalid("capture.source", "must be set")
	}
	if c.Capture.MaxRefreshRate <= 0 {
		return invalid("capture.max_refresh_rate", "must be positive")
	}
	if c.Capture.IdleRefreshRate <= 0 || c.Capture.IdleRefreshRate > c.Capture.MaxRefreshRate {
		return invalid("capture.idle_refresh_rate", "must be between 1 and max_refresh_rate")
	}
	return nil
}

func (c *Config) validateTracking() error {
	t := c.Tracking
	for field, v := range map[string]int{
		"tracking.mercy_beam_disconnect_buffer": t.MercyBeamDisconnectBuffer,
		"tracking.lucio_crossfade_buffer":       t.LucioCrossfadeBuffer,
		"tracking.zen_orb_disconnect_buffer":    t.ZenOrbDisconnectBuffer,
	} {
		if v < 0 {
			return invalid(field, "must not be negative")
		}
	}
	if t.NotificationRows < 1 {
		return invalid("tracking.notification_rows", "must be at least 1")
	}
	return nil
}
