package tracking

import (
	"time"

	"github.com/teslashibe/go-overstim/pkg/ledger"
	"github.com/teslashibe/go-overstim/pkg/subject"
)

// Config holds all tunable parameters for player-state tracking
type Config struct {
	// Grace periods of the debounced hero signals, in frames
	Graces subject.Graces

	// Notifications
	LedgerCapacity   int           // Notifications shown at once
	LedgerTTL        time.Duration // How long a notification stays on screen
	NotificationRows int           // Rows probed per frame

	// AutoDetect discovers the hero from weapon icons
	AutoDetect bool
}

// DefaultConfig returns the configuration tuned for 1080p at 30 fps
func DefaultConfig() Config {
	return Config{
		Graces:           subject.DefaultGraces(),
		LedgerCapacity:   ledger.DefaultCapacity,
		LedgerTTL:        ledger.DefaultTTL,
		NotificationRows: 2,
		AutoDetect:       true,
	}
}
