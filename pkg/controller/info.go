package controller

import (
	"time"

	"github.com/teslashibe/go-overstim/pkg/subject"
	"github.com/teslashibe/go-overstim/pkg/trigger"
)

// Info is the status snapshot published after every refresh.
type Info struct {
	Session     string                   `json:"session"`
	Time        time.Time                `json:"time"`
	Intensity   float64                  `json:"intensity"`
	Subject     subject.Kind             `json:"subject"`
	AutoDetect  bool                     `json:"auto_detect"`
	Dead        bool                     `json:"dead"`
	Devices     int                      `json:"devices"`
	FPS         int                      `json:"fps"`
	Calculation time.Duration            `json:"calculation_ns"`
	Intensities map[trigger.ID][]float64 `json:"intensities"`
	Fired       []trigger.ID             `json:"fired,omitempty"`
}
