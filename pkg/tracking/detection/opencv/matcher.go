// Package opencv implements detection.Source with GoCV template matching.
package opencv

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/teslashibe/go-overstim/pkg/tracking/detection"
	"gocv.io/x/gocv"
)

// Config holds matcher configuration
type Config struct {
	// Source is a capture device index ("0") or a file/stream URL.
	Source string
	// TemplateDir holds t_<name>.png grayscale templates.
	TemplateDir string
}

// Matcher reads frames from a video source and matches templates on them.
type Matcher struct {
	capture   *gocv.VideoCapture
	templates map[string]gocv.Mat
	raw       gocv.Mat
	frame     gocv.Mat
	crop      image.Rectangle
	logger    *slog.Logger
	mu        sync.Mutex
}

// Open starts the capture and loads every template.
func Open(cfg Config, logger *slog.Logger) (*Matcher, error) {
	templates := make(map[string]gocv.Mat)
	for _, name := range detection.Templates() {
		path := filepath.Join(cfg.TemplateDir, "t_"+name+".png")
		if _, err := os.Stat(path); err != nil {
			closeAll(templates)
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
		t := gocv.IMRead(path, gocv.IMReadGrayScale)
		if t.Empty() {
			closeAll(templates)
			return nil, fmt.Errorf("template %s: failed to read %s", name, path)
		}
		templates[name] = t
	}

	var source interface{} = cfg.Source
	if id, err := strconv.Atoi(cfg.Source); err == nil {
		source = id
	}
	vc, err := gocv.OpenVideoCapture(source)
	if err != nil {
		closeAll(templates)
		return nil, fmt.Errorf("open capture %q: %w", cfg.Source, err)
	}

	return &Matcher{
		capture:   vc,
		templates: templates,
		raw:       gocv.NewMat(),
		frame:     gocv.NewMat(),
		logger:    logger,
	}, nil
}

func closeAll(mats map[string]gocv.Mat) {
	for _, m := range mats {
		m.Close()
	}
}

// Next reads a frame, crops it to 16:9, resizes it to the base resolution and
// converts it to grayscale.
func (m *Matcher) Next(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if ok := m.capture.Read(&m.raw); !ok || m.raw.Empty() {
		return detection.ErrNoFrame
	}

	if m.crop.Empty() {
		m.crop = detection.AspectCrop(m.raw.Cols(), m.raw.Rows())
		m.logger.Info("capture started",
			"width", m.raw.Cols(), "height", m.raw.Rows(), "crop", m.crop.String())
		if m.crop.Dx() != m.raw.Cols() || m.crop.Dy() != m.raw.Rows() {
			m.logger.Warn("source is not 16:9, cropping; make sure the in-game aspect ratio is 16:9")
		}
	}

	cropped := m.raw.Region(m.crop)
	defer cropped.Close()

	scaled := gocv.NewMat()
	defer scaled.Close()
	if cropped.Cols() != detection.BaseWidth || cropped.Rows() != detection.BaseHeight {
		gocv.Resize(cropped, &scaled, image.Pt(detection.BaseWidth, detection.BaseHeight), 0, 0, gocv.InterpolationLinear)
	} else {
		cropped.CopyTo(&scaled)
	}

	gocv.CvtColor(scaled, &m.frame, gocv.ColorBGRToGray)
	return nil
}

// Detect matches the named template with TM_CCOEFF_NORMED at every anchor of
// its region.
func (m *Matcher) Detect(name string, opts ...detection.Option) bool {
	o := detection.Apply(opts...)

	m.mu.Lock()
	defer m.mu.Unlock()

	tmpl, ok := m.templates[name]
	if !ok || m.frame.Empty() {
		return false
	}
	region := detection.Regions[name]
	if o.Region != nil {
		region = *o.Region
	}

	bounds := image.Rect(0, 0, m.frame.Cols(), m.frame.Rows())
	h := tmpl.Rows() + region.AddHeight
	w := tmpl.Cols() + region.AddWidth

	for _, p := range region.Points() {
		rect := image.Rect(p.X, p.Y, p.X+w, p.Y+h).Intersect(bounds)
		if rect.Dx() < tmpl.Cols() || rect.Dy() < tmpl.Rows() {
			continue
		}
		if m.score(rect, tmpl) > o.Threshold {
			return true
		}
	}
	return false
}

func (m *Matcher) score(rect image.Rectangle, tmpl gocv.Mat) float64 {
	roi := m.frame.Region(rect)
	defer roi.Close()

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(roi, tmpl, &result, gocv.TmCcoeffNormed, mask)
	_, maxVal, _, _ := gocv.MinMaxLoc(result)

	score := float64(maxVal)
	if math.IsNaN(score) {
		return 0
	}
	return score
}

// SampleColor compares the grayscale value at p with target.
func (m *Matcher) SampleColor(p image.Point, target, tolerance float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.frame.Empty() || !p.In(image.Rect(0, 0, m.frame.Cols(), m.frame.Rows())) {
		return false
	}
	v := float64(m.frame.GetUCharAt(p.Y, p.X)) / 255.0
	return math.Abs(v-target) <= tolerance
}

// Close releases the capture and every template.
func (m *Matcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	closeAll(m.templates)
	m.raw.Close()
	m.frame.Close()
	return m.capture.Close()
}

var _ detection.Source = (*Matcher)(nil)
