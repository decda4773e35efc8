package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/ironsheep/widget-inventory-mcp/internal/imaging"
)

// ErrUnknownDetector is returned by Registry.Lookup for unregistered names.
var ErrUnknownDetector = errors.New("detector not found")

// Box is a raw detector box in the detector's input resolution.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Prediction is one detected widget as the detector reports it.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Result is the output of one detector pass.
//
// InputWidth and InputHeight give the resolution the boxes are expressed in.
// Zero means the boxes are already in the pixel grid of the image that was
// passed to Detect. Boxes are always relative to that image's top-left
// corner, not to its Bounds().Min.
//
// Letterbox, when set, is the exact transform the detector used to build its
// input. It replaces the assumption of equal padding on both sides.
type Result struct {
	InputWidth  int                    `json:"input_width"`
	InputHeight int                    `json:"input_height"`
	Letterbox   *imaging.LetterboxInfo `json:"letterbox,omitempty"`
	Predictions []Prediction           `json:"predictions"`
}

// Config carries the per-call knobs a detector honors. Results are expected
// to be already suppressed and confidence-filtered by the detector.
type Config struct {
	Confidence    float64  `json:"confidence" yaml:"confidence"`
	IoU           float64  `json:"iou" yaml:"iou"`
	Classes       []string `json:"classes,omitempty" yaml:"classes"`
	MaxDetections int      `json:"max_detections" yaml:"max_detections"`
}

// Detector finds widgets in an image.
type Detector interface {
	Detect(ctx context.Context, img image.Image, cfg Config) (*Result, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, img image.Image, cfg Config) (*Result, error)

func (f DetectorFunc) Detect(ctx context.Context, img image.Image, cfg Config) (*Result, error) {
	return f(ctx, img, cfg)
}

// Allows reports whether p passes the confidence and class filters.
func (c Config) Allows(p Prediction) bool {
	if p.Confidence < c.Confidence {
		return false
	}
	if len(c.Classes) == 0 {
		return true
	}
	for _, name := range c.Classes {
		if name == p.Label {
			return true
		}
	}
	return false
}

// Filter keeps the predictions that pass Allows, in their original order,
// capped at MaxDetections when it is positive.
func (c Config) Filter(preds []Prediction) []Prediction {
	out := make([]Prediction, 0, len(preds))
	for _, p := range preds {
		if !c.Allows(p) {
			continue
		}
		out = append(out, p)
		if c.MaxDetections > 0 && len(out) == c.MaxDetections {
			break
		}
	}
	return out
}

// Registry maps sub-detector names to detectors.
type Registry struct {
	mu        sync.RWMutex
	detectors map[string]Detector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		detectors: make(map[string]Detector),
	}
}

// Register adds or replaces the detector stored under name.
func (r *Registry) Register(name string, d Detector) {
	r.mu.Lock()
	r.detectors[name] = d
	r.mu.Unlock()
}

// Lookup returns the detector registered under name.
func (r *Registry) Lookup(name string) (Detector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.detectors[name]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDetector, name)
}

// Names returns the registered names in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.detectors))
	for name := range r.detectors {
		names = append(names, name)
	}
	return names
}
