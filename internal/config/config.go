package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/widget-inventory-mcp/internal/detection"
	"github.com/ironsheep/widget-inventory-mcp/internal/imaging"
	"github.com/ironsheep/widget-inventory-mcp/internal/ocr"
	"github.com/ironsheep/widget-inventory-mcp/internal/widgets"
)

// Config is the complete extraction configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Detector DetectorConfig `yaml:"detector"`
	OCR      OCRConfig      `yaml:"ocr"`

	// Classes is the ordered class table. A class index is its position.
	Classes []ClassConfig `yaml:"classes"`

	Nested    map[string]NestedConfig      `yaml:"nested"`
	Detectors map[string]SubDetectorConfig `yaml:"detectors"`
}

type PipelineConfig struct {
	Workers       int           `yaml:"workers"`
	MaxDepth      int           `yaml:"max_depth"`
	OCRTimeout    time.Duration `yaml:"ocr_timeout"`
	NestedTimeout time.Duration `yaml:"nested_timeout"`
	Encoding      string        `yaml:"encoding"`
}

// DetectorConfig selects the top-level detector.
type DetectorConfig struct {
	// Type is "labels" (offline label files) or "remote".
	Type string `yaml:"type"`

	URL       string `yaml:"url"`
	Token     string `yaml:"token"`
	InputSize int    `yaml:"input_size"`

	Confidence    float64 `yaml:"confidence"`
	IoU           float64 `yaml:"iou"`
	MaxDetections int     `yaml:"max_detections"`

	// Classes is the detector's class-name table, indexed like its label
	// files. Empty means the routing class order.
	Classes []string `yaml:"classes"`

	Limit *int `yaml:"limit"`
}

type OCRConfig struct {
	// Engine is "tesseract" or "remote".
	Engine   string `yaml:"engine"`
	Language string `yaml:"language"`

	// MinConfidence drops Tesseract lines scored below it (0..1).
	MinConfidence float64 `yaml:"min_confidence"`

	URL   string `yaml:"url"`
	Token string `yaml:"token"`

	Limit *int `yaml:"limit"`

	Preprocess ocr.Preprocess `yaml:"preprocess"`
}

type ClassConfig struct {
	Name     string `yaml:"name"`
	Strategy string `yaml:"strategy"`
	Nested   string `yaml:"nested"`
}

type NestedConfig struct {
	Detector   string   `yaml:"detector"`
	Classes    []string `yaml:"classes"`
	MaxDepth   int      `yaml:"max_depth"`
	Global     bool     `yaml:"global"`
	Layout     string   `yaml:"layout"`
	Indent     int      `yaml:"indent"`
	Confidence float64  `yaml:"confidence"`
}

// SubDetectorConfig describes a named sub-detector.
type SubDetectorConfig struct {
	// Type is "grid", "rows" or "remote".
	Type string `yaml:"type"`

	URL       string `yaml:"url"`
	Token     string `yaml:"token"`
	InputSize int    `yaml:"input_size"`

	MinCell int `yaml:"min_cell"`
	MinRow  int `yaml:"min_row"`

	Limit *int `yaml:"limit"`
}

// Load reads path on top of Default. Environment variables in the file are
// expanded first. Scalars and lists in the file replace the defaults; maps
// are merged by key. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	if err := cfg.parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

func (cfg *Config) parse(data []byte) error {
	data = []byte(os.ExpandEnv(string(data)))

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

// Validate checks ranges and names and builds the router once so that
// routing errors surface at load time.
func (cfg *Config) Validate() error {
	p := cfg.Pipeline

	if p.Workers < 0 {
		return errors.New("pipeline.workers must not be negative")
	}

	if p.MaxDepth < 0 {
		return errors.New("pipeline.max_depth must not be negative")
	}

	if p.OCRTimeout < 0 || p.NestedTimeout < 0 {
		return errors.New("pipeline timeouts must not be negative")
	}

	if _, err := imaging.ParseFormat(p.Encoding); err != nil {
		return fmt.Errorf("pipeline.encoding: %w", err)
	}

	d := cfg.Detector

	switch d.Type {
	case "", "labels":
	case "remote":
		if d.URL == "" {
			return errors.New("detector.url is required for remote detectors")
		}
	default:
		return fmt.Errorf("detector.type: unknown type %q", d.Type)
	}

	if d.Confidence < 0 || d.Confidence > 1 {
		return errors.New("detector.confidence must be within 0..1")
	}

	if d.IoU < 0 || d.IoU > 1 {
		return errors.New("detector.iou must be within 0..1")
	}

	if d.MaxDetections < 0 {
		return errors.New("detector.max_detections must not be negative")
	}

	switch cfg.OCR.Engine {
	case "", "tesseract", "remote":
	default:
		return fmt.Errorf("ocr.engine: unknown engine %q", cfg.OCR.Engine)
	}

	if cfg.OCR.MinConfidence < 0 || cfg.OCR.MinConfidence > 1 {
		return errors.New("ocr.min_confidence must be within 0..1")
	}

	for name, s := range cfg.Detectors {
		switch s.Type {
		case "grid", "rows":
		case "remote":
			if s.URL == "" {
				return fmt.Errorf("detectors.%s: url is required for remote detectors", name)
			}
		default:
			return fmt.Errorf("detectors.%s: unknown type %q", name, s.Type)
		}
	}

	for name, n := range cfg.Nested {
		if _, ok := cfg.Detectors[n.Detector]; !ok {
			return fmt.Errorf("nested.%s: unknown detector %q", name, n.Detector)
		}
		if n.Confidence < 0 || n.Confidence > 1 {
			return fmt.Errorf("nested.%s: confidence must be within 0..1", name)
		}
	}

	if _, err := cfg.Router(); err != nil {
		return err
	}

	return nil
}

// Router builds the routing table from the class list and nested specs.
func (cfg *Config) Router() (*widgets.Router, error) {
	rules := make([]widgets.ClassRule, len(cfg.Classes))

	for i, c := range cfg.Classes {
		strategy, err := widgets.ParseStrategy(c.Strategy)

		if err != nil {
			return nil, fmt.Errorf("classes.%s: %w", c.Name, err)
		}

		rules[i] = widgets.ClassRule{
			Class:    c.Name,
			Strategy: strategy,
			Nested:   c.Nested,
		}
	}

	specs := make(map[string]widgets.NestedSpec, len(cfg.Nested))

	for name, n := range cfg.Nested {
		specs[name] = widgets.NestedSpec{
			Detector: n.Detector,
			Detect: detection.Config{
				Confidence: n.Confidence,
				Classes:    n.Classes,
			},
			Classes:  n.Classes,
			MaxDepth: n.MaxDepth,
			Global:   n.Global,
			Layout:   n.Layout,
			Indent:   n.Indent,
		}
	}

	return widgets.NewRouter(rules, specs)
}

// Recognizer builds the configured OCR engine, rate limited when ocr.limit
// is set.
func (cfg *Config) Recognizer() (ocr.Engine, error) {
	var engine ocr.Engine

	switch cfg.OCR.Engine {
	case "", "tesseract":
		tess := ocr.NewTesseract(cfg.OCR.Language, cfg.OCR.Preprocess)
		tess.MinConfidence = cfg.OCR.MinConfidence
		engine = tess

	case "remote":
		engine = ocr.NewRemote(cfg.OCR.URL, cfg.OCR.Token)

	default:
		return nil, fmt.Errorf("unknown ocr engine: %s", cfg.OCR.Engine)
	}

	if cfg.OCR.Limit != nil {
		engine = ocr.NewLimited(engine, *cfg.OCR.Limit)
	}

	return engine, nil
}

// Registry registers every configured sub-detector under its name.
func (cfg *Config) Registry() (*detection.Registry, error) {
	registry := detection.NewRegistry()

	for name, s := range cfg.Detectors {
		switch s.Type {
		case "grid":
			registry.Register(name, detection.NewGrid(s.MinCell))

		case "rows":
			registry.Register(name, detection.NewRows(s.MinRow))

		case "remote":
			registry.Register(name, detection.NewRemote(s.URL, s.Token, s.InputSize, createLimiter(s.Limit)))

		default:
			return nil, fmt.Errorf("detectors.%s: unknown type %q", name, s.Type)
		}
	}

	return registry, nil
}

// TopDetector returns the top-level detector. For the labels type, labels is
// the label file written for the image being processed.
func (cfg *Config) TopDetector(labels string) (detection.Detector, error) {
	d := cfg.Detector

	switch d.Type {
	case "", "labels":
		if labels == "" {
			return nil, errors.New("a labels file is required")
		}
		return detection.NewLabelFile(labels, cfg.ClassNames()), nil

	case "remote":
		return detection.NewRemote(d.URL, d.Token, d.InputSize, createLimiter(d.Limit)), nil

	default:
		return nil, fmt.Errorf("unknown detector type: %s", d.Type)
	}
}

// DetectConfig returns the per-call settings of the top-level detector.
func (cfg *Config) DetectConfig() detection.Config {
	return detection.Config{
		Confidence:    cfg.Detector.Confidence,
		IoU:           cfg.Detector.IoU,
		MaxDetections: cfg.Detector.MaxDetections,
	}
}

// ClassNames returns the top-level detector's class-name table.
func (cfg *Config) ClassNames() []string {
	if len(cfg.Detector.Classes) > 0 {
		return cfg.Detector.Classes
	}

	names := make([]string, len(cfg.Classes))

	for i, c := range cfg.Classes {
		names[i] = c.Name
	}

	return names
}

// Options assembles the pipeline options.
func (cfg *Config) Options(logger *slog.Logger) (widgets.Options, error) {
	router, err := cfg.Router()

	if err != nil {
		return widgets.Options{}, err
	}

	recognizer, err := cfg.Recognizer()

	if err != nil {
		return widgets.Options{}, err
	}

	detectors, err := cfg.Registry()

	if err != nil {
		return widgets.Options{}, err
	}

	encoding, err := imaging.ParseFormat(cfg.Pipeline.Encoding)

	if err != nil {
		return widgets.Options{}, err
	}

	return widgets.Options{
		Router:        router,
		Recognizer:    recognizer,
		Detectors:     detectors,
		Workers:       cfg.Pipeline.Workers,
		MaxDepth:      cfg.Pipeline.MaxDepth,
		OCRTimeout:    cfg.Pipeline.OCRTimeout,
		NestedTimeout: cfg.Pipeline.NestedTimeout,
		Encoding:      encoding,
		Logger:        logger,
	}, nil
}

func createLimiter(limit *int) *rate.Limiter {
	if limit == nil || *limit <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Limit(*limit), *limit)
}
