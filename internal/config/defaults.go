package config

import "time"

// Default returns the built-in configuration: local Tesseract, label-file
// detection and the class table of the widget detector model.
//
// Chrome widgets are ignored, tree and table views get a nested pass with
// the rows and grid sub-detectors, and everything else is read with OCR.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Workers:       4,
			MaxDepth:      3,
			OCRTimeout:    30 * time.Second,
			NestedTimeout: 60 * time.Second,
			Encoding:      "png",
		},

		Detector: DetectorConfig{
			Type:       "labels",
			InputSize:  640,
			Confidence: 0.25,
			IoU:        0.45,
		},

		OCR: OCRConfig{
			Engine:   "tesseract",
			Language: "eng",
		},

		Classes: []ClassConfig{
			{Name: "Button", Strategy: "ocr"},
			{Name: "CheckBox", Strategy: "ocr"},
			{Name: "ComboBox", Strategy: "ocr"},
			{Name: "Label", Strategy: "ocr"},
			{Name: "LineEdit", Strategy: "ocr"},
			{Name: "MenuBar", Strategy: "ocr"},
			{Name: "RadioButton", Strategy: "ocr"},
			{Name: "Spinner", Strategy: "ignore"},
			{Name: "TabBar", Strategy: "ocr"},
			{Name: "TableView", Strategy: "nested", Nested: "table"},
			{Name: "TextArea", Strategy: "ignore"},
			{Name: "Toolbar", Strategy: "ignore"},
			{Name: "ToolButton", Strategy: "ignore"},
			{Name: "TreeView", Strategy: "nested", Nested: "tree"},
			{Name: "Cell", Strategy: "ocr"},
			{Name: "TreeItem", Strategy: "ocr"},
		},

		Nested: map[string]NestedConfig{
			"table": {
				Detector: "grid",
				Classes:  []string{"Cell"},
				MaxDepth: 1,
				Layout:   "table",
			},
			"tree": {
				Detector: "rows",
				Classes:  []string{"TreeItem"},
				MaxDepth: 1,
				Layout:   "tree",
				Indent:   16,
			},
		},

		Detectors: map[string]SubDetectorConfig{
			"grid": {Type: "grid", MinCell: 8},
			"rows": {Type: "rows", MinRow: 4},
		},
	}
}
