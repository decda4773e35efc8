package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes text with a local Tesseract installation through
// gosseract.
//
// Each call creates its own client, so a Tesseract value is safe for
// concurrent use.
type Tesseract struct {
	// Language is the Tesseract language code, e.g. "eng" or "chi_sim+eng".
	Language string

	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string

	// MinConfidence drops text lines whose confidence (0..1) is lower.
	MinConfidence float64

	// Preprocess is applied to every image before recognition.
	Preprocess Preprocess
}

// NewTesseract creates a Tesseract engine for language, defaulting to "eng".
func NewTesseract(language string, pre Preprocess) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{Language: language, Preprocess: pre}
}

// Recognize returns the recognized text lines of data, top to bottom.
//
// The cgo call cannot be interrupted. When ctx ends first Recognize returns
// ctx.Err() and the call finishes in the background.
func (t *Tesseract) Recognize(ctx context.Context, data []byte) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := t.Preprocess.ApplyBytes(data)
	if err != nil {
		return nil, err
	}

	type result struct {
		lines []string
		err   error
	}

	done := make(chan result, 1)
	go func() {
		lines, err := t.recognize(data)
		done <- result{lines, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.lines, r.err
	}
}

func (t *Tesseract) recognize(data []byte) ([]string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if t.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.TessdataPrefix); err != nil {
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	if err := client.SetLanguage(t.Language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		// Return just text if boxes fail
		text, err := client.Text()
		if err != nil {
			return nil, fmt.Errorf("OCR failed: %w", err)
		}
		return splitLines(text), nil
	}

	return keepLines(boxes, t.MinConfidence), nil
}

// keepLines returns the trimmed, non-empty text of boxes scored at least
// minConfidence. Tesseract scores lines 0..100.
func keepLines(boxes []gosseract.BoundingBox, minConfidence float64) []string {
	lines := make([]string, 0, len(boxes))
	for _, box := range boxes {
		if float64(box.Confidence)/100.0 < minConfidence {
			continue
		}
		if line := strings.TrimSpace(box.Word); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Info describes the OCR backend.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Backend   string `json:"backend"`
	Language  string `json:"language,omitempty"`
}

// Info reports the Tesseract version gosseract is linked against.
func (t *Tesseract) Info() Info {
	client := gosseract.NewClient()
	defer client.Close()

	version := client.Version()
	return Info{
		Available: version != "",
		Version:   version,
		Backend:   "gosseract",
		Language:  t.Language,
	}
}
