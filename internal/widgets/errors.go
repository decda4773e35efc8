package widgets

import (
	"errors"
	"fmt"

	"github.com/ironsheep/widget-inventory-mcp/internal/imaging"
)

var (
	// ErrEmptyRegion marks a region with no pixels left after clamping.
	ErrEmptyRegion = imaging.ErrEmptyRegion

	// ErrDepthExhausted is wrapped by NestedExtractionError when a container
	// is reached with no nesting budget left.
	ErrDepthExhausted = errors.New("nesting depth exhausted")

	// ErrNestingCycle is returned by NewRouter when container classes can
	// reach themselves through their sub-detectors' class sets.
	ErrNestingCycle = errors.New("container classes nest in a cycle")
)

// UnknownClassError reports a detector label the router has no rule for.
// It aborts the whole image.
type UnknownClassError struct {
	Class string
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("unknown class %q", e.Class)
}

// OCRError wraps a failure of the text recognizer, including timeouts.
type OCRError struct {
	Err error
}

func (e *OCRError) Error() string {
	return "ocr: " + e.Err.Error()
}

func (e *OCRError) Unwrap() error {
	return e.Err
}

// NestedExtractionError wraps a failed nested pass for a container region:
// sub-detector errors and timeouts, unknown sub-detectors, empty crops and
// an exhausted depth budget.
type NestedExtractionError struct {
	Class string
	Err   error
}

func (e *NestedExtractionError) Error() string {
	return fmt.Sprintf("nested extraction for %s: %v", e.Class, e.Err)
}

func (e *NestedExtractionError) Unwrap() error {
	return e.Err
}
