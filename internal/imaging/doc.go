// Package imaging provides the pixel-level operations the widget pipeline
// needs around its detector and OCR collaborators.
//
// It covers loading and caching screenshots, clamped region cropping,
// encoding crops for OCR engines, letterboxing images into square detector
// inputs, and drawing class-colored annotation overlays.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left corner:
//   - (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//   - Images returned by CropRegion always start at (0,0), so anything
//     computed on a crop is local to it until the caller adds the crop's
//     top-left offset back
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The remaining functions never
// mutate their input, so many goroutines may crop the same screenshot at
// once.
//
// # Error Handling
//
// Regions that extend past the image are clamped. A region with nothing
// left after clamping yields ErrEmptyRegion, which callers check with
// errors.Is.
package imaging
