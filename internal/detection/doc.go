// Package detection provides the widget detectors the pipeline consumes.
//
// A Detector takes an image and returns the widgets it finds as labeled,
// scored boxes. Detectors are expected to have already applied their own
// thresholding and non-maximum suppression; the pipeline never reorders or
// deduplicates what they report.
//
// # Detectors
//
//   - LabelFile: replays YOLO label files written by an offline detector run
//   - Remote: calls an HTTP inference server with a letterboxed input
//   - Grid: finds table cells from ruling lines in a cropped table view
//   - Rows: finds tree items from horizontal ink bands in a cropped tree view
//
// Grid and Rows are sub-detectors: they run on a crop of a container widget
// and are looked up by name through a Registry.
//
// # Coordinate System
//
// Result.InputWidth and InputHeight give the resolution boxes are expressed
// in. Remote reports boxes in its square model input; the others report
// boxes directly in the pixel grid of the image they were given. In both
// cases the origin is the image's top-left corner.
//
// # Edge Map
//
// Grid and Rows share a simple gradient edge map: a pixel is an edge when its
// grayscale value differs by more than 30 from its right or lower neighbor.
// This works well on the flat fills and crisp borders of GUI screenshots and
// poorly on photographs.
package detection
