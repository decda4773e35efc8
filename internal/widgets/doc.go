// Package widgets turns detector output on a GUI screenshot into a widget
// inventory: one Element per detected region with its class, center, size
// and content.
//
// # Pipeline
//
//  1. Normalize maps each detector box back to source-image pixels.
//  2. The Router looks up the region's class and picks a Strategy.
//  3. The strategy produces content:
//     - Ignore: empty text
//     - PlainOCR: the region is cropped and recognized, fragments joined
//     - NestedDetect: a sub-detector runs on the crop and its regions are
//     assembled recursively into a NestedResult
//  4. The Assembler collects the elements in detector emission order.
//
// # Guarantees
//
// Assemble returns exactly one element per region, in region order, or an
// error for the whole image. It never returns a partial collection.
//
// Only structural errors abort an image: an UnknownClassError (the detector
// emitted a label the Router has no rule for) and cancellation. Empty
// regions, OCR failures and failed nested passes are recovered into empty
// content and counted in Collection.Stats.
//
// # Nesting
//
// Every nested pass is given a depth budget of min(depth, MaxDepth) and runs
// its own regions with one less. A container reached with no budget left
// gets an empty NestedResult, so a sub-detector that keeps reporting its own
// container class still terminates. NewRouter also rejects configurations in
// which container classes reach themselves through the declared class sets.
//
// Nested elements are local to the container's crop unless its NestedSpec sets
// Global, in which case they are translated by the crop's top-left corner.
//
// # Concurrency
//
// Regions of one image are extracted on a bounded errgroup. Each worker
// writes to its own slot of pre-sized slices; the source image is only read.
// OCR and sub-detector calls each run under their own timeout.
package widgets
