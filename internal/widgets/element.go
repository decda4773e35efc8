package widgets

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"

	"github.com/ironsheep/widget-inventory-mcp/internal/detection"
	"github.com/ironsheep/widget-inventory-mcp/internal/imaging"
)

// Region is a detector box after normalization to source-image pixels.
type Region struct {
	Label      string
	Confidence float64
	Box        image.Rectangle
}

// Point is a position in source-image pixels. Centers may fall on half
// pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width and height in source-image pixels.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Element is one widget in the inventory.
type Element struct {
	Class      string          `json:"class"`
	ClassIndex int             `json:"classIndex"`
	Center     Point           `json:"center"`
	Size       Size            `json:"size"`
	Box        image.Rectangle `json:"-"`
	Content    Content         `json:"content"`
}

func newElement(class string, index int, box image.Rectangle) Element {
	return Element{
		Class:      class,
		ClassIndex: index,
		Center: Point{
			X: float64(box.Min.X+box.Max.X) / 2,
			Y: float64(box.Min.Y+box.Max.Y) / 2,
		},
		Size: Size{
			W: float64(box.Dx()),
			H: float64(box.Dy()),
		},
		Box: box,
	}
}

// Content is the extracted content of an element: plain text for leaf
// widgets, a nested result for containers. It encodes as a JSON string or
// object respectively.
type Content struct {
	Text   string
	Nested *NestedResult
}

// TextContent returns leaf content.
func TextContent(s string) Content {
	return Content{Text: s}
}

// NestedContent returns container content.
func NestedContent(n *NestedResult) Content {
	return Content{Nested: n}
}

// IsNested reports whether c holds a nested result.
func (c Content) IsNested() bool {
	return c.Nested != nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.Nested != nil {
		return json.Marshal(c.Nested)
	}
	return json.Marshal(c.Text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var n NestedResult
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*c = Content{Nested: &n}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("content must be a string or an object: %w", err)
	}
	*c = Content{Text: s}
	return nil
}

// TreeNode is one row of a tree view with its indentation level.
type TreeNode struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// NestedResult is the payload of a container widget.
//
// Elements are in the sub-detector's emission order. Rows and Tree are
// views derived from them according to Kind. When Global is false element
// coordinates are local to the container's crop.
type NestedResult struct {
	Kind     string     `json:"kind"`
	Global   bool       `json:"global,omitempty"`
	Elements []Element  `json:"elements"`
	Rows     [][]string `json:"rows,omitempty"`
	Tree     []TreeNode `json:"tree,omitempty"`
}

// EmptyNested returns the empty nested result of the given kind.
func EmptyNested(kind string) *NestedResult {
	return &NestedResult{Kind: kind, Elements: []Element{}}
}

// IsEmpty reports whether the result holds no elements.
func (n *NestedResult) IsEmpty() bool {
	return len(n.Elements) == 0
}

// translate moves every element by off. Nested payloads that are already
// global are in the same frame and move with them.
func (n *NestedResult) translate(off image.Point) {
	for i := range n.Elements {
		el := &n.Elements[i]
		el.Box = el.Box.Add(off)
		el.Center.X += float64(off.X)
		el.Center.Y += float64(off.Y)
		if el.Content.Nested != nil && el.Content.Nested.Global {
			el.Content.Nested.translate(off)
		}
	}
}

// Stats counts the per-region failures that were recovered, including the
// ones inside nested passes.
type Stats struct {
	EmptyRegions   int `json:"empty_regions"`
	OCRFailures    int `json:"ocr_failures"`
	NestedFailures int `json:"nested_failures"`
}

func (s *Stats) add(o Stats) {
	s.EmptyRegions += o.EmptyRegions
	s.OCRFailures += o.OCRFailures
	s.NestedFailures += o.NestedFailures
}

// Collection is the widget inventory of one image, in detector emission
// order.
type Collection struct {
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Elements []Element `json:"elements"`
	Stats    Stats     `json:"stats"`
}

// Record is the flat, serializable form of an element. X and Y are the
// center.
type Record struct {
	Class      string  `json:"class"`
	ClassIndex int     `json:"classIndex"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	W          float64 `json:"w"`
	H          float64 `json:"h"`
	Content    Content `json:"content"`
}

// Records returns one record per top-level element, in order.
func (c *Collection) Records() []Record {
	records := make([]Record, len(c.Elements))
	for i, el := range c.Elements {
		records[i] = Record{
			Class:      el.Class,
			ClassIndex: el.ClassIndex,
			X:          el.Center.X,
			Y:          el.Center.Y,
			W:          el.Size.W,
			H:          el.Size.H,
			Content:    el.Content,
		}
	}
	return records
}

// WriteLabels writes one YOLO label line per top-level element, normalized
// to the collection's image size. Class indices are positions in names, the
// table the label file will be read back with.
func (c *Collection) WriteLabels(w io.Writer, names []string) error {
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}

	bw := bufio.NewWriter(w)
	for _, el := range c.Elements {
		i, ok := index[el.Class]
		if !ok {
			return &UnknownClassError{Class: el.Class}
		}
		line := detection.FormatLabel(i, el.Center.X, el.Center.Y, el.Size.W, el.Size.H, c.Width, c.Height)
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Annotations returns a box for every element, nested ones included, in
// source-image coordinates.
func (c *Collection) Annotations() []imaging.Annotation {
	var anns []imaging.Annotation
	var walk func(els []Element, off image.Point)
	walk = func(els []Element, off image.Point) {
		for _, el := range els {
			box := el.Box.Add(off)
			anns = append(anns, imaging.Annotation{
				Box:        box,
				Label:      el.Class,
				ClassIndex: el.ClassIndex,
			})
			if n := el.Content.Nested; n != nil {
				if n.Global {
					walk(n.Elements, off)
				} else {
					walk(n.Elements, box.Min)
				}
			}
		}
	}
	walk(c.Elements, image.Point{})
	return anns
}
