package widgets

import (
	"bytes"
	"encoding/json"
	"image"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContent_JSON(t *testing.T) {
	text, err := json.Marshal(TextContent("OK"))
	require.NoError(t, err)
	assert.JSONEq(t, `"OK"`, string(text))

	nested, err := json.Marshal(NestedContent(EmptyNested(LayoutTable)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"table","elements":[]}`, string(nested))

	var c Content
	require.NoError(t, json.Unmarshal([]byte(`"Cancel"`), &c))
	assert.Equal(t, TextContent("Cancel"), c)

	require.NoError(t, json.Unmarshal([]byte(` {"kind":"tree","elements":[],"tree":[{"level":1,"text":"x"}]}`), &c))
	require.True(t, c.IsNested())
	assert.Equal(t, LayoutTree, c.Nested.Kind)
	assert.Equal(t, []TreeNode{{Level: 1, Text: "x"}}, c.Nested.Tree)

	assert.Error(t, json.Unmarshal([]byte(`42`), &c))
}

func TestNewElement(t *testing.T) {
	el := newElement("Label", 1, image.Rect(10, 10, 110, 40))

	assert.Equal(t, Point{X: 60, Y: 25}, el.Center)
	assert.Equal(t, Size{W: 100, H: 30}, el.Size)
	assert.Equal(t, 1, el.ClassIndex)
}

func TestNestedResult_Translate(t *testing.T) {
	inner := &NestedResult{Kind: LayoutList, Global: true, Elements: []Element{
		newElement("Cell", 0, image.Rect(2, 2, 4, 4)),
	}}
	local := &NestedResult{Kind: LayoutList, Elements: []Element{
		newElement("Cell", 0, image.Rect(1, 1, 3, 3)),
	}}

	outer := &NestedResult{Kind: LayoutList, Elements: []Element{
		newElement("TableView", 0, image.Rect(0, 0, 10, 10)),
		newElement("TableView", 0, image.Rect(0, 0, 10, 10)),
	}}
	outer.Elements[0].Content = NestedContent(inner)
	outer.Elements[1].Content = NestedContent(local)

	outer.translate(image.Pt(100, 50))

	assert.Equal(t, image.Rect(100, 50, 110, 60), outer.Elements[0].Box)
	assert.Equal(t, Point{X: 105, Y: 55}, outer.Elements[0].Center)
	assert.Equal(t, image.Rect(102, 52, 104, 54), inner.Elements[0].Box)
	assert.Equal(t, image.Rect(1, 1, 3, 3), local.Elements[0].Box, "local payloads stay relative to their parent")
}

func TestCollection_Records(t *testing.T) {
	coll := &Collection{Elements: []Element{
		newElement("Label", 1, image.Rect(10, 10, 110, 40)),
	}}
	coll.Elements[0].Content = TextContent("Submit")

	data, err := json.Marshal(coll.Records())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"class":"Label","classIndex":1,"x":60,"y":25,"w":100,"h":30,"content":"Submit"}]`, string(data))
}

func TestCollection_WriteLabels(t *testing.T) {
	coll := &Collection{Width: 200, Height: 100, Elements: []Element{
		newElement("Label", 3, image.Rect(10, 10, 110, 40)),
		newElement("Button", 0, image.Rect(150, 60, 190, 90)),
	}}

	var buf bytes.Buffer
	require.NoError(t, coll.WriteLabels(&buf, []string{"Button", "Label"}))

	// indices come from the names table, not the element's own index
	assert.Equal(t, "1 0.3 0.25 0.5 0.3\n0 0.85 0.75 0.2 0.3\n", buf.String())
}

func TestCollection_WriteLabels_UnknownClass(t *testing.T) {
	coll := &Collection{Width: 100, Height: 100, Elements: []Element{
		newElement("Slider", 0, image.Rect(0, 0, 10, 10)),
	}}

	err := coll.WriteLabels(io.Discard, []string{"Button"})

	var unknown *UnknownClassError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Slider", unknown.Class)
}
