package widgets

import (
	"math"
	"sort"
)

const defaultIndent = 16

// shape fills the derived views of n for its layout.
func shape(n *NestedResult, spec *NestedSpec) {
	switch n.Kind {
	case LayoutTable:
		n.Rows = tableRows(n.Elements)
	case LayoutTree:
		indent := spec.Indent
		if indent <= 0 {
			indent = defaultIndent
		}
		n.Tree = treeNodes(n.Elements, indent)
	}
}

// tableRows groups cells into rows. A cell joins the current row while its
// center lies inside the vertical extent of the row's first cell; each row
// is then read left to right.
func tableRows(els []Element) [][]string {
	if len(els) == 0 {
		return nil
	}

	order := byCenterY(els)

	var rows [][]string
	var row []int
	top, bottom := 0, 0

	flush := func() {
		sort.SliceStable(row, func(a, b int) bool {
			return els[row[a]].Center.X < els[row[b]].Center.X
		})
		texts := make([]string, len(row))
		for k, i := range row {
			texts[k] = els[i].Content.Text
		}
		rows = append(rows, texts)
	}

	for _, i := range order {
		cy := int(math.Round(els[i].Center.Y))
		if len(row) > 0 && cy >= top && cy < bottom {
			row = append(row, i)
			continue
		}
		if len(row) > 0 {
			flush()
		}
		row = []int{i}
		top, bottom = els[i].Box.Min.Y, els[i].Box.Max.Y
	}
	flush()

	return rows
}

// treeNodes turns tree rows into nodes, top to bottom. The level of a row is
// its left edge relative to the leftmost row, in steps of indent pixels.
func treeNodes(els []Element, indent int) []TreeNode {
	if len(els) == 0 {
		return nil
	}

	minX := els[0].Box.Min.X
	for _, el := range els[1:] {
		if el.Box.Min.X < minX {
			minX = el.Box.Min.X
		}
	}

	order := byCenterY(els)
	nodes := make([]TreeNode, len(order))
	for k, i := range order {
		nodes[k] = TreeNode{
			Level: int(math.Round(float64(els[i].Box.Min.X-minX) / float64(indent))),
			Text:  els[i].Content.Text,
		}
	}
	return nodes
}

func byCenterY(els []Element) []int {
	order := make([]int, len(els))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return els[order[a]].Center.Y < els[order[b]].Center.Y
	})
	return order
}
