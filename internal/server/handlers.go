package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"sort"

	"github.com/ironsheep/widget-inventory-mcp/internal/detection"
	"github.com/ironsheep/widget-inventory-mcp/internal/imaging"
	"github.com/ironsheep/widget-inventory-mcp/internal/widgets"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "widgets_extract").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "err", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Screenshot Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_crop":
		return s.handleImageCrop(args)

	// OCR
	case "ocr_region":
		return s.handleOCRRegion(ctx, args)

	// Widget Inventory
	case "widgets_classes":
		return s.handleWidgetsClasses()
	case "widgets_extract":
		return s.handleWidgetsExtract(ctx, args)
	case "widgets_annotate":
		return s.handleWidgetsAnnotate(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Screenshot Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("image loaded", "path", a.Path, "cached", s.cache.Len())
	return info, nil
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageCropArgs struct {
	Path  string  `json:"path"`
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
	Scale float64 `json:"scale"`
}

func (a imageCropArgs) box() image.Rectangle {
	return image.Rect(a.X1, a.Y1, a.X2, a.Y2)
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, a.X1, a.Y1, a.X2, a.Y2, a.Scale)
}

// === OCR Handlers ===

// OCRRegionResult is the text read from one box.
type OCRRegionResult struct {
	Box  [4]int `json:"box"`
	Text string `json:"text"`
}

func (s *Server) handleOCRRegion(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	text, err := s.pipeline.Assembler().Text().Extract(ctx, img, a.box())
	if err != nil {
		return nil, err
	}
	return &OCRRegionResult{
		Box:  [4]int{a.X1, a.Y1, a.X2, a.Y2},
		Text: text,
	}, nil
}

// === Widget Inventory Handlers ===

// ClassInfo describes one routed widget class.
type ClassInfo struct {
	Name     string              `json:"name"`
	Index    int                 `json:"index"`
	Strategy string              `json:"strategy"`
	Nested   *widgets.NestedSpec `json:"nested,omitempty"`
}

// ClassesResult lists the routing table in class-index order and the
// names of the configured sub-detectors.
type ClassesResult struct {
	Classes   []ClassInfo `json:"classes"`
	Colors    []string    `json:"colors"`
	Detectors []string    `json:"detectors"`
}

func (s *Server) handleWidgetsClasses() (interface{}, error) {
	router := s.pipeline.Assembler().Router()

	names := router.Classes()
	classes := make([]ClassInfo, len(names))
	for i, name := range names {
		route, err := router.Route(name)
		if err != nil {
			return nil, err
		}
		classes[i] = ClassInfo{
			Name:     name,
			Index:    i,
			Strategy: route.Strategy.String(),
			Nested:   route.Nested,
		}
	}

	registry, err := s.config.Registry()
	if err != nil {
		return nil, err
	}
	detectors := registry.Names()
	sort.Strings(detectors)

	return &ClassesResult{
		Classes:   classes,
		Colors:    imaging.Palette(len(names)),
		Detectors: detectors,
	}, nil
}

type widgetsArgs struct {
	Path       string   `json:"path"`
	Labels     string   `json:"labels"`
	LabelsOut  string   `json:"labels_out"`
	Confidence *float64 `json:"confidence"`
	Thickness  int      `json:"thickness"`
}

// ExtractResult is the widget inventory of one screenshot.
type ExtractResult struct {
	Width    int              `json:"width"`
	Height   int              `json:"height"`
	Elements []widgets.Record `json:"elements"`
	Stats    widgets.Stats    `json:"stats"`

	// LabelsOut is the label file written for the call, if one was asked for.
	LabelsOut string `json:"labels_out,omitempty"`
}

func (s *Server) handleWidgetsExtract(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a widgetsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	_, coll, err := s.process(ctx, a)
	if err != nil {
		return nil, err
	}

	if a.LabelsOut != "" {
		if err := s.saveLabels(a.LabelsOut, coll); err != nil {
			return nil, err
		}
	}

	return &ExtractResult{
		Width:     coll.Width,
		Height:    coll.Height,
		Elements:  coll.Records(),
		Stats:     coll.Stats,
		LabelsOut: a.LabelsOut,
	}, nil
}

// saveLabels writes the top-level boxes of coll as a label file that
// widgets_extract can read back through its labels argument.
func (s *Server) saveLabels(path string, coll *widgets.Collection) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create labels: %w", err)
	}

	if err := coll.WriteLabels(f, s.config.ClassNames()); err != nil {
		f.Close()
		return fmt.Errorf("failed to write labels: %w", err)
	}
	return f.Close()
}

func (s *Server) handleWidgetsAnnotate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a widgetsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Thickness <= 0 {
		a.Thickness = 2
	}

	img, coll, err := s.process(ctx, a)
	if err != nil {
		return nil, err
	}

	return imaging.AnnotatePNG(img, coll.Annotations(), a.Thickness)
}

// process runs the pipeline on a.Path. A labels file selects the offline
// detector for this call; otherwise the configured detector is used.
func (s *Server) process(ctx context.Context, a widgetsArgs) (image.Image, *widgets.Collection, error) {
	if a.Path == "" {
		return nil, nil, errors.New("path is required")
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, nil, err
	}

	pipeline := s.pipeline
	if a.Labels != "" {
		pipeline = pipeline.WithDetector(detection.NewLabelFile(a.Labels, s.config.ClassNames()))
	}

	cfg := s.config.DetectConfig()
	if a.Confidence != nil {
		cfg.Confidence = *a.Confidence
	}

	coll, err := pipeline.ProcessImage(ctx, img, cfg)
	if err != nil {
		return nil, nil, err
	}
	return img, coll, nil
}
