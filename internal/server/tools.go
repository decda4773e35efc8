package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the screenshot",
	}
}

func boxProperties(props map[string]interface{}) map[string]interface{} {
	props["x1"] = map[string]interface{}{"type": "integer", "description": "Left edge X coordinate (0-based)"}
	props["y1"] = map[string]interface{}{"type": "integer", "description": "Top edge Y coordinate (0-based)"}
	props["x2"] = map[string]interface{}{"type": "integer", "description": "Right edge X coordinate (exclusive)"}
	props["y2"] = map[string]interface{}{"type": "integer", "description": "Bottom edge Y coordinate (exclusive)"}
	return props
}

func detectProperties(props map[string]interface{}) map[string]interface{} {
	props["labels"] = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the detector's YOLO label file for this screenshot. Required unless a remote detector is configured.",
	}
	props["confidence"] = map[string]interface{}{
		"type":        "number",
		"description": "Optional minimum detection confidence (0-1). Defaults to the configured value.",
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Screenshot Information
		{
			Name:        "image_load",
			Description: "Load a screenshot and return its dimensions and format. The image stays cached for subsequent calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of a screenshot.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region from a screenshot and return it as base64-encoded PNG. The region is clamped to the image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": boxProperties(map[string]interface{}{
					"path": pathProperty(),
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				}),
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},

		// OCR
		{
			Name:        "ocr_region",
			Description: "Read the text inside one widget box with the configured OCR engine. Fragments are joined without separators.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": boxProperties(map[string]interface{}{
					"path": pathProperty(),
				}),
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},

		// Widget Inventory
		{
			Name:        "widgets_classes",
			Description: "List the widget classes the extractor knows, with their class index, extraction strategy (ignore, ocr, nested) and nested pass, plus the configured sub-detectors.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "widgets_extract",
			Description: "Build the widget inventory of a screenshot: one record per detected widget with class, center, size and content. Text widgets carry their OCR text, tree and table views a nested result.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": detectProperties(map[string]interface{}{
					"path": pathProperty(),
					"labels_out": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to write the detected boxes to as a YOLO label file, one line per top-level widget.",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "widgets_annotate",
			Description: "Detect and extract widgets like widgets_extract and return the screenshot with a class-colored box and label drawn for every widget, nested ones included.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": detectProperties(map[string]interface{}{
					"path": pathProperty(),
					"thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Box outline thickness in pixels (default 2)",
						"default":     2,
					},
				}),
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
