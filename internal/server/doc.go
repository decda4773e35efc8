// Package server implements the MCP (Model Context Protocol) server for
// GUI widget extraction.
//
// This package provides a JSON-RPC 2.0 server that exposes the widget
// pipeline through the MCP protocol, so that an assistant can turn a
// screenshot into a structured inventory of the widgets on it.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Screenshot Information:
//   - image_load: Load a screenshot and get metadata
//   - image_dimensions: Get width and height
//   - image_crop: Extract a rectangular region
//
// OCR:
//   - ocr_region: Read the text of one widget box
//
// Widget Inventory:
//   - widgets_classes: The class table with strategies and nested passes
//   - widgets_extract: Detect, route and extract every widget
//   - widgets_annotate: The same, drawn onto the screenshot
//
// widgets_extract and widgets_annotate take the detector's YOLO label file
// for the screenshot. When the configuration selects a remote detector the
// label file may be omitted.
//
// # Image Caching
//
// Screenshots are cached by path and reused across tool calls for the
// lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// Per-widget failures (an OCR timeout, a failing sub-detector) are not tool
// errors. They leave that widget's content empty and are counted in the
// result's stats.
package server
