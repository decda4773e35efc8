package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ironsheep/widget-inventory-mcp/internal/config"
	"github.com/ironsheep/widget-inventory-mcp/internal/detection"
	"github.com/ironsheep/widget-inventory-mcp/internal/imaging"
	"github.com/ironsheep/widget-inventory-mcp/internal/widgets"
)

// Server handles MCP protocol communication
type Server struct {
	cache    *imaging.ImageCache
	config   *config.Config
	pipeline *widgets.Pipeline
	logger   *slog.Logger
	version  string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a server around an existing pipeline. cfg supplies the
// detector settings and the class-name table for per-request label files.
func New(cfg *config.Config, pipeline *widgets.Pipeline, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cache:    imaging.NewImageCache(),
		config:   cfg,
		pipeline: pipeline,
		logger:   logger,
		version:  "dev",
	}
}

// NewFromConfig builds the pipeline described by cfg and wraps it in a
// server. With a remote detector configured, widgets_extract works without
// a labels file.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	opts, err := cfg.Options(logger)
	if err != nil {
		return nil, err
	}

	var top detection.Detector
	if cfg.Detector.Type == "remote" {
		if top, err = cfg.TopDetector(""); err != nil {
			return nil, err
		}
	}

	pipeline, err := widgets.NewPipeline(top, opts)
	if err != nil {
		return nil, err
	}

	return New(cfg, pipeline, logger), nil
}

// SetVersion sets the version reported in the initialize handshake.
func (s *Server) SetVersion(v string) {
	s.version = v
}

// Run serves on stdin and stdout until stdin closes or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", "err", err)
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", "err", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "widget-inventory-mcp",
				"version": s.version,
			},
		},
	}
}
