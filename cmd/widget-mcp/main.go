package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ironsheep/widget-inventory-mcp/internal/config"
	"github.com/ironsheep/widget-inventory-mcp/internal/imaging"
	"github.com/ironsheep/widget-inventory-mcp/internal/ocr"
	"github.com/ironsheep/widget-inventory-mcp/internal/server"
	"github.com/ironsheep/widget-inventory-mcp/internal/widgets"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("widget-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			if info := ocr.NewTesseract("", ocr.Preprocess{}).Info(); info.Available {
				fmt.Printf("  Tesseract:  %s\n", info.Version)
			}
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "extract":
			logger := newLogger()
			if err := runExtract(os.Args[2:], os.Stdout, logger); err != nil {
				logger.Error("extract failed", "err", err)
				os.Exit(1)
			}
			return
		}
	}

	logger := newLogger()
	logger.Debug("widget MCP server starting",
		"version", Version,
		"build_time", BuildTime,
		"commit", GitCommit)

	if err := runServer(logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("widget-mcp - MCP server for GUI widget extraction")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  widget-mcp [options]              Run the MCP server on stdin/stdout")
	fmt.Println("  widget-mcp extract [flags]        Extract the widgets of one screenshot")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Extract flags:")
	fmt.Println("  -config FILE     Configuration file (YAML)")
	fmt.Println("  -image FILE      Screenshot to process")
	fmt.Println("  -labels FILE     Detector label file for the screenshot")
	fmt.Println("  -conf N          Minimum detection confidence")
	fmt.Println("  -annotate FILE   Also write an annotated PNG")
	fmt.Println("  -save-txt FILE   Also write the boxes as a YOLO label file")
	fmt.Println("  -o FILE          Write records to FILE instead of stdout")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  WIDGET_MCP_CONFIG=FILE       Configuration file for server mode")
	fmt.Println("  WIDGET_MCP_LOG_LEVEL=debug   Log level (debug, info, warn, error)")
	fmt.Println()
	fmt.Println("The server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

// newLogger logs to stderr; stdout is for MCP protocol and records.
func newLogger() *slog.Logger {
	var level slog.Level

	switch strings.ToLower(os.Getenv("WIDGET_MCP_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func runServer(logger *slog.Logger) error {
	cfg, err := config.Load(os.Getenv("WIDGET_MCP_CONFIG"))
	if err != nil {
		return err
	}

	srv, err := server.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	srv.SetVersion(Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runExtract(args []string, stdout io.Writer, logger *slog.Logger) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)

	configPath := fs.String("config", os.Getenv("WIDGET_MCP_CONFIG"), "configuration file")
	imagePath := fs.String("image", "", "screenshot to process")
	labels := fs.String("labels", "", "detector label file")
	conf := fs.Float64("conf", -1, "minimum detection confidence")
	annotate := fs.String("annotate", "", "write an annotated PNG to this path")
	saveTxt := fs.String("save-txt", "", "write the boxes as a YOLO label file to this path")
	output := fs.String("o", "", "output file (default stdout)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *imagePath == "" {
		return errors.New("-image is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	opts, err := cfg.Options(logger)
	if err != nil {
		return err
	}

	top, err := cfg.TopDetector(*labels)
	if err != nil {
		return err
	}

	pipeline, err := widgets.NewPipeline(top, opts)
	if err != nil {
		return err
	}

	img, err := imaging.NewImageCache().Load(*imagePath)
	if err != nil {
		return err
	}

	dcfg := cfg.DetectConfig()
	if *conf >= 0 {
		dcfg.Confidence = *conf
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coll, err := pipeline.ProcessImage(ctx, img, dcfg)
	if err != nil {
		return err
	}

	logger.Info("widgets extracted",
		"image", *imagePath,
		"elements", len(coll.Elements),
		"empty_regions", coll.Stats.EmptyRegions,
		"ocr_failures", coll.Stats.OCRFailures,
		"nested_failures", coll.Stats.NestedFailures)

	if *annotate != "" {
		out := imaging.Annotate(img, coll.Annotations(), 2)
		data, err := imaging.Encode(out, imaging.FormatPNG)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*annotate, data, 0644); err != nil {
			return err
		}
	}

	if *saveTxt != "" {
		if err := saveLabels(*saveTxt, coll, cfg.ClassNames()); err != nil {
			return err
		}
	}

	w := stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(coll.Records())
}

func saveLabels(path string, coll *widgets.Collection, names []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := coll.WriteLabels(f, names); err != nil {
		f.Close()
		return fmt.Errorf("failed to write labels: %w", err)
	}
	return f.Close()
}
