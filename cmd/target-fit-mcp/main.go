package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ironsheep/target-fit-mcp/internal/fit"
	"github.com/ironsheep/target-fit-mcp/internal/imaging"
	"github.com/ironsheep/target-fit-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("target-fit-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage(os.Stdout)
			return
		case "fit":
			os.Exit(runFit(os.Args[2:], os.Stdout, os.Stderr))
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := loadConfig(os.Getenv("TARGET_FIT_CONFIG"))
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if os.Getenv("TARGET_FIT_LOG_LEVEL") == "debug" {
		cfg.Logger = log.Default()
		log.Printf("Target Fit MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "target-fit-mcp - MCP server that locates a calibration target in photos")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: target-fit-mcp [options]")
	fmt.Fprintln(w, "       target-fit-mcp fit [-config file] [-overlay out] [-crop out] [-rectify out] image")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables (also read from .env):")
	fmt.Fprintln(w, "  TARGET_FIT_CONFIG=path        YAML fit configuration")
	fmt.Fprintln(w, "  TARGET_FIT_LOG_LEVEL=debug    Enable debug logging")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Without a subcommand the server communicates via MCP protocol over stdin/stdout.")
}

// loadConfig returns the defaults when path is empty.
func loadConfig(path string) (fit.Config, error) {
	if path == "" {
		return fit.DefaultConfig(), nil
	}
	return fit.LoadConfig(path)
}

type fitSummary struct {
	Pose       []float64 `json:"pose"`
	Cost       float64   `json:"cost"`
	Iterations int       `json:"iterations"`
	Status     string    `json:"status"`
	Overlay    string    `json:"overlay,omitempty"`
	Crop       string    `json:"crop,omitempty"`
	Rectified  string    `json:"rectified,omitempty"`
}

// runFit locates the target in one photo and prints the result as JSON.
// It returns the process exit code.
func runFit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("TARGET_FIT_CONFIG"), "YAML fit configuration")
	overlayPath := fs.String("overlay", "", "write the photo with the located target drawn on it")
	cropPath := fs.String("crop", "", "write a square crop around the target")
	rectifyPath := fs.String("rectify", "", "write the target face viewed head on")
	verbose := fs.Bool("v", false, "log progress to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "fit: exactly one image path required")
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "fit: %v\n", err)
		return 1
	}
	if *verbose {
		cfg.Logger = log.New(stderr, "", log.Ltime)
	}

	img, err := imaging.NewImageCache().Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "fit: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := fit.Fit(ctx, img, cfg)
	if err != nil && res == nil {
		fmt.Fprintf(stderr, "fit: %v\n", err)
		return 1
	}
	// a canceled search still reports its best pose
	code := 0
	if err != nil {
		fmt.Fprintf(stderr, "fit: %v\n", err)
		code = 1
	}

	summary := fitSummary{
		Pose:       res.Pose.Vector(),
		Cost:       res.Cost,
		Iterations: res.Iterations,
		Status:     res.Status.String(),
	}

	if *overlayPath != "" {
		out, err := fit.Overlay(img, res, "")
		if err == nil {
			err = imaging.Save(out, *overlayPath, imaging.DefaultJPEGQuality)
		}
		if err != nil {
			fmt.Fprintf(stderr, "fit: overlay: %v\n", err)
			code = 1
		} else {
			summary.Overlay = *overlayPath
		}
	}
	if *cropPath != "" {
		out, err := fit.Crop(img, res, 0.1, 0)
		if err == nil {
			err = imaging.Save(out, *cropPath, imaging.DefaultJPEGQuality)
		}
		if err != nil {
			fmt.Fprintf(stderr, "fit: crop: %v\n", err)
			code = 1
		} else {
			summary.Crop = *cropPath
		}
	}
	if *rectifyPath != "" {
		out, err := fit.Rectify(img, res, fit.DefaultRectifiedSize)
		if err == nil {
			err = imaging.Save(out, *rectifyPath, imaging.DefaultJPEGQuality)
		}
		if err != nil {
			fmt.Fprintf(stderr, "fit: rectify: %v\n", err)
			code = 1
		} else {
			summary.Rectified = *rectifyPath
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		fmt.Fprintf(stderr, "fit: %v\n", err)
		return 1
	}
	return code
}
