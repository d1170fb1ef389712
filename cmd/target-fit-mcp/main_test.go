package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/target-fit-mcp/internal/fit"
)

func TestRunFit_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := runFit(nil, &stdout, &stderr); code != 2 {
		t.Errorf("exit code: got %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "image path required") {
		t.Errorf("stderr: %q", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("unexpected stdout: %q", stdout.String())
	}
}

func TestRunFit_MissingImage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "missing.png")
	if code := runFit([]string{path}, &stdout, &stderr); code != 1 {
		t.Errorf("exit code: got %d, want 1", code)
	}
	if stdout.Len() != 0 {
		t.Errorf("unexpected stdout: %q", stdout.String())
	}
}

func TestRunFit_BadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "fit.yaml")
	if err := os.WriteFile(cfgPath, []byte("tolerance: [oops\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var stdout, stderr bytes.Buffer
	code := runFit([]string{"-config", cfgPath, filepath.Join(dir, "photo.png")}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("exit code: got %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "config") {
		t.Errorf("stderr should mention the config: %q", stderr.String())
	}
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	want := fit.DefaultConfig()
	if cfg.MaxIterations != want.MaxIterations || cfg.Tolerance != want.Tolerance {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	for _, want := range []string{"TARGET_FIT_CONFIG", "TARGET_FIT_LOG_LEVEL", "fit "} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("usage missing %q", want)
		}
	}
}
