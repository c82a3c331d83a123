package config

import (
	"flag"
	"testing"
	"time"

	"github.com/kraktus/fen-manim/internal/position"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FENSCENE_FEN", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FEN != position.DefaultFEN {
		t.Fatalf("FEN = %q", cfg.FEN)
	}
	if cfg.Format != "yaml" || cfg.OutputDir != "." || cfg.PNGSize != 400 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DriverTimeout != 10*time.Second || cfg.CacheTTL != 24*time.Hour {
		t.Fatalf("unexpected durations: %v %v", cfg.DriverTimeout, cfg.CacheTTL)
	}
}

func TestParseFlagsOverridesEnv(t *testing.T) {
	t.Setenv("FENSCENE_SCENE", "ranks")
	t.Setenv("FENSCENE_FORMAT", "yaml")
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseFlags(fs, []string{"-scene", "DOTS", "-format", "json", "-out", "build"})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if cfg.Scene != "dots" || cfg.Format != "json" || cfg.OutputDir != "build" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
}

func TestValidateRejectsUnknownFormat(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	if _, err := ParseFlags(fs, []string{"-format", "toml"}); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestValidateDriverMode(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	if _, err := ParseFlags(fs, []string{"-driver", "http://localhost:9000", "-driver-mode", "ws"}); err == nil {
		t.Fatalf("expected error for ws mode without ws url")
	}
}
