package obslog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewWritesConsoleAndFileAtTheirLevels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "fenscene.log")
	var console bytes.Buffer

	opts := DefaultOptions()
	opts.FilePath = path
	logger, closeFn, err := New(opts, zapcore.AddSync(&console))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("debug_only")
	logger.Info("both_sinks")
	_ = logger.Sync()
	if closeFn != nil {
		_ = closeFn()
	}

	if strings.Contains(console.String(), "debug_only") {
		t.Fatalf("console should be INFO: %q", console.String())
	}
	if !strings.Contains(console.String(), " | INFO | ") {
		t.Fatalf("console line should use the legacy separator: %q", console.String())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), "debug_only") || !strings.Contains(string(raw), "both_sinks") {
		t.Fatalf("file log missing entries: %q", raw)
	}
}

func TestNewWithoutSinksIsNop(t *testing.T) {
	logger, closeFn, err := New(Options{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger == nil || closeFn != nil {
		t.Fatalf("expected nop logger without closer")
	}
}

func TestDefaultFilePathUsesExecutableName(t *testing.T) {
	p := DefaultFilePath()
	if !strings.HasSuffix(p, ".log") || strings.Contains(p, string(os.PathSeparator)) {
		t.Fatalf("unexpected default path %q", p)
	}
}
