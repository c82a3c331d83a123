package obslog

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Global logger, console + rotating file.
var (
	globalLogger *zap.Logger = zap.NewNop()
	closers      []func() error
)

const (
	// 12.5 MB rounded down, lumberjack counts whole megabytes
	defaultMaxSizeMB  = 12
	defaultMaxBackups = 3
)

// Options controls Init. Zero values fall back to the defaults below.
type Options struct {
	// FilePath of the rotating log; defaults to "<executable>.log".
	FilePath     string
	FileLevel    string
	ConsoleLevel string
	Console      bool
	File         bool
	Format       string
	MaxSizeMB    int
	MaxBackups   int
}

// DefaultOptions logs DEBUG to the file and INFO to the console.
func DefaultOptions() Options {
	return Options{
		FilePath:     DefaultFilePath(),
		FileLevel:    "debug",
		ConsoleLevel: "info",
		Console:      true,
		File:         true,
		Format:       "legacy",
		MaxSizeMB:    defaultMaxSizeMB,
		MaxBackups:   defaultMaxBackups,
	}
}

// L returns the global logger.
func L() *zap.Logger { return globalLogger }

// DefaultFilePath derives the log path from the running binary's name.
func DefaultFilePath() string {
	exe, err := os.Executable()
	if err != nil || strings.TrimSpace(exe) == "" {
		exe = os.Args[0]
	}
	return filepath.Base(exe) + ".log"
}

// Init builds the global logger.
func Init(opts Options) error {
	logger, closeFn, err := New(opts, os.Stdout)
	if err != nil {
		return err
	}
	globalLogger = logger
	if closeFn != nil {
		closers = append(closers, closeFn)
	}
	return nil
}

// New builds a logger without touching the global one. The returned close
// function releases the rotating file, if any.
func New(opts Options, console zapcore.WriteSyncer) (*zap.Logger, func() error, error) {
	def := DefaultOptions()
	if strings.TrimSpace(opts.FilePath) == "" {
		opts.FilePath = def.FilePath
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = def.MaxSizeMB
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = def.MaxBackups
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format != "legacy" && format != "json" && format != "console" {
		format = "legacy"
	}

	var cores []zapcore.Core
	var closeFn func() error

	if opts.Console && console != nil {
		cores = append(cores, zapcore.NewCore(encoderFor(format), console, parseLevel(opts.ConsoleLevel)))
	}

	if opts.File {
		if err := ensureDir(filepath.Dir(opts.FilePath)); err != nil {
			return nil, nil, err
		}
		rotator := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		cores = append(cores, zapcore.NewCore(encoderFor(format), zapcore.AddSync(rotator), parseLevel(opts.FileLevel)))
		closeFn = rotator.Close
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil, nil
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if format == "legacy" {
		logger = logger.WithOptions(zap.AddCaller())
	}
	logger = logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel))
	return logger, closeFn, nil
}

// Sync flushes the global logger and closes the log file.
func Sync() {
	_ = globalLogger.Sync()
	for _, c := range closers {
		_ = c()
	}
	closers = nil
}

func encoderFor(format string) zapcore.Encoder {
	switch format {
	case "json":
		return zapcore.NewJSONEncoder(jsonEncoderConfig())
	case "console":
		return zapcore.NewConsoleEncoder(consoleEncoderConfig(false))
	default:
		return zapcore.NewConsoleEncoder(legacyEncoderConfig())
	}
}

func ensureDir(dir string) error {
	if strings.TrimSpace(dir) == "" || dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "dpanic":
		return zapcore.DPanicLevel
	case "panic":
		return zapcore.PanicLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// "2006-01-02 15:04:05 | INFO | message"
func legacyEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.ConsoleSeparator = " | "
	return cfg
}

func consoleEncoderConfig(color bool) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if color {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return cfg
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return cfg
}
