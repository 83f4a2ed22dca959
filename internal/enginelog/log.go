// Package enginelog builds the engine's zap logger, grounded in the
// teacher's server/log.go: JSON core with ISO8601 timestamps and short
// caller, written either to stdout or to a rotated on-disk log file when a
// log directory is configured.
package enginelog

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options configures where and how the engine log is written.
type Options struct {
	// Dir is the directory the rotated log file lives in. Empty means log
	// to stdout instead.
	Dir string
	// Name is the log file's base name (without extension), and the
	// "engine" field value attached to every entry.
	Name string
	// Verbose enables debug-level logging; otherwise only info and above.
	Verbose bool
	// MaxSizeMB is the rotation threshold lumberjack rolls the file at.
	MaxSizeMB int
	// MaxBackups caps how many rotated files are retained.
	MaxBackups int
}

type levelEnabler struct {
	verbose bool
}

func (l *levelEnabler) Enabled(level zapcore.Level) bool {
	return l.verbose || level > zapcore.DebugLevel
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// New returns a configured logger, writing JSON to stdout or to a
// lumberjack-rotated file under opts.Dir, per spec.md §6.2.
func New(opts Options) (*zap.Logger, error) {
	enabler := &levelEnabler{verbose: opts.Verbose}
	encoder := zapcore.NewJSONEncoder(encoderConfig())

	var sink zapcore.WriteSyncer
	if opts.Dir == "" {
		sink = zapcore.AddSync(os.Stdout)
	} else {
		if err := os.MkdirAll(filepath.FromSlash(opts.Dir), 0o755); err != nil {
			return nil, err
		}
		maxSize := opts.MaxSizeMB
		if maxSize == 0 {
			maxSize = 100
		}
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, opts.Name+".log"),
			MaxSize:    maxSize,
			MaxBackups: opts.MaxBackups,
		})
	}

	core := zapcore.NewCore(encoder, sink, enabler)
	logger := zap.New(core, zap.AddStacktrace(zap.ErrorLevel))
	return logger.With(zap.String("engine", opts.Name)), nil
}

// NewConsole returns a human-readable console logger, for CLI tools that
// want colored level output instead of JSON, per the teacher's
// NewConsoleLogger.
func NewConsole(verbose bool) *zap.Logger {
	cfg := encoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoder := zapcore.NewConsoleEncoder(cfg)
	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), &levelEnabler{verbose: verbose})
	return zap.New(core, zap.AddStacktrace(zap.ErrorLevel))
}
