package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	File   string // append to this file instead of stderr

	// Quiet drops stderr output. Used while the terminal UI owns the
	// screen; a configured File still receives logs.
	Quiet bool
}

// New builds the process-wide logger. The returned func flushes buffered
// entries and closes the log file, if any.
func New(opts Options) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(strings.ToLower(orDefault(opts.Level, "info")))
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(orDefault(opts.Format, "console")) {
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	var (
		sink    zapcore.WriteSyncer
		closeFn = func() {}
	)
	switch {
	case opts.File != "":
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		sink = zapcore.AddSync(f)
		closeFn = func() { _ = f.Close() }
	case opts.Quiet:
		return zap.NewNop(), func() {}, nil
	default:
		sink = zapcore.Lock(os.Stderr)
	}

	logger := zap.New(zapcore.NewCore(enc, sink, level))
	return logger, func() {
		_ = logger.Sync()
		closeFn()
	}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
