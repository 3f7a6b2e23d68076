package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger = slog.Default()

// Options controls where and how verbosely the run logs.
type Options struct {
	Debug bool
	// File, when set, receives a copy of every record (rotated by size).
	File string
}

// Init builds the run logger, tags it with a fresh run_id and installs it as
// the slog default. The returned closer flushes the log file, if any.
func Init(opts Options) io.Closer {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	Logger = slog.New(handler).With("run_id", uuid.NewString())
	slog.SetDefault(Logger)
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
