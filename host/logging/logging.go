// Package logging points the standard logger at stderr and, when configured,
// a size-rotated log file
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"orangebot/host/config"
)

// Setup configures the standard logger and returns the writer it uses. The
// returned closer releases the log file; it is a no-op without one.
func Setup(cfg config.LogConfig, prefix string) (io.Writer, io.Closer) {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetPrefix(prefix)

	if cfg.File == "" {
		log.SetOutput(os.Stderr)
		return os.Stderr, nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	w := io.MultiWriter(os.Stderr, file)
	log.SetOutput(w)
	return w, file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
