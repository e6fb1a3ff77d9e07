// Package logging builds the prefixed loggers used across the daemon
// and CLI. When a log file is configured, output is teed to a rotated
// file so long-running daemons do not fill the disk.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options control where log output goes.
type Options struct {
	// File, when non-empty, tees output to this path with rotation.
	File string

	// Quiet drops stderr output, keeping only the file (if any).
	Quiet bool
}

// New returns a logger with the given subsystem prefix, e.g. "[daemon] ".
func New(prefix string, opts Options) *log.Logger {
	return log.New(writer(opts), prefix, log.LstdFlags)
}

func writer(opts Options) io.Writer {
	var sinks []io.Writer
	if !opts.Quiet {
		sinks = append(sinks, os.Stderr)
	}
	if opts.File != "" {
		sinks = append(sinks, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	switch len(sinks) {
	case 0:
		return io.Discard
	case 1:
		return sinks[0]
	default:
		return io.MultiWriter(sinks...)
	}
}
