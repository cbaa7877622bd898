// Package logging sets up the global zerolog logger.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// LogFile is the rotating log file name inside the log directory.
const LogFile = "rahash.log"

// Init routes the global logger to a rotating file in dir and to console,
// if non-nil. level is a zerolog level name; unknown names mean info.
func Init(dir, level string, console io.Writer) error {
	var writers []io.Writer
	if dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(dir, LogFile),
			MaxSize:    1,
			MaxBackups: 2,
		})
	}
	if console != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05"})
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	log.Logger = log.Output(io.MultiWriter(writers...)).
		With().Timestamp().Logger()
	return nil
}
