package config

import (
	"fmt"
	"log/slog"
)

// Supported log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func validateLogLevel(level string) error {
	if _, ok := logLevels[level]; !ok {
		return fmt.Errorf("unsupported log level '%s': supported levels are debug, info, warn, error", level)
	}
	return nil
}

func validateLogFormat(format string) error {
	if format != LogFormatText && format != LogFormatJSON {
		return fmt.Errorf("unsupported log format '%s': supported formats are text, json", format)
	}
	return nil
}

// Level returns the slog level for the configured log level, defaulting to
// info.
func (c *Config) Level() slog.Level {
	if level, ok := logLevels[c.LogLevel]; ok {
		return level
	}
	return slog.LevelInfo
}
