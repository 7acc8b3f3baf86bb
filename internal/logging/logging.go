// Package logging configures the process logger.
package logging

import (
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger: JSON output in production,
// text otherwise. An unknown level falls back to info.
func Setup(level, environment string, out io.Writer) *log.Entry {
	logger := log.StandardLogger()
	if out != nil {
		logger.SetOutput(out)
	}

	if strings.EqualFold(environment, "production") {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	logger.SetLevel(parsed)

	entry := log.WithField("service", "vivid-bms")
	if err != nil && level != "" {
		entry.WithField("level", level).Warn("unknown log level, using info")
	}
	return entry
}
