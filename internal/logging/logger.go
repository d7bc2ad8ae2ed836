package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// InitLogger builds the service logger. Unknown levels fall back to info;
// format "json" selects the JSON formatter, anything else the text formatter.
func InitLogger(level, format string) *logrus.Logger {
	log := logrus.New()

	if level == "" {
		level = "info"
	}

	if parsed, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		log.SetLevel(parsed)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", level).Warn("Invalid LOG_LEVEL, using INFO")
	}

	if strings.ToLower(format) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	log.SetOutput(os.Stdout)
	return log
}

// Component returns an entry tagged with the component name
func Component(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField("component", name)
}

// Nop returns an entry that discards everything
func Nop() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}
