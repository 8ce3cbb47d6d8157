// Package logger builds the application's structured logger.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a logrus logger with the specified level. An unknown level
// falls back to info.
func New(level string) *logrus.Logger {
	log := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)

	return log
}
