package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is shared by every package of the service. It is usable before
// NewLoggerService runs so that tests do not need to initialize it.
var Logger = logrus.New()

func NewLoggerService() {
	Logger.SetOutput(os.Stdout)
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	level, err := logrus.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil {
		level = logrus.InfoLevel
	}

	Logger.SetLevel(level)
}

// SetLogLevel overrides the level picked from the environment.
func SetLogLevel(lvl string) {
	if len(lvl) == 0 {
		return
	}

	level, err := logrus.ParseLevel(lvl)
	if err != nil {
		Logger.Warnf("Unknown log level %q, keeping %s", lvl, Logger.GetLevel())
		return
	}

	Logger.SetLevel(level)
}
