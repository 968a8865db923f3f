package config

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Logging sets the logrus level and output. The --debug flag takes precedence over log.level.
func Logging(conf LogConfig, debug bool) error {
	level, err := log.ParseLevel(conf.Level)
	if err != nil {
		return fmt.Errorf("invalid log level '%v' (%w)", conf.Level, err)
	}

	if debug {
		level = log.DebugLevel
	}

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	log.SetLevel(level)

	if conf.File != "" {
		if err := os.MkdirAll(filepath.Dir(conf.File), 0755); err != nil {
			return fmt.Errorf("unable to create log folder (%w)", err)
		}

		file, err := os.OpenFile(conf.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file (%w)", err)
		}

		log.SetOutput(file)
	}

	return nil
}
