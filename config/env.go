package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// LoadEnv adds the variables in the .env files to the environment. Variables already set are not
// overridden and missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if err := godotenv.Load(file); errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return err
		}

		log.Debugf("loaded environment from %v", file)
	}

	return nil
}
