package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"susu-app-go/pkg/logger"
)

// loadDotEnv applies DOTENV_PATH, or the nearest .env found walking up from
// the working directory. Variables already in the environment win.
func loadDotEnv(log logger.Logger) error {
	path, explicit := os.LookupEnv("DOTENV_PATH")
	if !explicit || path == "" {
		found, err := nearestDotEnv()
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		path = found
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Info("config: applied dotenv", "path", path)
	return nil
}

func nearestDotEnv() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, ".env")
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fs.ErrNotExist
		}
		dir = parent
	}
}
