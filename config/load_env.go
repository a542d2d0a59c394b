package config

import (
	"log/slog"
	"path/filepath"

	"github.com/subosito/gotenv"
)

const ENV_DIR = "config/envs"

// LoadEnv reads config/envs/.env.<env> into the process environment.
// Variables already set in the environment win.
func LoadEnv(env string) bool {
	return LoadEnvFile(filepath.Join(ENV_DIR, ".env."+env))
}

func LoadEnvFile(path string) bool {
	if err := gotenv.Load(path); err != nil {
		slog.Warn("[Config] No .env file found, using OS environment", slog.String("path", path))
		return false
	}
	slog.Info("[Config] Loaded env file", slog.String("path", path))
	return true
}
