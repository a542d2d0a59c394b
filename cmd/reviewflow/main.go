package main

import (
	"os"

	"github.com/spacesedan/reviewflow/config"
	"github.com/spacesedan/reviewflow/internal/cli"
)

var version = "dev"

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	// go-flags has already printed the error.
	if err := cli.Run(version); err != nil {
		os.Exit(1)
	}
}
