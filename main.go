package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/mochisura/marketer/pkg/cli"
	"github.com/mochisura/marketer/pkg/utils/logging"
)

func main() {
	ctx := context.Background()

	// .env is optional; real environment variables take precedence
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.Default().Warn("failed to load .env", "error", err)
	}

	if err := cli.Run(ctx, os.Args); err != nil {
		os.Exit(err.Code)
	}
}
