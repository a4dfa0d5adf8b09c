package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func modelsCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "models",
		Usage: "List models that support content generation",
		Flags: geminiFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			models, err := gemini.ListModels(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list models")
			}

			for _, m := range models {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\n", strings.TrimPrefix(m.Name, "models/"), m.DisplayName)
			}
			return nil
		},
	}
}
