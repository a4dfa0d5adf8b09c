package cli

import (
	"context"

	"github.com/mochisura/marketer/pkg/service/mcp"
	"github.com/mochisura/marketer/pkg/usecase/curate"
	"github.com/urfave/cli/v3"
)

func mcpCommand() *cli.Command {
	var cfg config

	flags := append(geminiFlags(&cfg), archiveFlags(&cfg)...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve archive tools to MCP clients over stdio",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}
			archive, closer, err := cfg.newArchive(ctx)
			if err != nil {
				return err
			}
			defer closer()

			srv, err := mcp.NewServer(curate.New(gemini, archive, cfg.curateOptions(ctx)...), version)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
}
