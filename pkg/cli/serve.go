package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/mochisura/marketer/pkg/server"
	"github.com/mochisura/marketer/pkg/service/mcp"
	"github.com/mochisura/marketer/pkg/usecase/curate"
	"github.com/mochisura/marketer/pkg/usecase/promote"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg     config
		addr    string
		withMCP bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Value:       "127.0.0.1:5001",
			Sources:     cli.EnvVars("MARKETER_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "mcp",
			Usage:       "Also serve MCP tools over streamable HTTP at /mcp",
			Destination: &withMCP,
		},
	}
	flags = append(flags, geminiFlags(&cfg)...)
	flags = append(flags, archiveFlags(&cfg)...)
	flags = append(flags, articleFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the marketing dashboard",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}
			archive, closer, err := cfg.newArchive(ctx)
			if err != nil {
				return err
			}
			defer closer()

			cache := cfg.newAnalysisCache(ctx)
			curator := curate.New(gemini, archive, cfg.curateOptions(ctx)...)
			dashboard := server.New(
				cfg.articlesDirectory(ctx),
				cache,
				promote.New(gemini, cache, cfg.promoteOptions(ctx)...),
				curator,
			)

			if !withMCP {
				return dashboard.Serve(ctx, addr)
			}

			mcpServer, err := mcp.NewServer(curator, version)
			if err != nil {
				return err
			}
			r := chi.NewRouter()
			r.Handle("/mcp", mcpServer.HTTPHandler())
			r.Mount("/", dashboard)
			return server.ServeHandler(ctx, addr, r)
		},
	}
}
