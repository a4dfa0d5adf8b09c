package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/model"
	"github.com/mochisura/marketer/pkg/usecase/promote"
	"github.com/urfave/cli/v3"
)

func promoteCommand() *cli.Command {
	var (
		cfg     config
		noCache bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "no-cache",
			Usage:       "Do not store the patterns in the analysis cache",
			Destination: &noCache,
		},
	}
	flags = append(flags, geminiFlags(&cfg)...)
	flags = append(flags, articleFlags(&cfg)...)

	return &cli.Command{
		Name:      "promote",
		Usage:     "Generate three promotional patterns for an HTML article",
		ArgsUsage: "<article.html>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return goerr.New("exactly one article path is required")
			}
			path := c.Args().First()

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}
			uc := promote.New(gemini, cfg.newAnalysisCache(ctx), cfg.promoteOptions(ctx)...)

			var promo *model.Promotion
			err = withSpinner("analyzing "+path, func() error {
				var err error
				if noCache {
					promo, err = uc.Generate(ctx, path)
				} else {
					promo, err = uc.Analyze(ctx, path)
				}
				return err
			})
			if err != nil {
				return goerr.Wrap(err, "failed to generate promotion", goerr.V("path", path))
			}

			w := c.Root().Writer
			if !promo.Structured {
				fmt.Fprintf(w, "(unstructured response from %s)\n%s\n", promo.ModelUsed, promo.Raw)
				return nil
			}
			for i, p := range promo.Patterns {
				fmt.Fprintf(w, "--- パターン%d ---\n%s\n\n", i+1, p)
			}
			fmt.Fprintf(w, "model: %s\n", promo.ModelUsed)
			return nil
		},
	}
}

func batchCommand() *cli.Command {
	var cfg config

	flags := append(geminiFlags(&cfg), articleFlags(&cfg)...)

	return &cli.Command{
		Name:  "batch",
		Usage: "Analyze every HTML article in the articles directory",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}
			uc := promote.New(gemini, cfg.newAnalysisCache(ctx), cfg.promoteOptions(ctx)...)

			report, err := uc.AnalyzeAll(ctx, cfg.articlesDirectory(ctx))
			if report != nil {
				fmt.Fprintf(c.Root().Writer, "total: %d, succeeded: %d, unstructured: %d, failed: %d\n",
					report.Total, report.Succeeded, report.Unstructured, len(report.Failed))
				for name, ferr := range report.Failed {
					fmt.Fprintf(c.Root().Writer, "  failed: %s: %v\n", name, ferr)
				}
			}
			return err
		},
	}
}
