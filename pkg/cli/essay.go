package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/usecase/essay"
	"github.com/urfave/cli/v3"
)

func essayCommand() *cli.Command {
	var (
		cfg          config
		input        essay.Input
		round        int64
		noPhilosophy bool
		output       string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "era",
			Usage:       "Era or topic of the article",
			Destination: &input.Era,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "keywords",
			Aliases:     []string{"k"},
			Usage:       "Keywords to cover",
			Destination: &input.Keywords,
		},
		&cli.BoolFlag{
			Name:        "no-philosophy",
			Usage:       "Do not focus on the philosophers of the era",
			Destination: &noPhilosophy,
		},
		&cli.IntFlag{
			Name:        "round",
			Usage:       "Monthly session number",
			Destination: &round,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Write the HTML to this file instead of stdout",
			Destination: &output,
		},
	}
	flags = append(flags, geminiFlags(&cfg)...)

	return &cli.Command{
		Name:  "essay",
		Usage: "Generate a long-form history article as HTML",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			var opts []essay.Option
			if cfg.model != "" {
				opts = append(opts, essay.WithModel(cfg.model))
			}

			input.Philosophy = !noPhilosophy
			input.Round = int(round)

			var html string
			err = withSpinner("writing about "+input.Era, func() error {
				var err error
				html, err = essay.New(gemini, opts...).Generate(ctx, input)
				return err
			})
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Fprintln(c.Root().Writer, html)
				return nil
			}
			if err := os.WriteFile(output, []byte(html), 0o644); err != nil { // #nosec G306 -- published HTML
				return goerr.Wrap(err, "failed to write essay", goerr.V("path", output))
			}
			fmt.Fprintf(c.Root().Writer, "written to %s\n", output)
			return nil
		},
	}
}
