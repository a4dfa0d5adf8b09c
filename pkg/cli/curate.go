package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/model"
	"github.com/mochisura/marketer/pkg/usecase/curate"
	"github.com/urfave/cli/v3"
)

func curateCommand() *cli.Command {
	var (
		cfg         config
		topic       string
		interactive bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "topic",
			Aliases:     []string{"t"},
			Usage:       "Topic to focus the research on",
			Destination: &topic,
		},
		&cli.BoolFlag{
			Name:        "interactive",
			Aliases:     []string{"i"},
			Usage:       "Read topics from a prompt until exit",
			Destination: &interactive,
		},
	}
	flags = append(flags, geminiFlags(&cfg)...)
	flags = append(flags, archiveFlags(&cfg)...)

	return &cli.Command{
		Name:  "curate",
		Usage: "Research the latest AI news and archive it",
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

			uc := curate.New(gemini, archive, cfg.curateOptions(ctx)...)
			w := c.Root().Writer

			if !interactive {
				return runCuration(ctx, w, uc, topic)
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "topic> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return goerr.Wrap(err, "failed to start prompt")
			}
			defer rl.Close()

			fmt.Fprintln(w, "Enter a topic (empty for general news). Type 'exit' to quit.")
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read topic")
				}

				line = strings.TrimSpace(line)
				if line == "exit" || line == "quit" {
					return nil
				}
				if err := runCuration(ctx, w, uc, line); err != nil {
					fmt.Fprintf(w, "error: %v\n", err)
				}
			}
		},
	}
}

func runCuration(ctx context.Context, w io.Writer, uc *curate.UseCase, topic string) error {
	var result *model.Curation
	err := withSpinner("curating news", func() error {
		var err error
		result, err = uc.Curate(ctx, topic)
		return err
	})
	if err != nil {
		return err
	}

	printCuration(w, result)
	return nil
}

func printCuration(w io.Writer, c *model.Curation) {
	if !c.Structured {
		fmt.Fprintf(w, "(unstructured response from %s)\n%s\n", c.ModelUsed, c.Raw)
		return
	}

	fmt.Fprintf(w, "【Analysis】\n%s\n\n", c.Analysis)
	fmt.Fprintf(w, "【Summary】\n%s\n\n", c.Summary)
	fmt.Fprintf(w, "【Source】\n%s\n\n", c.Source)
	fmt.Fprintf(w, "【Commentary】\n%s\n\n", c.Commentary)

	status := "already archived"
	if c.Archived {
		status = "archived"
	} else if c.Summary == "" {
		status = "not archived (no summary)"
	}
	fmt.Fprintf(w, "model: %s, %s\n", c.ModelUsed, status)
}
