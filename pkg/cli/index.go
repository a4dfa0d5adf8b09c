package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/service/article"
	"github.com/mochisura/marketer/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func indexCommand() *cli.Command {
	var (
		cfg    config
		output string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Path of the search index (default: search-index.json next to the articles directory)",
			Destination: &output,
		},
	}
	flags = append(flags, articleFlags(&cfg)...)

	return &cli.Command{
		Name:  "index",
		Usage: "Build the blog search index from the articles directory",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			dir := cfg.articlesDirectory(ctx)
			if output == "" {
				output = filepath.Join(filepath.Dir(filepath.Clean(dir)), "search-index.json")
			}

			entries, err := article.BuildIndex(ctx, dir)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			enc := json.NewEncoder(&buf)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			if err := enc.Encode(entries); err != nil {
				return goerr.Wrap(err, "failed to encode search index")
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil { // #nosec G306 -- published with the blog
				return goerr.Wrap(err, "failed to write search index", goerr.V("path", output))
			}

			logging.From(ctx).Info("search index generated", "path", output, "articles", len(entries))
			fmt.Fprintf(c.Root().Writer, "%d articles indexed: %s\n", len(entries), output)
			return nil
		},
	}
}
