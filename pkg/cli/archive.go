package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mochisura/marketer/pkg/model"
	"github.com/mochisura/marketer/pkg/usecase/curate"
	"github.com/urfave/cli/v3"
)

func archiveCommand() *cli.Command {
	return &cli.Command{
		Name:  "archive",
		Usage: "Manage the news archive",
		Commands: []*cli.Command{
			archiveListCommand(),
			archiveSaveCommand(),
			archiveBackupCommand(),
			archiveRestoreCommand(),
		},
	}
}

func archiveListCommand() *cli.Command {
	var (
		cfg    config
		limit  int64
		asJSON bool
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Show only the most recent N records (0 for all)",
			Destination: &limit,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print records as JSON",
			Destination: &asJSON,
		},
	}
	flags = append(flags, archiveFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List archived records, oldest first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			archive, closer, err := cfg.newArchive(ctx)
			if err != nil {
				return err
			}
			defer closer()

			records, err := curate.New(nil, archive).History(ctx)
			if err != nil {
				return err
			}
			if limit > 0 && int64(len(records)) > limit {
				records = records[int64(len(records))-limit:]
			}

			w := c.Root().Writer
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				if records == nil {
					records = []*model.Record{}
				}
				return enc.Encode(records)
			}

			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Timestamp, model.DedupKey(r.Summary, model.DefaultPrefixLength), r.Source)
			}
			return nil
		},
	}
}

func archiveSaveCommand() *cli.Command {
	var (
		cfg   config
		input string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to a JSON record (analysis, summary, source, commentary)",
			Destination: &input,
			Required:    true,
		},
	}
	flags = append(flags, archiveFlags(&cfg)...)

	return &cli.Command{
		Name:  "save",
		Usage: "Save a record unless the same news is already archived",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			// #nosec G304 -- input is given by the user
			data, err := os.ReadFile(input)
			if err != nil {
				return goerr.Wrap(err, "failed to read record", goerr.V("path", input))
			}
			var record model.Record
			if err := json.Unmarshal(data, &record); err != nil {
				return goerr.Wrap(err, "failed to parse record", goerr.V("path", input))
			}

			archive, closer, err := cfg.newArchive(ctx)
			if err != nil {
				return err
			}
			defer closer()

			added, err := curate.New(nil, archive).Save(ctx, &record)
			if err != nil {
				return err
			}

			if added {
				fmt.Fprintf(c.Root().Writer, "saved at %s\n", record.Timestamp)
			} else {
				fmt.Fprintln(c.Root().Writer, "already exists")
			}
			return nil
		},
	}
}

func archiveBackupCommand() *cli.Command {
	var (
		cfg    config
		bucket string
		key    string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for snapshots",
			Sources:     cli.EnvVars("MARKETER_BACKUP_BUCKET"),
			Destination: &bucket,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "key",
			Usage:       "Object key (default: archives/news_archive-<timestamp>.json)",
			Destination: &key,
		},
	}
	flags = append(flags, archiveFlags(&cfg)...)

	return &cli.Command{
		Name:  "backup",
		Usage: "Upload an archive snapshot to Cloud Storage",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			storage, err := cfg.newStorage(ctx, bucket)
			if err != nil {
				return err
			}
			archive, closer, err := cfg.newArchive(ctx)
			if err != nil {
				return err
			}
			defer closer()

			written, n, err := curate.New(nil, archive).Backup(ctx, storage, key)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "backed up %d records to gs://%s/%s\n", n, bucket, written)
			return nil
		},
	}
}

func archiveRestoreCommand() *cli.Command {
	var (
		cfg    config
		bucket string
		key    string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket of the snapshot",
			Sources:     cli.EnvVars("MARKETER_BACKUP_BUCKET"),
			Destination: &bucket,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "key",
			Usage:       "Object key of the snapshot",
			Destination: &key,
			Required:    true,
		},
	}
	flags = append(flags, archiveFlags(&cfg)...)

	return &cli.Command{
		Name:  "restore",
		Usage: "Append records from a Cloud Storage snapshot that are not archived yet",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			storage, err := cfg.newStorage(ctx, bucket)
			if err != nil {
				return err
			}
			archive, closer, err := cfg.newArchive(ctx)
			if err != nil {
				return err
			}
			defer closer()

			added, err := curate.New(nil, archive).Restore(ctx, storage, key)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "restored %d records\n", added)
			return nil
		},
	}
}
