package cli

import (
	"context"
	"os"

	"github.com/mochisura/marketer/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	if err := newApp().Run(ctx, argv); err != nil {
		logging.From(ctx).Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

func newApp() *cli.Command {
	var (
		logLevel     string
		logFormat    string
		settingsPath string
	)

	return &cli.Command{
		Name:    "marketer",
		Usage:   "Blog promotion and AI news curation toolkit",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Aliases:     []string{"l"},
				Usage:       "Log level (debug, info, warn, error)",
				Value:       "info",
				Sources:     cli.EnvVars("MARKETER_LOG_LEVEL"),
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "Log format (console, json)",
				Value:       "console",
				Sources:     cli.EnvVars("MARKETER_LOG_FORMAT"),
				Destination: &logFormat,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to YAML settings file",
				Sources:     cli.EnvVars("MARKETER_CONFIG"),
				Destination: &settingsPath,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger := logging.New(logLevel, logFormat, os.Stderr)
			logging.SetDefault(logger)
			ctx = logging.With(ctx, logger)

			s, err := loadSettings(settingsPath)
			if err != nil {
				return ctx, err
			}
			return withSettings(ctx, s), nil
		},
		Commands: []*cli.Command{
			promoteCommand(),
			batchCommand(),
			indexCommand(),
			curateCommand(),
			archiveCommand(),
			essayCommand(),
			modelsCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}
}
