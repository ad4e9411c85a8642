package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/tootvault/tootvault/internal"
	pkgconfig "github.com/tootvault/tootvault/pkg/config"
)

func newApp(cmd *cli.Command) (*internal.App, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.SlogLevel(),
	}))
	slog.SetDefault(logger)

	return internal.New(
		internal.WithConfig(cfg),
		internal.WithLogger(logger),
	)
}

func main() {
	cmd := &cli.Command{
		Name:  "tootvault",
		Usage: "Archive Fediverse statuses and media, and derive Markdown posts and photo galleries",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("TOOTVAULT_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "lookup-user",
				Usage: "Look up a user's account details on a server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "host",
						Usage:    "Domain name of the server",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "user",
						Usage:    "Account name to look up",
						Required: true,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					app, err := newApp(cmd)
					if err != nil {
						return err
					}
					return app.LookupUser(ctx, cmd.String("host"), cmd.String("user"))
				},
			},
			{
				Name:  "update-archive",
				Usage: "Fetch new statuses and their media into the archive",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "skip-media",
						Usage: "Do not download media attachments",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					app, err := newApp(cmd)
					if err != nil {
						return err
					}
					return app.UpdateArchive(ctx, cmd.Bool("skip-media"))
				},
			},
			{
				Name:  "update-content",
				Usage: "Derive Markdown posts from archived statuses",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite existing posts",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					app, err := newApp(cmd)
					if err != nil {
						return err
					}
					return app.UpdateContent(ctx, cmd.Bool("force"))
				},
			},
			{
				Name:  "update-photos",
				Usage: "Derive photo galleries from archived statuses with media",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					app, err := newApp(cmd)
					if err != nil {
						return err
					}
					return app.UpdatePhotos(ctx, false)
				},
			},
			{
				Name:      "delete-status",
				Usage:     "Delete a status and its media from the archive",
				ArgsUsage: "<status-id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					statusID := cmd.Args().First()
					if statusID == "" {
						return fmt.Errorf("a status id is required")
					}
					app, err := newApp(cmd)
					if err != nil {
						return err
					}
					return app.DeleteStatus(ctx, statusID)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
