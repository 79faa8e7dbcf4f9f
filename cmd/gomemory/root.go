package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/gomemory-mcp/internal/config"
	"github.com/dshills/gomemory-mcp/internal/indexer"
	"github.com/dshills/gomemory-mcp/internal/logging"
	"github.com/dshills/gomemory-mcp/internal/searcher"
	"github.com/dshills/gomemory-mcp/internal/storage"
)

const rootLongDesc string = `gomemory is a local knowledge store for coding agents.

Knowledge items (conventions, decisions, fixes) are saved with a title, tags
and a scope, then found again by keyword search.

Run the MCP server with:
  gomemory serve

Or work with the store directly:
  gomemory save "Naming" "Use camelCase for variables" --tags style
  gomemory search naming`

// app holds the dependencies shared by every subcommand
type app struct {
	configPath string

	cfg  *config.Config
	log  *zap.Logger
	repo storage.Repository
}

// execute runs the command line in args and closes whatever the command
// opened, including when it fails. cobra skips post-run hooks after a RunE
// error, so closing happens here.
func execute(ctx context.Context, a *app, args []string, out io.Writer) error {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(out)

	err := cmd.ExecuteContext(ctx)
	if closeErr := a.close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gomemory",
		Short:         "Local knowledge store for coding agents",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.open()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default ~/.config/gomemory/config.yaml)")

	cmd.AddCommand(
		newServeCmd(a),
		newSaveCmd(a),
		newSearchCmd(a),
		newGetCmd(a),
		newStatusCmd(a),
		newRebuildCmd(a),
		newVersionCmd(),
	)

	return cmd
}

// open loads configuration, builds the logger and opens the repository
func (a *app) open() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Logs go to stderr; stdout is reserved for command output and MCP
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	repo, err := storage.Open(cfg.Store.Backend, cfg.Store.Root, storage.Options{
		Logger:    logger,
		CacheSize: cfg.Store.CacheSize,
		Watch:     cfg.Store.Watch,
	})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	a.cfg = cfg
	a.log = logger
	a.repo = repo
	return nil
}

func (a *app) close() error {
	if a.log != nil {
		defer func() { _ = a.log.Sync() }()
	}
	if a.repo == nil {
		return nil
	}
	repo := a.repo
	a.repo = nil
	return repo.Close()
}

func (a *app) searcher() *searcher.Searcher {
	return searcher.New(a.repo, searcher.Options{
		Logger:       a.log,
		DefaultLimit: a.cfg.Search.DefaultLimit,
		Workers:      a.cfg.Search.Workers,
	})
}

func (a *app) indexer() *indexer.Indexer {
	return indexer.New(a.repo, a.log, &indexer.Config{Workers: a.cfg.Search.Workers})
}
