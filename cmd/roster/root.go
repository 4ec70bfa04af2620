package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/N3moAhead/roster/internal/api"
	"github.com/N3moAhead/roster/internal/config"
	"github.com/N3moAhead/roster/internal/logging"
	"github.com/N3moAhead/roster/internal/ui"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	configPath    string
	verbose       bool
	collectionURL string
	logFile       string
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&rootOptions{})
}

func buildRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage person records against a REST backend",
		Long: `roster shows a form for new persons next to a searchable table of
every person the backend holds. Records can be created and deleted; the
table is reloaded from the backend after every change.

Run "roster serve" to start a local backend for development.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return runTUI(cfg)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
	cmd.Flags().StringVar(&opts.collectionURL, "url", "", "persons collection URL (default "+config.DefaultCollectionURL+")")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "file the client logs to (default "+config.DefaultLogFile+")")

	cmd.AddCommand(newServeCmd(opts))
	return cmd
}

// load resolves the config and lets explicitly set flags win.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	if f := cmd.Flags().Lookup("url"); f != nil && f.Changed {
		cfg.CollectionURL = o.collectionURL
	}
	if f := cmd.Flags().Lookup("log-file"); f != nil && f.Changed {
		cfg.LogFile = o.logFile
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runTUI(cfg config.Config) error {
	logger, err := logging.NewFile(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client := api.NewClient(cfg.CollectionURL, cfg.TimeoutDuration())
	logger.Info("starting", zap.String("collection", client.CollectionURL()))

	p := tea.NewProgram(ui.New(client, logger, client.CollectionURL()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}
