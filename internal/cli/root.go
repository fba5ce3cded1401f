package cli

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/roach88/quarry/internal/config"
	"github.com/roach88/quarry/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "text" | "json" | "yaml"
	ConfigFile string
	DBPath     string
	Metrics    bool

	// Config is loaded before any subcommand runs.
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the quarry CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "quarry",
		Short: "quarry - text search queries over a relational store",
		Long: `Search users, tags, posts and comments with a compact query language.

Examples:
  quarry seed testdata/library.yaml
  quarry search posts -- cat -dog score-min:1 sort:date,asc
  quarry around posts 42 --user 7 -- special:fav`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default ./quarry.yaml if present)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "database path (overrides database.path)")
	cmd.PersistentFlags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics to stderr after the command")

	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewAroundCommand(opts))
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewEntitiesCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

// load reads configuration and points the global logger at stderr.
func (o *RootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading configuration", err)
	}
	if o.DBPath != "" {
		cfg.Database.Path = o.DBPath
	}

	level := cfg.Log.Level
	if o.Verbose {
		level = "debug"
	}
	if err := logging.Setup(cmd.ErrOrStderr(), level, cfg.Log.Format); err != nil {
		return WrapExitError(ExitCommandError, "configuring logging", err)
	}

	log.Debug().
		Str("config_file", cfg.Sources.ConfigFile).
		Str("env_file", cfg.Sources.EnvFile).
		Str("database", cfg.Database.Path).
		Int("max_page_size", cfg.Search.MaxPageSize).
		Msg("Configuration loaded")

	o.Config = cfg
	return nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}
