package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/roach88/quarry/internal/fixtures"
	"github.com/roach88/quarry/internal/store"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <fixture-file>",
		Short: "Load a YAML or CUE fixture into the database",
		Long: `Load users, tag categories, tags, posts and comments from a fixture file.

The format is chosen by extension: .yaml/.yml or .cue. Rows reference each
other by name, see internal/fixtures for the layout.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runSeed(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	f, err := fixtures.Load(path)
	if err != nil {
		code := ErrCodeFixture
		if errors.Is(err, fs.ErrNotExist) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "seed failed", err)
	}

	s, err := store.OpenWithOptions(opts.Config.Database.Path, store.Options{
		MaxOpenConns: opts.Config.Database.MaxConnections,
	})
	if err != nil {
		_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
		return WrapExitError(ExitCommandError, "seed failed", err)
	}
	defer s.Close()

	stats, err := fixtures.Seed(cmd.Context(), s, f)
	if err != nil {
		_ = formatter.Error(ErrCodeFixture, err.Error(), stats)
		return WrapExitError(ExitCommandError, "seed failed", err)
	}

	log.Info().
		Str("fixture", path).
		Str("database", opts.Config.Database.Path).
		Int("posts", stats.Posts).
		Msg("Fixture seeded")

	table := Table{
		Headers: []string{"table", "rows"},
		Rows: [][]string{
			{"users", fmt.Sprint(stats.Users)},
			{"tag_categories", fmt.Sprint(stats.TagCategories)},
			{"tags", fmt.Sprint(stats.Tags)},
			{"posts", fmt.Sprint(stats.Posts)},
			{"comments", fmt.Sprint(stats.Comments)},
			{"post_favorites", fmt.Sprint(stats.Favorites)},
			{"post_scores", fmt.Sprint(stats.Scores)},
		},
		Data: stats,
	}
	return formatter.Success(table)
}
