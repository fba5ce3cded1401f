package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/quarry/internal/search"
)

// SearchOptions holds flags for the search and around commands.
type SearchOptions struct {
	*RootOptions
	Page     int
	PageSize int
	UserID   int64
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <entity> [query...]",
		Short: "Run a paginated search",
		Long: `Run a paginated search over one entity type.

Remaining arguments are joined with spaces to form the query text. Put the
query after -- so that negated terms are not read as flags.

Example:
  quarry search posts --page 2 --page-size 10 -- cat -dog sort:score`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, args[0], strings.Join(args[1:], " "), cmd)
		},
	}

	cmd.SetFlagErrorFunc(queryFlagError)
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "results per page (default search.default_page_size)")
	cmd.Flags().Int64Var(&opts.UserID, "user", 0, "acting user id for special filters")

	return cmd
}

// NewAroundCommand creates the around command.
func NewAroundCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "around <entity> <id> [query...]",
		Short: "Find the neighbors of one entity",
		Long: `Find the entities immediately before and after <id> in the ordering
that the query would produce.

Example:
  quarry around posts 42 -- cat -dog sort:score`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAround(opts, args[0], args[1], strings.Join(args[2:], " "), cmd)
		},
	}

	cmd.SetFlagErrorFunc(queryFlagError)
	cmd.Flags().Int64Var(&opts.UserID, "user", 0, "acting user id for special filters")

	return cmd
}

// queryFlagError points at -- when a negated query term such as "-dog" was
// taken for a flag.
func queryFlagError(cmd *cobra.Command, err error) error {
	return WrapExitError(ExitCommandError,
		fmt.Sprintf("%s: negated query terms must follow --", cmd.Name()), err)
}

func runSearch(opts *SearchOptions, entity, text string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = opts.Config.Search.DefaultPageSize
	}

	rt, err := openRuntime(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
		return WrapExitError(ExitCommandError, "search failed", err)
	}
	defer rt.Close(opts.Metrics, cmd.ErrOrStderr())

	formatter.VerboseLog("Searching %s for %q", entity, text)
	page, err := rt.service.Search(cmd.Context(), entity, search.Request{
		Text:     text,
		Page:     opts.Page,
		PageSize: pageSize,
		UserID:   opts.UserID,
	})
	if err != nil {
		return formatter.Fail("search failed", err)
	}

	cfg, _ := rt.entities.Lookup(entity)
	headers := cfg.FieldNames()
	table := Table{
		Headers: headers,
		Footer:  fmt.Sprintf("page %d, %d of %d result(s)", page.Page, len(page.Results), page.Total),
		Data:    page,
	}
	for _, e := range page.Results {
		table.Rows = append(table.Rows, row(headers, e))
	}
	return formatter.Success(table)
}

func runAround(opts *SearchOptions, entity, rawID, text string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		_ = formatter.Error(ErrCodeValidation, fmt.Sprintf("invalid id %q", rawID), nil)
		return WrapExitError(ExitFailure, "around failed", err)
	}

	rt, err := openRuntime(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
		return WrapExitError(ExitCommandError, "around failed", err)
	}
	defer rt.Close(opts.Metrics, cmd.ErrOrStderr())

	formatter.VerboseLog("Looking around %s %d for %q", entity, id, text)
	around, err := rt.service.Around(cmd.Context(), entity, search.Request{
		Text:   text,
		UserID: opts.UserID,
	}, id)
	if err != nil {
		return formatter.Fail("around failed", err)
	}

	cfg, _ := rt.entities.Lookup(entity)
	headers := cfg.FieldNames()
	table := Table{
		Headers: append([]string{"position"}, headers...),
		Data:    around,
	}
	if around.Previous != nil {
		table.Rows = append(table.Rows, append([]string{"previous"}, row(headers, *around.Previous)...))
	}
	if around.Next != nil {
		table.Rows = append(table.Rows, append([]string{"next"}, row(headers, *around.Next)...))
	}
	if len(table.Rows) == 0 {
		table.Footer = "no neighbors"
	}
	return formatter.Success(table)
}

func row(headers []string, e search.Entity) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		if v := e.Fields[h]; v != nil {
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
