package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/quarry/internal/query"
	"github.com/roach88/quarry/internal/searchconfig"
	"github.com/roach88/quarry/internal/searcherr"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Entity string
}

// TokenView is the printable form of one token.
type TokenView struct {
	Kind    string `json:"kind" yaml:"kind"`
	Key     string `json:"key,omitempty" yaml:"key,omitempty"`
	Value   string `json:"value" yaml:"value"`
	Negated bool   `json:"negated" yaml:"negated"`
}

// ParseResult is the output of the parse command.
type ParseResult struct {
	Query  string      `json:"query" yaml:"query"`
	Key    string      `json:"key" yaml:"key"`
	Tokens []TokenView `json:"tokens" yaml:"tokens"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse [query...]",
		Short: "Show how a query is tokenized",
		Long: `Tokenize a query without running it.

With --entity, named, sort and special keys are also checked against that
entity's configuration. As with search, negated terms must follow --:

  quarry parse --entity posts -- cat -dog sort:score`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.SetFlagErrorFunc(queryFlagError)
	cmd.Flags().StringVarP(&opts.Entity, "entity", "e", "", "entity whose configuration the keys are checked against")

	return cmd
}

func runParse(opts *ParseOptions, text string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	parsed, err := query.Parse(text)
	if err != nil {
		return formatter.Fail("parse failed", err)
	}

	if opts.Entity != "" {
		registry, err := searchconfig.NewRegistry()
		if err != nil {
			return formatter.Fail("parse failed", err)
		}
		cfg, ok := registry.Lookup(opts.Entity)
		if !ok {
			return formatter.Fail("parse failed", searcherr.Searchf("unknown entity: %q", opts.Entity))
		}
		if err := checkKeys(cfg, parsed); err != nil {
			return formatter.Fail("parse failed", err)
		}
	}

	result := ParseResult{Query: text, Key: parsed.Key(), Tokens: tokenViews(parsed)}
	table := Table{Headers: []string{"kind", "key", "value", "negated"}, Data: result}
	for _, tv := range result.Tokens {
		negated := ""
		if tv.Negated {
			negated = "yes"
		}
		table.Rows = append(table.Rows, []string{tv.Kind, tv.Key, tv.Value, negated})
	}
	if len(table.Rows) == 0 {
		table.Footer = "empty query"
	}
	return formatter.Success(table)
}

func tokenViews(q query.ParsedQuery) []TokenView {
	out := []TokenView{}
	for _, t := range q.Anonymous {
		out = append(out, TokenView{Kind: "anonymous", Value: t.Criterion.String(), Negated: t.Negated})
	}
	for _, t := range q.Named {
		out = append(out, TokenView{Kind: "named", Key: t.Key, Value: t.Criterion.String(), Negated: t.Negated})
	}
	for _, t := range q.Special {
		out = append(out, TokenView{Kind: "special", Value: t.Value, Negated: t.Negated})
	}
	for _, t := range q.Sort {
		out = append(out, TokenView{Kind: "sort", Key: t.Key, Value: t.Order.String()})
	}
	return out
}

// checkKeys reports the first key that cfg does not know, using the same
// messages as the search engine.
func checkKeys(cfg *searchconfig.Config, q query.ParsedQuery) error {
	if len(q.Anonymous) > 0 {
		if _, ok := cfg.AnonymousFilter(); !ok {
			return searcherr.Searchf("%s cannot be searched by anonymous tokens", cfg.Entity())
		}
	}
	for _, t := range q.Named {
		if _, ok := cfg.NamedFilter(t.Key); !ok {
			return searcherr.Searchf("unknown named token: %q", t.Key)
		}
	}
	for _, t := range q.Special {
		if _, ok := cfg.SpecialFilter(t.Value); !ok {
			return searcherr.Searchf("unknown special token: %q", t.Value)
		}
	}
	for _, t := range q.Sort {
		if _, ok := cfg.SortColumn(t.Key); !ok {
			return searcherr.Searchf("unknown sort token: %q", t.Key)
		}
	}
	return nil
}
