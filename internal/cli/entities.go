package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/quarry/internal/searchconfig"
)

// EntityInfo describes the query vocabulary of one entity type.
type EntityInfo struct {
	Name        string   `json:"name" yaml:"name"`
	Anonymous   bool     `json:"anonymous" yaml:"anonymous"`
	Filters     []string `json:"filters" yaml:"filters"`
	Sorts       []string `json:"sorts" yaml:"sorts"`
	Specials    []string `json:"specials" yaml:"specials"`
	DefaultSort string   `json:"default_sort" yaml:"default_sort"`
	Fields      []string `json:"fields" yaml:"fields"`
}

// NewEntitiesCommand creates the entities command.
func NewEntitiesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "entities",
		Short:         "List searchable entities and their keys",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntities(rootOpts, cmd)
		},
	}

	return cmd
}

func runEntities(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	registry, err := searchconfig.NewRegistry()
	if err != nil {
		return formatter.Fail("entities failed", err)
	}

	infos := []EntityInfo{}
	for _, name := range registry.Entities() {
		cfg, _ := registry.Lookup(name)
		_, anonymous := cfg.AnonymousFilter()
		infos = append(infos, EntityInfo{
			Name:        name,
			Anonymous:   anonymous,
			Filters:     cfg.FilterKeys(),
			Sorts:       cfg.SortKeys(),
			Specials:    cfg.SpecialKeys(),
			DefaultSort: cfg.DefaultSortKey(),
			Fields:      cfg.FieldNames(),
		})
	}

	table := Table{
		Headers: []string{"entity", "filters", "sorts", "specials", "default sort"},
		Data:    infos,
	}
	for _, info := range infos {
		table.Rows = append(table.Rows, []string{
			info.Name,
			strings.Join(info.Filters, ","),
			strings.Join(info.Sorts, ","),
			strings.Join(info.Specials, ","),
			info.DefaultSort,
		})
	}
	return formatter.Success(table)
}
