package searchconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quarry/internal/filter"
	"github.com/roach88/quarry/internal/plan"
	"github.com/roach88/quarry/internal/predicate"
	"github.com/roach88/quarry/internal/querysql"
	"github.com/roach88/quarry/internal/searcherr"
)

var widgetName = predicate.Col("widgets", "name")

func widgetBuilder() *Builder {
	return NewBuilder("widgets", "widgets").
		Field("name", "widgets.name").
		Anonymous(filter.TextOn(widgetName)).
		Sort(sortOn("widgets.name", plan.Asc), "name")
}

func TestBuild_AliasesResolveToSameFilter(t *testing.T) {
	cfg, err := widgetBuilder().
		Filter(filter.NumericOn(predicate.Col("widgets", "size")), "size", "sz").
		DefaultSort("name").
		Build()
	require.NoError(t, err)

	canonical, ok := cfg.NamedFilter("size")
	require.True(t, ok)
	alias, ok := cfg.NamedFilter("sz")
	require.True(t, ok)
	assert.Equal(t, canonical, alias)
	assert.Equal(t, []string{"size", "sz"}, cfg.FilterKeys())

	_, ok = cfg.NamedFilter("weight")
	assert.False(t, ok)
}

func TestBuild_Errors(t *testing.T) {
	size := filter.NumericOn(predicate.Col("widgets", "size"))

	tests := []struct {
		name    string
		builder *Builder
		want    string
	}{
		{
			name:    "filter alias collision",
			builder: widgetBuilder().Filter(size, "size").Filter(size, "weight", "size").DefaultSort("name"),
			want:    `filter name "size" registered twice`,
		},
		{
			name:    "sort alias collision",
			builder: widgetBuilder().Sort(sortOn("widgets.size", plan.Desc), "size", "name").DefaultSort("name"),
			want:    `sort name "name" registered twice`,
		},
		{
			name:    "special collision",
			builder: widgetBuilder().Special(tumbleweed, "x").Special(tumbleweed, "x").DefaultSort("name"),
			want:    `special name "x" registered twice`,
		},
		{
			name:    "empty name",
			builder: widgetBuilder().Filter(size, "").DefaultSort("name"),
			want:    "empty name",
		},
		{
			name:    "no names",
			builder: widgetBuilder().Filter(size).DefaultSort("name"),
			want:    "without a name",
		},
		{
			name:    "upper case name",
			builder: widgetBuilder().Filter(size, "Size").DefaultSort("name"),
			want:    "lower case",
		},
		{
			name:    "unknown default sort",
			builder: widgetBuilder().DefaultSort("size"),
			want:    `default sort "size"`,
		},
		{
			name:    "missing default sort",
			builder: widgetBuilder(),
			want:    "no default sort",
		},
		{
			name:    "incomplete relation",
			builder: widgetBuilder().Filter(filter.Related(filter.Link{From: "parts"}), "part").DefaultSort("name"),
			want:    "incomplete",
		},
		{
			name:    "reserved field",
			builder: widgetBuilder().Field("id", "widgets.id").DefaultSort("name"),
			want:    "reserved",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := tc.builder.Build()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestBuild_ReportsAllProblems(t *testing.T) {
	size := filter.NumericOn(predicate.Col("widgets", "size"))

	_, err := widgetBuilder().Filter(size, "a", "a").Sort(sortOn("x", plan.Asc), "name").Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `filter name "a"`)
	assert.Contains(t, err.Error(), `sort name "name"`)
	assert.Contains(t, err.Error(), "no default sort")
}

func TestBuild_SortDefaultsToAscending(t *testing.T) {
	cfg, err := widgetBuilder().
		Sort(SortColumn{Expr: "widgets.size", Deterministic: true}, "size").
		DefaultSort("name").
		Build()
	require.NoError(t, err)

	col, ok := cfg.SortColumn("size")
	require.True(t, ok)
	assert.Equal(t, plan.Asc, col.Default)
}

func TestConfig_BaseQuerySelectsIDFirst(t *testing.T) {
	cfg, err := widgetBuilder().DefaultSort("name").Build()
	require.NoError(t, err)

	fields := cfg.BaseQuery().Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, plan.Field{Name: "id", Expr: "widgets.id"}, fields[0])
	assert.Equal(t, []string{"id", "name"}, cfg.FieldNames())
}

func TestConfig_AroundQueries(t *testing.T) {
	cfg, err := widgetBuilder().DefaultSort("name").Build()
	require.NoError(t, err)
	col, _ := cfg.SortColumn("name")

	prev, next, err := cfg.AroundQueries(cfg.BaseQuery(), col, plan.Asc, 7, "m")
	require.NoError(t, err)

	c := querysql.NewCompiler()
	sql, params, err := c.CompileSelect(next)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT widgets.id AS id, widgets.name AS name FROM widgets "+
			"WHERE (widgets.name > ? OR (widgets.name = ? AND widgets.id > ?)) "+
			"ORDER BY widgets.name ASC, widgets.id ASC LIMIT ? OFFSET ?",
		sql)
	assert.Equal(t, []any{"m", "m", int64(7), int64(1), int64(0)}, params)

	sql, _, err = c.CompileSelect(prev)
	require.NoError(t, err)
	assert.Contains(t, sql, "(widgets.name < ? OR (widgets.name = ? AND widgets.id < ?))")
	assert.Contains(t, sql, "ORDER BY widgets.name DESC, widgets.id DESC")
}

func TestConfig_AroundQueriesDescending(t *testing.T) {
	cfg, err := widgetBuilder().DefaultSort("name").Build()
	require.NoError(t, err)
	col, _ := cfg.SortColumn("name")

	prev, next, err := cfg.AroundQueries(cfg.BaseQuery(), col, plan.Desc, 7, "m")
	require.NoError(t, err)

	c := querysql.NewCompiler()
	sql, _, err := c.CompileSelect(next)
	require.NoError(t, err)
	assert.Contains(t, sql, "(widgets.name < ? OR (widgets.name = ? AND widgets.id > ?))")
	assert.Contains(t, sql, "ORDER BY widgets.name DESC, widgets.id ASC")

	sql, _, err = c.CompileSelect(prev)
	require.NoError(t, err)
	assert.Contains(t, sql, "(widgets.name > ? OR (widgets.name = ? AND widgets.id < ?))")
	assert.Contains(t, sql, "ORDER BY widgets.name ASC, widgets.id DESC")
}

func TestConfig_AroundQueriesRejectRandom(t *testing.T) {
	cfg, err := widgetBuilder().Sort(randomSort, "random").DefaultSort("name").Build()
	require.NoError(t, err)
	col, _ := cfg.SortColumn("random")

	_, _, err = cfg.AroundQueries(cfg.BaseQuery(), col, plan.Asc, 1, int64(0))
	require.Error(t, err)
	assert.True(t, searcherr.IsSearch(err))
}

func TestConfig_BuilderReuseDoesNotLeak(t *testing.T) {
	b := widgetBuilder().DefaultSort("name")
	first, err := b.Build()
	require.NoError(t, err)

	b.Filter(filter.TextOn(widgetName), "late")
	_, ok := first.NamedFilter("late")
	assert.False(t, ok)
}
