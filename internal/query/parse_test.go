package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quarry/internal/criteria"
	"github.com/roach88/quarry/internal/searcherr"
)

func mustParse(t *testing.T, text string) ParsedQuery {
	t.Helper()
	q, err := Parse(text)
	require.NoError(t, err, "Parse(%q)", text)
	return q
}

func TestParse_Empty(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n", "- --"} {
		q := mustParse(t, text)
		assert.True(t, q.Empty(), "query %q", text)
	}
}

func TestParse_Anonymous(t *testing.T) {
	q := mustParse(t, "foo -bar")

	require.Len(t, q.Anonymous, 2)
	assert.Equal(t, Anonymous{Criterion: criteria.Plain{Value: "foo", Original: "foo"}}, q.Anonymous[0])
	assert.Equal(t, Anonymous{Criterion: criteria.Plain{Value: "bar", Original: "bar"}, Negated: true}, q.Anonymous[1])
}

func TestParse_DoubleNegationCancels(t *testing.T) {
	assert.True(t, mustParse(t, "--foo").Equal(mustParse(t, "foo")))
	assert.True(t, mustParse(t, "---foo").Equal(mustParse(t, "-foo")))
	assert.True(t, mustParse(t, "--name:foo").Equal(mustParse(t, "name:foo")))
}

func TestParse_Deterministic(t *testing.T) {
	text := "cat -dog name:a,b score-min:3 special:liked sort:name,desc"
	assert.Equal(t, mustParse(t, text), mustParse(t, text))
	assert.Equal(t, mustParse(t, text).Key(), mustParse(t, text).Key())
}

func TestParse_CaseFolded(t *testing.T) {
	assert.True(t, mustParse(t, "Name:FOO").Equal(mustParse(t, "name:foo")))
	assert.True(t, mustParse(t, "  CAT\t\tDog ").Equal(mustParse(t, "cat dog")))
}

func TestParse_LowerCasesWithoutFolding(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"name:Straße", "straße"},
		{"name:café", "café"},
		{"name:cafe\u0301", "cafe\u0301"},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			q := mustParse(t, tc.text)
			require.Len(t, q.Named, 1)
			assert.Equal(t, criteria.Plain{Value: tc.want, Original: tc.want}, q.Named[0].Criterion)
		})
	}
}

func TestParse_Criteria(t *testing.T) {
	tests := []struct {
		text string
		want criteria.Criterion
	}{
		{"a,b,c", criteria.Array{Values: []string{"a", "b", "c"}, Original: "a,b,c"}},
		{"1..5", criteria.Ranged{Min: "1", Max: "5", Original: "1..5"}},
		{"..5", criteria.Ranged{Min: "", Max: "5", Original: "..5"}},
		{"5..", criteria.Ranged{Min: "5", Max: "", Original: "5.."}},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			q := mustParse(t, tc.text)
			require.Len(t, q.Anonymous, 1)
			assert.Equal(t, tc.want, q.Anonymous[0].Criterion)
		})
	}
}

func TestParse_EmptyRangeFails(t *testing.T) {
	for _, text := range []string{"..", "name:..", "foo ..", "-.."} {
		_, err := Parse(text)
		require.Error(t, err, text)
		assert.True(t, searcherr.IsSearch(err), text)
	}
}

func TestParse_Named(t *testing.T) {
	q := mustParse(t, "name:foo -usage-count:1,2 creation-date:2020..2021")

	require.Len(t, q.Named, 3)
	assert.Equal(t, Named{Key: "name", Criterion: criteria.Plain{Value: "foo", Original: "foo"}}, q.Named[0])
	assert.Equal(t, Named{
		Key:       "usage-count",
		Criterion: criteria.Array{Values: []string{"1", "2"}, Original: "1,2"},
		Negated:   true,
	}, q.Named[1])
	assert.Equal(t, Named{
		Key:       "creation-date",
		Criterion: criteria.Ranged{Min: "2020", Max: "2021", Original: "2020..2021"},
	}, q.Named[2])
}

func TestParse_NamedValueMayContainColons(t *testing.T) {
	q := mustParse(t, "source:http://example.com")

	require.Len(t, q.Named, 1)
	assert.Equal(t, "source", q.Named[0].Key)
	assert.Equal(t, criteria.Plain{Value: "http://example.com", Original: "http://example.com"}, q.Named[0].Criterion)
}

func TestParse_KeyPatternMismatchIsAnonymous(t *testing.T) {
	q := mustParse(t, "a1:b")

	assert.Empty(t, q.Named)
	require.Len(t, q.Anonymous, 1)
	assert.Equal(t, criteria.Plain{Value: "a1:b", Original: "a1:b"}, q.Anonymous[0].Criterion)
}

func TestParse_MinMax(t *testing.T) {
	q := mustParse(t, "name-min:5 name-max:5")

	require.Len(t, q.Named, 2)
	assert.Equal(t, Named{Key: "name", Criterion: criteria.Ranged{Min: "5", Max: "", Original: "5"}}, q.Named[0])
	assert.Equal(t, Named{Key: "name", Criterion: criteria.Ranged{Min: "", Max: "5", Original: "5"}}, q.Named[1])
}

func TestParse_MinWithEmptyValueFails(t *testing.T) {
	_, err := Parse("score-min:")
	require.Error(t, err)
	assert.True(t, searcherr.IsSearch(err))
}

func TestParse_Special(t *testing.T) {
	q := mustParse(t, "special:liked -special:fav")

	assert.Equal(t, []Special{{Value: "liked"}, {Value: "fav", Negated: true}}, q.Special)
}

func TestParse_Sort(t *testing.T) {
	tests := []struct {
		text string
		want Sort
	}{
		{"sort:name", Sort{Key: "name", Order: Default}},
		{"sort:name,", Sort{Key: "name", Order: Default}},
		{"sort:name,asc", Sort{Key: "name", Order: Ascending}},
		{"sort:name,desc", Sort{Key: "name", Order: Descending}},
		{"-sort:name", Sort{Key: "name", Order: NegatedDefault}},
		{"-sort:name,asc", Sort{Key: "name", Order: Descending}},
		{"-sort:name,desc", Sort{Key: "name", Order: Ascending}},
		{"--sort:name", Sort{Key: "name", Order: Default}},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			q := mustParse(t, tc.text)
			assert.Equal(t, []Sort{tc.want}, q.Sort)
		})
	}
}

func TestParse_SortErrors(t *testing.T) {
	tests := map[string]string{
		"sort:name,asc,desc": "too many commas",
		"sort:name,up":       "unknown search direction",
	}
	for text, msg := range tests {
		t.Run(text, func(t *testing.T) {
			_, err := Parse(text)
			require.Error(t, err)
			assert.True(t, searcherr.IsSearch(err))
			assert.Contains(t, err.Error(), msg)
		})
	}
}

func TestParse_PreservesOrderWithinKind(t *testing.T) {
	q := mustParse(t, "b sort:x a name:2 sort:y name:1")

	require.Len(t, q.Anonymous, 2)
	assert.Equal(t, "b", q.Anonymous[0].Criterion.OriginalText())
	assert.Equal(t, "a", q.Anonymous[1].Criterion.OriginalText())
	assert.Equal(t, []Sort{{Key: "x"}, {Key: "y"}}, q.Sort)
	assert.Equal(t, "2", q.Named[0].Criterion.OriginalText())
	assert.Equal(t, "1", q.Named[1].Criterion.OriginalText())
}

func TestParsedQuery_Equal(t *testing.T) {
	assert.True(t, mustParse(t, "a b").Equal(mustParse(t, "a  b")))
	assert.False(t, mustParse(t, "a b").Equal(mustParse(t, "b a")))
	assert.False(t, mustParse(t, "a").Equal(mustParse(t, "-a")))
	assert.False(t, mustParse(t, "a,").Equal(mustParse(t, "a..")))
}

func TestOrder_Negate(t *testing.T) {
	for _, o := range []Order{Default, NegatedDefault, Ascending, Descending} {
		assert.Equal(t, o, o.Negate().Negate(), o.String())
		assert.NotEqual(t, o, o.Negate(), o.String())
	}
}
