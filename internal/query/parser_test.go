package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	hits, misses int
}

func (o *countingObserver) ObserveParseCache(hit bool) {
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func TestParser_CachedEqualsFresh(t *testing.T) {
	obs := &countingObserver{}
	p, err := NewParser(8, obs)
	require.NoError(t, err)

	text := "cat name:a,b sort:name,desc"
	first, err := p.Parse(text)
	require.NoError(t, err)
	second, err := p.Parse(text)
	require.NoError(t, err)
	fresh, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, fresh, first)
	assert.Equal(t, fresh, second)
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)
	assert.Equal(t, 1, p.Len())
}

func TestParser_ErrorsNotCached(t *testing.T) {
	obs := &countingObserver{}
	p, err := NewParser(8, obs)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := p.Parse("..")
		require.Error(t, err)
	}
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 2, obs.misses)
}

func TestParser_Evicts(t *testing.T) {
	p, err := NewParser(2, nil)
	require.NoError(t, err)

	for _, text := range []string{"a", "b", "c"} {
		_, err := p.Parse(text)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, p.Len())
}

func TestParser_Disabled(t *testing.T) {
	obs := &countingObserver{}
	p, err := NewParser(0, obs)
	require.NoError(t, err)

	q, err := p.Parse("a")
	require.NoError(t, err)
	assert.Len(t, q.Anonymous, 1)
	assert.Equal(t, 0, p.Len())
	assert.Zero(t, obs.hits+obs.misses)
}
