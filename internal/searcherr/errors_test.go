package searcherr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	s := Searchf("unknown named token: %q", "foo")
	v := Validationf("page must be at least 1")

	assert.True(t, IsSearch(s))
	assert.False(t, IsValidation(s))
	assert.True(t, IsValidation(v))
	assert.False(t, IsSearch(v))
	assert.Equal(t, `SEARCH_ERROR: unknown named token: "foo"`, s.Error())
}

func TestKinds_Wrapped(t *testing.T) {
	err := fmt.Errorf("execute: %w", Searchf("empty ranged value"))

	assert.True(t, IsSearch(err))
	assert.True(t, IsRequestError(err))
}

func TestKinds_PlainError(t *testing.T) {
	err := errors.New("disk full")

	assert.False(t, IsSearch(err))
	assert.False(t, IsValidation(err))
	assert.False(t, IsRequestError(err))
	assert.False(t, IsSearch(nil))
}
