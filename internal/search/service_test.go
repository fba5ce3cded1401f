package search

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quarry/internal/searcherr"
)

type observation struct {
	entity, mode, outcome string
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []observation
}

func (r *fakeRecorder) ObserveSearch(entity, mode, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, observation{entity, mode, outcome})
}

type failingSource struct{}

func (failingSource) Acquire(context.Context) (*sql.Conn, error) {
	return nil, errors.New("pool exhausted")
}

func newService(t *testing.T) (*Service, *env, *fakeRecorder, *bytes.Buffer) {
	t.Helper()
	e := newEnv(t)
	rec := &fakeRecorder{}
	var buf bytes.Buffer
	svc := NewService(e.store, e.registry, e.exec,
		WithRecorder(rec),
		WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)),
	)
	return svc, e, rec, &buf
}

func TestService_Search(t *testing.T) {
	svc, e, rec, logs := newService(t)

	page, err := svc.Search(context.Background(), "posts", Request{Text: "cat", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, ids(page.Results))

	assert.Equal(t, 0, e.store.InUse(), "connection must be released")
	assert.Equal(t, []observation{{"posts", ModePage, OutcomeOK}}, rec.seen)
	assert.Contains(t, logs.String(), `"request_id"`)
	assert.Contains(t, logs.String(), `"entity":"posts"`)
}

func TestService_ReleasesConnectionOnFailure(t *testing.T) {
	svc, e, rec, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Search(ctx, "posts", Request{Text: "colour:red", Page: 1, PageSize: 10})
	require.Error(t, err)
	assert.True(t, searcherr.IsSearch(err))
	assert.Equal(t, 0, e.store.InUse())

	_, err = svc.Search(ctx, "posts", Request{Page: 0, PageSize: 10})
	require.Error(t, err)
	assert.True(t, searcherr.IsValidation(err))
	assert.Equal(t, 0, e.store.InUse())

	_, err = svc.Around(ctx, "posts", Request{Text: "sort:random"}, 1)
	require.Error(t, err)
	assert.Equal(t, 0, e.store.InUse())

	assert.Equal(t, []observation{
		{"posts", ModePage, OutcomeSearch},
		{"posts", ModePage, OutcomeValidation},
		{"posts", ModeAround, OutcomeSearch},
	}, rec.seen)
}

func TestService_UnknownEntity(t *testing.T) {
	svc, _, rec, _ := newService(t)

	_, err := svc.Search(context.Background(), "notes", Request{Page: 1, PageSize: 10})
	require.Error(t, err)
	assert.True(t, searcherr.IsSearch(err))
	assert.Equal(t, OutcomeSearch, rec.seen[0].outcome)
}

func TestService_Around(t *testing.T) {
	svc, e, rec, _ := newService(t)

	around, err := svc.Around(context.Background(), "posts", Request{}, 3)
	require.NoError(t, err)
	require.NotNil(t, around.Previous)
	require.NotNil(t, around.Next)
	assert.Equal(t, int64(4), around.Previous.ID)
	assert.Equal(t, int64(2), around.Next.ID)
	assert.Equal(t, 0, e.store.InUse())
	assert.Equal(t, ModeAround, rec.seen[0].mode)
}

func TestService_AcquireFailure(t *testing.T) {
	e := newEnv(t)
	rec := &fakeRecorder{}
	svc := NewService(failingSource{}, e.registry, e.exec, WithRecorder(rec), WithLogger(zerolog.Nop()))

	_, err := svc.Search(context.Background(), "posts", Request{Page: 1, PageSize: 10})
	require.Error(t, err)
	assert.False(t, searcherr.IsRequestError(err))
	assert.Equal(t, OutcomeFailure, rec.seen[0].outcome)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeOK, Outcome(nil))
	assert.Equal(t, OutcomeSearch, Outcome(searcherr.Searchf("x")))
	assert.Equal(t, OutcomeValidation, Outcome(searcherr.Validationf("x")))
	assert.Equal(t, OutcomeFailure, Outcome(errors.New("disk on fire")))
}
