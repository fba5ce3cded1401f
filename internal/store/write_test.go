package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBasics(t *testing.T, s *Store) (userID, catID, tagA, tagB int64) {
	t.Helper()
	ctx := context.Background()

	userID, err := s.InsertUser(ctx, User{Name: "alice", CreationTime: epoch})
	require.NoError(t, err)
	catID, err = s.InsertTagCategory(ctx, TagCategory{Name: "general"})
	require.NoError(t, err)
	tagA, err = s.InsertTag(ctx, Tag{CategoryID: catID, Names: []string{"cat", "kitty"}, CreationTime: epoch})
	require.NoError(t, err)
	tagB, err = s.InsertTag(ctx, Tag{CategoryID: catID, Names: []string{"dog"}, CreationTime: epoch})
	require.NoError(t, err)
	return userID, catID, tagA, tagB
}

func TestInsertUser_Defaults(t *testing.T) {
	s := createTestStore(t)

	id, err := s.InsertUser(context.Background(), User{Name: "bob", CreationTime: epoch})
	require.NoError(t, err)
	assert.Positive(t, id)

	var rank, created string
	require.NoError(t, s.db.QueryRow(`SELECT rank, creation_time FROM users WHERE id = ?`, id).Scan(&rank, &created))
	assert.Equal(t, "regular", rank)
	assert.Equal(t, "2024-01-01 00:00:00", created)
}

func TestInsertUser_ExplicitID(t *testing.T) {
	s := createTestStore(t)

	id, err := s.InsertUser(context.Background(), User{ID: 42, Name: "carol", CreationTime: epoch})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestInsertUser_DuplicateName(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.InsertUser(ctx, User{Name: "dave", CreationTime: epoch})
	require.NoError(t, err)
	_, err = s.InsertUser(ctx, User{Name: "DAVE", CreationTime: epoch})
	assert.Error(t, err, "names are unique case-insensitively")
}

func TestInsertTag_NamesAndUsage(t *testing.T) {
	s := createTestStore(t)
	_, catID, tagA, _ := seedBasics(t, s)

	assert.Equal(t, int64(2), queryInt(t, s, `SELECT usage_count FROM tag_categories WHERE id = ?`, catID))
	assert.Equal(t, int64(2), queryInt(t, s, `SELECT COUNT(*) FROM tag_names WHERE tag_id = ?`, tagA))

	var first string
	require.NoError(t, s.db.QueryRow(`SELECT first_name FROM tags WHERE id = ?`, tagA).Scan(&first))
	assert.Equal(t, "cat", first)
}

func TestInsertTag_RollsBackOnDuplicateName(t *testing.T) {
	s := createTestStore(t)
	_, catID, _, _ := seedBasics(t, s)

	_, err := s.InsertTag(context.Background(), Tag{CategoryID: catID, Names: []string{"bird", "kitty"}, CreationTime: epoch})
	require.Error(t, err)

	assert.Equal(t, int64(2), queryInt(t, s, `SELECT COUNT(*) FROM tags`))
	assert.Equal(t, int64(2), queryInt(t, s, `SELECT usage_count FROM tag_categories WHERE id = ?`, catID))
}

func TestInsertTag_RequiresName(t *testing.T) {
	s := createTestStore(t)

	_, err := s.InsertTag(context.Background(), Tag{CategoryID: 1})
	assert.Error(t, err)
}

func TestInsertPost_Counters(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	userID, _, tagA, tagB := seedBasics(t, s)

	postID, err := s.InsertPost(ctx, Post{UserID: userID, CreationTime: epoch, TagIDs: []int64{tagA, tagB}})
	require.NoError(t, err)
	_, err = s.InsertPost(ctx, Post{UserID: userID, CreationTime: epoch, TagIDs: []int64{tagA}})
	require.NoError(t, err)

	assert.Equal(t, int64(2), queryInt(t, s, `SELECT tag_count FROM posts WHERE id = ?`, postID))
	assert.Equal(t, int64(2), queryInt(t, s, `SELECT post_count FROM tags WHERE id = ?`, tagA))
	assert.Equal(t, int64(1), queryInt(t, s, `SELECT post_count FROM tags WHERE id = ?`, tagB))
}

func TestInsertPost_UnknownUser(t *testing.T) {
	s := createTestStore(t)

	_, err := s.InsertPost(context.Background(), Post{UserID: 999, CreationTime: epoch})
	assert.Error(t, err, "foreign keys are enforced")
}

func TestInsertComment_CommentCount(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	userID, _, _, _ := seedBasics(t, s)

	postID, err := s.InsertPost(ctx, Post{UserID: userID, CreationTime: epoch})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := s.InsertComment(ctx, Comment{PostID: postID, UserID: userID, Text: "nice", CreationTime: epoch})
		require.NoError(t, err)
	}

	assert.Equal(t, int64(3), queryInt(t, s, `SELECT comment_count FROM posts WHERE id = ?`, postID))
}

func TestAddFavorite_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	userID, _, _, _ := seedBasics(t, s)

	postID, err := s.InsertPost(ctx, Post{UserID: userID, CreationTime: epoch})
	require.NoError(t, err)

	require.NoError(t, s.AddFavorite(ctx, postID, userID, epoch))
	require.NoError(t, s.AddFavorite(ctx, postID, userID, epoch))

	assert.Equal(t, int64(1), queryInt(t, s, `SELECT favorite_count FROM posts WHERE id = ?`, postID))
	assert.Equal(t, int64(1), queryInt(t, s, `SELECT COUNT(*) FROM post_favorites`))
}

func TestSetScore(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	userID, _, _, _ := seedBasics(t, s)
	otherID, err := s.InsertUser(ctx, User{Name: "bob", CreationTime: epoch})
	require.NoError(t, err)

	postID, err := s.InsertPost(ctx, Post{UserID: userID, CreationTime: epoch})
	require.NoError(t, err)

	score := func() int64 {
		return queryInt(t, s, `SELECT score FROM posts WHERE id = ?`, postID)
	}

	require.NoError(t, s.SetScore(ctx, postID, userID, 1, epoch))
	require.NoError(t, s.SetScore(ctx, postID, otherID, 1, epoch))
	assert.Equal(t, int64(2), score())

	require.NoError(t, s.SetScore(ctx, postID, otherID, -1, epoch))
	assert.Equal(t, int64(0), score())

	require.NoError(t, s.SetScore(ctx, postID, userID, 0, epoch))
	assert.Equal(t, int64(-1), score())
	assert.Equal(t, int64(1), queryInt(t, s, `SELECT COUNT(*) FROM post_scores WHERE post_id = ?`, postID))

	assert.Error(t, s.SetScore(ctx, postID, userID, 2, epoch))
}
