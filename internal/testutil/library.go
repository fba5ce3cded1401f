package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/quarry/internal/store"
)

// Day returns midnight UTC of the given date.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Now is the frozen "current" time used alongside SeedLibrary.
var Now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

// OpenStore opens a store in a temporary directory and closes it when the
// test ends.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "quarry.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Library holds the ids written by SeedLibrary, in insertion order.
//
//	Users:    alice, bob, carol
//	Tags:     cat (alias kitty), dog, bird, fish
//	Posts:    1 alice [cat dog]   2024-01-05  100x100  fav+liked by bob, 2 comments
//	          2 bob   [cat]       2024-02-10  200x50
//	          3 alice [bird]      2024-03-15  50x50    disliked by bob, 1 comment
//	          4 carol []          2024-06-15  300x300
//	          5 bob   [dog bird]  2024-06-14  10x10
type Library struct {
	Users      []int64
	Categories []int64
	Tags       []int64
	Posts      []int64
	Comments   []int64
}

// SeedLibrary writes a small fixed data set used across search tests.
func SeedLibrary(t testing.TB, s *store.Store) Library {
	t.Helper()
	ctx := context.Background()
	var lib Library

	must := func(id int64, err error) int64 {
		t.Helper()
		if err != nil {
			t.Fatalf("seed library: %v", err)
		}
		return id
	}

	lastLogin := Day(2024, 6, 14)
	for _, u := range []store.User{
		{Name: "alice", Rank: "administrator", CreationTime: Day(2023, 1, 10)},
		{Name: "bob", CreationTime: Day(2023, 6, 1)},
		{Name: "carol", CreationTime: Day(2024, 2, 1), LastLoginTime: &lastLogin},
	} {
		lib.Users = append(lib.Users, must(s.InsertUser(ctx, u)))
	}
	alice, bob, carol := lib.Users[0], lib.Users[1], lib.Users[2]

	for _, c := range []store.TagCategory{{Name: "general", Color: "blue"}, {Name: "meta", Color: "red"}} {
		lib.Categories = append(lib.Categories, must(s.InsertTagCategory(ctx, c)))
	}
	general, meta := lib.Categories[0], lib.Categories[1]

	for _, tag := range []store.Tag{
		{CategoryID: general, Names: []string{"cat", "kitty"}, CreationTime: Day(2023, 12, 1)},
		{CategoryID: general, Names: []string{"dog"}, CreationTime: Day(2023, 12, 2)},
		{CategoryID: meta, Names: []string{"bird"}, CreationTime: Day(2024, 1, 1)},
		{CategoryID: meta, Names: []string{"fish"}, CreationTime: Day(2024, 1, 2)},
	} {
		lib.Tags = append(lib.Tags, must(s.InsertTag(ctx, tag)))
	}
	cat, dog, bird := lib.Tags[0], lib.Tags[1], lib.Tags[2]

	for _, p := range []store.Post{
		{UserID: alice, Width: 100, Height: 100, FileSize: 1000, CreationTime: Day(2024, 1, 5), TagIDs: []int64{cat, dog}},
		{UserID: bob, Width: 200, Height: 50, FileSize: 2000, Safety: "sketchy", CreationTime: Day(2024, 2, 10), TagIDs: []int64{cat}},
		{UserID: alice, Width: 50, Height: 50, FileSize: 500, Type: "video", CreationTime: Day(2024, 3, 15), TagIDs: []int64{bird}},
		{UserID: carol, Width: 300, Height: 300, FileSize: 9000, CreationTime: Day(2024, 6, 15)},
		{UserID: bob, Width: 10, Height: 10, FileSize: 100, CreationTime: Day(2024, 6, 14), TagIDs: []int64{dog, bird}},
	} {
		lib.Posts = append(lib.Posts, must(s.InsertPost(ctx, p)))
	}

	for _, c := range []store.Comment{
		{PostID: lib.Posts[0], UserID: bob, Text: "nice cat", CreationTime: Day(2024, 1, 6)},
		{PostID: lib.Posts[0], UserID: carol, Text: "agreed", CreationTime: Day(2024, 1, 7)},
		{PostID: lib.Posts[2], UserID: alice, Text: "bird!", CreationTime: Day(2024, 3, 16)},
	} {
		lib.Comments = append(lib.Comments, must(s.InsertComment(ctx, c)))
	}

	if err := s.AddFavorite(ctx, lib.Posts[0], bob, Day(2024, 1, 6)); err != nil {
		t.Fatalf("seed library: %v", err)
	}
	if err := s.SetScore(ctx, lib.Posts[0], bob, 1, Day(2024, 1, 6)); err != nil {
		t.Fatalf("seed library: %v", err)
	}
	if err := s.SetScore(ctx, lib.Posts[2], bob, -1, Day(2024, 3, 16)); err != nil {
		t.Fatalf("seed library: %v", err)
	}

	return lib
}
