package fixtures

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/roach88/quarry/internal/store"
)

// Stats counts the rows written by Seed.
type Stats struct {
	Users         int `json:"users"`
	TagCategories int `json:"tag_categories"`
	Tags          int `json:"tags"`
	Posts         int `json:"posts"`
	Comments      int `json:"comments"`
	Favorites     int `json:"favorites"`
	Scores        int `json:"scores"`
}

// Seed writes f into s in dependency order. It stops at the first error;
// rows written before it remain.
func Seed(ctx context.Context, s *store.Store, f *Fixture) (Stats, error) {
	var st Stats
	users := make(map[string]int64, len(f.Users))
	categories := make(map[string]int64, len(f.TagCategories))
	tags := make(map[string]int64)

	userID := func(name string) (int64, error) {
		id, ok := users[name]
		if !ok {
			return 0, fmt.Errorf("unknown user %q", name)
		}
		return id, nil
	}

	for i, u := range f.Users {
		created, err := requiredTime(u.Created)
		if err != nil {
			return st, fmt.Errorf("users[%d]: created: %w", i, err)
		}
		lastLogin, err := optionalTime(u.LastLogin)
		if err != nil {
			return st, fmt.Errorf("users[%d]: last_login: %w", i, err)
		}
		id, err := s.InsertUser(ctx, store.User{
			Name:          u.Name,
			Email:         u.Email,
			Rank:          u.Rank,
			CreationTime:  created,
			LastLoginTime: lastLogin,
		})
		if err != nil {
			return st, fmt.Errorf("users[%d]: %w", i, err)
		}
		users[u.Name] = id
		st.Users++
	}

	for i, c := range f.TagCategories {
		id, err := s.InsertTagCategory(ctx, store.TagCategory{Name: c.Name, Color: c.Color})
		if err != nil {
			return st, fmt.Errorf("tag_categories[%d]: %w", i, err)
		}
		categories[c.Name] = id
		st.TagCategories++
	}

	for i, t := range f.Tags {
		catID, ok := categories[t.Category]
		if !ok {
			return st, fmt.Errorf("tags[%d]: unknown category %q", i, t.Category)
		}
		created, err := optionalTime(t.Created)
		if err != nil {
			return st, fmt.Errorf("tags[%d]: created: %w", i, err)
		}
		edited, err := optionalTime(t.Edited)
		if err != nil {
			return st, fmt.Errorf("tags[%d]: edited: %w", i, err)
		}
		tag := store.Tag{
			CategoryID:       catID,
			Names:            t.Names,
			Description:      t.Description,
			LastEditTime:     edited,
			SuggestionCount:  t.Suggestions,
			ImplicationCount: t.Implications,
		}
		if created != nil {
			tag.CreationTime = *created
		}
		id, err := s.InsertTag(ctx, tag)
		if err != nil {
			return st, fmt.Errorf("tags[%d]: %w", i, err)
		}
		for _, name := range t.Names {
			tags[name] = id
		}
		st.Tags++
	}

	for i, p := range f.Posts {
		uploader, err := userID(p.Uploader)
		if err != nil {
			return st, fmt.Errorf("posts[%d]: %w", i, err)
		}
		created, err := requiredTime(p.Created)
		if err != nil {
			return st, fmt.Errorf("posts[%d]: created: %w", i, err)
		}
		edited, err := optionalTime(p.Edited)
		if err != nil {
			return st, fmt.Errorf("posts[%d]: edited: %w", i, err)
		}
		tagIDs := make([]int64, 0, len(p.Tags))
		for _, name := range p.Tags {
			id, ok := tags[name]
			if !ok {
				return st, fmt.Errorf("posts[%d]: unknown tag %q", i, name)
			}
			tagIDs = append(tagIDs, id)
		}

		postID, err := s.InsertPost(ctx, store.Post{
			ID:           p.ID,
			UserID:       uploader,
			Type:         p.Type,
			Safety:       p.Safety,
			Checksum:     p.Checksum,
			Source:       p.Source,
			FileSize:     p.FileSize,
			Width:        p.Width,
			Height:       p.Height,
			NoteCount:    p.Notes,
			CreationTime: created,
			LastEditTime: edited,
			TagIDs:       tagIDs,
		})
		if err != nil {
			return st, fmt.Errorf("posts[%d]: %w", i, err)
		}
		st.Posts++

		for _, name := range p.Favorites {
			uid, err := userID(name)
			if err != nil {
				return st, fmt.Errorf("posts[%d].favorites: %w", i, err)
			}
			if err := s.AddFavorite(ctx, postID, uid, created); err != nil {
				return st, fmt.Errorf("posts[%d].favorites: %w", i, err)
			}
			st.Favorites++
		}

		voters := make([]string, 0, len(p.Scores))
		for name := range p.Scores {
			voters = append(voters, name)
		}
		slices.Sort(voters)
		for _, name := range voters {
			uid, err := userID(name)
			if err != nil {
				return st, fmt.Errorf("posts[%d].scores: %w", i, err)
			}
			if err := s.SetScore(ctx, postID, uid, p.Scores[name], created); err != nil {
				return st, fmt.Errorf("posts[%d].scores: %w", i, err)
			}
			st.Scores++
		}
	}

	for i, c := range f.Comments {
		author, err := userID(c.Author)
		if err != nil {
			return st, fmt.Errorf("comments[%d]: %w", i, err)
		}
		created, err := requiredTime(c.Created)
		if err != nil {
			return st, fmt.Errorf("comments[%d]: created: %w", i, err)
		}
		edited, err := optionalTime(c.Edited)
		if err != nil {
			return st, fmt.Errorf("comments[%d]: edited: %w", i, err)
		}
		if _, err := s.InsertComment(ctx, store.Comment{
			ID:           c.ID,
			PostID:       c.Post,
			UserID:       author,
			Text:         c.Text,
			CreationTime: created,
			LastEditTime: edited,
		}); err != nil {
			return st, fmt.Errorf("comments[%d]: %w", i, err)
		}
		st.Comments++
	}

	return st, nil
}

func requiredTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("required")
	}
	return ParseTime(s)
}

func optionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
