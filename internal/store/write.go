package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/quarry/internal/timerange"
)

// User is a row of the users table. A zero ID lets SQLite assign one.
type User struct {
	ID            int64
	Name          string
	Email         string
	Rank          string
	CreationTime  time.Time
	LastLoginTime *time.Time
}

// TagCategory is a row of the tag_categories table.
type TagCategory struct {
	ID    int64
	Name  string
	Color string
}

// Tag is a row of the tags table together with its names. The first name
// is the primary one.
type Tag struct {
	ID               int64
	CategoryID       int64
	Names            []string
	Description      string
	CreationTime     time.Time
	LastEditTime     *time.Time
	SuggestionCount  int64
	ImplicationCount int64
}

// Post is a row of the posts table together with its tag ids.
type Post struct {
	ID           int64
	UserID       int64
	Type         string
	Safety       string
	Checksum     string
	Source       string
	FileSize     int64
	Width        int64
	Height       int64
	NoteCount    int64
	CreationTime time.Time
	LastEditTime *time.Time
	TagIDs       []int64
}

// Comment is a row of the comments table.
type Comment struct {
	ID           int64
	PostID       int64
	UserID       int64
	Text         string
	CreationTime time.Time
	LastEditTime *time.Time
}

// InsertUser inserts a user and returns its id.
func (s *Store) InsertUser(ctx context.Context, u User) (int64, error) {
	if u.Name == "" {
		return 0, fmt.Errorf("insert user: name is required")
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, rank, creation_time, last_login_time)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		nullID(u.ID),
		u.Name,
		u.Email,
		orDefault(u.Rank, "regular"),
		timerange.Format(u.CreationTime),
		nullTime(u.LastLoginTime),
	)
	if err != nil {
		return 0, fmt.Errorf("insert user %q: %w", u.Name, err)
	}
	return insertedID(res, u.ID)
}

// InsertTagCategory inserts a tag category and returns its id.
func (s *Store) InsertTagCategory(ctx context.Context, c TagCategory) (int64, error) {
	if c.Name == "" {
		return 0, fmt.Errorf("insert tag category: name is required")
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tag_categories (id, name, color) VALUES (?, ?, ?)
	`, nullID(c.ID), c.Name, orDefault(c.Color, "default"))
	if err != nil {
		return 0, fmt.Errorf("insert tag category %q: %w", c.Name, err)
	}
	return insertedID(res, c.ID)
}

// InsertTag inserts a tag with its names and bumps the category usage
// count. All writes happen in one transaction.
func (s *Store) InsertTag(ctx context.Context, t Tag) (int64, error) {
	if len(t.Names) == 0 {
		return 0, fmt.Errorf("insert tag: at least one name is required")
	}

	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO tags
			(id, category_id, first_name, description, creation_time, last_edit_time, suggestion_count, implication_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			nullID(t.ID),
			t.CategoryID,
			t.Names[0],
			t.Description,
			timerange.Format(t.CreationTime),
			nullTime(t.LastEditTime),
			t.SuggestionCount,
			t.ImplicationCount,
		)
		if err != nil {
			return err
		}
		if id, err = insertedID(res, t.ID); err != nil {
			return err
		}

		for i, name := range t.Names {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO tag_names (tag_id, ord, name) VALUES (?, ?, ?)`,
				id, i, name,
			); err != nil {
				return fmt.Errorf("name %q: %w", name, err)
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE tag_categories SET usage_count = usage_count + 1 WHERE id = ?`,
			t.CategoryID,
		)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert tag %q: %w", t.Names[0], err)
	}
	return id, nil
}

// InsertPost inserts a post, links its tags and keeps tag_count and the
// tags' post_count in step.
func (s *Store) InsertPost(ctx context.Context, p Post) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO posts
			(id, user_id, type, safety, checksum, source, file_size, width, height, note_count, creation_time, last_edit_time)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			nullID(p.ID),
			p.UserID,
			orDefault(p.Type, "image"),
			orDefault(p.Safety, "safe"),
			p.Checksum,
			p.Source,
			p.FileSize,
			p.Width,
			p.Height,
			p.NoteCount,
			timerange.Format(p.CreationTime),
			nullTime(p.LastEditTime),
		)
		if err != nil {
			return err
		}
		if id, err = insertedID(res, p.ID); err != nil {
			return err
		}

		for _, tagID := range p.TagIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO post_tags (post_id, tag_id) VALUES (?, ?)`, id, tagID,
			); err != nil {
				return fmt.Errorf("tag %d: %w", tagID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE tags SET post_count = post_count + 1 WHERE id = ?`, tagID,
			); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE posts SET tag_count = ? WHERE id = ?`, len(p.TagIDs), id,
		)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}
	return id, nil
}

// InsertComment inserts a comment and bumps the post's comment_count.
func (s *Store) InsertComment(ctx context.Context, c Comment) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO comments (id, post_id, user_id, text, creation_time, last_edit_time)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			nullID(c.ID),
			c.PostID,
			c.UserID,
			c.Text,
			timerange.Format(c.CreationTime),
			nullTime(c.LastEditTime),
		)
		if err != nil {
			return err
		}
		if id, err = insertedID(res, c.ID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE posts SET comment_count = comment_count + 1 WHERE id = ?`, c.PostID,
		)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}
	return id, nil
}

// AddFavorite marks a post as a user's favorite. Repeating it is a no-op.
func (s *Store) AddFavorite(ctx context.Context, postID, userID int64, at time.Time) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO post_favorites (post_id, user_id, time) VALUES (?, ?, ?)
			ON CONFLICT(post_id, user_id) DO NOTHING
		`, postID, userID, timerange.Format(at))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil || n == 0 {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE posts SET favorite_count = favorite_count + 1 WHERE id = ?`, postID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("add favorite post=%d user=%d: %w", postID, userID, err)
	}
	return nil
}

// SetScore records a user's vote on a post: 1, -1, or 0 to withdraw it.
// The post's score is adjusted by the difference to the previous vote.
func (s *Store) SetScore(ctx context.Context, postID, userID int64, score int, at time.Time) error {
	if score < -1 || score > 1 {
		return fmt.Errorf("set score: score %d out of range [-1, 1]", score)
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var previous int
		err := tx.QueryRowContext(ctx,
			`SELECT score FROM post_scores WHERE post_id = ? AND user_id = ?`, postID, userID,
		).Scan(&previous)
		if err != nil && err != sql.ErrNoRows {
			return err
		}

		if score == 0 {
			_, err = tx.ExecContext(ctx,
				`DELETE FROM post_scores WHERE post_id = ? AND user_id = ?`, postID, userID,
			)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO post_scores (post_id, user_id, score, time) VALUES (?, ?, ?, ?)
				ON CONFLICT(post_id, user_id) DO UPDATE SET score = excluded.score, time = excluded.time
			`, postID, userID, score, timerange.Format(at))
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE posts SET score = score + ? WHERE id = ?`, score-previous, postID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("set score post=%d user=%d: %w", postID, userID, err)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertedID(res sql.Result, requested int64) (int64, error) {
	if requested != 0 {
		return requested, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return timerange.Format(*t)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
