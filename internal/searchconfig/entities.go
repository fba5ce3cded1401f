package searchconfig

import (
	"fmt"

	"github.com/roach88/quarry/internal/filter"
	"github.com/roach88/quarry/internal/plan"
	"github.com/roach88/quarry/internal/predicate"
	"github.com/roach88/quarry/internal/searcherr"
)

var (
	randomSort = SortColumn{Expr: "RANDOM()", Default: plan.Asc}

	creationNames = []string{"creation-date", "creation-time"}
	editNames     = []string{"last-edit-date", "last-edit-time", "edit-date", "edit-time"}
)

func sortOn(expr string, dir plan.Direction) SortColumn {
	return SortColumn{Expr: expr, Default: dir, Deterministic: true}
}

// nullableSort orders NULL as the empty string so that neighbor lookups
// can compare against it.
func nullableSort(expr string, dir plan.Direction) SortColumn {
	return sortOn("COALESCE("+expr+", '')", dir)
}

// Users is the search configuration for user accounts.
func Users() (*Config, error) {
	name := predicate.Col("users", "name")
	loginNames := []string{"last-login-date", "last-login-time", "login-date", "login-time"}

	return NewBuilder("users", "users").
		Field("name", "users.name").
		Field("rank", "users.rank").
		Field("creation_time", "users.creation_time").
		Field("last_login_time", "users.last_login_time").
		Anonymous(filter.TextOn(name)).
		Filter(filter.TextOn(name), "name").
		Filter(filter.TextOn(predicate.Col("users", "rank")), "rank").
		Filter(filter.DateOn(predicate.Col("users", "creation_time")), creationNames...).
		Filter(filter.DateOn(predicate.Col("users", "last_login_time")), loginNames...).
		Sort(randomSort, "random").
		Sort(sortOn("users.name", plan.Asc), "name").
		Sort(sortOn("users.creation_time", plan.Desc), creationNames...).
		Sort(nullableSort("users.last_login_time", plan.Desc), loginNames...).
		DefaultSort("name").
		Build()
}

// TagCategories is the search configuration for tag categories.
func TagCategories() (*Config, error) {
	name := predicate.Col("tag_categories", "name")
	usage := predicate.Col("tag_categories", "usage_count")

	return NewBuilder("tag-categories", "tag_categories").
		Field("name", "tag_categories.name").
		Field("color", "tag_categories.color").
		Field("usage_count", "tag_categories.usage_count").
		Anonymous(filter.TextOn(name)).
		Filter(filter.TextOn(name), "name").
		Filter(filter.TextOn(predicate.Col("tag_categories", "color")), "color").
		Filter(filter.NumericOn(usage), "usage-count", "usages").
		Sort(sortOn("tag_categories.name", plan.Asc), "name").
		Sort(sortOn("tag_categories.usage_count", plan.Desc), "usage-count", "usages").
		DefaultSort("name").
		Build()
}

// Tags is the search configuration for tags. Terms match any of a tag's
// names.
func Tags() (*Config, error) {
	tagNames := filter.Related(filter.Link{
		Owner:     predicate.Col("tags", "id"),
		From:      "tag_names",
		RelatedID: predicate.Col("tag_names", "tag_id"),
		Value:     predicate.Col("tag_names", "name"),
		Family:    filter.Text,
	})
	category := filter.Related(filter.Link{
		Owner:     predicate.Col("tags", "category_id"),
		From:      "tag_categories",
		RelatedID: predicate.Col("tag_categories", "id"),
		Value:     predicate.Col("tag_categories", "name"),
		Family:    filter.Text,
	})

	return NewBuilder("tags", "tags").
		Join("JOIN tag_categories ON tag_categories.id = tags.category_id").
		Field("name", "tags.first_name").
		Field("category", "tag_categories.name").
		Field("post_count", "tags.post_count").
		Field("creation_time", "tags.creation_time").
		Anonymous(tagNames).
		Filter(tagNames, "name").
		Filter(category, "category").
		Filter(filter.DateOn(predicate.Col("tags", "creation_time")), creationNames...).
		Filter(filter.DateOn(predicate.Col("tags", "last_edit_time")), editNames...).
		Filter(filter.NumericOn(predicate.Col("tags", "post_count")), "usage-count", "post-count", "usages").
		Filter(filter.NumericOn(predicate.Col("tags", "suggestion_count")), "suggestion-count").
		Filter(filter.NumericOn(predicate.Col("tags", "implication_count")), "implication-count").
		Sort(randomSort, "random").
		Sort(sortOn("tags.first_name", plan.Asc), "name").
		Sort(sortOn("tag_categories.name", plan.Asc), "category").
		Sort(sortOn("tags.creation_time", plan.Desc), creationNames...).
		Sort(nullableSort("tags.last_edit_time", plan.Desc), editNames...).
		Sort(sortOn("tags.post_count", plan.Desc), "usage-count", "post-count", "usages").
		Sort(sortOn("tags.suggestion_count", plan.Desc), "suggestion-count").
		Sort(sortOn("tags.implication_count", plan.Desc), "implication-count").
		DefaultSort("name").
		Build()
}

// Posts is the search configuration for posts. Terms match tag names.
func Posts() (*Config, error) {
	col := func(name string) predicate.Column { return predicate.Col("posts", name) }
	id := col("id")
	userNames := func(owner predicate.Column, from string, related predicate.Column) filter.Descriptor {
		return filter.Related(filter.Link{
			Owner:     owner,
			From:      from,
			RelatedID: related,
			Value:     predicate.Col("users", "name"),
			Family:    filter.Text,
		})
	}
	tags := filter.Related(filter.Link{
		Owner:     id,
		From:      "post_tags JOIN tag_names ON tag_names.tag_id = post_tags.tag_id",
		RelatedID: predicate.Col("post_tags", "post_id"),
		Value:     predicate.Col("tag_names", "name"),
		Family:    filter.Text,
	})
	const area = "posts.width * posts.height"
	postDateNames := append(creationNames[:len(creationNames):len(creationNames)], "date", "time")

	counters := []struct {
		column string
		names  []string
	}{
		{"score", []string{"score"}},
		{"tag_count", []string{"tag-count"}},
		{"comment_count", []string{"comment-count"}},
		{"favorite_count", []string{"fav-count"}},
		{"note_count", []string{"note-count"}},
		{"file_size", []string{"file-size"}},
		{"width", []string{"image-width", "width"}},
		{"height", []string{"image-height", "height"}},
	}

	b := NewBuilder("posts", "posts").
		Field("user_id", "posts.user_id").
		Field("type", "posts.type").
		Field("safety", "posts.safety").
		Field("score", "posts.score").
		Field("tag_count", "posts.tag_count").
		Field("favorite_count", "posts.favorite_count").
		Field("creation_time", "posts.creation_time").
		Anonymous(tags).
		Filter(filter.NumericOn(id), "id").
		Filter(tags, "tag").
		Filter(filter.NumericOn(predicate.Expression(area)), "image-area", "area").
		Filter(userNames(col("user_id"), "users", predicate.Col("users", "id")), "uploader", "upload", "submit").
		Filter(userNames(id, "comments JOIN users ON users.id = comments.user_id", predicate.Col("comments", "post_id")), "comment").
		Filter(userNames(id, "post_favorites JOIN users ON users.id = post_favorites.user_id", predicate.Col("post_favorites", "post_id")), "fav").
		Filter(filter.TextOn(col("type")), "type").
		Filter(filter.TextOn(col("safety")), "safety", "rating").
		Filter(filter.TextOn(col("checksum")), "content-checksum").
		Filter(filter.TextOn(col("source")), "source").
		Filter(filter.DateOn(col("creation_time")), postDateNames...).
		Filter(filter.DateOn(col("last_edit_time")), editNames...).
		Special(scoredBy(1), "liked").
		Special(scoredBy(-1), "disliked").
		Special(favoritedBy, "fav").
		Special(tumbleweed, "tumbleweed").
		Sort(randomSort, "random").
		Sort(sortOn("posts.id", plan.Desc), "id")

	for _, c := range counters {
		b.Filter(filter.NumericOn(col(c.column)), c.names...)
		b.Sort(sortOn("posts."+c.column, plan.Desc), c.names...)
	}

	return b.
		Sort(sortOn(area, plan.Desc), "image-area", "area").
		Sort(sortOn("posts.creation_time", plan.Desc), postDateNames...).
		Sort(nullableSort("posts.last_edit_time", plan.Desc), editNames...).
		DefaultSort("id").
		Build()
}

// Comments is the search configuration for comments. Terms match the
// comment text.
func Comments() (*Config, error) {
	text := predicate.Col("comments", "text")
	author := filter.Related(filter.Link{
		Owner:     predicate.Col("comments", "user_id"),
		From:      "users",
		RelatedID: predicate.Col("users", "id"),
		Value:     predicate.Col("users", "name"),
		Family:    filter.Text,
	})

	return NewBuilder("comments", "comments").
		Join("JOIN users ON users.id = comments.user_id").
		Field("post_id", "comments.post_id").
		Field("user", "users.name").
		Field("text", "comments.text").
		Field("creation_time", "comments.creation_time").
		Anonymous(filter.TextOn(text)).
		Filter(filter.NumericOn(predicate.Col("comments", "id")), "id").
		Filter(filter.NumericOn(predicate.Col("comments", "post_id")), "post").
		Filter(author, "user", "author").
		Filter(filter.TextOn(text), "text").
		Filter(filter.DateOn(predicate.Col("comments", "creation_time")), creationNames...).
		Filter(filter.DateOn(predicate.Col("comments", "last_edit_time")), editNames...).
		Sort(randomSort, "random").
		Sort(sortOn("users.name", plan.Asc), "user", "author").
		Sort(sortOn("comments.post_id", plan.Desc), "post").
		Sort(sortOn("comments.creation_time", plan.Desc), creationNames...).
		Sort(nullableSort("comments.last_edit_time", plan.Desc), editNames...).
		DefaultSort("creation-date").
		Build()
}

func requireUser(keyword string, ctx SpecialContext) error {
	if ctx.Anonymous() {
		return searcherr.Searchf("special filter %q requires a signed-in user", keyword)
	}
	return nil
}

func negateIf(p predicate.Predicate, negated bool) predicate.Predicate {
	if negated {
		return predicate.Negate(p)
	}
	return p
}

func scoredBy(score int64) SpecialFunc {
	keyword := "liked"
	if score < 0 {
		keyword = "disliked"
	}
	return func(ctx SpecialContext, negated bool) (predicate.Predicate, error) {
		if err := requireUser(keyword, ctx); err != nil {
			return nil, err
		}
		p := predicate.InSubquery{
			Column: predicate.Col("posts", "id"),
			Subquery: predicate.Subquery{
				From:   "post_scores",
				Select: predicate.Col("post_scores", "post_id"),
				Filter: predicate.AndOf(
					predicate.Equals{Column: predicate.Col("post_scores", "user_id"), Value: ctx.UserID},
					predicate.Equals{Column: predicate.Col("post_scores", "score"), Value: score},
				),
			},
		}
		return negateIf(p, negated), nil
	}
}

func favoritedBy(ctx SpecialContext, negated bool) (predicate.Predicate, error) {
	if err := requireUser("fav", ctx); err != nil {
		return nil, err
	}
	p := predicate.InSubquery{
		Column: predicate.Col("posts", "id"),
		Subquery: predicate.Subquery{
			From:   "post_favorites",
			Select: predicate.Col("post_favorites", "post_id"),
			Filter: predicate.Equals{Column: predicate.Col("post_favorites", "user_id"), Value: ctx.UserID},
		},
	}
	return negateIf(p, negated), nil
}

// tumbleweed matches posts nobody has interacted with.
func tumbleweed(_ SpecialContext, negated bool) (predicate.Predicate, error) {
	zero := func(name string) predicate.Predicate {
		return predicate.Equals{Column: predicate.Col("posts", name), Value: int64(0)}
	}
	p := predicate.AndOf(zero("score"), zero("favorite_count"), zero("comment_count"))
	return negateIf(p, negated), nil
}

// Registry holds the configuration of every searchable entity type.
type Registry struct {
	configs map[string]*Config
	order   []string
}

// NewRegistry builds all entity configurations. A configuration error is a
// programming error and fails startup.
func NewRegistry() (*Registry, error) {
	r := &Registry{configs: make(map[string]*Config)}
	for _, build := range []func() (*Config, error){Users, TagCategories, Tags, Posts, Comments} {
		cfg, err := build()
		if err != nil {
			return nil, err
		}
		if err := r.Register(cfg); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a configuration.
func (r *Registry) Register(cfg *Config) error {
	if _, dup := r.configs[cfg.Entity()]; dup {
		return fmt.Errorf("entity %q registered twice", cfg.Entity())
	}
	r.configs[cfg.Entity()] = cfg
	r.order = append(r.order, cfg.Entity())
	return nil
}

// Lookup returns the configuration for an entity type.
func (r *Registry) Lookup(entity string) (*Config, bool) {
	cfg, ok := r.configs[entity]
	return cfg, ok
}

// Entities lists entity types in registration order.
func (r *Registry) Entities() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
