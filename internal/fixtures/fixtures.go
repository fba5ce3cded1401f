// Package fixtures loads sample data sets from YAML or CUE files and
// writes them into a store.
//
// Rows reference each other by name (users, categories, tags) or by
// explicit id (posts), so fixture files stay readable:
//
//	users:
//	  - name: alice
//	    created: 2024-01-10
//	tag_categories:
//	  - name: general
//	tags:
//	  - names: [cat, kitty]
//	    category: general
//	posts:
//	  - id: 1
//	    uploader: alice
//	    tags: [cat]
//	    favorites: [alice]
//	    scores: {alice: 1}
//	comments:
//	  - post: 1
//	    author: alice
//	    text: first
package fixtures

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/quarry/internal/timerange"
)

// Fixture is a complete data set.
type Fixture struct {
	Users         []User        `yaml:"users" json:"users"`
	TagCategories []TagCategory `yaml:"tag_categories" json:"tag_categories"`
	Tags          []Tag         `yaml:"tags" json:"tags"`
	Posts         []Post        `yaml:"posts" json:"posts"`
	Comments      []Comment     `yaml:"comments" json:"comments"`
}

// User is a fixture user. Times accept the formats listed on ParseTime.
type User struct {
	Name      string `yaml:"name" json:"name"`
	Email     string `yaml:"email,omitempty" json:"email,omitempty"`
	Rank      string `yaml:"rank,omitempty" json:"rank,omitempty"`
	Created   string `yaml:"created" json:"created"`
	LastLogin string `yaml:"last_login,omitempty" json:"last_login,omitempty"`
}

// TagCategory is a fixture tag category.
type TagCategory struct {
	Name  string `yaml:"name" json:"name"`
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

// Tag is a fixture tag. The first name is the primary one.
type Tag struct {
	Names        []string `yaml:"names" json:"names"`
	Category     string   `yaml:"category" json:"category"`
	Description  string   `yaml:"description,omitempty" json:"description,omitempty"`
	Created      string   `yaml:"created,omitempty" json:"created,omitempty"`
	Edited       string   `yaml:"edited,omitempty" json:"edited,omitempty"`
	Suggestions  int64    `yaml:"suggestions,omitempty" json:"suggestions,omitempty"`
	Implications int64    `yaml:"implications,omitempty" json:"implications,omitempty"`
}

// Post is a fixture post. Favorites and Scores are keyed by user name.
type Post struct {
	ID        int64          `yaml:"id,omitempty" json:"id,omitempty"`
	Uploader  string         `yaml:"uploader" json:"uploader"`
	Type      string         `yaml:"type,omitempty" json:"type,omitempty"`
	Safety    string         `yaml:"safety,omitempty" json:"safety,omitempty"`
	Checksum  string         `yaml:"checksum,omitempty" json:"checksum,omitempty"`
	Source    string         `yaml:"source,omitempty" json:"source,omitempty"`
	FileSize  int64          `yaml:"file_size,omitempty" json:"file_size,omitempty"`
	Width     int64          `yaml:"width,omitempty" json:"width,omitempty"`
	Height    int64          `yaml:"height,omitempty" json:"height,omitempty"`
	Notes     int64          `yaml:"notes,omitempty" json:"notes,omitempty"`
	Created   string         `yaml:"created" json:"created"`
	Edited    string         `yaml:"edited,omitempty" json:"edited,omitempty"`
	Tags      []string       `yaml:"tags,omitempty" json:"tags,omitempty"`
	Favorites []string       `yaml:"favorites,omitempty" json:"favorites,omitempty"`
	Scores    map[string]int `yaml:"scores,omitempty" json:"scores,omitempty"`
}

// Comment is a fixture comment on the post with id Post.
type Comment struct {
	ID      int64  `yaml:"id,omitempty" json:"id,omitempty"`
	Post    int64  `yaml:"post" json:"post"`
	Author  string `yaml:"author" json:"author"`
	Text    string `yaml:"text" json:"text"`
	Created string `yaml:"created" json:"created"`
	Edited  string `yaml:"edited,omitempty" json:"edited,omitempty"`
}

// Load reads a fixture file, choosing the decoder by extension: .yaml and
// .yml use YAML, .cue uses CUE.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	case ".cue":
		return DecodeCUE(data, path)
	default:
		return nil, fmt.Errorf("unsupported fixture format %q (want .yaml, .yml or .cue)", ext)
	}
}

// DecodeYAML parses a YAML fixture. Unknown fields are rejected.
func DecodeYAML(data []byte) (*Fixture, error) {
	var f Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &f, nil
}

// DecodeCUE evaluates a CUE fixture. The value must be concrete.
func DecodeCUE(data []byte, filename string) (*Fixture, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compiling CUE: %w", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validating CUE: %w", err)
	}

	var f Fixture
	if err := value.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding CUE: %w", err)
	}
	return &f, nil
}

var timeLayouts = []string{
	timerange.Layout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime accepts "2006-01-02 15:04:05", RFC 3339, "2006-01-02T15:04:05"
// and "2006-01-02". Results are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
