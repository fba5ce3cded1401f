// Package timerange resolves date phrases used in search queries into
// half-open UTC instant intervals.
//
// Accepted phrases:
//
//	today, yesterday
//	2024            the whole year
//	2024-03         the whole month (also 2024/03)
//	2024-03-07      the whole day   (also 2024/3/7)
//
// Times are stored as text in Layout, which sorts lexically in time order.
package timerange

import (
	"regexp"
	"strconv"
	"time"

	"github.com/roach88/quarry/internal/searcherr"
)

// Layout is the text form of every stored and queried instant.
const Layout = "2006-01-02 15:04:05"

// Format renders t in Layout after converting to UTC.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Parse reads a Layout timestamp as UTC.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, s, time.UTC)
}

// Clock supplies the current instant for relative phrases.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now in UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Range is the half-open interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// Resolver turns date phrases into ranges.
type Resolver interface {
	Resolve(phrase string) (Range, error)
}

var (
	yearPattern  = regexp.MustCompile(`^(\d{4})$`)
	monthPattern = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})$`)
	dayPattern   = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`)
)

// PhraseResolver is the default Resolver.
type PhraseResolver struct {
	Clock Clock
}

// NewResolver creates a PhraseResolver reading the given clock. A nil clock
// means SystemClock.
func NewResolver(clock Clock) *PhraseResolver {
	if clock == nil {
		clock = SystemClock{}
	}
	return &PhraseResolver{Clock: clock}
}

// Resolve implements Resolver. Unknown phrases are search errors.
func (r *PhraseResolver) Resolve(phrase string) (Range, error) {
	switch phrase {
	case "":
		return Range{}, searcherr.Searchf("empty date format")
	case "today":
		return r.day(0), nil
	case "yesterday":
		return r.day(-1), nil
	}

	if m := yearPattern.FindStringSubmatch(phrase); m != nil {
		year := atoi(m[1])
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return Range{Start: start, End: start.AddDate(1, 0, 0)}, nil
	}

	if m := monthPattern.FindStringSubmatch(phrase); m != nil {
		year, month := atoi(m[1]), atoi(m[2])
		if month < 1 || month > 12 {
			return Range{}, searcherr.Searchf("invalid date format: %q", phrase)
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return Range{Start: start, End: start.AddDate(0, 1, 0)}, nil
	}

	if m := dayPattern.FindStringSubmatch(phrase); m != nil {
		year, month, day := atoi(m[1]), atoi(m[2]), atoi(m[3])
		start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		// time.Date normalizes 2024-02-30 into March; reject instead.
		if start.Year() != year || int(start.Month()) != month || start.Day() != day {
			return Range{}, searcherr.Searchf("invalid date format: %q", phrase)
		}
		return Range{Start: start, End: start.AddDate(0, 0, 1)}, nil
	}

	return Range{}, searcherr.Searchf("invalid date format: %q", phrase)
}

func (r *PhraseResolver) day(offset int) Range {
	now := r.Clock.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	return Range{Start: start, End: start.AddDate(0, 0, 1)}
}

// atoi is only called on regexp-validated digit groups.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
