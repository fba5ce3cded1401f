package query

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/quarry/internal/criteria"
	"github.com/roach88/quarry/internal/searcherr"
)

var namedPattern = regexp.MustCompile(`^([a-z_-]+):(.*)$`)

// Parse tokenizes a raw query string. An empty string yields an empty query.
//
// Parse has no side effects, which is what makes Parser's cache safe.
func Parse(text string) (ParsedQuery, error) {
	var q ParsedQuery

	// Lower, not Fold: stored names are compared as typed, so "ß" must not
	// become "ss". A Caser holds state and is not shared between calls.
	lowered := cases.Lower(language.Und).String(text)
	for _, chunk := range strings.Fields(lowered) {
		negated := false
		for strings.HasPrefix(chunk, "-") {
			chunk = chunk[1:]
			negated = !negated
		}
		if chunk == "" {
			continue
		}

		m := namedPattern.FindStringSubmatch(chunk)
		if m == nil {
			c, err := criteria.Classify(chunk)
			if err != nil {
				return ParsedQuery{}, err
			}
			q.Anonymous = append(q.Anonymous, Anonymous{Criterion: c, Negated: negated})
			continue
		}

		key, value := m[1], m[2]
		switch key {
		case "sort":
			tok, err := parseSort(value, negated)
			if err != nil {
				return ParsedQuery{}, err
			}
			q.Sort = append(q.Sort, tok)
		case "special":
			q.Special = append(q.Special, Special{Value: value, Negated: negated})
		default:
			tok, err := parseNamed(key, value, negated)
			if err != nil {
				return ParsedQuery{}, err
			}
			q.Named = append(q.Named, tok)
		}
	}

	return q, nil
}

func parseNamed(key, value string, negated bool) (Named, error) {
	original := value
	if k, ok := strings.CutSuffix(key, "-min"); ok {
		key = k
		value += ".."
	} else if k, ok := strings.CutSuffix(key, "-max"); ok {
		key = k
		value = ".." + value
	}

	c, err := criteria.ClassifyWithOriginal(original, value)
	if err != nil {
		return Named{}, err
	}
	return Named{Key: key, Criterion: c, Negated: negated}, nil
}

func parseSort(value string, negated bool) (Sort, error) {
	direction := ""
	switch strings.Count(value, ",") {
	case 0:
	case 1:
		value, direction, _ = strings.Cut(value, ",")
	default:
		return Sort{}, searcherr.Searchf("too many commas in sort style token")
	}

	var order Order
	switch direction {
	case "":
		order = Default
	case "asc":
		order = Ascending
	case "desc":
		order = Descending
	default:
		return Sort{}, searcherr.Searchf("unknown search direction: %q", direction)
	}

	if negated {
		order = order.Negate()
	}
	return Sort{Key: value, Order: order}, nil
}
