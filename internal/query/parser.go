package query

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheObserver is notified of every cache lookup.
type CacheObserver interface {
	ObserveParseCache(hit bool)
}

// Parser tokenizes query strings and remembers the results by query text.
//
// ParsedQuery values are never mutated after Parse returns them, so a cached
// value can be handed to any number of requests. Failed parses are not
// cached. Parser is safe for concurrent use.
type Parser struct {
	cache    *lru.Cache[string, ParsedQuery]
	observer CacheObserver
}

// NewParser creates a Parser holding at most size queries. A size of zero
// disables caching.
func NewParser(size int, observer CacheObserver) (*Parser, error) {
	p := &Parser{observer: observer}
	if size > 0 {
		cache, err := lru.New[string, ParsedQuery](size)
		if err != nil {
			return nil, fmt.Errorf("create parse cache: %w", err)
		}
		p.cache = cache
	}
	return p, nil
}

// Parse returns the tokenized form of text.
func (p *Parser) Parse(text string) (ParsedQuery, error) {
	if p.cache == nil {
		return Parse(text)
	}

	if q, ok := p.cache.Get(text); ok {
		p.observe(true)
		return q, nil
	}
	p.observe(false)

	q, err := Parse(text)
	if err != nil {
		return ParsedQuery{}, err
	}
	p.cache.Add(text, q)
	return q, nil
}

// Len returns the number of cached queries.
func (p *Parser) Len() int {
	if p.cache == nil {
		return 0
	}
	return p.cache.Len()
}

func (p *Parser) observe(hit bool) {
	if p.observer != nil {
		p.observer.ObserveParseCache(hit)
	}
}
