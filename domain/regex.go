package domain

import (
	"regexp"
	"sync"
)

// RegexCache compiles each distinct pattern string once (spec.md §4.6
// "patterns are compiled once per distinct string constant (cache keyed by
// pattern text)"). A nil *RegexCache is not usable; construct with
// NewRegexCache.
type RegexCache struct {
	mu    sync.RWMutex
	byPat map[string]*regexp.Regexp
}

// NewRegexCache returns an empty cache.
func NewRegexCache() *RegexCache {
	return &RegexCache{byPat: make(map[string]*regexp.Regexp)}
}

// Match reports whether s matches pattern, compiling and caching pattern on
// first use. A pattern compile failure emits a Warning and the fallback
// behavior is "false" (spec.md §4.6 "regex compilation failure...return a
// defined fallback").
func (c *RegexCache) Match(pattern, s string) (bool, *Warning) {
	re, w := c.compile(pattern)
	if w != nil {
		return false, w
	}
	return re.MatchString(s), nil
}

// NotMatch is the negation of Match, reusing the same compiled value.
func (c *RegexCache) NotMatch(pattern, s string) (bool, *Warning) {
	matched, w := c.Match(pattern, s)
	if w != nil {
		return true, w
	}
	return !matched, nil
}

func (c *RegexCache) compile(pattern string) (*regexp.Regexp, *Warning) {
	c.mu.RLock()
	re, ok := c.byPat[pattern]
	c.mu.RUnlock()
	if ok {
		return re, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.byPat[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &Warning{Op: "match", Message: "regex compile failed: " + err.Error()}
	}
	c.byPat[pattern] = re
	return re, nil
}
