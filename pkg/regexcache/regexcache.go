// Package regexcache provides a thread-safe cache for compiled regular
// expressions. Signal-pattern matching runs the same expressions against
// every response body; caching avoids recompiling them per probe.
//
// Usage:
//
//	re, err := regexcache.Get("pattern")
//	if err != nil {
//	    // handle error
//	}
//	matches := re.FindAllString(input, -1)
package regexcache

import (
	"regexp"
	"sync"
)

// cache holds compiled regular expressions keyed by pattern string.
var cache sync.Map

// Get returns a compiled regexp for the given pattern.
// If the pattern was previously compiled, it returns the cached version.
func Get(pattern string) (*regexp.Regexp, error) {
	if cached, ok := cache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	actual, _ := cache.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}

// MustGet returns a compiled regexp for the given pattern.
// It panics if the pattern is invalid.
func MustGet(pattern string) *regexp.Regexp {
	re, err := Get(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

// Size returns the number of cached regular expressions.
func Size() int {
	count := 0
	cache.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}
