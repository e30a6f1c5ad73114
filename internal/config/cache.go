package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware used on
// the seat inventory endpoints.  When Enabled is false or no Redis client
// is configured, caching is disabled.  KeyStrategy determines which parts
// of the request contribute to the cache key.
type CacheConfig struct {
	Enabled      bool          `default:"true"`
	Methods      []string      `default:"GET"`
	TTL          time.Duration `default:"30s"`
	KeyStrategy  string        `split_words:"true" default:"route_query"`
	Prefix       string        `default:"cache"`
	MaxBodyBytes int           `split_words:"true" default:"1048576"`

	methods map[string]bool
}

func (c *CacheConfig) normalize() {
	c.methods = make(map[string]bool, len(c.Methods))
	for _, m := range c.Methods {
		m = strings.TrimSpace(strings.ToUpper(m))
		if m != "" {
			c.methods[m] = true
		}
	}
	if c.TTL <= 0 {
		c.TTL = 30 * time.Second
	}
}

// Caches reports whether responses to method are cacheable.
func (c CacheConfig) Caches(method string) bool {
	if c.methods == nil {
		c.normalize()
	}
	return c.methods[strings.ToUpper(method)]
}
