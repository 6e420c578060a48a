package formula

import "github.com/sqldef/gridiff/stringpool"

type parseResult struct {
	node Node
	err  error
}

// Cache parses each distinct formula string at most once per diff, keyed by
// StringId (spec §4.3's "parse cache keyed by StringId").
type Cache struct {
	pool    *stringpool.Pool
	results map[stringpool.StringId]parseResult
}

// NewCache returns a cache that resolves StringIds against pool.
func NewCache(pool *stringpool.Pool) *Cache {
	return &Cache{pool: pool, results: make(map[stringpool.StringId]parseResult)}
}

// Parse returns the parsed AST for the formula text at id, reusing a prior
// parse of the same id if one was already performed on this cache.
func (c *Cache) Parse(id stringpool.StringId) (Node, error) {
	if r, ok := c.results[id]; ok {
		return r.node, r.err
	}
	node, err := Parse(c.pool.Resolve(id))
	c.results[id] = parseResult{node: node, err: err}
	return node, err
}
