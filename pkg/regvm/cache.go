package regvm

import (
	"strconv"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"

	"github.com/KromDaniel/regvm/internal/program"
	"github.com/KromDaniel/regvm/internal/syntax"
)

// Cache memoizes compiled programs by pattern and matching options. It is
// safe for concurrent use. Programs are immutable, so every Regex returned
// for the same key shares one program.
type Cache struct {
	programs *ristretto.Cache[string, *program.Program]
}

// NewCache returns a cache holding roughly maxPrograms programs.
func NewCache(maxPrograms int64) (*Cache, error) {
	if maxPrograms <= 0 {
		return nil, errors.Errorf("cache size must be positive, got %d", maxPrograms)
	}
	programs, err := ristretto.NewCache(&ristretto.Config[string, *program.Program]{
		NumCounters:        maxPrograms * 10,
		MaxCost:            maxPrograms,
		BufferItems:        64,
		Metrics:            true,
		IgnoreInternalCost: true,
		Cost: func(*program.Program) int64 {
			return 1
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating program cache")
	}
	return &Cache{programs: programs}, nil
}

func cacheKey(pattern string, cfg config) string {
	return cfg.options.String() + "/" + strconv.FormatBool(cfg.tracing) + "/" + pattern
}

// Compile returns a Regex for pattern, compiling it only on a cache miss.
// Options that only affect matching, such as WithStepLimit, apply to the
// returned Regex and are not part of the key.
func (c *Cache) Compile(pattern string, opts ...Option) (*Regex, error) {
	cfg := newConfig(opts)
	key := cacheKey(pattern, cfg)
	if prog, ok := c.programs.Get(key); ok {
		return newRegex(pattern, prog, cfg), nil
	}
	tree, err := syntax.Parse(pattern, cfg.options)
	if err != nil {
		return nil, err
	}
	re, err := compileTree(pattern, tree, cfg)
	if err != nil {
		return nil, err
	}
	c.programs.Set(key, re.prog, 1)
	return re, nil
}

// Wait blocks until pending writes are visible to Compile.
func (c *Cache) Wait() {
	c.programs.Wait()
}

// Hits returns the number of cache hits so far.
func (c *Cache) Hits() uint64 {
	return c.programs.Metrics.Hits()
}

// Misses returns the number of cache misses so far.
func (c *Cache) Misses() uint64 {
	return c.programs.Metrics.Misses()
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() {
	c.programs.Close()
}
