package kvsearch

import (
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kvsearch/internal/config"
)

// Option configures an Engine.
type Option interface {
	apply(*engineConfig)
}

type optionFunc func(*engineConfig)

func (f optionFunc) apply(c *engineConfig) { f(c) }

type engineConfig struct {
	driver   string // "valkey" or "redis", for logging only — both speak the same wire protocol
	addrs    []string
	username string
	password string
	db       int

	keyPrefix string

	concurrentMode bool
	poolSize       int
	pipeline       config.PipelineConfig

	logger *zap.Logger
}

// WithValkey configures the engine to load fields from a Valkey instance.
func WithValkey(addrs []string, password string) Option {
	return optionFunc(func(c *engineConfig) {
		c.driver = "valkey"
		c.addrs = addrs
		c.password = password
	})
}

// WithRedis configures the engine to load fields from a Redis instance.
func WithRedis(addrs []string, password string) Option {
	return optionFunc(func(c *engineConfig) {
		c.driver = "redis"
		c.addrs = addrs
		c.password = password
	})
}

// WithUsername sets the ACL username used to authenticate the field store connection.
func WithUsername(username string) Option {
	return optionFunc(func(c *engineConfig) { c.username = username })
}

// WithDB selects the logical database index on the field store connection.
func WithDB(db int) Option {
	return optionFunc(func(c *engineConfig) { c.db = db })
}

// WithKeyPrefix sets the prefix prepended to a document's key pointer when
// loading its fields. Defaults to "kvsearch:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *engineConfig) { c.keyPrefix = prefix })
}

// WithConcurrentMode sizes the engine's worker pool at poolSize; without it
// the pool is unbounded. Engine.Query runs each pipeline on the calling
// goroutine either way and does not go through the pool.
func WithConcurrentMode(poolSize int) Option {
	return optionFunc(func(c *engineConfig) {
		c.concurrentMode = true
		c.poolSize = poolSize
	})
}

// WithTimeoutPolicy sets how a timed-out pipeline is reported: "return"
// (graceful partial results, the default) or "fail" (propagate all the
// way to the caller).
func WithTimeoutPolicy(policy string) Option {
	return optionFunc(func(c *engineConfig) { c.pipeline.TimeoutPolicy = policy })
}

// WithQueryTimeout bounds a single query's wall time. Zero means unlimited.
func WithQueryTimeout(d time.Duration) Option {
	return optionFunc(func(c *engineConfig) { c.pipeline.QueryTimeoutMS = d.Milliseconds() })
}

// WithMaxSearchResults caps the sorter's top-K. Defaults to 1000.
func WithMaxSearchResults(n int) Option {
	return optionFunc(func(c *engineConfig) { c.pipeline.MaxSearchResults = n })
}

// WithMaxResultsToUnsortedMode sets the threshold above which a query
// switches to dynamic growth instead of a bounded top-K heap. Defaults to
// 10000.
func WithMaxResultsToUnsortedMode(n int) Option {
	return optionFunc(func(c *engineConfig) { c.pipeline.MaxResultsToUnsortedMode = n })
}

// WithNoMemPool disables the sorter's pooled-record reuse.
func WithNoMemPool() Option {
	return optionFunc(func(c *engineConfig) { c.pipeline.NoMemPool = true })
}

// WithLogger enables structured logging for engine operations. Pass nil to
// disable (the default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *engineConfig) { c.logger = l })
}
