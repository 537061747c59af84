package murr

import (
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Store at construction time.
type Option func(*Store)

// WithLogger sets the logger the store and its tables log operationally
// interesting events to (rebuilds, segment open failures). The core never
// logs per-query. Defaults to a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithRegisterer sets the Prometheus registerer metrics are registered
// against, labeled per table. Defaults to a fresh, unexported registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Store) { s.reg = reg }
}

// WithStoragePath sets the root directory under which each table gets its
// own subdirectory of segment files and a table.json descriptor.
func WithStoragePath(path string) Option {
	return func(s *Store) { s.storagePath = path }
}

// WithAllocator sets the Arrow memory allocator used to build result
// arrays. Defaults to memory.NewGoAllocator().
func WithAllocator(pool memory.Allocator) Option {
	return func(s *Store) { s.pool = pool }
}
