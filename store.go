package murr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/murrdb/murr/directory"
	"github.com/murrdb/murr/table"
)

// Store is the process-wide service registry (§4.7): a mapping from table
// name to its current cached snapshot, coordinating create/write/read and
// the atomic snapshot rebuild that makes writes visible.
type Store struct {
	mtx    sync.RWMutex
	tables map[string]*tableState

	logger      log.Logger
	reg         prometheus.Registerer
	storagePath string
	pool        memory.Allocator
}

// New constructs a Store. WithStoragePath is required; every other option
// has a usable default.
func New(opts ...Option) (*Store, error) {
	s := &Store{
		tables: map[string]*tableState{},
		logger: log.NewNopLogger(),
		reg:    prometheus.NewRegistry(),
		pool:   memory.NewGoAllocator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.storagePath == "" {
		return nil, fmt.Errorf("murr: WithStoragePath is required")
	}
	if err := s.loadExisting(); err != nil {
		return nil, fmt.Errorf("murr: load existing tables from %s: %w", s.storagePath, err)
	}
	return s, nil
}

// loadExisting discovers tables created by a previous process: every
// immediate subdirectory of storagePath that carries a schema descriptor is
// opened and given an initial snapshot, exactly as Create would, without
// rewriting the descriptor. This lets a new process (the CLI, most
// visibly) pick up tables it did not itself create.
func (s *Store) loadExisting() error {
	entries, err := os.ReadDir(s.storagePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		dir, err := directory.OpenFS(filepath.Join(s.storagePath, name))
		if err != nil {
			return fmt.Errorf("open table %q: %w", name, err)
		}
		schema, _, err := dir.Index(context.Background())
		if err != nil {
			return fmt.Errorf("index table %q: %w", name, err)
		}
		if schema == nil {
			// A bare directory with no schema descriptor yet; not a table.
			continue
		}

		snap, err := table.Rebuild(context.Background(), dir, s.pool)
		if err != nil {
			return fmt.Errorf("build initial snapshot for table %q: %w", name, err)
		}

		reg := prometheus.WrapRegistererWith(prometheus.Labels{"table": name}, s.reg)
		ts := &tableState{
			dir:      dir,
			schema:   schema,
			metrics:  newTableMetrics(reg),
			snapshot: snap,
		}
		ts.metrics.rebuilds.Inc()
		s.tables[name] = ts
		level.Debug(s.logger).Log("msg", "loaded existing table", "table", name, "rows", snap.NumRows())
	}
	return nil
}

// Create declares a new table with the given schema and materializes its
// descriptor via the directory. The table starts with an empty (zero
// segment) snapshot so Read works immediately, before any Write.
func (s *Store) Create(ctx context.Context, name string, schema *directory.Schema) error {
	if err := schema.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, exists := s.tables[name]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyExists, name)
	}

	dir, err := directory.OpenFS(filepath.Join(s.storagePath, name))
	if err != nil {
		return fmt.Errorf("murr: create table %q: %w", name, err)
	}
	if err := dir.WriteSchema(ctx, schema); err != nil {
		return fmt.Errorf("murr: create table %q: %w", name, err)
	}

	snap, err := table.Rebuild(ctx, dir, s.pool)
	if err != nil {
		return fmt.Errorf("murr: create table %q: initial snapshot: %w", name, err)
	}

	reg := prometheus.WrapRegistererWith(prometheus.Labels{"table": name}, s.reg)
	ts := &tableState{
		dir:      dir,
		schema:   schema,
		metrics:  newTableMetrics(reg),
		snapshot: snap,
	}
	ts.metrics.rebuilds.Inc()

	s.tables[name] = ts
	return nil
}

// List returns the declared schema of every table, keyed by name.
func (s *Store) List() map[string]*directory.Schema {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	out := make(map[string]*directory.Schema, len(s.tables))
	for name, ts := range s.tables {
		out[name] = ts.schema
	}
	return out
}

// GetSchema returns the declared schema for name.
func (s *Store) GetSchema(name string) (*directory.Schema, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	ts, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return ts.schema, nil
}
