package murr

import (
	"errors"
	"fmt"
	"time"

	"github.com/apache/arrow/go/v14/arrow"

	"github.com/murrdb/murr/table"
)

// Read resolves keys against the table's current snapshot and gathers the
// requested columns (§4.7). The snapshot reference is acquired under a
// shared lock and the lock is released before the fetch runs: Read never
// holds a registry lock while touching mapped memory, and a read started
// before a concurrent write completes sees only the segments present when
// its snapshot was acquired.
func (s *Store) Read(name string, keys []string, columns []string) (arrow.Record, error) {
	s.mtx.RLock()
	ts, ok := s.tables[name]
	var snap *table.CachedTable
	if ok {
		snap = ts.snapshot.Acquire()
	}
	s.mtx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	defer snap.Release()

	start := time.Now()
	record, err := snap.Reader().Fetch(s.pool, keys, columns)
	ts.metrics.gatherDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, table.ErrUnknownColumn) {
			return nil, fmt.Errorf("%w: %v", ErrUnknownColumn, err)
		}
		return nil, err
	}
	return record, nil
}
