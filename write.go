package murr

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log/level"

	"github.com/murrdb/murr/table"
)

// Write validates batch against the table's schema, encodes it into one
// new segment, publishes that segment through the directory, and rebuilds
// the snapshot so the write becomes visible (§4.7). Only one write is ever
// in flight for a given table; concurrent callers queue on the table's
// write mutex.
//
// If the rebuild fails after the segment was committed, the error is
// surfaced here but the segment remains on disk: it will be picked up by
// the next successful rebuild, whether triggered by a later write or by a
// new Store loading the table in New.
func (s *Store) Write(ctx context.Context, name string, batch Batch) error {
	s.mtx.RLock()
	ts, ok := s.tables[name]
	s.mtx.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}

	ts.writeMu.Lock()
	defer ts.writeMu.Unlock()

	numRows, err := validateBatch(ts.schema, batch)
	if err != nil {
		return err
	}

	data := encodeSegment(ts.schema, batch, numRows)

	id, err := ts.dir.AllocateSegmentID(ctx)
	if err != nil {
		return fmt.Errorf("murr: write to %q: allocate segment id: %w", name, err)
	}
	if err := ts.dir.WriteSegment(ctx, id, data); err != nil {
		return fmt.Errorf("murr: write to %q: commit segment %d: %w", name, id, err)
	}
	ts.metrics.segmentsWritten.Inc()
	ts.metrics.rowsWritten.Add(float64(numRows))

	rebuildStart := time.Now()
	newSnap, rebuildErr := table.Rebuild(ctx, ts.dir, s.pool)
	ts.metrics.rebuildDuration.Observe(time.Since(rebuildStart).Seconds())
	if rebuildErr != nil {
		ts.metrics.rebuildFailures.Inc()
		level.Error(s.logger).Log(
			"msg", "snapshot rebuild failed after segment commit; segment remains on disk",
			"table", name,
			"segment_id", id,
			"err", rebuildErr,
		)
		return fmt.Errorf("murr: write to %q: rebuild: %w", name, rebuildErr)
	}
	ts.metrics.rebuilds.Inc()
	ts.metrics.rowsInSnapshot.Set(float64(newSnap.NumRows()))

	s.mtx.Lock()
	old := ts.snapshot
	ts.snapshot = newSnap
	s.mtx.Unlock()

	old.Release()

	return nil
}
