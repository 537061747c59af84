package table

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/murrdb/murr/directory"
	"github.com/murrdb/murr/segment"
)

// View is an ordered list of opened, memory-mapped segments (§4.5): one
// per segment file, opened once and never remapped. Position in Segments
// is the segment index used throughout a snapshot (KeyLocation.Segment),
// which is stable within a snapshot but may change on the next rebuild.
type View struct {
	Schema   *directory.Schema
	Segments []*segment.Segment
	IDs      []int
}

// openView opens every segment named by ids, in parallel, and validates
// each one. If any segment fails to open, every segment opened so far in
// this call is unmapped and the error is returned; the caller's existing
// snapshot (if any) is untouched.
func openView(ctx context.Context, dir directory.Directory, schema *directory.Schema, ids []int) (*View, error) {
	segments := make([]*segment.Segment, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := segment.Open(dir.SegmentPath(id))
			if err != nil {
				return fmt.Errorf("table: open segment %d: %w", id, err)
			}
			segments[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, s := range segments {
			if s != nil {
				_ = s.Close()
			}
		}
		return nil, err
	}

	return &View{Schema: schema, Segments: segments, IDs: ids}, nil
}

// Close unmaps every segment in the view. It must only be called once no
// reader retains a reference to data borrowed from it.
func (v *View) Close() error {
	var firstErr error
	for _, s := range v.Segments {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
