package directory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	schemaFileName = "table.json"
	segmentSuffix  = ".seg"
	segmentIDWidth = 8
	dirPerms       = os.FileMode(0o755)
	filePerms      = os.FileMode(0o640)
)

// FSDirectory is the local-filesystem Directory implementation: segments
// are stored as {8-digit-id}.seg plus a single table.json schema
// descriptor in dir.
type FSDirectory struct {
	dir string

	mu        sync.Mutex
	allocated bool
	nextID    int
}

// OpenFS opens (and creates, if absent) a directory rooted at dir.
func OpenFS(dir string) (*FSDirectory, error) {
	if err := os.MkdirAll(dir, dirPerms); err != nil {
		return nil, fmt.Errorf("directory: create %s: %w", dir, err)
	}
	return &FSDirectory{dir: dir}, nil
}

func segmentFileName(id int) string {
	return fmt.Sprintf("%0*d%s", segmentIDWidth, id, segmentSuffix)
}

func parseSegmentID(name string) (int, bool) {
	if !strings.HasSuffix(name, segmentSuffix) {
		return 0, false
	}
	digits := strings.TrimSuffix(name, segmentSuffix)
	if len(digits) != segmentIDWidth {
		return 0, false
	}
	id, err := strconv.Atoi(digits)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

func (d *FSDirectory) Index(ctx context.Context) (*Schema, []int, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("directory: list %s: %w", d.dir, err)
	}

	var schema *Schema
	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == schemaFileName {
			data, err := os.ReadFile(filepath.Join(d.dir, name))
			if err != nil {
				return nil, nil, fmt.Errorf("directory: read %s: %w", name, err)
			}
			schema, err = unmarshalSchema(data)
			if err != nil {
				return nil, nil, err
			}
			continue
		}
		if id, ok := parseSegmentID(name); ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return schema, ids, nil
}

func (d *FSDirectory) WriteSchema(ctx context.Context, schema *Schema) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := marshalSchema(schema)
	if err != nil {
		return err
	}
	return d.writeAtomic(schemaFileName, data)
}

// AllocateSegmentID recovers the highest existing id on first use (§9:
// "directory must recover the highest existing id on open and resume from
// max+1"), then hands out ids from an in-process counter. Concurrent
// writers within this process are additionally serialized by the
// registry's per-table write mutex; cross-process writers are outside the
// consistency guarantee.
func (d *FSDirectory) AllocateSegmentID(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.allocated {
		_, ids, err := d.Index(ctx)
		if err != nil {
			return 0, err
		}
		next := 0
		for _, id := range ids {
			if id+1 > next {
				next = id + 1
			}
		}
		d.nextID = next
		d.allocated = true
	}

	id := d.nextID
	d.nextID++
	return id, nil
}

func (d *FSDirectory) WriteSegment(ctx context.Context, id int, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.writeAtomic(segmentFileName(id), data)
}

func (d *FSDirectory) SegmentPath(id int) string {
	return filepath.Join(d.dir, segmentFileName(id))
}

// writeAtomic writes to a temp file and renames it into place so a
// concurrent Index never observes a partially-written file.
func (d *FSDirectory) writeAtomic(name string, data []byte) error {
	tmp := filepath.Join(d.dir, fmt.Sprintf(".%s.%s.tmp", name, uuid.NewString()))
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_RDWR|os.O_TRUNC, filePerms)
	if err != nil {
		return fmt.Errorf("directory: create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("directory: write %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("directory: sync %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("directory: close %s: %w", name, err)
	}
	if err := os.Rename(tmp, filepath.Join(d.dir, name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("directory: publish %s: %w", name, err)
	}
	return nil
}
