package table

import (
	"github.com/cespare/xxhash/v2"

	"github.com/murrdb/murr/column"
)

// keyIndex is the key -> KeyLocation map built once per rebuild (§4.5). It
// hashes with xxhash, a fast non-cryptographic string hash, and falls back
// to a direct string compare only within the (almost always singleton)
// bucket for that hash: once hashing is fast, string compare dominates
// lookup cost, so the index is built around that rather than around
// avoiding it.
type keyIndex struct {
	buckets map[uint64][]indexEntry
}

type indexEntry struct {
	key string
	loc column.KeyLocation
}

func newKeyIndex(capacityHint int) *keyIndex {
	return &keyIndex{buckets: make(map[uint64][]indexEntry, capacityHint)}
}

// set inserts or overwrites the location for key. Called in segment order
// during rebuild, so a later call for the same key implements
// last-write-wins without any extra bookkeeping.
func (idx *keyIndex) set(key string, loc column.KeyLocation) {
	h := xxhash.Sum64String(key)
	bucket := idx.buckets[h]
	for i := range bucket {
		if bucket[i].key == key {
			bucket[i].loc = loc
			return
		}
	}
	idx.buckets[h] = append(bucket, indexEntry{key: key, loc: loc})
}

func (idx *keyIndex) get(key string) (column.KeyLocation, bool) {
	h := xxhash.Sum64String(key)
	for _, e := range idx.buckets[h] {
		if e.key == key {
			return e.loc, true
		}
	}
	return column.KeyLocation{}, false
}
