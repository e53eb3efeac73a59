package store

import "sync"

// entryPrefix namespaces all entry records in the database.
const entryPrefix = "entry:"

// keyPool provides reusable byte slices for building database keys.
// This reduces allocations on the hot path of database operations.
var keyPool = sync.Pool{
	New: func() any {
		// Pre-allocate 64 bytes which covers the prefix plus a
		// prefixed NanoID with room to spare.
		return make([]byte, 0, 64)
	},
}

// entryKey constructs the database key for an entry using a pooled buffer.
// Callers MUST call releaseKey when done with the key.
//
// Usage:
//
//	key := entryKey(id)
//	defer releaseKey(key)
//	item, err := txn.Get(key)
func entryKey(id string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0] // Reset length, keep capacity
	buf = append(buf, entryPrefix...)
	buf = append(buf, id...)
	return buf
}

// releaseKey returns a key buffer to the pool for reuse.
// After calling this, the key slice must not be used.
func releaseKey(key []byte) {
	// Only pool buffers that have reasonable capacity
	// Avoids keeping oversized buffers in the pool
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}
