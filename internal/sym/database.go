package sym

import (
	"sync"
	"sync/atomic"
)

// Database is a typed symbol table keyed by SymbolID. Traversal workers
// commit through the reserve/update protocol: a worker claims an ID with
// Reserve (holding the lock only for the claim), builds the full record
// without any lock, then publishes it with Update. Reserve is
// first-writer-wins, so re-traversals of the same declaration from other
// translation units are dropped before any record is built.
//
// The match counter is independent of the table: it counts every observed
// declaration of the kind, including ones the mappers filter out.
type Database[T any] struct {
	mu      sync.RWMutex
	entries map[SymbolID]T
	matches atomic.Int64
}

func NewDatabase[T any]() *Database[T] {
	return &Database[T]{entries: make(map[SymbolID]T)}
}

// CountMatch increments the observed-declaration counter.
func (d *Database[T]) CountMatch() { d.matches.Add(1) }

// Matches returns how many declarations of this kind were observed,
// filtered or not.
func (d *Database[T]) Matches() int64 { return d.matches.Load() }

// Contains reports whether id has been reserved or committed.
func (d *Database[T]) Contains(id SymbolID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.entries[id]
	return ok
}

// Reserve atomically claims id. It returns false if the ID was already
// reserved or committed, in which case the caller must not build or commit
// a record for it.
func (d *Database[T]) Reserve(id SymbolID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.entries[id]; ok {
		return false
	}
	var zero T
	d.entries[id] = zero
	return true
}

// Update publishes the finished record under a previously reserved id.
func (d *Database[T]) Update(id SymbolID, v T) {
	d.mu.Lock()
	d.entries[id] = v
	d.mu.Unlock()
}

// Get returns the record for id if one was committed.
func (d *Database[T]) Get(id SymbolID) (T, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.entries[id]
	return v, ok
}

// Delete removes id from the table. Used only by the pruning passes, which
// run single-threaded after traversal.
func (d *Database[T]) Delete(id SymbolID) {
	d.mu.Lock()
	delete(d.entries, id)
	d.mu.Unlock()
}

// Len returns the number of reserved-or-committed entries.
func (d *Database[T]) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// IDs returns a snapshot of all keys, in no particular order.
func (d *Database[T]) IDs() []SymbolID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]SymbolID, 0, len(d.entries))
	for id := range d.entries {
		ids = append(ids, id)
	}
	return ids
}

// ForEach calls fn for every entry of a snapshot of the table. fn may call
// Update or Delete on the same table.
func (d *Database[T]) ForEach(fn func(id SymbolID, v T)) {
	d.mu.RLock()
	snapshot := make(map[SymbolID]T, len(d.entries))
	for id, v := range d.entries {
		snapshot[id] = v
	}
	d.mu.RUnlock()
	for id, v := range snapshot {
		fn(id, v)
	}
}

// Index aggregates one Database per symbol kind. One Index exists per run:
// populated concurrently during traversal, mutated single-threaded by the
// resolver passes, then read-only for rendering or export.
type Index struct {
	Functions  *Database[FunctionSymbol]
	Records    *Database[RecordSymbol]
	Enums      *Database[EnumSymbol]
	Namespaces *Database[NamespaceSymbol]
	Aliases    *Database[AliasSymbol]
}

func NewIndex() *Index {
	return &Index{
		Functions:  NewDatabase[FunctionSymbol](),
		Records:    NewDatabase[RecordSymbol](),
		Enums:      NewDatabase[EnumSymbol](),
		Namespaces: NewDatabase[NamespaceSymbol](),
		Aliases:    NewDatabase[AliasSymbol](),
	}
}
