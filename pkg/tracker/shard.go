package tracker

import (
	"sync/atomic"
	"time"

	"github.com/Borislavv/refptr/pkg/ptr"
	"github.com/puzpuzpuz/xsync/v3"
)

// entry is the mutable record of a live block. Everything an observer event
// touches after allocation is atomic, so events on a known block never lock.
type entry struct {
	info        ptr.BlockInfo
	allocatedAt time.Time
	destroyedAt atomic.Int64 // unix nanos, 0 while the payload is alive
	upgrades    atomic.Int64
	refusals    atomic.Int64
}

func (e *entry) block() Block {
	b := Block{
		BlockInfo:   e.info,
		AllocatedAt: e.allocatedAt,
		Upgrades:    e.upgrades.Load(),
		Refusals:    e.refusals.Load(),
	}
	if ns := e.destroyedAt.Load(); ns != 0 {
		b.DestroyedAt = time.Unix(0, ns)
	}
	return b
}

// Shard is a single partition of the tracker.
// Lookups are lock-free; inserts and removals lock only one bucket of the shard map
// and never while a Walk callback runs.
type Shard struct {
	items *xsync.MapOf[uint64, *entry] // Live blocks: block id -> entry
	id    uint64                       // Shard ID (index)
	len   atomic.Int64
}

func NewShard(id uint64) *Shard {
	return &Shard{
		id:    id,
		items: xsync.NewMapOf[uint64, *entry](),
	}
}

// ID returns the numeric index of this shard.
func (shard *Shard) ID() uint64 {
	return shard.id
}

func (shard *Shard) Len() int64 {
	return shard.len.Load()
}

// Set inserts an entry. A block id is never reused, so an existing key means a duplicated event.
func (shard *Shard) Set(e *entry) (inserted bool) {
	if _, loaded := shard.items.LoadOrStore(e.info.ID, e); loaded {
		return false
	}
	shard.len.Add(1)
	return true
}

func (shard *Shard) Get(id uint64) (*entry, bool) {
	return shard.items.Load(id)
}

// Remove deletes an entry and returns it.
func (shard *Shard) Remove(id uint64) (e *entry, removed bool) {
	e, removed = shard.items.LoadAndDelete(id)
	if removed {
		shard.len.Add(-1)
	}
	return e, removed
}

// Walk calls fn with a copy of every block held by the shard.
func (shard *Shard) Walk(fn func(b Block)) {
	shard.items.Range(func(_ uint64, e *entry) bool {
		fn(e.block())
		return true
	})
}
