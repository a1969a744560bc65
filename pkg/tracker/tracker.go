package tracker

import (
	"encoding/binary"
	"sort"
	"sync/atomic"
	"time"

	"github.com/Borislavv/refptr/pkg/ctime"
	"github.com/Borislavv/refptr/pkg/ptr"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/xxh3"
)

const DefaultShards = 64

var _ ptr.Observer = (*Tracker)(nil)

// Block is a live control block as seen by the tracker.
type Block struct {
	ptr.BlockInfo
	AllocatedAt time.Time `json:"allocated_at"`
	// DestroyedAt is zero while the payload is alive. A destroyed payload whose block
	// is still tracked is held by outstanding weak handles.
	DestroyedAt time.Time `json:"destroyed_at"`
	Upgrades    int64     `json:"upgrades"`
	Refusals    int64     `json:"refusals"`
}

// PayloadAlive reports whether the block's payload was not destroyed yet.
func (b Block) PayloadAlive() bool {
	return b.DestroyedAt.IsZero()
}

// Tracker keeps every live control block in a sharded registry. It is meant for
// diagnostics: blocks which stay in the registry for long are usually leaked handles
// (a Release which was never called).
type Tracker struct {
	shards []*Shard
	mask   uint64
	now    func() time.Time

	allocated atomic.Int64
	freed     atomic.Int64
	unknown   atomic.Int64 // events for blocks allocated before the tracker was installed
}

// New creates a tracker with numShards partitions, rounded up to a power of two.
// Timestamps come from the coarse clock when it is started, see ctime.Start.
func New(numShards int) *Tracker {
	if numShards <= 0 {
		numShards = DefaultShards
	}
	n := 1
	for n < numShards {
		n <<= 1
	}

	t := &Tracker{
		shards: make([]*Shard, n),
		mask:   uint64(n - 1),
		now:    ctime.Now,
	}
	for i := range t.shards {
		t.shards[i] = NewShard(uint64(i))
	}

	return t
}

// shard picks a partition by hashing the block id: ids are sequential, the hash spreads them evenly.
func (t *Tracker) shard(id uint64) *Shard {
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], id)
	return t.shards[xxh3.Hash(key[:])&t.mask]
}

func (t *Tracker) OnAllocate(info ptr.BlockInfo) {
	t.allocated.Add(1)
	if !t.shard(info.ID).Set(&entry{info: info, allocatedAt: t.now()}) {
		log.Error().Msgf("[tracker] block %d (%s) was allocated twice", info.ID, info.Type)
	}
}

func (t *Tracker) OnDestroy(info ptr.BlockInfo) {
	e, found := t.shard(info.ID).Get(info.ID)
	if !found {
		t.unknown.Add(1)
		return
	}
	e.destroyedAt.Store(t.now().UnixNano())
}

func (t *Tracker) OnFree(info ptr.BlockInfo) {
	if _, removed := t.shard(info.ID).Remove(info.ID); !removed {
		t.unknown.Add(1)
		return
	}
	t.freed.Add(1)
}

func (t *Tracker) OnUpgrade(info ptr.BlockInfo, ok bool) {
	e, found := t.shard(info.ID).Get(info.ID)
	if !found {
		return
	}
	if ok {
		e.upgrades.Add(1)
	} else {
		e.refusals.Add(1)
	}
}

// Len returns the number of live blocks.
func (t *Tracker) Len() int64 {
	var n int64
	for _, shard := range t.shards {
		n += shard.Len()
	}
	return n
}

// Stats returns the number of tracked allocations, frees and events for untracked blocks.
func (t *Tracker) Stats() (allocated, freed, unknown int64) {
	return t.allocated.Load(), t.freed.Load(), t.unknown.Load()
}

// Snapshot returns every live block ordered by id.
func (t *Tracker) Snapshot() []Block {
	out := make([]Block, 0, t.Len())
	for _, shard := range t.shards {
		shard.Walk(func(b Block) {
			out = append(out, b)
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Report logs every block allocated more than olderThan ago and returns how many there were.
func (t *Tracker) Report(olderThan time.Duration) int {
	deadline := t.now().Add(-olderThan)

	reported := 0
	for _, b := range t.Snapshot() {
		if b.AllocatedAt.After(deadline) {
			continue
		}
		reported++
		log.Warn().
			Uint64("id", b.ID).
			Str("kind", b.Kind.String()).
			Str("type", b.Type).
			Bool("payloadAlive", b.PayloadAlive()).
			Time("allocatedAt", b.AllocatedAt).
			Msg("[tracker] block is still alive")
	}

	return reported
}
