package ptr

import (
	"reflect"
	"sync/atomic"
)

// Kind tells which control block variant manages a payload.
type Kind uint8

const (
	// KindOwner - block wraps an externally allocated pointer plus a deleter.
	KindOwner Kind = iota + 1
	// KindInplace - block embeds the payload itself (single allocation, see Make).
	KindInplace
)

func (k Kind) String() string {
	switch k {
	case KindOwner:
		return "owner"
	case KindInplace:
		return "inplace"
	default:
		return "unknown"
	}
}

var lastBlockID atomic.Uint64

// payload is implemented by every control block variant.
type payload interface {
	// destroy ends the managed value's lifetime. Called exactly once, when strong reaches zero.
	destroy()
	// free retires the block. Called exactly once, when weak reaches zero.
	free()
}

// control holds the strong and weak counters shared by every handle of one managed object.
//
// Counters layout:
//   - strong: number of Shared handles; the payload is alive while strong > 0.
//   - weak:   number of Weak handles + 1 while strong > 0; the block is alive while weak > 0.
//
// sync/atomic operations are sequentially consistent, so the decrement which observes
// the last reference happens-after every write made through other handles.
type control struct {
	strong atomic.Int64
	weak   atomic.Int64
	id     uint64
	kind   Kind
	typ    reflect.Type
	impl   payload
}

func (c *control) init(kind Kind, typ reflect.Type, impl payload) {
	c.strong.Store(1)
	c.weak.Store(1)
	c.id = lastBlockID.Add(1)
	c.kind = kind
	c.typ = typ
	c.impl = impl
	notifyAllocate(c)
}

// addShared increments the strong counter. The caller must already hold a strong reference.
func (c *control) addShared() {
	c.strong.Add(1)
}

// tryAddShared increments the strong counter only while it is observed above zero.
// It never succeeds after a release has driven the counter to zero.
func (c *control) tryAddShared() bool {
	for {
		cur := c.strong.Load()
		if cur <= 0 {
			notifyUpgrade(c, false)
			return false
		}
		if c.strong.CompareAndSwap(cur, cur+1) {
			notifyUpgrade(c, true)
			return true
		}
	}
}

// addWeak increments the weak counter. The caller must already hold a strong or weak reference.
func (c *control) addWeak() {
	c.weak.Add(1)
}

// releaseShared drops one strong reference. The last one destroys the payload and
// then gives back the weak reference the block holds on itself.
func (c *control) releaseShared() {
	n := c.strong.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic(ErrTooManyReleases)
	}

	// observers and the block's own weak reference are notified even if the deleter panics
	defer c.releaseWeak()
	defer notifyDestroy(c)

	c.impl.destroy()
}

// releaseWeak drops one weak reference. The last one frees the block.
func (c *control) releaseWeak() {
	n := c.weak.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic(ErrTooManyReleases)
	}

	c.impl.free()
	notifyFree(c)
}

// sharedCount is a best-effort snapshot.
func (c *control) sharedCount() int64 {
	return c.strong.Load()
}

// weakCount is a best-effort snapshot. It includes the block's own reference while strong > 0.
func (c *control) weakCount() int64 {
	return c.weak.Load()
}

func (c *control) expired() bool {
	return c.sharedCount() == 0
}

func (c *control) info() BlockInfo {
	info := BlockInfo{ID: c.id, Kind: c.kind}
	if c.typ != nil {
		info.Type = c.typ.String()
	}
	return info
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
