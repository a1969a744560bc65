package ptr

// Shared owns one strong reference to a managed value.
//
// The zero value is a null handle. A Shared is a plain value: copying it with
// the assignment operator does NOT add a reference, use Clone for that. Every
// handle produced by New, Make, Clone, Lock, FromWeak or Alias must eventually
// be given back with Release (or Reset).
//
// Different handles sharing one block may be used concurrently; a single handle
// value must not be mutated from several goroutines without synchronization.
type Shared[T any] struct {
	ref[T]
}

// New takes ownership of p and manages it with DefaultDeleter.
func New[T any](p *T) Shared[T] {
	return NewWithDeleter(p, DefaultDeleter[T])
}

// NewWithDeleter takes ownership of p; deleter is called once the last strong reference is gone.
// A nil deleter means DefaultDeleter. If the control block cannot be built, the deleter
// is invoked on p before the failure propagates.
func NewWithDeleter[T any](p *T, deleter Deleter[T]) Shared[T] {
	if deleter == nil {
		deleter = DefaultDeleter[T]
	}

	ok := false
	defer func() {
		if !ok {
			deleter(p)
		}
	}()

	b := newOwnerBlock(p, deleter)
	ok = true

	return adopt[T](&b.control, p)
}

// FromWeak upgrades w into a strong handle or returns ErrExpired when the payload is already gone.
func FromWeak[T any](w Weak[T]) (Shared[T], error) {
	if w.ctrl == nil || !w.ctrl.tryAddShared() {
		return Shared[T]{}, ErrExpired
	}
	return adopt(w.ctrl, w.ptr), nil
}

// Alias returns a handle pointing at p which keeps owner's whole managed value alive.
// p is usually a field of *owner.Get(). Aliasing a null owner yields a null handle.
func Alias[T, U any](owner *Shared[T], p *U) Shared[U] {
	if owner.ctrl == nil {
		return Shared[U]{}
	}
	owner.ctrl.addShared()
	return adopt(owner.ctrl, p)
}

// adopt wraps a reference the caller already accounted for in ctrl's strong counter.
func adopt[T any](ctrl *control, p *T) Shared[T] {
	return Shared[T]{ref: ref[T]{ptr: p, ctrl: ctrl}}
}

// Clone returns a new strong reference to the same value.
func (s *Shared[T]) Clone() Shared[T] {
	if s.ctrl != nil {
		s.ctrl.addShared()
	}
	return Shared[T]{ref: s.ref}
}

// Assign makes s share other's value, releasing what s held before.
// Self-assignment is a no-op in terms of ownership.
func (s *Shared[T]) Assign(other *Shared[T]) {
	tmp := other.Clone()
	tmp.Swap(s)
	tmp.Release()
}

// Move transfers s's reference to the returned handle and leaves s null.
func (s *Shared[T]) Move() Shared[T] {
	return Shared[T]{ref: s.take()}
}

// MoveFrom transfers other's reference into s, leaving other null and releasing what s held before.
func (s *Shared[T]) MoveFrom(other *Shared[T]) {
	if s == other {
		return
	}
	tmp := other.Move()
	tmp.Swap(s)
	tmp.Release()
}

// Release gives back the strong reference and makes s null. Calling it on a null handle is a no-op.
// The last release destroys the payload.
func (s *Shared[T]) Release() {
	if r := s.take(); r.ctrl != nil {
		r.ctrl.releaseShared()
	}
}

// Reset releases the current ownership, if any, and makes s null.
func (s *Shared[T]) Reset() {
	s.Release()
}

// Get returns the stored pointer. It is nil for a null handle.
func (s *Shared[T]) Get() *T {
	return s.ptr
}

// Value dereferences the stored pointer. Panics on a null handle.
func (s *Shared[T]) Value() T {
	return *s.ptr
}

// UseCount returns a snapshot of the number of strong references, 0 for a null handle.
func (s *Shared[T]) UseCount() int64 {
	return s.useCount()
}

// Unique reports whether s is the only strong reference.
func (s *Shared[T]) Unique() bool {
	return s.useCount() == 1
}

// Valid reports whether the stored pointer is non-nil.
func (s *Shared[T]) Valid() bool {
	return s.ptr != nil
}

// Swap exchanges the contents of two handles without touching any counter.
func (s *Shared[T]) Swap(other *Shared[T]) {
	s.swap(&other.ref)
}

// Weak returns a weak reference to s's value.
func (s *Shared[T]) Weak() Weak[T] {
	return NewWeak(s)
}
