package ptr

// Weak observes a value managed by Shared handles without keeping it alive.
// It keeps the control block alive, so UseCount, Expired and Lock stay valid after
// the payload is gone. The zero value is a null handle; every non-null Weak must be
// given back with Release (or Reset).
type Weak[T any] struct {
	ref[T]
}

// NewWeak returns a weak reference to s's value. The strong count is not changed.
func NewWeak[T any](s *Shared[T]) Weak[T] {
	if s.ctrl != nil {
		s.ctrl.addWeak()
	}
	return Weak[T]{ref: s.ref}
}

// Clone returns another weak reference to the same block.
func (w *Weak[T]) Clone() Weak[T] {
	if w.ctrl != nil {
		w.ctrl.addWeak()
	}
	return Weak[T]{ref: w.ref}
}

// Assign makes w observe other's block, releasing what w observed before.
func (w *Weak[T]) Assign(other *Weak[T]) {
	tmp := other.Clone()
	tmp.Swap(w)
	tmp.Release()
}

// AssignShared makes w observe s's value, releasing what w observed before.
func (w *Weak[T]) AssignShared(s *Shared[T]) {
	tmp := NewWeak(s)
	tmp.Swap(w)
	tmp.Release()
}

// Move transfers w's reference to the returned handle and leaves w null.
func (w *Weak[T]) Move() Weak[T] {
	return Weak[T]{ref: w.take()}
}

// MoveFrom transfers other's reference into w, leaving other null.
func (w *Weak[T]) MoveFrom(other *Weak[T]) {
	if w == other {
		return
	}
	tmp := other.Move()
	tmp.Swap(w)
	tmp.Release()
}

// Release gives back the weak reference and makes w null.
func (w *Weak[T]) Release() {
	if r := w.take(); r.ctrl != nil {
		r.ctrl.releaseWeak()
	}
}

// Reset is Release.
func (w *Weak[T]) Reset() {
	w.Release()
}

// UseCount returns a snapshot of the strong count of the observed block, 0 for a null handle.
func (w *Weak[T]) UseCount() int64 {
	return w.useCount()
}

// Expired reports whether the observed payload is gone (or w is null).
func (w *Weak[T]) Expired() bool {
	return w.useCount() == 0
}

// Lock tries to obtain a strong reference. It returns a null Shared when the payload is gone.
func (w *Weak[T]) Lock() Shared[T] {
	if w.ctrl == nil || !w.ctrl.tryAddShared() {
		return Shared[T]{}
	}
	return adopt(w.ctrl, w.ptr)
}

// Swap exchanges the contents of two handles without touching any counter.
func (w *Weak[T]) Swap(other *Weak[T]) {
	w.swap(&other.ref)
}
