package ptr

// ref is the (pointer, control block) pair carried by both handle kinds.
// ptr is kept independently of ctrl so a handle may point at a sub-object of
// the managed value (see Alias).
type ref[T any] struct {
	ptr  *T
	ctrl *control
}

func (r *ref[T]) useCount() int64 {
	if r.ctrl == nil {
		return 0
	}
	return r.ctrl.sharedCount()
}

// take moves the pair out and leaves r null.
func (r *ref[T]) take() ref[T] {
	out := *r
	*r = ref[T]{}
	return out
}

func (r *ref[T]) swap(other *ref[T]) {
	*r, *other = *other, *r
}
