package ptr

import "reflect"

// ownerBlock manages a pointer allocated by the caller and destroys it through a deleter.
type ownerBlock[T any] struct {
	control
	ptr     *T
	deleter Deleter[T]
}

func newOwnerBlock[T any](p *T, deleter Deleter[T]) *ownerBlock[T] {
	b := &ownerBlock[T]{ptr: p, deleter: deleter}
	b.control.init(KindOwner, reflect.TypeOf((*T)(nil)).Elem(), b)
	return b
}

// destroy clears the stored pointer before calling the deleter, so a panicking
// deleter can never be invoked a second time.
func (b *ownerBlock[T]) destroy() {
	p := b.ptr
	b.ptr = nil
	b.deleter(p)
}

func (b *ownerBlock[T]) free() {
	b.deleter = nil
}
