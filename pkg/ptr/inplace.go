package ptr

import "reflect"

// inplaceBlock embeds the payload next to the counters, so one allocation serves both.
//
// The payload lifetime (constructed -> destroyed) is tracked separately from the
// block lifetime (allocated -> freed): a destroyed payload keeps its storage until
// the last weak reference is gone.
type inplaceBlock[T any] struct {
	control
	constructed bool
	storage     T
}

func newInplaceBlock[T any](v T) *inplaceBlock[T] {
	b := &inplaceBlock[T]{storage: v, constructed: true}
	b.control.init(KindInplace, reflect.TypeOf((*T)(nil)).Elem(), b)
	return b
}

// newInplaceBlockFunc constructs the payload directly inside the block storage.
// The block is returned only when init succeeded; otherwise it is retired and the
// failure is propagated (a panic is re-raised after retiring).
func newInplaceBlockFunc[T any](init func(v *T) error) (b *inplaceBlock[T], err error) {
	b = &inplaceBlock[T]{}
	b.control.init(KindInplace, reflect.TypeOf((*T)(nil)).Elem(), b)

	defer func() {
		if r := recover(); r != nil {
			b.abandon()
			panic(r)
		}
	}()

	if err = init(&b.storage); err != nil {
		b.abandon()
		return nil, err
	}
	b.constructed = true

	return b, nil
}

// object returns the address of the embedded payload.
func (b *inplaceBlock[T]) object() *T {
	return &b.storage
}

func (b *inplaceBlock[T]) destroy() {
	if !b.constructed {
		return
	}
	b.constructed = false
	DefaultDeleter(&b.storage)

	var zero T
	b.storage = zero
}

func (b *inplaceBlock[T]) free() {}

// abandon retires a block whose payload was never constructed. Nothing else can
// reference the block yet, so both counters are dropped without running the deleter.
// Observers still see the payload end before the block is freed.
func (b *inplaceBlock[T]) abandon() {
	var zero T
	b.storage = zero
	b.strong.Store(0)
	notifyDestroy(&b.control)
	b.weak.Store(0)
	notifyFree(&b.control)
}
