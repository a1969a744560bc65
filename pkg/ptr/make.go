package ptr

import "fmt"

// Make allocates the control block and the payload in one allocation and copies v into it.
func Make[T any](v T) Shared[T] {
	b := newInplaceBlock(v)
	return adopt(&b.control, b.object())
}

// MakeFunc allocates a co-located block and constructs the payload in place with init.
// If init fails, the block is dropped and the error is returned wrapped with ErrConstruct;
// if init panics, the block is dropped and the panic propagates.
func MakeFunc[T any](init func(v *T) error) (Shared[T], error) {
	b, err := newInplaceBlockFunc(init)
	if err != nil {
		return Shared[T]{}, fmt.Errorf("%w: %w", ErrConstruct, err)
	}
	return adopt(&b.control, b.object()), nil
}
