package ptr

import "errors"

var (
	// ErrExpired is returned when a Shared is requested from a Weak whose payload is already destroyed.
	ErrExpired = errors.New("bad_weak_ptr")
	// ErrConstruct wraps errors returned by MakeFunc initializers.
	ErrConstruct = errors.New("in-place construction failed")
	// ErrTooManyReleases is the panic value raised when a counter drops below zero.
	ErrTooManyReleases = errors.New("too many releases")
)
