// Package ptr provides reference-counted ownership of values with deterministic release.
//
// Shared owns a strong reference, Weak observes without keeping the value alive and may
// be upgraded with Lock. Make places the counters and the value in a single allocation.
// When the last Shared is released the value's deleter runs (Destroy, Close or a custom
// Deleter); the control block itself stays around until the last Weak is released.
package ptr
