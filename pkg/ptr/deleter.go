package ptr

import (
	"io"

	"github.com/rs/zerolog/log"
)

// Deleter ends the lifetime of a managed value. It is invoked exactly once per managed object.
type Deleter[T any] func(p *T)

// Destroyer is implemented by payloads which hold resources the GC cannot reclaim on its own.
type Destroyer interface {
	Destroy()
}

// DefaultDeleter calls Destroy on payloads implementing Destroyer, otherwise Close on payloads
// implementing io.Closer. Anything else is left to the garbage collector.
func DefaultDeleter[T any](p *T) {
	if p == nil {
		return
	}
	switch v := any(p).(type) {
	case Destroyer:
		v.Destroy()
	case io.Closer:
		if err := v.Close(); err != nil {
			log.Warn().Err(err).Msgf("[ptr] closing %T payload failed", p)
		}
	}
}
