package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultGracefulTimeout = time.Minute

var ErrGracefulTimeout = errors.New("graceful shutdown timed out")

// Gracefuller is handed to long-running services: Add before start, Done once stopped.
type Gracefuller interface {
	Add(n int)
	Done()
}

// Graceful waits for an OS signal or root context cancellation, cancels the root
// context and then waits for every registered service to call Done.
type Graceful struct {
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	timeout time.Duration
	signals []os.Signal
}

func NewGraceful(ctx context.Context, cancel context.CancelFunc) *Graceful {
	return &Graceful{
		ctx:     ctx,
		cancel:  cancel,
		timeout: defaultGracefulTimeout,
		signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
}

func (g *Graceful) SetGracefulTimeout(timeout time.Duration) {
	g.timeout = timeout
}

func (g *Graceful) Add(n int) {
	g.wg.Add(n)
}

func (g *Graceful) Done() {
	g.wg.Done()
}

// ListenCancelAndAwait blocks until a signal arrives or the context is cancelled, then
// waits up to the graceful timeout for registered services.
func (g *Graceful) ListenCancelAndAwait() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, g.signals...)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info().Msgf("[shutdown] %s signal received", sig)
		g.cancel()
	case <-g.ctx.Done():
		log.Info().Msg("[shutdown] context cancelled")
	}

	doneCh := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(doneCh)
	}()

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case <-doneCh:
		log.Info().Msg("[shutdown] all services stopped")
		return nil
	case <-timer.C:
		return ErrGracefulTimeout
	}
}
