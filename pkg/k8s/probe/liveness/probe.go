package liveness

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultInterval = time.Second

// Service is anything whose health can be polled.
type Service interface {
	IsAlive(ctx context.Context) bool
}

type Prober interface {
	Watch(service Service)
	IsAlive() bool
	Stop()
}

// Probe polls a service on every tick and caches the last answer,
// so the http handler never blocks on the service itself.
type Probe struct {
	interval time.Duration
	alive    atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewProbe(interval time.Duration) *Probe {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Probe{interval: interval, stopCh: make(chan struct{})}
}

// Watch starts polling the service in background until Stop is called.
func (p *Probe) Watch(service Service) {
	go func() {
		t := time.NewTicker(p.interval)
		defer t.Stop()

		p.check(service)
		for {
			select {
			case <-p.stopCh:
				return
			case <-t.C:
				p.check(service)
			}
		}
	}()
}

func (p *Probe) check(service Service) {
	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()

	alive := service.IsAlive(ctx)
	if prev := p.alive.Swap(alive); prev != alive {
		log.Info().Bool("alive", alive).Msg("[probe] liveness changed")
	}
}

func (p *Probe) IsAlive() bool {
	return p.alive.Load()
}

func (p *Probe) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}
