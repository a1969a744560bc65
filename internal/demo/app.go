package demo

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Borislavv/refptr/internal/demo/server"
	"github.com/Borislavv/refptr/pkg/config"
	"github.com/Borislavv/refptr/pkg/ctime"
	"github.com/Borislavv/refptr/pkg/k8s/probe/liveness"
	"github.com/Borislavv/refptr/pkg/prometheus/metrics"
	"github.com/Borislavv/refptr/pkg/ptr"
	"github.com/Borislavv/refptr/pkg/shutdown"
	"github.com/Borislavv/refptr/pkg/tracker"
	"github.com/rs/zerolog/log"
)

type App interface {
	Start(gc shutdown.Gracefuller)
}

// Demo runs the scenarios against observed handles and, when metrics are enabled,
// keeps the debug server up until the context is cancelled.
type Demo struct {
	cfg     *config.Config
	ctx     context.Context
	cancel  context.CancelFunc
	probe   liveness.Prober
	meter   metrics.Meter
	tracker *tracker.Tracker
	server  server.Http
	clock   func() // stops the coarse clock
	failed  atomic.Bool
	started atomic.Bool // the debug server was seen listening at least once
	err     error
}

// NewApp installs the process-wide block observer and composes the debug server.
func NewApp(ctx context.Context, cfg *config.Config, probe liveness.Prober) (*Demo, error) {
	ctx, cancel := context.WithCancel(ctx)

	app := &Demo{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		probe:  probe,
		meter:  metrics.New(),
	}

	observers := []ptr.Observer{app.meter}
	if cfg.Tracker.Enabled {
		app.clock = ctime.Start(time.Millisecond)
		app.tracker = tracker.New(cfg.Tracker.Shards)
		observers = append(observers, app.tracker)
	}
	ptr.SetObserver(ptr.Observers(observers...))

	if cfg.Metrics.Enabled {
		srv, err := server.New(ctx, cfg.Metrics, probe, app.meter, app.tracker)
		if err != nil {
			ptr.SetObserver(nil)
			if app.clock != nil {
				app.clock()
			}
			cancel()
			return nil, err
		}
		app.server = srv
	}

	return app, nil
}

// Start runs the scenarios and serves the debug endpoints if they are enabled.
// gc.Done is called once everything has stopped.
func (d *Demo) Start(gc shutdown.Gracefuller) {
	defer func() {
		d.stop()
		gc.Done()
	}()

	log.Info().Msg("[app] starting demo")

	d.probe.Watch(d)

	if d.cfg.Demo.Enabled {
		if err := Run(d.ctx, d.cfg); err != nil {
			log.Err(err).Msg("[demo] scenarios failed")
			d.err = err
			d.failed.Store(true)
		} else {
			log.Info().Msg("[demo] all scenarios passed")
		}
	}

	if d.server == nil {
		return
	}

	log.Info().Msg("[app] demo has been started, serving debug endpoints")
	d.server.Start() // blocks until the context is cancelled
}

// Err returns the scenario failure, it is valid after Start has returned.
func (d *Demo) Err() error {
	return d.err
}

// Tracker returns nil when tracking is disabled.
func (d *Demo) Tracker() *tracker.Tracker {
	return d.tracker
}

func (d *Demo) stop() {
	log.Info().Msg("[app] stopping demo")
	defer d.cancel()

	d.probe.Stop()

	if d.tracker != nil {
		allocated, freed, unknown := d.tracker.Stats()
		log.Info().
			Int64("allocated", allocated).
			Int64("freed", freed).
			Int64("unknown", unknown).
			Int64("live", d.tracker.Len()).
			Msg("[tracker] control blocks")

		if n := d.tracker.Report(d.cfg.Tracker.ReportAfter); n > 0 {
			log.Warn().Msgf("[tracker] %d control blocks were never released", n)
		}
		d.clock()
	}

	log.Info().Msg("[app] demo has been stopped")
}

// IsAlive is polled by the liveness probe.
func (d *Demo) IsAlive(_ context.Context) bool {
	if d.failed.Load() {
		return false
	}
	if d.server == nil {
		return true
	}
	if d.server.IsAlive() {
		d.started.Store(true)
		return true
	}
	if d.started.Load() {
		log.Info().Msg("[app] http server has gone away")
		return false
	}
	// still running the scenarios or binding the port
	return true
}
