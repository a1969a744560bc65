package server

import (
	"context"
	"errors"
	"sync"

	"github.com/Borislavv/refptr/internal/demo/api"
	"github.com/Borislavv/refptr/pkg/config"
	httpserver "github.com/Borislavv/refptr/pkg/http/server"
	"github.com/Borislavv/refptr/pkg/http/server/controller"
	"github.com/Borislavv/refptr/pkg/http/server/middleware"
	"github.com/Borislavv/refptr/pkg/k8s/probe/liveness"
	"github.com/Borislavv/refptr/pkg/prometheus/metrics"
	metricsmiddleware "github.com/Borislavv/refptr/pkg/prometheus/metrics/middleware"
	"github.com/Borislavv/refptr/pkg/tracker"
	"github.com/rs/zerolog/log"
)

var InitFailedErrorMessage = "[server] init. failed"

type Http interface {
	Start()
	IsAlive() bool
}

// HttpServer serves the debug endpoints: metrics, live blocks and the liveness probe.
type HttpServer struct {
	ctx     context.Context
	cfg     config.Metrics
	probe   liveness.Prober
	metrics metrics.Meter
	tracker *tracker.Tracker
	server  *httpserver.HTTP
}

func New(
	ctx context.Context,
	cfg config.Metrics,
	probe liveness.Prober,
	meter metrics.Meter,
	blocks *tracker.Tracker,
) (*HttpServer, error) {
	srv := &HttpServer{
		ctx:     ctx,
		cfg:     cfg,
		probe:   probe,
		metrics: meter,
		tracker: blocks,
	}

	server, err := httpserver.New(ctx, cfg, srv.controllers(), srv.middlewares())
	if err != nil {
		log.Err(err).Msg(InitFailedErrorMessage)
		return nil, errors.New(InitFailedErrorMessage)
	}
	srv.server = server

	return srv, nil
}

// Start blocks until the server context is cancelled or the port cannot be bound.
func (s *HttpServer) Start() {
	wg := &sync.WaitGroup{}
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.server.ListenAndServe()
	}()
}

// IsAlive is true only while the listener is bound.
func (s *HttpServer) IsAlive() bool {
	return s.server.IsListening()
}

func (s *HttpServer) controllers() []controller.HttpController {
	controllers := []controller.HttpController{
		api.NewProbeController(s.probe), // healthcheck probe endpoint
		api.NewMetricsController(),      // metrics endpoint
	}
	if s.tracker != nil {
		controllers = append(controllers, api.NewBlocksController(s.tracker))
	}
	return controllers
}

// middlewares are executed in slice order.
func (s *HttpServer) middlewares() []middleware.HttpMiddleware {
	return []middleware.HttpMiddleware{
		/** exec 1st. */ metricsmiddleware.NewPrometheusMetrics(s.metrics),
		/** exec 2nd. */ middleware.NewApplicationJsonMiddleware(),
		/** exec 3rd. */ middleware.NewServerNameMiddleware(s.cfg.Name),
	}
}
