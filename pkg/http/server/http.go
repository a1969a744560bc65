package httpserver

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Borislavv/refptr/pkg/config"
	"github.com/Borislavv/refptr/pkg/http/server/controller"
	"github.com/Borislavv/refptr/pkg/http/server/middleware"
	"github.com/fasthttp/router"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

type HTTP struct {
	ctx       context.Context
	config    config.Metrics
	server    *fasthttp.Server
	listening atomic.Bool
}

func New(
	ctx context.Context,
	config config.Metrics,
	controllers []controller.HttpController,
	middlewares []middleware.HttpMiddleware,
) (*HTTP, error) {
	if config.Port == "" {
		return nil, errors.New("empty server port")
	}
	s := &HTTP{ctx: ctx, config: config}
	s.initServer(s.buildRouter(controllers), middlewares)
	return s, nil
}

// ListenAndServe blocks until the server stops; it is stopped by cancelling the context.
func (s *HTTP) ListenAndServe() {
	port := s.config.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	ln, err := net.Listen("tcp4", port)
	if err != nil {
		log.Error().Err(err).Msgf("[server] %v failed to listen port %v", s.config.Name, port)
		return
	}

	s.Serve(ln)
}

// Serve handles connections from ln until the context is cancelled.
func (s *HTTP) Serve(ln net.Listener) {
	s.listening.Store(true)
	defer s.listening.Store(false)

	wg := &sync.WaitGroup{}
	defer wg.Wait()

	wg.Add(1)
	go s.serve(wg, ln)

	wg.Add(1)
	go s.shutdown(wg)
}

// IsListening reports whether the server holds a bound listener.
func (s *HTTP) IsListening() bool {
	return s.listening.Load()
}

func (s *HTTP) serve(wg *sync.WaitGroup, ln net.Listener) {
	defer wg.Done()

	name, addr := s.config.Name, ln.Addr().String()

	log.Info().Msgf("[server] %v was started on %v", name, addr)
	defer log.Info().Msgf("[server] %v was stopped on %v", name, addr)

	if err := s.server.Serve(ln); err != nil {
		log.Error().Err(err).Msgf("[server] %v failed to serve %v", name, addr)
	}
}

func (s *HTTP) shutdown(wg *sync.WaitGroup) {
	defer wg.Done()

	<-s.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if err := s.server.ShutdownWithContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn().Msgf("[server] %v shutdown failed: %v", s.config.Name, err.Error())
		}
		return
	}
}

func (s *HTTP) buildRouter(controllers []controller.HttpController) *router.Router {
	r := router.New()
	for _, contr := range controllers {
		contr.AddRoute(r)
	}
	return r
}

// Handler returns the composed handler: router wrapped with every middleware.
func (s *HTTP) Handler() fasthttp.RequestHandler {
	return s.server.Handler
}

func (s *HTTP) mergeMiddlewares(
	handler fasthttp.RequestHandler,
	middlewares []middleware.HttpMiddleware,
) fasthttp.RequestHandler {
	// last middlewares must be applied at the end
	// in this case we must start the cycle from the end of slice
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i].Middleware(handler)
	}
	return handler
}

func (s *HTTP) initServer(r *router.Router, middlewares []middleware.HttpMiddleware) {
	s.server = &fasthttp.Server{
		Name:                          s.config.Name,
		GetOnly:                       true,
		ReduceMemoryUsage:             true,
		DisablePreParseMultipartForm:  true,
		DisableHeaderNamesNormalizing: true,
		CloseOnShutdown:               true,
		Handler:                       s.mergeMiddlewares(r.Handler, middlewares),
	}
}
