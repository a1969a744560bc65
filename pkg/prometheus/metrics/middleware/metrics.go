package middleware

import (
	"github.com/Borislavv/refptr/pkg/prometheus/metrics"
	"github.com/savsgio/gotils/strconv"
	"github.com/valyala/fasthttp"
)

// PrometheusMetrics counts and times every request of the debug server.
type PrometheusMetrics struct {
	metrics metrics.Meter
}

func NewPrometheusMetrics(meter metrics.Meter) *PrometheusMetrics {
	return &PrometheusMetrics{metrics: meter}
}

func (m *PrometheusMetrics) Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		path := strconv.B2S(ctx.Path())

		timer := m.metrics.NewResponseTimeTimer(path)
		defer m.metrics.FlushResponseTimeTimer(timer)

		next(ctx)

		m.metrics.IncRequest(path, ctx.Response.StatusCode())
	}
}
