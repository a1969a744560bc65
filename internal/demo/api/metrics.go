package api

import (
	"github.com/VictoriaMetrics/metrics"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

const MetricsPath = "/metrics"

// MetricsController exposes every registered VictoriaMetrics metric in the prometheus text format.
type MetricsController struct{}

func NewMetricsController() *MetricsController {
	return &MetricsController{}
}

func (c *MetricsController) Get(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("text/plain; version=0.0.4; charset=utf-8")
	metrics.WritePrometheus(ctx, true)
}

func (c *MetricsController) AddRoute(r *router.Router) {
	r.GET(MetricsPath, c.Get)
}
