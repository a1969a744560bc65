package api

import (
	"github.com/Borislavv/refptr/pkg/k8s/probe/liveness"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	serverutils "github.com/Borislavv/refptr/pkg/http/server/utils"
)

const ProbePath = "/k8s/probe"

var (
	successResponseBytes     = []byte(`{"status":200,"message":"I'm fine :D"}`)
	unavailableResponseBytes = []byte(`{"status":503,"message":"demo has gone away"}`)
)

type ProbeController struct {
	probe liveness.Prober
}

func NewProbeController(probe liveness.Prober) *ProbeController {
	return &ProbeController{probe: probe}
}

func (c *ProbeController) Probe(ctx *fasthttp.RequestCtx) {
	if !c.probe.IsAlive() {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		_, _ = serverutils.Write(unavailableResponseBytes, ctx)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	_, _ = serverutils.Write(successResponseBytes, ctx)
}

func (c *ProbeController) AddRoute(r *router.Router) {
	r.GET(ProbePath, c.Probe)
}
