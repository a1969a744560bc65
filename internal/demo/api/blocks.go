package api

import (
	"github.com/Borislavv/refptr/pkg/tracker"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	serverutils "github.com/Borislavv/refptr/pkg/http/server/utils"
)

const BlocksPath = "/debug/blocks"

type blocksResponse struct {
	Live      int64           `json:"live"`
	Allocated int64           `json:"allocated"`
	Freed     int64           `json:"freed"`
	Unknown   int64           `json:"unknown"`
	Blocks    []tracker.Block `json:"blocks"`
}

// BlocksController dumps the control blocks which are still alive.
type BlocksController struct {
	tracker *tracker.Tracker
}

func NewBlocksController(t *tracker.Tracker) *BlocksController {
	return &BlocksController{tracker: t}
}

// Get handles GET /debug/blocks. An optional ?kind=owner|inplace filters the list.
func (c *BlocksController) Get(ctx *fasthttp.RequestCtx) {
	kind := string(ctx.QueryArgs().Peek("kind"))

	blocks := c.tracker.Snapshot()
	if kind != "" {
		filtered := blocks[:0]
		for _, b := range blocks {
			if b.Kind.String() == kind {
				filtered = append(filtered, b)
			}
		}
		blocks = filtered
	}

	allocated, freed, unknown := c.tracker.Stats()
	_ = serverutils.WriteJSON(ctx, fasthttp.StatusOK, blocksResponse{
		Live:      c.tracker.Len(),
		Allocated: allocated,
		Freed:     freed,
		Unknown:   unknown,
		Blocks:    blocks,
	})
}

func (c *BlocksController) AddRoute(r *router.Router) {
	r.GET(BlocksPath, c.Get)
}
