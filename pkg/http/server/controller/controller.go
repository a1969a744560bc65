package controller

import "github.com/fasthttp/router"

// HttpController registers its routes on the server router.
type HttpController interface {
	AddRoute(router *router.Router)
}
