// Package route wires httprouter routes to the controller's handlers,
// wrapping every one of them in the host-check/header middleware.
package route

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	cntrl "github.com/tarkov-database/mbtileserver/controller"
	"github.com/tarkov-database/mbtileserver/middleware/hostcheck"
	"github.com/tarkov-database/mbtileserver/preview"
)

// Load returns a router with every route defined, wrapping handlers in
// policy so host checking and header injection apply uniformly.
func Load(c *cntrl.Controller, policy hostcheck.Policy) *httprouter.Router {
	r := httprouter.New()

	r.GET("/services", middlewares(policy, c.ServicesRoot))
	r.GET("/services/*rest", middlewares(policy, c.Services))

	r.POST("/reload", middlewares(policy, c.Reload))

	r.Handler(http.MethodGet, "/static/*filepath", hostcheck.WrapHandler(policy, preview.StaticHandler()))

	r.RedirectTrailingSlash = true

	return r
}

func middlewares(policy hostcheck.Policy, h httprouter.Handle) httprouter.Handle {
	return hostcheck.Wrap(policy, h)
}
