package contracts

import "github.com/julienschmidt/httprouter"

// Handler is anything that can register its routes on the application router.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
