package middlewares

import "net/http"

// Middleware decora un http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain envuelve el handler con los middlewares en orden declarado:
// Chain(h, A, B) ejecuta A -> B -> h, y A es el último en ver la
// respuesta. El router arma así la cadena de los endpoints de login.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
