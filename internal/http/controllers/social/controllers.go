// Package social contains controllers for the social login endpoints.
package social

import (
	"github.com/dropDatabas3/socialgate/internal/auth"
	"github.com/dropDatabas3/socialgate/internal/session"
)

// returnCookie guarda el destino post-login entre el start y el callback.
const returnCookie = "sg_return"

// Controllers agrupa todos los controllers del dominio social.
type Controllers struct {
	Start     *StartController
	Callback  *CallbackController
	Providers *ProvidersController
}

// NewControllers creates the social controllers aggregator.
func NewControllers(mgr *auth.Manager, sessions *session.Manager) *Controllers {
	return &Controllers{
		Start:     NewStartController(mgr),
		Callback:  NewCallbackController(mgr, sessions),
		Providers: NewProvidersController(mgr),
	}
}
