package social

import (
	"net/http"

	"github.com/dropDatabas3/socialgate/internal/auth"
	"github.com/dropDatabas3/socialgate/internal/http/errors"
)

// ProvidersController lists the providers available for login.
type ProvidersController struct {
	manager *auth.Manager
}

// NewProvidersController creates a new ProvidersController.
func NewProvidersController(m *auth.Manager) *ProvidersController {
	return &ProvidersController{manager: m}
}

type providersResponse struct {
	Providers []auth.ProviderInfo `json:"providers"`
}

// List handles GET /auth/social/providers.
func (c *ProvidersController) List(w http.ResponseWriter, r *http.Request) {
	infos := c.manager.Providers(r.Context())
	if infos == nil {
		infos = []auth.ProviderInfo{}
	}
	errors.WriteJSON(w, http.StatusOK, providersResponse{Providers: infos})
}
