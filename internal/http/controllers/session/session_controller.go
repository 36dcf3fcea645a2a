package session

import (
	"net/http"

	dto "github.com/dropDatabas3/idgate/internal/http/dto/session"
	"github.com/dropDatabas3/idgate/internal/http/helpers"
	"github.com/dropDatabas3/idgate/internal/http/middlewares"
	svc "github.com/dropDatabas3/idgate/internal/http/services/session"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

// SessionController responde sobre la credencial actual. Sus rutas van detrás
// de OptionalAuth: sin credencial válida no hay error, solo "no autenticado".
type SessionController struct {
	logout svc.LogoutService
}

func NewSessionController(logout svc.LogoutService) *SessionController {
	return &SessionController{logout: logout}
}

// IsAuthenticated maneja GET /v1/auth/is-authenticated. Una credencial con
// step-up pendiente no cuenta como autenticada; se informa aparte en stepUpPending.
func (c *SessionController) IsAuthenticated(w http.ResponseWriter, r *http.Request) {
	claims := middlewares.GetClaims(r.Context())
	if claims == nil {
		helpers.WriteJSON(w, http.StatusOK, dto.IsAuthenticatedResponse{Authenticated: false})
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.IsAuthenticatedResponse{
		Authenticated: !claims.StepUpPending(),
		UserID:        claims.Subject,
		StepUpPending: claims.StepUpPending(),
	})
}

// Logout maneja POST /v1/auth/logout. Siempre responde 200.
func (c *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := c.logout.Logout(ctx, middlewares.GetClaims(ctx)); err != nil {
		logger.From(ctx).Warn("logout revoke failed",
			logger.Layer("controller"), logger.Op("SessionController.Logout"), logger.Err(err))
	}
	helpers.OK(w)
}
