package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/idgate/internal/http/dto/auth"
	"github.com/dropDatabas3/idgate/internal/http/helpers"
	svc "github.com/dropDatabas3/idgate/internal/http/services/auth"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

// LoginController maneja el login con email y password.
type LoginController struct {
	service svc.LoginService
}

func NewLoginController(service svc.LoginService) *LoginController {
	return &LoginController{service: service}
}

// Login maneja POST /v1/auth/login. Con 2FA activo la credencial devuelta es
// pendiente (step_up_required=true).
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	res, err := c.service.LoginPassword(ctx, req)
	if err != nil {
		log.Debug("login failed", logger.Err(err))
		writeAuthError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}
