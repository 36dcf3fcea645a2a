package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/idgate/internal/http/dto/auth"
	"github.com/dropDatabas3/idgate/internal/http/helpers"
	svc "github.com/dropDatabas3/idgate/internal/http/services/auth"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

// RegisterController maneja el alta con password.
type RegisterController struct {
	service svc.RegisterService
}

func NewRegisterController(service svc.RegisterService) *RegisterController {
	return &RegisterController{service: service}
}

// Register maneja POST /v1/auth/register
func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegisterController.Register"))

	var req dto.RegisterRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	res, err := c.service.Register(ctx, req)
	if err != nil {
		log.Debug("register failed", logger.Err(err))
		writeAuthError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, res)
}
