package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/idgate/internal/http/dto/auth"
	"github.com/dropDatabas3/idgate/internal/http/helpers"
	"github.com/dropDatabas3/idgate/internal/http/middlewares"
	svc "github.com/dropDatabas3/idgate/internal/http/services/auth"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

// ProfileController expone el perfil de la identidad autenticada.
// Todas las rutas van detrás de RequireAuth o RequireFullAuth.
type ProfileController struct {
	service svc.ProfileService
}

func NewProfileController(service svc.ProfileService) *ProfileController {
	return &ProfileController{service: service}
}

// Get maneja GET /v1/profile
func (c *ProfileController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := c.service.Get(ctx, middlewares.GetUserID(ctx))
	if err != nil {
		writeAuthError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// Update maneja PUT /v1/profile
func (c *ProfileController) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ProfileController.Update"))

	var req dto.UpdateProfileRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	res, err := c.service.Update(ctx, middlewares.GetUserID(ctx), req)
	if err != nil {
		log.Debug("profile update failed", logger.Err(err))
		writeAuthError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// LoginHistory maneja GET /v1/profile/login-history
func (c *ProfileController) LoginHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := c.service.LoginHistory(ctx, middlewares.GetUserID(ctx))
	if err != nil {
		writeAuthError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// IsVerified maneja GET /v1/auth/is-verified
func (c *ProfileController) IsVerified(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ok, err := c.service.IsVerified(ctx, middlewares.GetUserID(ctx))
	if err != nil {
		writeAuthError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.IsVerifiedResponse{IsVerified: ok})
}
