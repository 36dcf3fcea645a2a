package email

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	dto "github.com/dropDatabas3/idgate/internal/http/dto/email"
	"github.com/dropDatabas3/idgate/internal/http/helpers"
	"github.com/dropDatabas3/idgate/internal/http/middlewares"
	svc "github.com/dropDatabas3/idgate/internal/http/services/email"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

// FlowsController maneja verificación de email y forgot/reset password.
type FlowsController struct {
	service     svc.FlowsService
	frontendURL string
}

func NewFlowsController(service svc.FlowsService, frontendURL string) *FlowsController {
	return &FlowsController{service: service, frontendURL: strings.TrimRight(frontendURL, "/")}
}

func (c *FlowsController) redirect(w http.ResponseWriter, r *http.Request, q url.Values) {
	http.Redirect(w, r, c.frontendURL+"/auth/callback?"+q.Encode(), http.StatusFound)
}

// VerifyEmail maneja GET /v1/auth/verify-email?token=.
// Es el link que abre el usuario: siempre responde con un redirect al frontend,
// con code= en caso de éxito o error= si no.
func (c *FlowsController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("FlowsController.VerifyEmail"))

	code, err := c.service.VerifyEmail(ctx, r.URL.Query().Get("token"))
	switch {
	case err == nil:
		c.redirect(w, r, url.Values{"code": {code}})
	case errors.Is(err, svc.ErrAlreadyVerified):
		c.redirect(w, r, url.Values{"verified": {"true"}})
	case errors.Is(err, svc.ErrInvalidOrExpired):
		c.redirect(w, r, url.Values{"error": {"invalid_or_expired"}})
	default:
		log.Error("verify email failed", logger.Err(err))
		c.redirect(w, r, url.Values{"error": {"server_error"}})
	}
}

// ResendVerification maneja POST /v1/auth/resend-verification
func (c *FlowsController) ResendVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := c.service.ResendVerification(ctx, middlewares.GetUserID(ctx)); err != nil {
		writeFlowsError(w, err)
		return
	}
	helpers.OK(w)
}

// ForgotPassword maneja POST /v1/auth/forgot-password. Responde 200 exista o
// no el email.
func (c *FlowsController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := c.service.ForgotPassword(r.Context(), req.Email); err != nil {
		writeFlowsError(w, err)
		return
	}
	helpers.OK(w)
}

// ResetPassword maneja POST /v1/auth/reset-password
func (c *FlowsController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("FlowsController.ResetPassword"))

	var req dto.ResetPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := c.service.ResetPassword(ctx, req.Token, req.Password); err != nil {
		log.Debug("reset password failed", logger.Err(err))
		writeFlowsError(w, err)
		return
	}
	helpers.OK(w)
}
