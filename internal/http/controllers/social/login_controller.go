package social

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/idgate/internal/http/errors"
	svc "github.com/dropDatabas3/idgate/internal/http/services/social"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

// LoginController maneja el redirect dance con el provider.
type LoginController struct {
	service     svc.LoginService
	frontendURL string
}

func NewLoginController(service svc.LoginService, frontendURL string) *LoginController {
	return &LoginController{service: service, frontendURL: strings.TrimRight(frontendURL, "/")}
}

// Start maneja GET /v1/auth/{provider}/start
func (c *LoginController) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, err := c.service.Start(ctx, chi.URLParam(r, "provider"))
	if err != nil {
		if errors.Is(err, svc.ErrProviderNotSupported) {
			httperrors.WriteError(w, httperrors.ErrProviderNotSupported)
			return
		}
		logger.From(ctx).Error("oauth start failed",
			logger.Layer("controller"), logger.Op("LoginController.Start"), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Callback maneja GET /v1/auth/{provider}/callback. Lo abre el navegador, así
// que los fallos también terminan en un redirect al frontend con error=.
func (c *LoginController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Callback"))

	q := r.URL.Query()
	target, err := c.service.Callback(ctx, svc.CallbackRequest{
		Provider: chi.URLParam(r, "provider"),
		State:    q.Get("state"),
		Code:     q.Get("code"),
		Error:    q.Get("error"),
	})
	if err == nil {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	var reason string
	switch {
	case errors.Is(err, svc.ErrProviderNotSupported):
		httperrors.WriteError(w, httperrors.ErrProviderNotSupported)
		return
	case errors.Is(err, svc.ErrInvalidState), errors.Is(err, svc.ErrMissingCode):
		reason = "invalid_or_expired"
	case errors.Is(err, svc.ErrProviderDenied):
		reason = "access_denied"
	case errors.Is(err, svc.ErrEmailMissing):
		reason = "email_required"
	case errors.Is(err, svc.ErrProviderFailed):
		reason = "provider_error"
	default:
		log.Error("oauth callback failed", logger.Err(err))
		reason = "server_error"
	}
	http.Redirect(w, r, c.frontendURL+"/auth/callback?"+url.Values{"error": {reason}}.Encode(), http.StatusFound)
}
