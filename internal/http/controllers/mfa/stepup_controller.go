package mfa

import (
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/idgate/internal/http/dto/mfa"
	httperrors "github.com/dropDatabas3/idgate/internal/http/errors"
	"github.com/dropDatabas3/idgate/internal/http/helpers"
	"github.com/dropDatabas3/idgate/internal/http/middlewares"
	svc "github.com/dropDatabas3/idgate/internal/http/services/mfa"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

// StepUpController envía y verifica el OTP. Acepta credenciales pendientes.
type StepUpController struct {
	service svc.StepUpService
}

func NewStepUpController(service svc.StepUpService) *StepUpController {
	return &StepUpController{service: service}
}

// SendOTP maneja POST /v1/auth/send-otp
func (c *StepUpController) SendOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := c.service.SendOTP(ctx, middlewares.GetUserID(ctx))
	if err != nil {
		writeStepUpError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// VerifyOTP maneja POST /v1/auth/verify-otp y devuelve la credencial completa.
func (c *StepUpController) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("StepUpController.VerifyOTP"))

	var req dto.VerifyOTPRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	res, err := c.service.VerifyOTP(ctx, middlewares.GetClaims(ctx), req.Code)
	if err != nil {
		log.Debug("otp verification failed", logger.Err(err))
		writeStepUpError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

func writeStepUpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingCode):
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("code es obligatorio"))
	case errors.Is(err, svc.ErrInvalidOrExpired):
		httperrors.WriteError(w, httperrors.ErrInvalidOrExpired)
	case errors.Is(err, svc.ErrNotEnabled):
		httperrors.WriteError(w, httperrors.ErrTwoFactorNotEnabled)
	case errors.Is(err, svc.ErrPhoneMissing):
		httperrors.WriteError(w, httperrors.ErrPhoneRequired)
	case errors.Is(err, svc.ErrUserNotFound):
		httperrors.WriteError(w, httperrors.ErrUserNotFound)
	case errors.Is(err, svc.ErrDeliveryFailed):
		httperrors.WriteError(w, httperrors.ErrDeliveryFailed.WithCause(err))
	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
	}
}
