package mfa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/idgate/internal/domain/repository"
	dto "github.com/dropDatabas3/idgate/internal/http/dto/mfa"
	sessiondto "github.com/dropDatabas3/idgate/internal/http/dto/session"
	jwtx "github.com/dropDatabas3/idgate/internal/jwt"
	"github.com/dropDatabas3/idgate/internal/metrics"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
	"github.com/dropDatabas3/idgate/internal/security/token"
)

const (
	codeDigits         = 6
	defaultOTPTTL      = 10 * time.Minute
	defaultSendTimeout = 10 * time.Second
)

var (
	ErrNotEnabled       = errors.New("two-factor not enabled")
	ErrPhoneMissing     = errors.New("phone number missing")
	ErrDeliveryFailed   = errors.New("otp delivery failed")
	ErrInvalidOrExpired = errors.New("invalid or expired code")
	ErrMissingCode      = errors.New("code required")
	ErrUserNotFound     = errors.New("user not found")
)

type StepUpService interface {
	// SendOTP genera un código nuevo, reemplaza cualquier anterior y lo envía por SMS.
	SendOTP(ctx context.Context, identityID string) (*dto.SendOTPResponse, error)
	// VerifyOTP consume el código y canjea la credencial pendiente por una completa.
	VerifyOTP(ctx context.Context, pending *jwtx.Claims, code string) (*sessiondto.TokenResponse, error)
}

type stepUpService struct {
	deps Deps
}

func NewStepUpService(d Deps) StepUpService {
	if d.OTPTTL <= 0 {
		d.OTPTTL = defaultOTPTTL
	}
	if d.SendTimeout <= 0 {
		d.SendTimeout = defaultSendTimeout
	}
	if d.AppName == "" {
		d.AppName = "idgate"
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &stepUpService{deps: d}
}

func (s *stepUpService) SendOTP(ctx context.Context, identityID string) (*dto.SendOTPResponse, error) {
	log := logger.ForUser(ctx, identityID).With(
		logger.Layer("service"),
		logger.Component("mfa.stepup"),
		logger.Op("SendOTP"),
	)

	it, err := s.deps.Identities.GetByID(ctx, identityID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if !it.TwoFactorEnabled {
		return nil, ErrNotEnabled
	}
	phone := strings.TrimSpace(it.PhoneNumber)
	if phone == "" {
		return nil, ErrPhoneMissing
	}

	code, err := token.GenerateNumericCode(codeDigits)
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	err = s.deps.Identities.SetPendingOTP(ctx, it.ID, repository.PendingOTP{
		CodeHash:  token.SHA256Hex(code),
		ExpiresAt: s.deps.Now().Add(s.deps.OTPTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.deps.SendTimeout)
	defer cancel()
	body := fmt.Sprintf("Tu código de %s es %s. Vence en %d minutos.", s.deps.AppName, code, int(s.deps.OTPTTL/time.Minute))
	if err := s.deps.SMS.Send(sendCtx, phone, body); err != nil {
		s.deps.Metrics.OTPSent(metrics.ResultError)
		log.Error("otp delivery failed", logger.Phone(phone), logger.Err(err))
		return nil, errors.Join(ErrDeliveryFailed, err)
	}
	s.deps.Metrics.OTPSent(metrics.ResultOK)
	log.Info("otp sent", logger.Phone(phone))

	return &dto.SendOTPResponse{Sent: true, ExpiresIn: int64(s.deps.OTPTTL / time.Second)}, nil
}

func (s *stepUpService) VerifyOTP(ctx context.Context, pending *jwtx.Claims, code string) (*sessiondto.TokenResponse, error) {
	log := logger.ForUser(ctx, pending.Subject).With(
		logger.Layer("service"),
		logger.Component("mfa.stepup"),
		logger.Op("VerifyOTP"),
	)

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrMissingCode
	}

	ok, err := s.deps.Identities.ConsumeOTP(ctx, pending.Subject, token.SHA256Hex(code), s.deps.Now())
	if err != nil && !repository.IsNotFound(err) {
		return nil, fmt.Errorf("consume otp: %w", err)
	}
	if !ok {
		s.deps.Metrics.Login("otp", metrics.ResultInvalid)
		log.Debug("otp rejected")
		return nil, ErrInvalidOrExpired
	}
	s.deps.Metrics.Login("otp", metrics.ResultOK)

	res, err := s.deps.Tokens.StepUp(ctx, pending)
	if err != nil {
		return nil, err
	}
	log.Info("step-up completed", logger.Bool("was_pending", pending.StepUpPending()))
	return res, nil
}
