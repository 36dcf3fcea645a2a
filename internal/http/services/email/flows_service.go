// Package email contiene los flujos de email: verificación de la dirección y
// reseteo de password.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/idgate/internal/cache"
	"github.com/dropDatabas3/idgate/internal/domain/repository"
	mailer "github.com/dropDatabas3/idgate/internal/email"
	"github.com/dropDatabas3/idgate/internal/http/services/session"
	jwtx "github.com/dropDatabas3/idgate/internal/jwt"
	"github.com/dropDatabas3/idgate/internal/metrics"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
	"github.com/dropDatabas3/idgate/internal/security/password"
	"github.com/dropDatabas3/idgate/internal/security/token"
	"go.uber.org/zap"
)

var (
	ErrInvalidOrExpired = errors.New("invalid or expired token")
	// ErrAlreadyVerified: el token es auténtico pero la dirección ya fue confirmada
	// (link abierto dos veces o pre-fetch del cliente de correo).
	ErrAlreadyVerified = errors.New("email already verified")
	ErrMissingFields   = errors.New("missing required fields")
	ErrUserNotFound    = errors.New("user not found")
	ErrDeliveryFailed  = errors.New("email could not be queued")
)

// Mailer encola un email renderizado. *email.Dispatcher lo implementa.
type Mailer interface {
	Dispatch(ctx context.Context, to string, kind mailer.Kind, params mailer.Params) error
}

type FlowsService interface {
	SendVerification(ctx context.Context, identity *repository.Identity) error
	ResendVerification(ctx context.Context, identityID string) error
	// VerifyEmail confirma la dirección y devuelve un exchange code.
	VerifyEmail(ctx context.Context, rawToken string) (string, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}

type Deps struct {
	Identities  repository.IdentityRepository
	Issuer      *jwtx.Issuer
	Artifacts   *cache.ArtifactStore
	Exchange    session.ExchangeService
	Hasher      *password.Hasher
	Mailer      Mailer
	BaseURL     string // URL pública de la API
	FrontendURL string
	VerifyTTL   time.Duration
	ResetTTL    time.Duration
	Metrics     *metrics.Metrics
}

type flowsService struct {
	deps Deps
}

func NewFlowsService(deps Deps) FlowsService {
	if deps.VerifyTTL <= 0 {
		deps.VerifyTTL = time.Hour
	}
	if deps.ResetTTL <= 0 {
		deps.ResetTTL = time.Hour
	}
	deps.BaseURL = strings.TrimRight(deps.BaseURL, "/")
	deps.FrontendURL = strings.TrimRight(deps.FrontendURL, "/")
	return &flowsService{deps: deps}
}

func (s *flowsService) log(ctx context.Context, op string) *zap.Logger {
	return logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("email.flows"),
		logger.Op(op),
	)
}

// SendVerification firma un token de propósito único, guarda su hash como el
// token vigente de la identidad y encola el email. Un token anterior queda inválido.
func (s *flowsService) SendVerification(ctx context.Context, identity *repository.Identity) error {
	log := s.log(logger.WithUser(ctx, identity.ID), "SendVerification")
	if identity.EmailVerified {
		return nil
	}

	tk, err := s.deps.Issuer.Mint(jwtx.Subject{ID: identity.ID, Email: identity.Email}, s.deps.VerifyTTL,
		jwtx.MintOptions{Purpose: jwtx.PurposeEmailVerify})
	if err != nil {
		return fmt.Errorf("mint verification token: %w", err)
	}
	if err := s.deps.Identities.SetPendingVerification(ctx, identity.ID, token.SHA256Hex(tk.Value)); err != nil {
		return fmt.Errorf("store pending verification: %w", err)
	}

	link := s.deps.BaseURL + "/v1/auth/verify-email?token=" + url.QueryEscape(tk.Value)
	err = s.deps.Mailer.Dispatch(ctx, identity.Email, mailer.KindVerification, mailer.Params{
		Name: identity.DisplayName,
		Link: link,
		TTL:  mailer.FormatTTL(s.deps.VerifyTTL),
	})
	if err != nil {
		log.Warn("verification email not queued", logger.Err(err))
		return errors.Join(ErrDeliveryFailed, err)
	}
	log.Debug("verification email queued")
	return nil
}

func (s *flowsService) ResendVerification(ctx context.Context, identityID string) error {
	it, err := s.deps.Identities.GetByID(ctx, identityID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load identity: %w", err)
	}
	return s.SendVerification(ctx, it)
}

func (s *flowsService) VerifyEmail(ctx context.Context, rawToken string) (string, error) {
	log := s.log(ctx, "VerifyEmail")

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return "", ErrInvalidOrExpired
	}
	claims, err := s.deps.Issuer.VerifyPurpose(rawToken, jwtx.PurposeEmailVerify)
	if err != nil {
		s.deps.Metrics.Artifact("verification", "consume", metrics.ResultInvalid)
		return "", ErrInvalidOrExpired
	}
	log = log.With(logger.UserID(claims.Subject))

	confirmed, err := s.deps.Identities.ConfirmEmail(ctx, claims.Subject, token.SHA256Hex(rawToken))
	if err != nil && !repository.IsNotFound(err) {
		return "", fmt.Errorf("confirm email: %w", err)
	}
	if !confirmed {
		// El hash no coincide: token reemplazado por uno más nuevo o ya usado.
		it, err := s.deps.Identities.GetByID(ctx, claims.Subject)
		if err == nil && it.EmailVerified && it.Email == claims.Email {
			log.Debug("verification link reused")
			return "", ErrAlreadyVerified
		}
		s.deps.Metrics.Artifact("verification", "consume", metrics.ResultInvalid)
		return "", ErrInvalidOrExpired
	}
	s.deps.Metrics.Artifact("verification", "consume", metrics.ResultOK)

	it, err := s.deps.Identities.GetByID(ctx, claims.Subject)
	if err != nil {
		return "", fmt.Errorf("load identity: %w", err)
	}
	code, err := s.deps.Exchange.Issue(ctx, it, session.AMREmail)
	if err != nil {
		return "", err
	}
	log.Info("email verified")
	return code, nil
}

// ForgotPassword nunca revela si el email existe: todo camino devuelve nil
// salvo input vacío. Los fallos internos solo se loguean.
func (s *flowsService) ForgotPassword(ctx context.Context, email string) error {
	log := s.log(ctx, "ForgotPassword")

	email = repository.NormalizeEmail(email)
	if email == "" {
		return ErrMissingFields
	}
	log = log.With(logger.Email(email))

	it, err := s.deps.Identities.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("reset requested for unknown email")
		} else {
			log.Error("lookup identity failed", logger.Err(err))
		}
		return nil
	}

	resetToken, err := token.GenerateOpaque(32)
	if err != nil {
		log.Error("generate reset token failed", logger.Err(err))
		return nil
	}
	err = s.deps.Artifacts.Put(ctx, cache.KindReset, resetToken, cache.Payload{
		IdentityID: it.ID,
		Email:      it.Email,
	}, s.deps.ResetTTL)
	if err != nil {
		s.deps.Metrics.Artifact(string(cache.KindReset), "issue", metrics.ResultError)
		log.Error("store reset token failed", logger.Err(err))
		return nil
	}
	s.deps.Metrics.Artifact(string(cache.KindReset), "issue", metrics.ResultOK)

	link := s.deps.FrontendURL + "/reset-password?token=" + url.QueryEscape(resetToken)
	if err := s.deps.Mailer.Dispatch(ctx, it.Email, mailer.KindPasswordReset, mailer.Params{
		Name: it.DisplayName,
		Link: link,
		TTL:  mailer.FormatTTL(s.deps.ResetTTL),
	}); err != nil {
		log.Warn("reset email not queued", logger.Err(err))
		return nil
	}
	log.Info("password reset requested", logger.UserID(it.ID))
	return nil
}

// ResetPassword consume el token (single-use), fija el nuevo password y marca
// el email como verificado: quien recibió el link controla la casilla.
func (s *flowsService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	log := s.log(ctx, "ResetPassword")

	resetToken = strings.TrimSpace(resetToken)
	if resetToken == "" || newPassword == "" {
		return ErrMissingFields
	}
	// Hash antes de consumir: un password inválido no debe quemar el token.
	hash, err := s.deps.Hasher.Hash(newPassword)
	if err != nil {
		if errors.Is(err, password.ErrEmptyPassword) {
			return ErrMissingFields
		}
		return fmt.Errorf("hash password: %w", err)
	}

	p, err := s.deps.Artifacts.Consume(ctx, cache.KindReset, resetToken)
	if err != nil {
		if cache.IsNotFound(err) {
			s.deps.Metrics.Artifact(string(cache.KindReset), "consume", metrics.ResultInvalid)
			return ErrInvalidOrExpired
		}
		return fmt.Errorf("consume reset token: %w", err)
	}
	s.deps.Metrics.Artifact(string(cache.KindReset), "consume", metrics.ResultOK)

	if err := s.deps.Identities.SetPassword(ctx, p.IdentityID, hash, true); err != nil {
		if repository.IsNotFound(err) {
			return ErrInvalidOrExpired
		}
		return fmt.Errorf("set password: %w", err)
	}
	log.Info("password reset", logger.UserID(p.IdentityID))
	return nil
}
