package session

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/idgate/internal/domain/repository"
	dto "github.com/dropDatabas3/idgate/internal/http/dto/session"
	jwtx "github.com/dropDatabas3/idgate/internal/jwt"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

// Valores de amr según cómo se autenticó la sesión.
const (
	AMRPassword = "pwd"
	AMROAuth    = "oauth"
	AMREmail    = "email"
	AMROTP      = "otp"
)

// Tokens emite credenciales aplicando la regla de step-up: una identidad con
// 2FA recibe una credencial "pending" hasta verificar el OTP.
type Tokens struct {
	issuer *jwtx.Issuer
}

func NewTokens(issuer *jwtx.Issuer) *Tokens { return &Tokens{issuer: issuer} }

// ForIdentity emite la credencial de login primario.
func (t *Tokens) ForIdentity(it *repository.Identity, amr ...string) (*dto.TokenResponse, error) {
	opts := jwtx.MintOptions{AMR: amr}
	if it.TwoFactorEnabled {
		opts.StepUp = jwtx.StepUpPending
	}
	tk, err := t.issuer.Mint(jwtx.Subject{ID: it.ID, Email: it.Email}, 0, opts)
	if err != nil {
		return nil, fmt.Errorf("mint session: %w", err)
	}
	return t.response(tk, opts.StepUp == jwtx.StepUpPending), nil
}

// StepUp emite la credencial completa tras un OTP válido y revoca la pendiente.
func (t *Tokens) StepUp(ctx context.Context, pending *jwtx.Claims) (*dto.TokenResponse, error) {
	amr := append(append([]string(nil), pending.AMR...), AMROTP)
	tk, err := t.issuer.Mint(jwtx.Subject{ID: pending.Subject, Email: pending.Email}, 0, jwtx.MintOptions{
		StepUp: jwtx.StepUpVerified,
		AMR:    amr,
	})
	if err != nil {
		return nil, fmt.Errorf("mint session: %w", err)
	}
	if err := t.issuer.Revoke(ctx, pending); err != nil {
		logger.From(ctx).Warn("revoke pending credential failed",
			logger.Component("session.tokens"), logger.Err(err))
	}
	return t.response(tk, false), nil
}

func (t *Tokens) response(tk jwtx.Token, stepUp bool) *dto.TokenResponse {
	return &dto.TokenResponse{
		AccessToken:    tk.Value,
		TokenType:      "Bearer",
		ExpiresIn:      int64(t.issuer.AccessTTL / time.Second),
		StepUpRequired: stepUp,
	}
}
