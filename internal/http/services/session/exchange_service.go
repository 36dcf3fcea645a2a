package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/idgate/internal/cache"
	"github.com/dropDatabas3/idgate/internal/domain/repository"
	dto "github.com/dropDatabas3/idgate/internal/http/dto/session"
	"github.com/dropDatabas3/idgate/internal/metrics"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
	"github.com/dropDatabas3/idgate/internal/security/token"
)

const defaultExchangeTTL = 5 * time.Minute

// ErrInvalidOrExpired cubre código inexistente, ya canjeado o vencido.
var ErrInvalidOrExpired = errors.New("invalid or expired code")

// ExchangeService convierte un login por redirect en una credencial sin que
// esta viaje en la URL: el redirect lleva un código single-use.
type ExchangeService interface {
	Issue(ctx context.Context, identity *repository.Identity, amr string) (string, error)
	Redeem(ctx context.Context, code string) (*dto.TokenResponse, error)
}

type ExchangeDeps struct {
	Identities repository.IdentityRepository
	Artifacts  *cache.ArtifactStore
	Tokens     *Tokens
	TTL        time.Duration
	Metrics    *metrics.Metrics
}

type exchangeService struct {
	deps ExchangeDeps
}

func NewExchangeService(deps ExchangeDeps) ExchangeService {
	if deps.TTL <= 0 {
		deps.TTL = defaultExchangeTTL
	}
	return &exchangeService{deps: deps}
}

func (s *exchangeService) Issue(ctx context.Context, identity *repository.Identity, amr string) (string, error) {
	code, err := token.GenerateOpaque(32)
	if err != nil {
		return "", fmt.Errorf("generate exchange code: %w", err)
	}
	err = s.deps.Artifacts.Put(ctx, cache.KindExchange, code, cache.Payload{
		IdentityID: identity.ID,
		Email:      identity.Email,
		Extra:      map[string]string{"amr": amr},
	}, s.deps.TTL)
	if err != nil {
		s.deps.Metrics.Artifact(string(cache.KindExchange), "issue", metrics.ResultError)
		return "", fmt.Errorf("store exchange code: %w", err)
	}
	s.deps.Metrics.Artifact(string(cache.KindExchange), "issue", metrics.ResultOK)
	return code, nil
}

func (s *exchangeService) Redeem(ctx context.Context, code string) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("session.exchange"),
		logger.Op("Redeem"),
	)

	code = strings.TrimSpace(code)
	p, err := s.deps.Artifacts.Consume(ctx, cache.KindExchange, code)
	if err != nil {
		if cache.IsNotFound(err) {
			s.deps.Metrics.Artifact(string(cache.KindExchange), "consume", metrics.ResultInvalid)
			return nil, ErrInvalidOrExpired
		}
		s.deps.Metrics.Artifact(string(cache.KindExchange), "consume", metrics.ResultError)
		return nil, fmt.Errorf("consume exchange code: %w", err)
	}
	s.deps.Metrics.Artifact(string(cache.KindExchange), "consume", metrics.ResultOK)

	// El estado de 2FA se lee al canjear, no al emitir el código.
	identity, err := s.deps.Identities.GetByID(ctx, p.IdentityID)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Warn("exchange code for unknown identity", logger.UserID(p.IdentityID))
			return nil, ErrInvalidOrExpired
		}
		return nil, fmt.Errorf("load identity: %w", err)
	}

	amr := p.Extra["amr"]
	if amr == "" {
		amr = AMROAuth
	}
	res, err := s.deps.Tokens.ForIdentity(identity, amr)
	if err != nil {
		return nil, err
	}
	log.Debug("exchange code redeemed", logger.UserID(identity.ID), logger.Bool("step_up", res.StepUpRequired))
	return res, nil
}
