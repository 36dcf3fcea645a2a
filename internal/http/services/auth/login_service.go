package auth

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/idgate/internal/domain/repository"
	dto "github.com/dropDatabas3/idgate/internal/http/dto/auth"
	sessiondto "github.com/dropDatabas3/idgate/internal/http/dto/session"
	"github.com/dropDatabas3/idgate/internal/http/services/session"
	"github.com/dropDatabas3/idgate/internal/metrics"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

type LoginService interface {
	LoginPassword(ctx context.Context, in dto.LoginRequest) (*sessiondto.TokenResponse, error)
}

type loginService struct {
	deps Deps
}

func NewLoginService(deps Deps) LoginService {
	return &loginService{deps: deps}
}

// LoginPassword no distingue email inexistente de password incorrecto: mismo
// error y, vía VerifyDummy, costo de hash equivalente. No exige email verificado.
func (s *loginService) LoginPassword(ctx context.Context, in dto.LoginRequest) (*sessiondto.TokenResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("LoginPassword"),
	)

	email := repository.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	identity, err := s.deps.Identities.GetByEmail(ctx, email)
	if err != nil {
		if !repository.IsNotFound(err) {
			s.deps.Metrics.Login(string(repository.MethodPassword), metrics.ResultError)
			return nil, fmt.Errorf("lookup identity: %w", err)
		}
		s.deps.Hasher.VerifyDummy(in.Password)
		s.deps.Metrics.Login(string(repository.MethodPassword), metrics.ResultInvalid)
		log.Debug("login rejected")
		return nil, ErrInvalidCredentials
	}

	if !identity.HasPassword() {
		s.deps.Hasher.VerifyDummy(in.Password)
		s.deps.Metrics.Login(string(repository.MethodPassword), metrics.ResultInvalid)
		log.Debug("login rejected")
		return nil, ErrInvalidCredentials
	}
	if !s.deps.Hasher.Verify(in.Password, *identity.PasswordHash) {
		s.deps.Metrics.Login(string(repository.MethodPassword), metrics.ResultInvalid)
		log.Debug("login rejected")
		return nil, ErrInvalidCredentials
	}
	log = log.With(logger.UserID(identity.ID))

	if s.deps.Hasher.NeedsRehash(*identity.PasswordHash) {
		if hash, err := s.deps.Hasher.Hash(in.Password); err == nil {
			if err := s.deps.Identities.SetPassword(ctx, identity.ID, hash, false); err != nil {
				log.Warn("password rehash failed", logger.Err(err))
			}
		}
	}

	if err := s.deps.Identities.AppendLoginHistory(ctx, identity.ID, repository.MethodPassword, s.deps.Now()); err != nil {
		s.deps.Metrics.Login(string(repository.MethodPassword), metrics.ResultError)
		return nil, fmt.Errorf("append login history: %w", err)
	}

	res, err := s.deps.Tokens.ForIdentity(identity, session.AMRPassword)
	if err != nil {
		s.deps.Metrics.Login(string(repository.MethodPassword), metrics.ResultError)
		return nil, err
	}
	s.deps.Metrics.Login(string(repository.MethodPassword), metrics.ResultOK)
	log.Info("password login", logger.Bool("step_up", res.StepUpRequired))
	return res, nil
}
