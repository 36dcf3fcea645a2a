package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/idgate/internal/domain/repository"
	dto "github.com/dropDatabas3/idgate/internal/http/dto/auth"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
	"github.com/dropDatabas3/idgate/internal/security/password"
	"github.com/dropDatabas3/idgate/internal/validation"
)

type RegisterService interface {
	Register(ctx context.Context, in dto.RegisterRequest) (*dto.RegisterResponse, error)
}

type registerService struct {
	deps Deps
}

func NewRegisterService(deps Deps) RegisterService {
	return &registerService{deps: deps}
}

func (s *registerService) Register(ctx context.Context, in dto.RegisterRequest) (*dto.RegisterResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("Register"),
	)

	name := strings.TrimSpace(in.Name)
	email := repository.NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if !validation.ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !validation.ValidDisplayName(name) {
		return nil, ErrInvalidName
	}
	log = log.With(logger.Email(email))

	hash, err := s.deps.Hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrEmptyPassword) {
			return nil, ErrMissingFields
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	identity, err := s.createOrAdopt(ctx, name, email, hash)
	if err != nil {
		if errors.Is(err, ErrEmailInUse) {
			log.Debug("email already has a password")
		}
		return nil, err
	}
	log = log.With(logger.UserID(identity.ID))

	// El registro no depende del envío: si falla, queda logueado y el usuario puede reenviar.
	if !identity.EmailVerified && s.deps.Verification != nil {
		if err := s.deps.Verification.SendVerification(ctx, identity); err != nil {
			log.Warn("verification email not sent", logger.Err(err))
		}
	}

	log.Info("identity registered")
	return &dto.RegisterResponse{
		ID:         identity.ID,
		Email:      identity.Email,
		IsVerified: identity.EmailVerified,
	}, nil
}

// createOrAdopt crea la identidad o, si existe solo vía OAuth, le agrega el password.
func (s *registerService) createOrAdopt(ctx context.Context, name, email, hash string) (*repository.Identity, error) {
	existing, err := s.deps.Identities.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.HasPassword() {
			return nil, ErrEmailInUse
		}
		adopted, err := s.deps.Identities.AdoptPassword(ctx, existing.ID, hash, name)
		if err != nil {
			if repository.IsConflict(err) {
				return nil, ErrEmailInUse
			}
			return nil, fmt.Errorf("adopt password: %w", err)
		}
		return adopted, nil

	case repository.IsNotFound(err):
		created, err := s.deps.Identities.Create(ctx, repository.CreateIdentityInput{
			DisplayName:  name,
			Email:        email,
			PasswordHash: hash,
		})
		if err != nil {
			if repository.IsConflict(err) {
				return nil, ErrEmailInUse
			}
			return nil, fmt.Errorf("create identity: %w", err)
		}
		return created, nil

	default:
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
}
