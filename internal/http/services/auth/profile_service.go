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

const loginHistoryLimit = 50

type ProfileService interface {
	Get(ctx context.Context, id string) (*dto.ProfileResponse, error)
	Update(ctx context.Context, id string, in dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	LoginHistory(ctx context.Context, id string) (*dto.LoginHistoryResponse, error)
	IsVerified(ctx context.Context, id string) (bool, error)
}

type profileService struct {
	deps Deps
}

func NewProfileService(deps Deps) ProfileService {
	return &profileService{deps: deps}
}

func (s *profileService) load(ctx context.Context, id string) (*repository.Identity, error) {
	it, err := s.deps.Identities.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load identity: %w", err)
	}
	return it, nil
}

func (s *profileService) Get(ctx context.Context, id string) (*dto.ProfileResponse, error) {
	it, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProfile(it), nil
}

// Update aplica solo los campos presentes. 2FA requiere teléfono, tanto al
// habilitarlo como al borrar el teléfono con 2FA activo.
func (s *profileService) Update(ctx context.Context, id string, in dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	log := logger.ForUser(ctx, id).With(
		logger.Layer("service"),
		logger.Component("auth.profile"),
		logger.Op("Update"),
	)
	if in.Empty() {
		return nil, ErrMissingFields
	}

	it, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrMissingFields
		}
		if !validation.ValidDisplayName(name) {
			return nil, ErrInvalidName
		}
		it.DisplayName = name
	}
	if in.PhoneNumber != nil {
		phone := strings.TrimSpace(*in.PhoneNumber)
		if phone != "" && !validation.ValidPhone(phone) {
			return nil, ErrInvalidPhone
		}
		it.PhoneNumber = phone
	}
	if in.Is2FAEnabled != nil {
		it.TwoFactorEnabled = *in.Is2FAEnabled
	}
	if it.TwoFactorEnabled && it.PhoneNumber == "" {
		return nil, ErrPhoneRequired
	}
	if in.Password != nil {
		hash, err := s.deps.Hasher.Hash(*in.Password)
		if err != nil {
			if errors.Is(err, password.ErrEmptyPassword) {
				return nil, ErrMissingFields
			}
			return nil, fmt.Errorf("hash password: %w", err)
		}
		it.PasswordHash = &hash
	}

	if err := s.deps.Identities.Save(ctx, it); err != nil {
		switch {
		case repository.IsConflict(err):
			return nil, ErrConcurrentUpdate
		case errors.Is(err, repository.ErrInvalidInput):
			return nil, ErrPhoneRequired
		case repository.IsNotFound(err):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("save identity: %w", err)
	}

	log.Info("profile updated",
		logger.Bool("password_changed", in.Password != nil),
		logger.Bool("two_factor", it.TwoFactorEnabled))
	return toProfile(it), nil
}

func (s *profileService) LoginHistory(ctx context.Context, id string) (*dto.LoginHistoryResponse, error) {
	events, err := s.deps.Identities.LoginHistory(ctx, id, loginHistoryLimit)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("login history: %w", err)
	}
	out := &dto.LoginHistoryResponse{Items: make([]dto.LoginHistoryItem, 0, len(events))}
	for _, e := range events {
		out.Items = append(out.Items, dto.LoginHistoryItem{Method: string(e.Method), Timestamp: e.OccurredAt})
	}
	return out, nil
}

func (s *profileService) IsVerified(ctx context.Context, id string) (bool, error) {
	it, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}
	return it.EmailVerified, nil
}

func toProfile(it *repository.Identity) *dto.ProfileResponse {
	providers := make([]string, 0, len(it.ProviderLinks))
	for _, l := range it.ProviderLinks {
		providers = append(providers, string(l.Provider))
	}
	return &dto.ProfileResponse{
		ID:           it.ID,
		Name:         it.DisplayName,
		Email:        it.Email,
		PhoneNumber:  it.PhoneNumber,
		IsVerified:   it.EmailVerified,
		Is2FAEnabled: it.TwoFactorEnabled,
		HasPassword:  it.HasPassword(),
		Providers:    providers,
		CreatedAt:    it.CreatedAt,
	}
}
