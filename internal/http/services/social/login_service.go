package social

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
	"github.com/dropDatabas3/idgate/internal/metrics"
	"github.com/dropDatabas3/idgate/internal/oauth"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
	"github.com/dropDatabas3/idgate/internal/security/token"
)

const defaultStateTTL = 10 * time.Minute

var (
	ErrProviderNotSupported = errors.New("provider not supported")
	ErrInvalidState         = errors.New("invalid or expired state")
	ErrMissingCode          = errors.New("authorization code missing")
	// ErrProviderDenied: el usuario canceló o el provider devolvió error en el callback.
	ErrProviderDenied = errors.New("provider denied authorization")
	ErrProviderFailed = errors.New("provider exchange failed")
	ErrEmailMissing   = errors.New("provider did not share an email")
)

// CallbackRequest son los query params del redirect del provider.
type CallbackRequest struct {
	Provider string
	State    string
	Code     string
	Error    string
}

type LoginService interface {
	// Start devuelve la URL de autorización del provider.
	Start(ctx context.Context, provider string) (string, error)
	// Callback completa el login y devuelve la URL del frontend con el exchange code.
	Callback(ctx context.Context, req CallbackRequest) (string, error)
}

type loginService struct {
	deps Deps
}

func NewLoginService(d Deps) LoginService {
	if d.StateTTL <= 0 {
		d.StateTTL = defaultStateTTL
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	d.FrontendURL = strings.TrimRight(d.FrontendURL, "/")
	return &loginService{deps: d}
}

func (s *loginService) provider(name string) (oauth.Provider, repository.LoginMethod, error) {
	method := repository.LoginMethod(strings.ToLower(strings.TrimSpace(name)))
	if !method.Valid() || method == repository.MethodPassword {
		return nil, "", ErrProviderNotSupported
	}
	p, ok := s.deps.Providers.Get(string(method))
	if !ok {
		return nil, "", ErrProviderNotSupported
	}
	return p, method, nil
}

func (s *loginService) Start(ctx context.Context, name string) (string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.login"),
		logger.Op("Start"),
		logger.Provider(name),
	)

	p, method, err := s.provider(name)
	if err != nil {
		return "", err
	}

	state, err := token.GenerateOpaque(32)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	verifier := oauth.NewVerifier()
	err = s.deps.Artifacts.Put(ctx, cache.KindOAuthState, state, cache.Payload{
		Extra: map[string]string{
			"provider": string(method),
			"verifier": verifier,
		},
	}, s.deps.StateTTL)
	if err != nil {
		s.deps.Metrics.Artifact(string(cache.KindOAuthState), "issue", metrics.ResultError)
		return "", fmt.Errorf("store state: %w", err)
	}
	s.deps.Metrics.Artifact(string(cache.KindOAuthState), "issue", metrics.ResultOK)

	log.Debug("oauth flow started")
	return p.AuthCodeURL(state, verifier), nil
}

func (s *loginService) Callback(ctx context.Context, req CallbackRequest) (string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.login"),
		logger.Op("Callback"),
		logger.Provider(req.Provider),
	)

	p, method, err := s.provider(req.Provider)
	if err != nil {
		return "", err
	}

	// El state se consume siempre, aun si el provider devolvió error: un state
	// sirve para un único intento.
	st, err := s.deps.Artifacts.Consume(ctx, cache.KindOAuthState, strings.TrimSpace(req.State))
	if err != nil {
		if cache.IsNotFound(err) {
			s.deps.Metrics.Artifact(string(cache.KindOAuthState), "consume", metrics.ResultInvalid)
			return "", ErrInvalidState
		}
		return "", fmt.Errorf("consume state: %w", err)
	}
	if st.Extra["provider"] != string(method) {
		s.deps.Metrics.Artifact(string(cache.KindOAuthState), "consume", metrics.ResultInvalid)
		log.Warn("state issued for another provider", logger.String("state_provider", st.Extra["provider"]))
		return "", ErrInvalidState
	}
	s.deps.Metrics.Artifact(string(cache.KindOAuthState), "consume", metrics.ResultOK)

	if req.Error != "" {
		log.Info("provider returned error", logger.String("provider_error", req.Error))
		s.deps.Metrics.Login(string(method), metrics.ResultInvalid)
		return "", ErrProviderDenied
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return "", ErrMissingCode
	}

	profile, err := p.Exchange(ctx, code, st.Extra["verifier"])
	if err != nil {
		s.deps.Metrics.Login(string(method), metrics.ResultError)
		if errors.Is(err, oauth.ErrEmailMissing) || errors.Is(err, oauth.ErrEmailNotVerified) {
			log.Info("provider profile without usable email", logger.Err(err))
			return "", ErrEmailMissing
		}
		log.Warn("provider exchange failed", logger.Err(err))
		return "", errors.Join(ErrProviderFailed, err)
	}

	it, created, err := s.deps.Identities.UpsertFromProvider(ctx, repository.ProviderProfileInput{
		Provider:       method,
		ProviderUserID: profile.ProviderUserID,
		Email:          profile.Email,
		DisplayName:    profile.DisplayName,
		At:             s.deps.Now(),
	})
	if err != nil {
		s.deps.Metrics.Login(string(method), metrics.ResultError)
		return "", fmt.Errorf("upsert identity: %w", err)
	}
	log = log.With(logger.UserID(it.ID))
	s.deps.Metrics.Login(string(method), metrics.ResultOK)

	if created && s.deps.Mailer != nil {
		if err := s.deps.Mailer.Dispatch(ctx, it.Email, mailer.KindWelcome, mailer.Params{Name: it.DisplayName}); err != nil {
			log.Warn("welcome email not queued", logger.Err(err))
		}
	}

	xcode, err := s.deps.Exchange.Issue(ctx, it, session.AMROAuth)
	if err != nil {
		return "", err
	}
	log.Info("oauth login", logger.Bool("created", created))
	return s.deps.FrontendURL + "/auth/callback?code=" + url.QueryEscape(xcode), nil
}
