// Package app cablea services, controllers y router a partir de las
// dependencias de infraestructura ya construidas.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/idgate/internal/cache"
	"github.com/dropDatabas3/idgate/internal/domain/repository"
	authctrl "github.com/dropDatabas3/idgate/internal/http/controllers/auth"
	emailctrl "github.com/dropDatabas3/idgate/internal/http/controllers/email"
	healthctrl "github.com/dropDatabas3/idgate/internal/http/controllers/health"
	mfactrl "github.com/dropDatabas3/idgate/internal/http/controllers/mfa"
	sessionctrl "github.com/dropDatabas3/idgate/internal/http/controllers/session"
	socialctrl "github.com/dropDatabas3/idgate/internal/http/controllers/social"
	"github.com/dropDatabas3/idgate/internal/http/router"
	authsvc "github.com/dropDatabas3/idgate/internal/http/services/auth"
	emailsvc "github.com/dropDatabas3/idgate/internal/http/services/email"
	healthsvc "github.com/dropDatabas3/idgate/internal/http/services/health"
	mfasvc "github.com/dropDatabas3/idgate/internal/http/services/mfa"
	sessionsvc "github.com/dropDatabas3/idgate/internal/http/services/session"
	socialsvc "github.com/dropDatabas3/idgate/internal/http/services/social"
	jwtx "github.com/dropDatabas3/idgate/internal/jwt"
	"github.com/dropDatabas3/idgate/internal/metrics"
	"github.com/dropDatabas3/idgate/internal/oauth"
	"github.com/dropDatabas3/idgate/internal/rate"
	"github.com/dropDatabas3/idgate/internal/security/password"
	"github.com/dropDatabas3/idgate/internal/sms"
)

// Settings son los parámetros de comportamiento (TTLs, URLs, reglas).
type Settings struct {
	AppName     string
	Version     string
	BaseURL     string // URL pública de la API
	FrontendURL string

	VerifyTTL     time.Duration
	ResetTTL      time.Duration
	ExchangeTTL   time.Duration
	OTPTTL        time.Duration
	OAuthStateTTL time.Duration
	SMSTimeout    time.Duration

	RateRules router.RateRules
	// ServeMetrics monta /metrics en el handler de la API.
	ServeMetrics bool
}

// Deps son las dependencias de infraestructura. Los campos opcionales se
// documentan en cada uno.
type Deps struct {
	Identities repository.IdentityRepository
	Cache      cache.Client
	Issuer     *jwtx.Issuer
	Hasher     *password.Hasher
	Mailer     emailsvc.Mailer
	SMS        sms.Sender
	Providers  *oauth.Registry
	Limiter    rate.Limiter     // opcional
	Metrics    *metrics.Metrics // opcional
	// Checks de readiness; nil se reporta como "disabled".
	DBCheck    func(ctx context.Context) error
	CacheCheck func(ctx context.Context) error
	Now        func() time.Time
}

// App es la aplicación cableada.
type App struct {
	Handler http.Handler
}

// New cablea la aplicación. Issuer.Revocations se setea sobre Cache si está vacío.
func New(s Settings, d Deps) *App {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Hasher == nil {
		d.Hasher = password.New(password.Default)
	}
	if d.Providers == nil {
		d.Providers = oauth.NewRegistry()
	}
	if d.Issuer.Revocations == nil {
		d.Issuer.Revocations = jwtx.NewCacheRevocations(d.Cache)
	}
	artifacts := cache.NewArtifactStore(d.Cache, d.Now)

	// 1. Services
	sessionSvcs := sessionsvc.NewServices(sessionsvc.Deps{
		Identities:  d.Identities,
		Issuer:      d.Issuer,
		Artifacts:   artifacts,
		ExchangeTTL: s.ExchangeTTL,
		Metrics:     d.Metrics,
	})
	flows := emailsvc.NewFlowsService(emailsvc.Deps{
		Identities:  d.Identities,
		Issuer:      d.Issuer,
		Artifacts:   artifacts,
		Exchange:    sessionSvcs.Exchange,
		Hasher:      d.Hasher,
		Mailer:      d.Mailer,
		BaseURL:     s.BaseURL,
		FrontendURL: s.FrontendURL,
		VerifyTTL:   s.VerifyTTL,
		ResetTTL:    s.ResetTTL,
		Metrics:     d.Metrics,
	})
	authSvcs := authsvc.NewServices(authsvc.Deps{
		Identities:   d.Identities,
		Hasher:       d.Hasher,
		Tokens:       sessionSvcs.Tokens,
		Verification: flows,
		Metrics:      d.Metrics,
		Now:          d.Now,
	})
	mfaSvcs := mfasvc.NewServices(mfasvc.Deps{
		Identities:  d.Identities,
		Tokens:      sessionSvcs.Tokens,
		SMS:         d.SMS,
		AppName:     s.AppName,
		OTPTTL:      s.OTPTTL,
		SendTimeout: s.SMSTimeout,
		Metrics:     d.Metrics,
		Now:         d.Now,
	})
	socialSvcs := socialsvc.NewServices(socialsvc.Deps{
		Identities:  d.Identities,
		Providers:   d.Providers,
		Artifacts:   artifacts,
		Exchange:    sessionSvcs.Exchange,
		Mailer:      d.Mailer,
		FrontendURL: s.FrontendURL,
		StateTTL:    s.OAuthStateTTL,
		Metrics:     d.Metrics,
		Now:         d.Now,
	})
	healthSvcs := healthsvc.NewServices(healthsvc.Deps{
		Version:    s.Version,
		Issuer:     d.Issuer,
		DBCheck:    d.DBCheck,
		CacheCheck: d.CacheCheck,
	})

	// 2. Controllers
	controllers := router.Controllers{
		Auth:    authctrl.NewControllers(authSvcs),
		Session: sessionctrl.NewControllers(sessionSvcs),
		Email:   emailctrl.NewControllers(flows, s.FrontendURL),
		MFA:     mfactrl.NewControllers(mfaSvcs),
		Social:  socialctrl.NewControllers(socialSvcs, s.FrontendURL),
		Health:  healthctrl.NewControllers(healthSvcs, d.Issuer.Keys),
	}

	// 3. Routes
	return &App{
		Handler: router.New(router.Deps{
			Controllers:  controllers,
			Verifier:     d.Issuer,
			RateLimiter:  d.Limiter,
			Rules:        s.RateRules,
			Metrics:      d.Metrics,
			ServeMetrics: s.ServeMetrics,
		}),
	}
}
