package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/idgate/internal/cache"
	"github.com/dropDatabas3/idgate/internal/config"
	"github.com/dropDatabas3/idgate/internal/domain/repository"
	"github.com/dropDatabas3/idgate/internal/email"
	"github.com/dropDatabas3/idgate/internal/http/router"
	jwtx "github.com/dropDatabas3/idgate/internal/jwt"
	"github.com/dropDatabas3/idgate/internal/metrics"
	"github.com/dropDatabas3/idgate/internal/oauth"
	"github.com/dropDatabas3/idgate/internal/oauth/facebook"
	"github.com/dropDatabas3/idgate/internal/oauth/google"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
	"github.com/dropDatabas3/idgate/internal/rate"
	"github.com/dropDatabas3/idgate/internal/security/password"
	"github.com/dropDatabas3/idgate/internal/sms"
	"github.com/dropDatabas3/idgate/internal/store/memory"
	"github.com/dropDatabas3/idgate/internal/store/pg"
)

// Runtime es la aplicación con su infraestructura. Close libera todo en orden.
type Runtime struct {
	*App
	Metrics *metrics.Metrics
	// MetricsHandler es no-nil si /metrics va en un listener dedicado.
	MetricsHandler http.Handler

	closers []func(context.Context) error
}

// Build construye la infraestructura desde cfg y cablea la aplicación.
func Build(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	log := logger.From(ctx).With(logger.Component("app.build"))
	rt := &Runtime{Metrics: metrics.New()}
	built := false
	defer func() {
		if !built {
			_ = rt.Close(context.Background())
		}
	}()

	// 1. Storage y cache en paralelo: ambos hacen ping al abrir.
	var (
		identities repository.IdentityRepository
		pgStore    *pg.Store
		cacheCl    cache.Client
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if cfg.Storage.Driver != "postgres" {
			identities = memory.New()
			return nil
		}
		s, err := pg.Open(gctx, pg.Config{
			DSN:             cfg.Storage.DSN,
			MaxConns:        int(cfg.Storage.MaxConns),
			MinConns:        int(cfg.Storage.MinConns),
			ConnMaxLifetime: cfg.Storage.ConnMaxLifetime,
		})
		if err != nil {
			return err
		}
		pgStore, identities = s, s.Identities()
		return nil
	})
	g.Go(func() error {
		c, err := cache.New(gctx, cache.Config{
			Driver:   cfg.Cache.Driver,
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			Prefix:   cfg.Cache.Prefix,
		})
		if err != nil {
			return err
		}
		cacheCl = c
		return nil
	})
	gErr := g.Wait()
	if pgStore != nil {
		rt.closers = append(rt.closers, func(context.Context) error { pgStore.Close(); return nil })
	}
	if cacheCl != nil {
		rt.closers = append(rt.closers, func(context.Context) error { return cacheCl.Close() })
	}
	if gErr != nil {
		return nil, gErr
	}

	deps := Deps{
		Identities: identities,
		Cache:      cacheCl,
		Metrics:    rt.Metrics,
		Hasher:     password.New(password.Default),
	}
	if pgStore != nil {
		deps.DBCheck = pgStore.Ping
		if err := rt.Metrics.RegisterPool(pgStore.Pool()); err != nil {
			return nil, fmt.Errorf("register pool metrics: %w", err)
		}
	}
	if cfg.Cache.Driver == "redis" {
		deps.CacheCheck = cacheCl.Ping
	}

	// 2. Rate limiter: comparte la conexión redis del cache.
	if !cfg.Rate.Disabled {
		if rc, ok := cacheCl.(*cache.Redis); ok {
			deps.Limiter = rate.NewRedisLimiter(rc.Raw(), cfg.Cache.Prefix+"rl:")
		} else {
			deps.Limiter = rate.NewMemoryLimiter()
		}
	}

	// 3. Firma de sesiones.
	var (
		keys *jwtx.KeySet
		err  error
	)
	if len(cfg.JWT.Keys) > 0 {
		if keys, err = jwtx.LoadKeySet(cfg.JWT.Keys); err != nil {
			return nil, fmt.Errorf("load jwt keys: %w", err)
		}
	} else {
		if keys, err = jwtx.GenerateKeySet(); err != nil {
			return nil, fmt.Errorf("generate jwt keys: %w", err)
		}
		log.Warn("jwt.keys not set: using an ephemeral signing key, sessions will not survive a restart")
	}
	deps.Issuer = jwtx.NewIssuer(cfg.JWT.Issuer, keys, cfg.JWT.AccessTTL)
	deps.Issuer.Revocations = jwtx.NewCacheRevocations(cacheCl)

	// 4. Email asíncrono.
	var sender email.Sender
	if cfg.SMTP.Host != "" {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			From:               cfg.SMTP.From,
			Username:           cfg.SMTP.Username,
			Password:           cfg.SMTP.Password,
			TLSMode:            cfg.SMTP.TLSMode,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		})
	} else {
		sender = email.NewLogSender(0)
		log.Info("smtp.host not set: emails go to the log")
	}
	templates, err := email.NewTemplates(cfg.App.Name)
	if err != nil {
		return nil, err
	}
	dispatcher := email.NewDispatcher(sender, templates, cfg.Email.Workers, cfg.Email.QueueSize)
	dispatcher.OnResult = func(kind email.Kind, err error) {
		result := metrics.ResultOK
		if err != nil {
			result = metrics.ResultError
		}
		rt.Metrics.Email(string(kind), result)
	}
	// Close en orden inverso: la cola de emails se drena antes de cerrar stores.
	rt.closers = append(rt.closers, dispatcher.Close)
	deps.Mailer = dispatcher

	// 5. SMS.
	switch cfg.SMS.Driver {
	case "webhook":
		deps.SMS = sms.NewWebhookSender(cfg.SMS.WebhookURL, cfg.SMS.Token, cfg.SMS.From, cfg.SMS.Timeout)
	default:
		deps.SMS = sms.NewLogSender()
	}

	// 6. Providers OAuth habilitados.
	var providers []oauth.Provider
	if p := cfg.Providers.Google; p.Enabled {
		gp, err := google.New(ctx, google.Config{
			ClientID: p.ClientID, ClientSecret: p.ClientSecret, RedirectURL: p.RedirectURL, Scopes: p.Scopes,
		})
		if err != nil {
			return nil, err
		}
		providers = append(providers, gp)
	}
	if p := cfg.Providers.Facebook; p.Enabled {
		fp, err := facebook.New(facebook.Config{
			ClientID: p.ClientID, ClientSecret: p.ClientSecret, RedirectURL: p.RedirectURL, Scopes: p.Scopes,
		})
		if err != nil {
			return nil, err
		}
		providers = append(providers, fp)
	}
	deps.Providers = oauth.NewRegistry(providers...)
	log.Info("oauth providers", logger.Any("enabled", deps.Providers.Names()))

	settings := Settings{
		AppName:       cfg.App.Name,
		Version:       cfg.App.Version,
		BaseURL:       cfg.Email.BaseURL,
		FrontendURL:   cfg.Frontend.BaseURL,
		VerifyTTL:     cfg.Auth.VerifyTTL,
		ResetTTL:      cfg.Auth.ResetTTL,
		ExchangeTTL:   cfg.Auth.ExchangeTTL,
		OTPTTL:        cfg.Auth.OTPTTL,
		OAuthStateTTL: cfg.Auth.OAuthStateTTL,
		SMSTimeout:    cfg.SMS.Timeout,
		RateRules: router.RateRules{
			Login:  rate.Rule(cfg.Rate.Login),
			Forgot: rate.Rule(cfg.Rate.Forgot),
			OTP:    rate.Rule(cfg.Rate.OTP),
		},
		ServeMetrics: cfg.Server.MetricsAddr == "",
	}
	if cfg.Server.MetricsAddr != "" {
		rt.MetricsHandler = rt.Metrics.Handler()
	}

	rt.App = New(settings, deps)
	built = true
	log.Info("app wired",
		logger.String("storage", cfg.Storage.Driver),
		logger.String("cache", cfg.Cache.Driver),
		logger.Bool("rate_limit", deps.Limiter != nil),
	)
	return rt, nil
}

// Close libera los recursos en orden inverso a su creación.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
