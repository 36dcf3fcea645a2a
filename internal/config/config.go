// Package config carga la configuración del servicio: YAML, después overrides
// por variables de entorno, después defaults y validación.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// RateRule es un límite fixed-window.
type RateRule struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

type OAuthProvider struct {
	Enabled      bool     `yaml:"enabled" env:"ENABLED"`
	ClientID     string   `yaml:"client_id" env:"CLIENT_ID"`
	ClientSecret string   `yaml:"client_secret" env:"CLIENT_SECRET"`
	RedirectURL  string   `yaml:"redirect_url" env:"REDIRECT_URL"`
	Scopes       []string `yaml:"scopes" env:"SCOPES" envSeparator:","`
}

type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"env" env:"APP_ENV"`
		Name    string `yaml:"name" env:"APP_NAME"`
		Version string `yaml:"version" env:"APP_VERSION"`
	} `yaml:"app"`

	Server struct {
		Addr            string        `yaml:"addr" env:"SERVER_ADDR"`
		MetricsAddr     string        `yaml:"metrics_addr" env:"METRICS_ADDR"` // vacío: /metrics en el listener principal
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		Driver          string        `yaml:"driver" env:"STORAGE_DRIVER"` // postgres | memory
		DSN             string        `yaml:"dsn" env:"STORAGE_DSN"`
		MaxConns        int32         `yaml:"max_conns" env:"STORAGE_MAX_CONNS"`
		MinConns        int32         `yaml:"min_conns"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	} `yaml:"storage"`

	Cache struct {
		Driver   string `yaml:"driver" env:"CACHE_DRIVER"` // redis | memory
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
		Prefix   string `yaml:"prefix" env:"CACHE_PREFIX"`
	} `yaml:"cache"`

	JWT struct {
		Issuer    string        `yaml:"issuer" env:"JWT_ISSUER"`
		AccessTTL time.Duration `yaml:"access_ttl" env:"JWT_ACCESS_TTL"`
		// Seeds Ed25519 en base64; la primera firma, el resto solo verifica.
		Keys []string `yaml:"keys" env:"JWT_KEYS" envSeparator:","`
	} `yaml:"jwt"`

	Auth struct {
		VerifyTTL     time.Duration `yaml:"verify_ttl"`
		ResetTTL      time.Duration `yaml:"reset_ttl"`
		ExchangeTTL   time.Duration `yaml:"exchange_ttl"`
		OTPTTL        time.Duration `yaml:"otp_ttl"`
		OAuthStateTTL time.Duration `yaml:"oauth_state_ttl"`
	} `yaml:"auth"`

	Rate struct {
		// Disabled apaga todos los límites.
		Disabled bool     `yaml:"disabled" env:"RATE_DISABLED"`
		Login    RateRule `yaml:"login"`
		Forgot   RateRule `yaml:"forgot"`
		OTP      RateRule `yaml:"otp"`
	} `yaml:"rate"`

	SMTP struct {
		Host               string `yaml:"host" env:"SMTP_HOST"`
		Port               int    `yaml:"port" env:"SMTP_PORT"`
		From               string `yaml:"from" env:"SMTP_FROM"`
		Username           string `yaml:"username" env:"SMTP_USERNAME"`
		Password           string `yaml:"password" env:"SMTP_PASSWORD"`
		TLSMode            string `yaml:"tls_mode" env:"SMTP_TLS_MODE"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`

	SMS struct {
		Driver     string        `yaml:"driver" env:"SMS_DRIVER"` // webhook | log
		WebhookURL string        `yaml:"webhook_url" env:"SMS_WEBHOOK_URL"`
		Token      string        `yaml:"token" env:"SMS_TOKEN"`
		From       string        `yaml:"from" env:"SMS_FROM"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"sms"`

	Email struct {
		// BaseURL es la URL pública de la API (links de verificación).
		BaseURL   string `yaml:"base_url" env:"EMAIL_BASE_URL"`
		Workers   int    `yaml:"workers"`
		QueueSize int    `yaml:"queue_size"`
	} `yaml:"email"`

	Frontend struct {
		BaseURL string `yaml:"base_url" env:"FRONTEND_URL"`
	} `yaml:"frontend"`

	Providers struct {
		Google   OAuthProvider `yaml:"google" envPrefix:"GOOGLE_"`
		Facebook OAuthProvider `yaml:"facebook" envPrefix:"FACEBOOK_"`
	} `yaml:"providers"`

	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL"`
	} `yaml:"log"`
}

// Load lee path (si existe), aplica env, defaults y valida.
// path vacío arranca solo desde env + defaults.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) IsProd() bool { return strings.EqualFold(c.App.Env, "prod") }

func (c *Config) applyDefaults() {
	def := func(s *string, v string) {
		if strings.TrimSpace(*s) == "" {
			*s = v
		}
	}
	defDur := func(d *time.Duration, v time.Duration) {
		if *d <= 0 {
			*d = v
		}
	}
	defInt := func(i *int, v int) {
		if *i <= 0 {
			*i = v
		}
	}

	def(&c.App.Env, "dev")
	def(&c.App.Name, "idgate")
	def(&c.Server.Addr, ":8080")
	defDur(&c.Server.ReadTimeout, 15*time.Second)
	defDur(&c.Server.WriteTimeout, 15*time.Second)
	defDur(&c.Server.ShutdownTimeout, 10*time.Second)

	def(&c.Storage.Driver, "memory")
	if c.Storage.MaxConns <= 0 {
		c.Storage.MaxConns = 10
	}
	defDur(&c.Storage.ConnMaxLifetime, 30*time.Minute)

	def(&c.Cache.Driver, "memory")
	def(&c.Cache.Prefix, "idgate:")

	def(&c.JWT.Issuer, "http://localhost:8080")
	defDur(&c.JWT.AccessTTL, time.Hour)

	defDur(&c.Auth.VerifyTTL, time.Hour)
	defDur(&c.Auth.ResetTTL, time.Hour)
	defDur(&c.Auth.ExchangeTTL, 5*time.Minute)
	defDur(&c.Auth.OTPTTL, 10*time.Minute)
	defDur(&c.Auth.OAuthStateTTL, 10*time.Minute)

	if c.Rate.Login.Limit == 0 && c.Rate.Login.Window == 0 {
		c.Rate.Login = RateRule{Limit: 10, Window: time.Minute}
	}
	if c.Rate.Forgot.Limit == 0 && c.Rate.Forgot.Window == 0 {
		c.Rate.Forgot = RateRule{Limit: 5, Window: 10 * time.Minute}
	}
	if c.Rate.OTP.Limit == 0 && c.Rate.OTP.Window == 0 {
		c.Rate.OTP = RateRule{Limit: 5, Window: 10 * time.Minute}
	}

	def(&c.SMS.Driver, "log")
	defDur(&c.SMS.Timeout, 5*time.Second)

	def(&c.Email.BaseURL, strings.TrimRight(c.JWT.Issuer, "/"))
	defInt(&c.Email.Workers, 2)
	defInt(&c.Email.QueueSize, 256)
	def(&c.Frontend.BaseURL, "http://localhost:3000")

	// Si el redirect del provider está vacío lo derivamos de la URL pública.
	base := strings.TrimRight(c.Email.BaseURL, "/")
	def(&c.Providers.Google.RedirectURL, base+"/v1/auth/google/callback")
	def(&c.Providers.Facebook.RedirectURL, base+"/v1/auth/facebook/callback")

	def(&c.Log.Level, "info")
}

// Validate revisa combinaciones inválidas. Se llama después de applyDefaults.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			errs = append(errs, errors.New("storage.dsn is required for the postgres driver"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q not supported", c.Storage.Driver))
	}
	switch c.Cache.Driver {
	case "redis":
		if strings.TrimSpace(c.Cache.Addr) == "" {
			errs = append(errs, errors.New("cache.addr is required for the redis driver"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("cache.driver %q not supported", c.Cache.Driver))
	}
	switch c.SMS.Driver {
	case "webhook":
		if strings.TrimSpace(c.SMS.WebhookURL) == "" {
			errs = append(errs, errors.New("sms.webhook_url is required for the webhook driver"))
		}
	case "log":
	default:
		errs = append(errs, fmt.Errorf("sms.driver %q not supported", c.SMS.Driver))
	}
	if c.IsProd() {
		if len(c.JWT.Keys) == 0 {
			errs = append(errs, errors.New("jwt.keys is required in prod"))
		}
		if c.Storage.Driver == "memory" {
			errs = append(errs, errors.New("storage.driver=memory is not allowed in prod"))
		}
	}
	for name, p := range map[string]OAuthProvider{"google": c.Providers.Google, "facebook": c.Providers.Facebook} {
		if p.Enabled && (p.ClientID == "" || p.ClientSecret == "") {
			errs = append(errs, fmt.Errorf("providers.%s: client_id and client_secret are required", name))
		}
	}
	for name, r := range map[string]RateRule{"login": c.Rate.Login, "forgot": c.Rate.Forgot, "otp": c.Rate.OTP} {
		if r.Limit < 0 || r.Window < 0 {
			errs = append(errs, fmt.Errorf("rate.%s: negative limit or window", name))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
