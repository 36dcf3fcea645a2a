package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Field es zap.Field; evita que los callers importen zap solo para armar slices.
type Field = zap.Field

// ─── HTTP ───

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }
func UserAgent(v string) zap.Field { return zap.String("user_agent", v) }

// ─── Identidad ───

func UserID(v string) zap.Field   { return zap.String("user_id", v) }
func Provider(v string) zap.Field { return zap.String("provider", v) }

// LoginMethod registra el origen de credencial (password|google|facebook).
func LoginMethod(v string) zap.Field { return zap.String("login_method", v) }

// ArtifactKind registra el tipo de artefacto efímero (exchange|reset|oauth_state|otp|verification).
func ArtifactKind(v string) zap.Field { return zap.String("artifact", v) }

// Email enmascara la parte local: "alice@x.com" -> "a***@x.com".
func Email(v string) zap.Field { return zap.String("email", maskEmail(v)) }

// Phone deja visibles solo los últimos 4 dígitos.
func Phone(v string) zap.Field {
	if len(v) <= 4 {
		return zap.String("phone", "****")
	}
	return zap.String("phone", strings.Repeat("*", len(v)-4)+v[len(v)-4:])
}

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }
func Count(v int) zap.Field        { return zap.Int("count", v) }

func String(key, v string) zap.Field    { return zap.String(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field   { return zap.Any(key, v) }

func maskEmail(v string) string {
	at := strings.LastIndex(v, "@")
	if at <= 0 {
		return "***"
	}
	return v[:1] + "***" + v[at:]
}
