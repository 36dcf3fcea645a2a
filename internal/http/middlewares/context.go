package middlewares

import (
	"context"

	jwtx "github.com/dropDatabas3/idgate/internal/jwt"
)

type ctxKey string

const (
	ctxClaimsKey    ctxKey = "claims"
	ctxRawTokenKey  ctxKey = "raw_token"
	ctxRequestIDKey ctxKey = "request_id"
)

// WithClaims inyecta las claims verificadas (y el token crudo) en el contexto.
func WithClaims(ctx context.Context, claims *jwtx.Claims, raw string) context.Context {
	ctx = context.WithValue(ctx, ctxClaimsKey, claims)
	return context.WithValue(ctx, ctxRawTokenKey, raw)
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetClaims devuelve las claims del contexto o nil si el request no está autenticado.
func GetClaims(ctx context.Context) *jwtx.Claims {
	if c, ok := ctx.Value(ctxClaimsKey).(*jwtx.Claims); ok {
		return c
	}
	return nil
}

// GetRawToken devuelve el bearer ya verificado.
func GetRawToken(ctx context.Context) string {
	s, _ := ctx.Value(ctxRawTokenKey).(string)
	return s
}

// GetUserID devuelve el sub de las claims, o "".
func GetUserID(ctx context.Context) string {
	if c := GetClaims(ctx); c != nil {
		return c.Subject
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(ctxRequestIDKey).(string)
	return s
}
