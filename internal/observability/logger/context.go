package logger

import (
	"context"

	"go.uber.org/zap"
)

type (
	ctxKey  struct{}
	userKey struct{}
)

// ToContext guarda un logger scoped en el contexto.
func ToContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From devuelve el logger del contexto o el global.
func From(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return L()
	}
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return L()
}

// WithUser ata la identidad autenticada al logger del contexto. Re-atar el
// mismo id no agrega otro user_id.
func WithUser(ctx context.Context, id string) context.Context {
	if id == "" || boundUser(ctx) == id {
		return ctx
	}
	ctx = context.WithValue(ctx, userKey{}, id)
	return ToContext(ctx, From(ctx).With(UserID(id)))
}

// ForUser es el logger del contexto con user_id, salvo que el contexto ya
// esté atado a esa identidad (rutas autenticadas).
func ForUser(ctx context.Context, id string) *zap.Logger {
	l := From(ctx)
	if id == "" || boundUser(ctx) == id {
		return l
	}
	return l.With(UserID(id))
}

func boundUser(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(userKey{}).(string)
	return id
}
