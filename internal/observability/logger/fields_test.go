package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEmailIsMasked(t *testing.T) {
	require.Equal(t, "a***@x.com", Email("alice@x.com").String)
	require.Equal(t, "***", Email("nope").String)
}

func TestPhoneKeepsLastFour(t *testing.T) {
	require.Equal(t, "********1234", Phone("+15550001234").String)
	require.Equal(t, "****", Phone("12").String)
}

func TestFromFallsBackToGlobal(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	From(context.Background()).Info("global")
	scoped := zap.New(core).With(RequestID("r-1"))
	From(ToContext(context.Background(), scoped)).Info("scoped")

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "r-1", entries[1].ContextMap()["request_id"])
}

func userIDCount(e observer.LoggedEntry) int {
	n := 0
	for _, f := range e.Context {
		if f.Key == "user_id" {
			n++
		}
	}
	return n
}

func TestFromNilContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	var ctx context.Context
	From(ctx).Info("nil ctx")
	ForUser(ctx, "u-1").Info("nil ctx with user")
	require.Equal(t, 2, logs.Len())
	require.Equal(t, "u-1", logs.All()[1].ContextMap()["user_id"])
}

func TestUserIsBoundOnce(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := ToContext(context.Background(), zap.New(core))

	ctx = WithUser(ctx, "u-1")
	ctx = WithUser(ctx, "u-1")
	ForUser(ctx, "u-1").With(Layer("service"), Op("Update")).Info("same user")
	ForUser(ctx, "u-2").Info("other user")
	ForUser(ToContext(context.Background(), zap.New(core)), "").Info("anonymous")

	entries := logs.All()
	require.Len(t, entries, 3)
	require.Equal(t, 1, userIDCount(entries[0]))
	require.Equal(t, "u-1", entries[0].ContextMap()["user_id"])
	// otra identidad se agrega encima del user_id atado
	require.Equal(t, 2, userIDCount(entries[1]))
	require.Zero(t, userIDCount(entries[2]))
}
