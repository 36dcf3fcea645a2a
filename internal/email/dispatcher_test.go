package email

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type failingSender struct{}

func (failingSender) Send(string, string, string, string) error { return errors.New("smtp down") }

func TestTemplatesRender(t *testing.T) {
	tpl, err := NewTemplates("Acme")
	require.NoError(t, err)

	subject, html, text, err := tpl.Render(KindVerification, Params{Name: "Alice", Link: "https://x/verify?token=a&b", TTL: "1h"})
	require.NoError(t, err)
	require.Contains(t, subject, "Acme")
	require.Contains(t, html, "https://x/verify?token=a&amp;b", "html escapes the link")
	require.Contains(t, text, "https://x/verify?token=a&b")

	_, _, _, err = tpl.Render(Kind("nope"), Params{})
	require.Error(t, err)
}

func TestDispatcherDeliversInBackground(t *testing.T) {
	tpl, err := NewTemplates("")
	require.NoError(t, err)
	sink := NewLogSender(10)
	d := NewDispatcher(sink, tpl, 1, 4)

	require.NoError(t, d.Dispatch(context.Background(), "bob@x.com", KindWelcome, Params{Name: "Bob"}))
	require.NoError(t, d.Close(context.Background()))

	msg, ok := sink.Last("bob@x.com")
	require.True(t, ok)
	require.True(t, strings.HasPrefix(msg.Subject, "Bienvenido"))

	require.ErrorIs(t, d.Dispatch(context.Background(), "bob@x.com", KindWelcome, Params{}), ErrClosed)
}

func TestDispatcherReportsFailuresWithoutBlocking(t *testing.T) {
	tpl, err := NewTemplates("")
	require.NoError(t, err)
	d := NewDispatcher(failingSender{}, tpl, 1, 4)

	var (
		mu   sync.Mutex
		errs []error
	)
	d.OnResult = func(_ Kind, err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}
	require.NoError(t, d.Dispatch(context.Background(), "a@x.com", KindPasswordReset, Params{}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, errs, 1)
	require.Error(t, errs[0])
}

func TestFormatTTL(t *testing.T) {
	require.Equal(t, "1 hora", FormatTTL(time.Hour))
	require.Equal(t, "2 horas", FormatTTL(2*time.Hour))
	require.Equal(t, "10 minutos", FormatTTL(10*time.Minute))
	require.Equal(t, "90 minutos", FormatTTL(90*time.Minute))
	require.Equal(t, "30 segundos", FormatTTL(30*time.Second))
}
