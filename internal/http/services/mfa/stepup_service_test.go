package mfa

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idgate/internal/cache"
	"github.com/dropDatabas3/idgate/internal/domain/repository"
	"github.com/dropDatabas3/idgate/internal/http/services/session"
	jwtx "github.com/dropDatabas3/idgate/internal/jwt"
	"github.com/dropDatabas3/idgate/internal/sms"
	"github.com/dropDatabas3/idgate/internal/store/memory"
)

const phone = "+5491155550000"

var codeRe = regexp.MustCompile(`\b(\d{6})\b`)

type failingSMS struct{}

func (failingSMS) Send(context.Context, string, string) error { return errors.New("gateway down") }

type fixture struct {
	ids    *memory.Store
	issuer *jwtx.Issuer
	sms    *sms.LogSender
	tokens *session.Tokens
	now    time.Time
	svc    StepUpService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	keys, err := jwtx.GenerateKeySet()
	require.NoError(t, err)
	f := &fixture{
		ids:    memory.New(),
		issuer: jwtx.NewIssuer("http://test", keys, time.Hour),
		sms:    sms.NewLogSender(),
		now:    time.Now(),
	}
	f.issuer.Revocations = jwtx.NewCacheRevocations(cache.NewMemory(""))
	f.tokens = session.NewTokens(f.issuer)
	f.svc = NewStepUpService(Deps{
		Identities: f.ids,
		Tokens:     f.tokens,
		SMS:        f.sms,
		Now:        func() time.Time { return f.now },
	})
	return f
}

// enrolled crea una identidad con 2FA y devuelve sus claims pendientes.
func (f *fixture) enrolled(t *testing.T) (*repository.Identity, *jwtx.Claims, string) {
	t.Helper()
	ctx := context.Background()
	it, err := f.ids.Create(ctx, repository.CreateIdentityInput{DisplayName: "Carol", Email: "carol@x.com", EmailVerified: true})
	require.NoError(t, err)
	it.PhoneNumber = phone
	it.TwoFactorEnabled = true
	require.NoError(t, f.ids.Save(ctx, it))

	res, err := f.tokens.ForIdentity(it, session.AMRPassword)
	require.NoError(t, err)
	require.True(t, res.StepUpRequired)
	claims, err := f.issuer.Verify(ctx, res.AccessToken)
	require.NoError(t, err)
	return it, claims, res.AccessToken
}

func (f *fixture) lastCode(t *testing.T) string {
	t.Helper()
	body, ok := f.sms.Last(phone)
	require.True(t, ok)
	m := codeRe.FindStringSubmatch(body)
	require.Len(t, m, 2, body)
	return m[1]
}

func TestStepUpCompletesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it, claims, raw := f.enrolled(t)

	sent, err := f.svc.SendOTP(ctx, it.ID)
	require.NoError(t, err)
	require.True(t, sent.Sent)
	// Sin OTPTTL configurado el código vive 10 minutos.
	require.EqualValues(t, 600, sent.ExpiresIn)
	body, ok := f.sms.Last(phone)
	require.True(t, ok)
	require.Contains(t, body, "Vence en 10 minutos")

	res, err := f.svc.VerifyOTP(ctx, claims, f.lastCode(t))
	require.NoError(t, err)
	require.False(t, res.StepUpRequired)

	full, err := f.issuer.Verify(ctx, res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, jwtx.StepUpVerified, full.StepUp)
	require.Contains(t, full.AMR, session.AMROTP)

	// la credencial pendiente quedó revocada
	_, err = f.issuer.Verify(ctx, raw)
	require.ErrorIs(t, err, jwtx.ErrUnauthorized)
}

func TestOTPIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it, claims, _ := f.enrolled(t)

	_, err := f.svc.SendOTP(ctx, it.ID)
	require.NoError(t, err)
	code := f.lastCode(t)

	_, err = f.svc.VerifyOTP(ctx, claims, code)
	require.NoError(t, err)
	_, err = f.svc.VerifyOTP(ctx, claims, code)
	require.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestNewOTPInvalidatesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it, claims, _ := f.enrolled(t)

	_, err := f.svc.SendOTP(ctx, it.ID)
	require.NoError(t, err)
	first := f.lastCode(t)
	_, err = f.svc.SendOTP(ctx, it.ID)
	require.NoError(t, err)
	second := f.lastCode(t)

	if first != second {
		_, err = f.svc.VerifyOTP(ctx, claims, first)
		require.ErrorIs(t, err, ErrInvalidOrExpired)
	}
	_, err = f.svc.VerifyOTP(ctx, claims, second)
	require.NoError(t, err)
}

func TestWrongCodeDoesNotBurnOTP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it, claims, _ := f.enrolled(t)

	_, err := f.svc.SendOTP(ctx, it.ID)
	require.NoError(t, err)
	code := f.lastCode(t)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = f.svc.VerifyOTP(ctx, claims, wrong)
	require.ErrorIs(t, err, ErrInvalidOrExpired)

	_, err = f.svc.VerifyOTP(ctx, claims, code)
	require.NoError(t, err)
}

func TestOTPExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it, claims, _ := f.enrolled(t)

	_, err := f.svc.SendOTP(ctx, it.ID)
	require.NoError(t, err)
	code := f.lastCode(t)

	f.now = f.now.Add(10 * time.Minute)
	_, err = f.svc.VerifyOTP(ctx, claims, code)
	require.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestSendOTPRequiresTwoFactor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it, err := f.ids.Create(ctx, repository.CreateIdentityInput{DisplayName: "Dan", Email: "dan@x.com"})
	require.NoError(t, err)

	_, err = f.svc.SendOTP(ctx, it.ID)
	require.ErrorIs(t, err, ErrNotEnabled)

	_, err = f.svc.SendOTP(ctx, "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestSendOTPDeliveryFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it, _, _ := f.enrolled(t)

	svc := NewStepUpService(Deps{Identities: f.ids, Tokens: f.tokens, SMS: failingSMS{}})
	_, err := svc.SendOTP(ctx, it.ID)
	require.ErrorIs(t, err, ErrDeliveryFailed)
}

func TestVerifyOTPEmptyCode(t *testing.T) {
	f := newFixture(t)
	_, claims, _ := f.enrolled(t)
	_, err := f.svc.VerifyOTP(context.Background(), claims, "  ")
	require.ErrorIs(t, err, ErrMissingCode)
}
