package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idgate/internal/cache"
	"github.com/dropDatabas3/idgate/internal/domain/repository"
	jwtx "github.com/dropDatabas3/idgate/internal/jwt"
	"github.com/dropDatabas3/idgate/internal/store/memory"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	ids    *memory.Store
	issuer *jwtx.Issuer
	clock  *clock
	svc    Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	keys, err := jwtx.GenerateKeySet()
	require.NoError(t, err)
	clk := &clock{t: time.Now()}
	issuer := jwtx.NewIssuer("http://test", keys, time.Hour)
	ids := memory.New()
	return &fixture{
		ids:    ids,
		issuer: issuer,
		clock:  clk,
		svc: NewServices(Deps{
			Identities:  ids,
			Issuer:      issuer,
			Artifacts:   cache.NewArtifactStore(cache.NewMemory(""), clk.Now),
			ExchangeTTL: 5 * time.Minute,
		}),
	}
}

func (f *fixture) identity(t *testing.T, email string) *repository.Identity {
	t.Helper()
	it, err := f.ids.Create(context.Background(), repository.CreateIdentityInput{DisplayName: "X", Email: email, EmailVerified: true})
	require.NoError(t, err)
	return it
}

func TestExchangeCodeIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.identity(t, "bob@x.com")

	code, err := f.svc.Exchange.Issue(ctx, bob, AMROAuth)
	require.NoError(t, err)
	require.NotEmpty(t, code)

	res, err := f.svc.Exchange.Redeem(ctx, code)
	require.NoError(t, err)
	require.False(t, res.StepUpRequired)

	claims, err := f.issuer.Verify(ctx, res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, bob.ID, claims.Subject)
	require.Equal(t, []string{AMROAuth}, claims.AMR)

	_, err = f.svc.Exchange.Redeem(ctx, code)
	require.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestExchangeCodeConcurrentRedeemHasOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code, err := f.svc.Exchange.Issue(ctx, f.identity(t, "race@x.com"), AMROAuth)
	require.NoError(t, err)

	var wins, losses int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Exchange.Redeem(ctx, code); err == nil {
				atomic.AddInt32(&wins, 1)
			} else {
				atomic.AddInt32(&losses, 1)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, wins)
	require.EqualValues(t, 15, losses)
}

func TestExchangeCodeExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code, err := f.svc.Exchange.Issue(ctx, f.identity(t, "late@x.com"), AMROAuth)
	require.NoError(t, err)

	f.clock.Advance(5*time.Minute + time.Second)
	_, err = f.svc.Exchange.Redeem(ctx, code)
	require.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestExchangeUnknownAndEmptyCode(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Exchange.Redeem(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidOrExpired)
	_, err = f.svc.Exchange.Redeem(context.Background(), "nope")
	require.ErrorIs(t, err, ErrInvalidOrExpired)
}

func TestRedeemWithTwoFactorIsPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.identity(t, "2fa@x.com")
	it.PhoneNumber = "+15550001111"
	it.TwoFactorEnabled = true
	require.NoError(t, f.ids.Save(ctx, it))

	code, err := f.svc.Exchange.Issue(ctx, it, AMREmail)
	require.NoError(t, err)
	res, err := f.svc.Exchange.Redeem(ctx, code)
	require.NoError(t, err)
	require.True(t, res.StepUpRequired)

	claims, err := f.issuer.Verify(ctx, res.AccessToken)
	require.NoError(t, err)
	require.True(t, claims.StepUpPending())

	up, err := f.svc.Tokens.StepUp(ctx, claims)
	require.NoError(t, err)
	require.False(t, up.StepUpRequired)
	full, err := f.issuer.Verify(ctx, up.AccessToken)
	require.NoError(t, err)
	require.Equal(t, jwtx.StepUpVerified, full.StepUp)
	require.Equal(t, []string{AMREmail, AMROTP}, full.AMR)
}

func TestLogoutRevokes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.issuer.Revocations = jwtx.NewCacheRevocations(cache.NewMemory(""))

	res, err := f.svc.Tokens.ForIdentity(f.identity(t, "out@x.com"), AMRPassword)
	require.NoError(t, err)
	claims, err := f.issuer.Verify(ctx, res.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout.Logout(ctx, claims))
	_, err = f.issuer.Verify(ctx, res.AccessToken)
	require.ErrorIs(t, err, jwtx.ErrUnauthorized)

	require.NoError(t, f.svc.Logout.Logout(ctx, nil))
}
