package pg

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idgate/internal/domain/repository"
	"github.com/dropDatabas3/idgate/migrations/postgres"
)

// Requiere una base descartable: IDGATE_TEST_PG_DSN=postgres://...
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("IDGATE_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("IDGATE_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	_, err = s.Migrate(ctx, postgres.FS)
	require.NoError(t, err)
	return s
}

func uniqueEmail() string { return "pg-" + uuid.NewString()[:8] + "@Example.com" }

func TestPG_CreateIsCaseInsensitive(t *testing.T) {
	repo := openTestStore(t).Identities()
	ctx := context.Background()
	email := uniqueEmail()

	it, err := repo.Create(ctx, repository.CreateIdentityInput{DisplayName: "A", Email: email, PasswordHash: "h"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, repository.CreateIdentityInput{Email: repository.NormalizeEmail(email)})
	require.ErrorIs(t, err, repository.ErrConflict)

	got, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	require.Equal(t, it.ID, got.ID)
}

func TestPG_UpsertLinksExistingPasswordIdentity(t *testing.T) {
	repo := openTestStore(t).Identities()
	ctx := context.Background()
	email := uniqueEmail()

	it, err := repo.Create(ctx, repository.CreateIdentityInput{DisplayName: "A", Email: email, PasswordHash: "h"})
	require.NoError(t, err)

	got, created, err := repo.UpsertFromProvider(ctx, repository.ProviderProfileInput{
		Provider: repository.MethodGoogle, ProviderUserID: "g-" + it.ID, Email: email, At: time.Now(),
	})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, it.ID, got.ID)
	require.True(t, got.HasProvider("google"))

	hist, err := repo.LoginHistory(ctx, it.ID, 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	require.Equal(t, repository.MethodGoogle, hist[0].Method)
}

func TestPG_ConcurrentUpsertCreatesOneIdentity(t *testing.T) {
	repo := openTestStore(t).Identities()
	ctx := context.Background()
	email := uniqueEmail()

	var wg sync.WaitGroup
	ids := make([]string, 4)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			it, _, err := repo.UpsertFromProvider(ctx, repository.ProviderProfileInput{
				Provider: repository.MethodFacebook, ProviderUserID: "fb-" + email, Email: email,
			})
			if assert.NoError(t, err) {
				ids[i] = it.ID
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}
}

func TestPG_ConsumeOTPSingleWinner(t *testing.T) {
	repo := openTestStore(t).Identities()
	ctx := context.Background()
	it, err := repo.Create(ctx, repository.CreateIdentityInput{Email: uniqueEmail()})
	require.NoError(t, err)

	require.NoError(t, repo.SetPendingOTP(ctx, it.ID, repository.PendingOTP{CodeHash: "x", ExpiresAt: time.Now().Add(time.Minute)}))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.ConsumeOTP(ctx, it.ID, "x", time.Now())
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}

func TestPG_SaveDetectsStaleVersion(t *testing.T) {
	repo := openTestStore(t).Identities()
	ctx := context.Background()
	it, err := repo.Create(ctx, repository.CreateIdentityInput{Email: uniqueEmail()})
	require.NoError(t, err)

	a, err := repo.GetByID(ctx, it.ID)
	require.NoError(t, err)
	b, err := repo.GetByID(ctx, it.ID)
	require.NoError(t, err)

	a.DisplayName = "first"
	require.NoError(t, repo.Save(ctx, a))
	b.DisplayName = "second"
	require.ErrorIs(t, repo.Save(ctx, b), repository.ErrConflict)
}
