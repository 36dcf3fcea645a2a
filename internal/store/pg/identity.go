package pg

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/idgate/internal/domain/repository"
)

type identityRepo struct{ pool *pgxpool.Pool }

const identityCols = `id, display_name, email, password_hash, email_verified, phone_number,
	two_factor_enabled, otp_hash, otp_expires_at, verification_hash, version, created_at, updated_at`

func scanIdentity(row pgx.Row) (*repository.Identity, error) {
	var (
		it        repository.Identity
		otpHash   *string
		otpExpiry *time.Time
	)
	err := row.Scan(&it.ID, &it.DisplayName, &it.Email, &it.PasswordHash, &it.EmailVerified,
		&it.PhoneNumber, &it.TwoFactorEnabled, &otpHash, &otpExpiry, &it.PendingVerificationHash,
		&it.Version, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if otpHash != nil && otpExpiry != nil {
		it.PendingOTP = &repository.PendingOTP{CodeHash: *otpHash, ExpiresAt: *otpExpiry}
	}
	return &it, nil
}

func loadLinks(ctx context.Context, q querier, it *repository.Identity) error {
	rows, err := q.Query(ctx,
		`SELECT provider, provider_user_id, linked_at FROM provider_link
		 WHERE identity_id = $1 ORDER BY linked_at`, it.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	it.ProviderLinks = it.ProviderLinks[:0]
	for rows.Next() {
		var l repository.ProviderLink
		if err := rows.Scan(&l.Provider, &l.ProviderUserID, &l.LinkedAt); err != nil {
			return err
		}
		it.ProviderLinks = append(it.ProviderLinks, l)
	}
	return rows.Err()
}

func getOne(ctx context.Context, q querier, where string, arg any) (*repository.Identity, error) {
	it, err := scanIdentity(q.QueryRow(ctx, `SELECT `+identityCols+` FROM identity WHERE `+where, arg))
	if err != nil {
		return nil, err
	}
	if err := loadLinks(ctx, q, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (r *identityRepo) GetByEmail(ctx context.Context, email string) (*repository.Identity, error) {
	it, err := getOne(ctx, r.pool, `lower(email) = $1`, repository.NormalizeEmail(email))
	return it, mapErr("get identity by email", err)
}

func (r *identityRepo) GetByID(ctx context.Context, id string) (*repository.Identity, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	it, err := getOne(ctx, r.pool, `id = $1`, id)
	return it, mapErr("get identity by id", err)
}

func (r *identityRepo) Create(ctx context.Context, in repository.CreateIdentityInput) (*repository.Identity, error) {
	email := repository.NormalizeEmail(in.Email)
	if email == "" {
		return nil, repository.ErrInvalidInput
	}
	var hash *string
	if in.PasswordHash != "" {
		hash = &in.PasswordHash
	}
	it, err := scanIdentity(r.pool.QueryRow(ctx, `
		INSERT INTO identity (id, display_name, email, password_hash, email_verified)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+identityCols,
		uuid.NewString(), in.DisplayName, email, hash, in.EmailVerified,
	))
	if err != nil {
		return nil, mapErr("create identity", err)
	}
	return it, nil
}

func (r *identityRepo) Save(ctx context.Context, it *repository.Identity) error {
	if err := it.Validate(); err != nil {
		return err
	}
	var (
		version   int64
		updatedAt time.Time
	)
	err := r.pool.QueryRow(ctx, `
		UPDATE identity SET
			display_name = $2, phone_number = $3, two_factor_enabled = $4,
			email_verified = $5, password_hash = $6,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $7
		RETURNING version, updated_at`,
		it.ID, it.DisplayName, it.PhoneNumber, it.TwoFactorEnabled,
		it.EmailVerified, it.PasswordHash, it.Version,
	).Scan(&version, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.missOrStale(ctx, it.ID)
	}
	if err != nil {
		return mapErr("save identity", err)
	}
	it.Version = version
	it.UpdatedAt = updatedAt
	return nil
}

// missOrStale distingue identidad inexistente de versión obsoleta tras un UPDATE sin filas.
func (r *identityRepo) missOrStale(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM identity WHERE id = $1)`, id).Scan(&exists); err != nil {
		return mapErr("check identity", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func (r *identityRepo) AdoptPassword(ctx context.Context, id, passwordHash, displayName string) (*repository.Identity, error) {
	it, err := scanIdentity(r.pool.QueryRow(ctx, `
		UPDATE identity SET
			password_hash = $2,
			display_name = CASE WHEN display_name = '' THEN $3 ELSE display_name END,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND (password_hash IS NULL OR password_hash = '')
		RETURNING `+identityCols,
		id, passwordHash, displayName,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.missOrStale(ctx, id)
	}
	if err != nil {
		return nil, mapErr("adopt password", err)
	}
	if err := loadLinks(ctx, r.pool, it); err != nil {
		return nil, mapErr("load links", err)
	}
	return it, nil
}

func (r *identityRepo) SetPassword(ctx context.Context, id, passwordHash string, markVerified bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE identity SET
			password_hash = $2, email_verified = email_verified OR $3,
			version = version + 1, updated_at = NOW()
		WHERE id = $1`, id, passwordHash, markVerified)
	if err != nil {
		return mapErr("set password", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *identityRepo) UpsertFromProvider(ctx context.Context, in repository.ProviderProfileInput) (*repository.Identity, bool, error) {
	if !in.Provider.Valid() || in.Provider == repository.MethodPassword || in.ProviderUserID == "" {
		return nil, false, repository.ErrInvalidInput
	}
	if repository.NormalizeEmail(in.Email) == "" {
		return nil, false, repository.ErrInvalidInput
	}
	if in.At.IsZero() {
		in.At = time.Now()
	}

	// Dos callbacks concurrentes para un email nuevo compiten por el índice único;
	// el perdedor reintenta una vez y encuentra la identidad creada por el otro.
	for attempt := 0; ; attempt++ {
		it, created, err := r.upsertOnce(ctx, in)
		if err != nil && pgCode(err) == codeUniqueViolation && attempt == 0 {
			continue
		}
		if err != nil {
			return nil, false, mapErr("upsert from provider", err)
		}
		return it, created, nil
	}
}

func (r *identityRepo) upsertOnce(ctx context.Context, in repository.ProviderProfileInput) (*repository.Identity, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	provider := string(in.Provider)
	email := repository.NormalizeEmail(in.Email)
	created := false

	// 1. Identidad ya vinculada a este provider
	var id string
	err = tx.QueryRow(ctx,
		`SELECT identity_id FROM provider_link WHERE provider = $1 AND provider_user_id = $2`,
		provider, in.ProviderUserID,
	).Scan(&id)
	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		// 2. Identidad existente por email -> vincular
		err = tx.QueryRow(ctx, `SELECT id FROM identity WHERE lower(email) = $1 FOR UPDATE`, email).Scan(&id)
		switch {
		case err == nil:
			if _, err := tx.Exec(ctx,
				`UPDATE identity SET email_verified = TRUE, version = version + 1, updated_at = NOW() WHERE id = $1`, id,
			); err != nil {
				return nil, false, err
			}
		case errors.Is(err, pgx.ErrNoRows):
			// 3. Email nuevo -> crear verificada (el provider ya verificó el email)
			id = uuid.NewString()
			created = true
			if _, err := tx.Exec(ctx, `
				INSERT INTO identity (id, display_name, email, email_verified)
				VALUES ($1, $2, $3, TRUE)`, id, in.DisplayName, email,
			); err != nil {
				return nil, false, err
			}
		default:
			return nil, false, err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO provider_link (identity_id, provider, provider_user_id, linked_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (identity_id, provider) DO NOTHING`,
			id, provider, in.ProviderUserID, in.At,
		); err != nil {
			return nil, false, err
		}
	default:
		return nil, false, err
	}

	if err := appendEvent(ctx, tx, id, in.Provider, in.At); err != nil {
		return nil, false, err
	}
	it, err := getOne(ctx, tx, `id = $1`, id)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return it, created, nil
}

func appendEvent(ctx context.Context, q querier, id string, method repository.LoginMethod, at time.Time) error {
	_, err := q.Exec(ctx,
		`INSERT INTO login_event (identity_id, method, occurred_at) VALUES ($1, $2, $3)`,
		id, string(method), at)
	return err
}

func (r *identityRepo) AppendLoginHistory(ctx context.Context, id string, method repository.LoginMethod, at time.Time) error {
	if !method.Valid() {
		return repository.ErrInvalidInput
	}
	err := appendEvent(ctx, r.pool, id, method, at)
	if pgCode(err) == "23503" { // foreign_key_violation
		return repository.ErrNotFound
	}
	return mapErr("append login history", err)
}

func (r *identityRepo) LoginHistory(ctx context.Context, id string, limit int) ([]repository.LoginEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT method, occurred_at FROM login_event
		WHERE identity_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2`, id, limit)
	if err != nil {
		return nil, mapErr("login history", err)
	}
	defer rows.Close()

	var out []repository.LoginEvent
	for rows.Next() {
		var (
			ev     repository.LoginEvent
			method string
		)
		if err := rows.Scan(&method, &ev.OccurredAt); err != nil {
			return nil, mapErr("scan login event", err)
		}
		ev.Method = repository.LoginMethod(method)
		out = append(out, ev)
	}
	return out, mapErr("login history", rows.Err())
}

func (r *identityRepo) SetPendingOTP(ctx context.Context, id string, otp repository.PendingOTP) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE identity SET otp_hash = $2, otp_expires_at = $3, updated_at = NOW() WHERE id = $1`,
		id, otp.CodeHash, otp.ExpiresAt)
	if err != nil {
		return mapErr("set pending otp", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *identityRepo) ConsumeOTP(ctx context.Context, id, codeHash string, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE identity SET otp_hash = NULL, otp_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND otp_hash = $2 AND otp_expires_at > $3`,
		id, codeHash, now)
	if err != nil {
		return false, mapErr("consume otp", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *identityRepo) SetPendingVerification(ctx context.Context, id, tokenHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE identity SET verification_hash = $2, updated_at = NOW() WHERE id = $1`, id, tokenHash)
	if err != nil {
		return mapErr("set pending verification", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *identityRepo) ConfirmEmail(ctx context.Context, id, tokenHash string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE identity SET
			email_verified = TRUE, verification_hash = NULL,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND verification_hash = $2`, id, tokenHash)
	if err != nil {
		return false, mapErr("confirm email", err)
	}
	return tag.RowsAffected() == 1, nil
}

var _ repository.IdentityRepository = (*identityRepo)(nil)
