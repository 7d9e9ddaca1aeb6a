package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Yousuf-Basir/sso-server/internal/sso/domain"
	"github.com/Yousuf-Basir/sso-server/internal/sso/store"
)

const userColumns = `id, email, password_hash, name, profile_image, google_id, facebook_id, created_at, updated_at`

type usersRepo struct {
	q querier
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u                  domain.User
		hash, google, fb   sql.NullString
		createdAt, updated int64
	)
	err := row.Scan(&u.ID, &u.Email, &hash, &u.Name, &u.ProfileImage, &google, &fb, &createdAt, &updated)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.PasswordHash = hash.String
	u.GoogleID = google.String
	u.FacebookID = fb.String
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updated)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.TrimSpace(email)))
}

func providerColumn(p domain.Provider) (string, error) {
	switch p {
	case domain.ProviderGoogle:
		return "google_id", nil
	case domain.ProviderFacebook:
		return "facebook_id", nil
	default:
		return "", fmt.Errorf("sqlite: unknown provider %q", p)
	}
}

func (r *usersRepo) GetUserByProvider(ctx context.Context, p domain.Provider, subject string) (domain.User, error) {
	col, err := providerColumn(p)
	if err != nil {
		return domain.User{}, err
	}
	if subject == "" {
		return domain.User{}, store.ErrNotFound
	}
	return scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+col+` = ?`, subject))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		strings.TrimSpace(u.Email),
		nullString(u.PasswordHash),
		u.Name,
		u.ProfileImage,
		nullString(u.GoogleID),
		nullString(u.FacebookID),
		toMillis(u.CreatedAt),
		toMillis(u.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateUser(ctx context.Context, id string, upd domain.UserUpdate) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)

	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, strings.TrimSpace(*upd.Email))
	}
	if upd.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, nullString(*upd.PasswordHash))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, toMillis(time.Now()), id)

	return r.exec(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
}

func (r *usersRepo) LinkProvider(ctx context.Context, id string, ident domain.ProviderIdentity) error {
	col, err := providerColumn(ident.Provider)
	if err != nil {
		return err
	}

	return r.exec(ctx,
		`UPDATE users SET `+col+` = ?,
			name = CASE WHEN ? <> '' THEN ? ELSE name END,
			profile_image = CASE WHEN ? <> '' THEN ? ELSE profile_image END,
			updated_at = ?
		WHERE id = ?`,
		ident.Subject,
		ident.Name, ident.Name,
		ident.Picture, ident.Picture,
		toMillis(time.Now()),
		id,
	)
}

func (r *usersRepo) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// exec runs an UPDATE and reports ErrNotFound when no row matched.
func (r *usersRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return mapConstraint(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
