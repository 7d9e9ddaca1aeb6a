package store

import (
	"context"
	"errors"

	"github.com/Yousuf-Basir/sso-server/internal/sso/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Drivers implement it and expose
// sub-repositories so that a transaction-scoped Store can't open another
// transaction by accident.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByProvider finds the user linked to an identity provider account.
	GetUserByProvider(ctx context.Context, p domain.Provider, subject string) (domain.User, error)

	// CreateUser inserts u. The id is supplied by the caller (ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUser applies the non-nil fields of upd and bumps updated_at.
	UpdateUser(ctx context.Context, id string, upd domain.UserUpdate) error

	// LinkProvider stores the provider account id on the user and refreshes
	// the profile name and picture when the provider supplied them.
	LinkProvider(ctx context.Context, id string, ident domain.ProviderIdentity) error

	CountUsers(ctx context.Context) (int, error)
}
