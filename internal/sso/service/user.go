package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Yousuf-Basir/sso-server/internal/sso/domain"
	"github.com/Yousuf-Basir/sso-server/internal/sso/metrics"
	"github.com/Yousuf-Basir/sso-server/internal/sso/store"
	"github.com/Yousuf-Basir/sso-server/pkg/cryptox"
	"github.com/Yousuf-Basir/sso-server/pkg/idx"
	"github.com/Yousuf-Basir/sso-server/pkg/slogx"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxNameLength     = 256
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EmailCheck is the result of ValidateEmail.
type EmailCheck struct {
	Email   string
	IsValid bool
	Message string
}

// ValidateEmail applies the syntax check used at registration.
func ValidateEmail(email string) EmailCheck {
	ok := emailPattern.MatchString(email)
	msg := "Email is invalid"
	if ok {
		msg = "Email is valid"
	}
	return EmailCheck{Email: email, IsValid: ok, Message: msg}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// UpdateInput lists the profile fields a user may change. Nil or empty
// values are ignored.
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
}

type UserService struct {
	Store   store.Store
	Metrics metrics.Recorder
}

// Register creates a password account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	email := strings.TrimSpace(in.Email)
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > MaxNameLength {
		return domain.User{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !emailPattern.MatchString(email) {
		return domain.User{}, fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	if err := checkPassword(in.Password); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, errors.Join(ErrUpstreamFailure, err)
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user registered", slog.String("user_id", u.ID))
	return u, nil
}

// Login checks email and password. Hashes in an outdated format are
// replaced after a successful check.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Metrics.RecordLogin("password", false)
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if !u.HasPassword() {
		s.Metrics.RecordLogin("password", false)
		return domain.User{}, ErrInvalidCredentials
	}
	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("stored password hash unusable", slog.String("user_id", u.ID), slog.Any("error", err))
		}
		s.Metrics.RecordLogin("password", false)
		return domain.User{}, ErrInvalidCredentials
	}

	if cryptox.NeedsRehash(u.PasswordHash) {
		if hash, err := cryptox.HashPassword(password); err != nil {
			l.Error("password rehash failed", slog.String("user_id", u.ID), slog.Any("error", err))
		} else if err := s.Store.Users().UpdateUser(ctx, u.ID, domain.UserUpdate{PasswordHash: &hash}); err != nil {
			l.Error("password rehash not stored", slog.String("user_id", u.ID), slog.Any("error", err))
		} else {
			u.PasswordHash = hash
			l.Info("password hash upgraded", slog.String("user_id", u.ID))
		}
	}

	s.Metrics.RecordLogin("password", true)
	return u, nil
}

// Get fetches a user by id.
func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

// Update applies the non-empty fields of in and returns the updated user.
func (s *UserService) Update(ctx context.Context, id string, in UpdateInput) (domain.User, error) {
	var upd domain.UserUpdate

	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		name := strings.TrimSpace(*in.Name)
		if len(name) > MaxNameLength {
			return domain.User{}, fmt.Errorf("%w: name too long", ErrInvalidInput)
		}
		upd.Name = &name
	}
	if in.Email != nil && strings.TrimSpace(*in.Email) != "" {
		email := strings.TrimSpace(*in.Email)
		if !emailPattern.MatchString(email) {
			return domain.User{}, fmt.Errorf("%w: email is invalid", ErrInvalidInput)
		}
		upd.Email = &email
	}
	if in.Password != nil && *in.Password != "" {
		if err := checkPassword(*in.Password); err != nil {
			return domain.User{}, err
		}
		hash, err := cryptox.HashPassword(*in.Password)
		if err != nil {
			return domain.User{}, errors.Join(ErrUpstreamFailure, err)
		}
		upd.PasswordHash = &hash
	}

	if upd.Name != nil || upd.Email != nil || upd.PasswordHash != nil {
		if err := s.Store.Users().UpdateUser(ctx, id, upd); err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				return domain.User{}, ErrUserNotFound
			case errors.Is(err, store.ErrAlreadyExists):
				return domain.User{}, ErrEmailTaken
			default:
				return domain.User{}, err
			}
		}
	}
	return s.Get(ctx, id)
}

// UpsertFromProvider finds or creates the local account for an identity
// reported by an OAuth provider. Accounts are matched by provider id first,
// then by email, and the provider id is linked on match.
func (s *UserService) UpsertFromProvider(ctx context.Context, ident domain.ProviderIdentity) (domain.User, error) {
	ident.Email = strings.TrimSpace(ident.Email)
	if ident.Subject == "" || !emailPattern.MatchString(ident.Email) {
		return domain.User{}, fmt.Errorf("%w: provider returned no usable email", ErrInvalidInput)
	}

	var out domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		users := tx.Users()

		u, err := users.GetUserByProvider(ctx, ident.Provider, ident.Subject)
		if errors.Is(err, store.ErrNotFound) {
			u, err = users.GetUserByEmail(ctx, ident.Email)
		}
		switch {
		case err == nil:
			if err := users.LinkProvider(ctx, u.ID, ident); err != nil {
				return err
			}
		case errors.Is(err, store.ErrNotFound):
			now := time.Now().UTC()
			u = domain.User{
				ID:           idx.New().String(),
				Email:        ident.Email,
				Name:         ident.Name,
				ProfileImage: ident.Picture,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			switch ident.Provider {
			case domain.ProviderGoogle:
				u.GoogleID = ident.Subject
			case domain.ProviderFacebook:
				u.FacebookID = ident.Subject
			}
			if err := users.CreateUser(ctx, u); err != nil {
				return err
			}
		default:
			return err
		}

		out, err = users.GetUserByID(ctx, u.ID)
		return err
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("upsert %s user: %w", ident.Provider, err)
	}
	return out, nil
}

func checkPassword(pw string) error {
	if len(pw) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if len(pw) > MaxPasswordLength {
		return fmt.Errorf("%w: password too long", ErrInvalidInput)
	}
	return nil
}
