// Package ledger remembers which SSO grants have already been redeemed so a
// grant can be made single-use. Entries only need to outlive the grant.
package ledger

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrEmptyID is returned for a redemption without a token id.
var ErrEmptyID = errors.New("ledger: empty token id")

// Ledger records grant redemptions.
type Ledger interface {
	// Redeem marks id as used until expiresAt. It reports true only for the
	// first redemption of id.
	Redeem(ctx context.Context, id string, expiresAt time.Time) (bool, error)

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}

// Memory is an in-process Ledger. It is only correct for a single replica.
type Memory struct {
	mu   sync.Mutex
	used map[string]time.Time
	now  func() time.Time
}

// Option configures a Ledger.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the time source used to judge grant expiry. It should be
// the clock that stamped the grants.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewMemory(opts ...Option) *Memory {
	return &Memory{used: make(map[string]time.Time), now: buildOptions(opts).now}
}

func (m *Memory) Redeem(_ context.Context, id string, expiresAt time.Time) (bool, error) {
	if id == "" {
		return false, ErrEmptyID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if exp, ok := m.used[id]; ok && m.now().Before(exp) {
		return false, nil
	}
	m.used[id] = expiresAt
	return true, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

// Prune drops entries whose grant has expired and returns how many went.
func (m *Memory) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for id, exp := range m.used {
		if !now.Before(exp) {
			delete(m.used, id)
			n++
		}
	}
	return n
}

// Len returns the number of remembered grants.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.used)
}
