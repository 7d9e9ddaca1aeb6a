package registry

import (
	"sync/atomic"
	"time"

	"github.com/Yousuf-Basir/sso-server/internal/sso/domain"
)

// Registry publishes the current Snapshot. Readers always see one complete
// snapshot; Swap replaces it in a single atomic store.
type Registry struct {
	snap     atomic.Pointer[Snapshot]
	loadedAt atomic.Int64
}

// New returns a Registry serving snap. A nil snap serves Empty().
func New(snap *Snapshot) *Registry {
	r := &Registry{}
	r.Swap(snap)
	return r
}

// Snapshot returns the snapshot currently in effect.
func (r *Registry) Snapshot() *Snapshot { return r.snap.Load() }

// Swap publishes snap and returns the one it replaced.
func (r *Registry) Swap(snap *Snapshot) *Snapshot {
	if snap == nil {
		snap = Empty()
	}
	old := r.snap.Swap(snap)
	r.loadedAt.Store(time.Now().UnixNano())
	return old
}

// LoadedAt is when the current snapshot was published.
func (r *Registry) LoadedAt() time.Time { return time.Unix(0, r.loadedAt.Load()) }

func (r *Registry) Resolve(id string) (domain.Client, bool) {
	return r.Snapshot().Resolve(id)
}

func (r *Registry) ValidateClient(id, origin string) bool {
	return r.Snapshot().ValidateClient(id, origin)
}

func (r *Registry) ValidateRedirect(id, redirectURL string) bool {
	return r.Snapshot().ValidateRedirect(id, redirectURL)
}

func (r *Registry) AllowsOrigin(origin string) bool {
	return r.Snapshot().AllowsOrigin(origin)
}

// IsReady reports whether at least one client is registered.
func (r *Registry) IsReady() bool { return r.Snapshot().Len() > 0 }
