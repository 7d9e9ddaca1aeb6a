package service

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/Yousuf-Basir/sso-server/internal/sso/ledger"
	"github.com/Yousuf-Basir/sso-server/pkg/slogx"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingPruner struct{ calls atomic.Int32 }

func (p *countingPruner) Prune() int {
	p.calls.Add(1)
	return 0
}

func TestHousekeepingService_RunsUntilStopped(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := &countingPruner{}
	hk := NewHousekeepingService(map[string]Pruner{
		"counting": p,
		"grants":   ledger.NewMemory(),
	}, slogx.Discard(), 10*time.Millisecond)

	hk.Start()
	require.Eventually(t, func() bool { return p.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	hk.Stop()

	n := p.calls.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, n, p.calls.Load(), "no cleanup after Stop")
}

func TestNewHousekeepingService_DefaultInterval(t *testing.T) {
	hk := NewHousekeepingService(nil, slogx.Discard(), 0)
	require.Equal(t, time.Minute, hk.Interval)
}

func TestHousekeepingService_StopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	hk := NewHousekeepingService(nil, slogx.Discard(), time.Hour)
	hk.Stop()

	hk.Start()
	hk.Stop()
	hk.Stop()
}
