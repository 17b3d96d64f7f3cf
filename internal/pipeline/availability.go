package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/ppiankov/physioform/internal/model"
)

// Prober checks whether the AI capability is reachable
type Prober interface {
	IsAvailable(ctx context.Context) bool
}

// ProberFunc adapts a function to Prober
type ProberFunc func(ctx context.Context) bool

// IsAvailable calls f
func (f ProberFunc) IsAvailable(ctx context.Context) bool { return f(ctx) }

// Availability is the process-wide AI availability flag. It changes only
// when Probe runs; requests read it once and never write it.
type Availability struct {
	prober Prober

	mu        sync.RWMutex
	available bool
	checkedAt time.Time

	now func() time.Time
}

// NewAvailability returns a flag backed by prober. It reads false until the
// first Probe.
func NewAvailability(prober Prober) *Availability {
	return &Availability{prober: prober, now: time.Now}
}

// StaticAvailability returns a flag that always reads the given value
func StaticAvailability(available bool) *Availability {
	a := NewAvailability(ProberFunc(func(context.Context) bool { return available }))
	a.available = available
	a.checkedAt = a.now().UTC()
	return a
}

// Probe re-checks the capability and stores the result
func (a *Availability) Probe(ctx context.Context) bool {
	ok := a.prober != nil && a.prober.IsAvailable(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.available = ok
	a.checkedAt = a.now().UTC()
	return ok
}

// Available returns the last probe result
func (a *Availability) Available() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.available
}

// CheckedAt returns when the flag was last probed
func (a *Availability) CheckedAt() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.checkedAt
}

// Status reports the flag for the health endpoint. The pattern-based
// fallback is always available.
func (a *Availability) Status() model.CapabilityStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return model.CapabilityStatus{
		AIExtraction:  a.available,
		RegexFallback: true,
		CheckedAt:     a.checkedAt,
	}
}
