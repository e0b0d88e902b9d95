// Package rotation implements the circular provider/key cursor state
// behind the dispatcher. It owns cooldown deadlines, usage counters and
// both rotation cursors; all mutation happens under one mutex that is
// never held across a network call.
package rotation

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// ErrEmpty is returned when the ring holds no providers.
var ErrEmpty = errors.New("rotation ring has no providers")

// ErrAllCoolingDown is returned when every key of every provider is in
// cooldown. The dispatcher handles this with its exhaustion branch.
var ErrAllCoolingDown = errors.New("every key of every provider is cooling down")

type keyState struct {
	credential          string
	fingerprint         string
	cooldownUntil       time.Time // zero means usable now
	callCount           int64
	consecutiveFailures int
}

type providerState struct {
	name   string
	model  string
	keys   []*keyState
	cursor int
}

// Ring holds the ordered provider list and the two circular cursors.
// Provider order is fixed at construction and stable for the process
// lifetime.
type Ring struct {
	mu        sync.Mutex
	providers []*providerState
	cursor    int
	now       func() time.Time
}

// New creates an empty ring. The clock is injectable for tests; pass
// nil to use time.Now.
func New(now func() time.Time) *Ring {
	if now == nil {
		now = time.Now
	}
	return &Ring{now: now}
}

// AddProvider appends a provider with its ordered credentials.
// A provider with zero credentials is not added at all, keeping the
// circular scan free of empty key lists.
func (r *Ring) AddProvider(name, model string, credentials []string) {
	if len(credentials) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p := &providerState{name: name, model: model}
	for _, cred := range credentials {
		p.keys = append(p.keys, &keyState{
			credential:  cred,
			fingerprint: Fingerprint(cred),
		})
	}
	r.providers = append(r.providers, p)
}

// Providers returns the number of providers in the ring.
func (r *Ring) Providers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.providers)
}

// Size returns the total key count across all providers. It bounds the
// in-call rotation retries.
func (r *Ring) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, p := range r.providers {
		total += len(p.keys)
	}
	return total
}

// Selection is a tentative pick. The key cursor has already been
// advanced past the chosen key for the next call; the previous cursor
// values are retained so a rejected call can roll the advance back.
type Selection struct {
	Provider    string
	Model       string
	Credential  string
	Fingerprint string

	providerIdx int
	keyIdx      int
	prevCursor  int
	prevKeyCur  int
}

// Next scans for a usable key: starting at the provider cursor, each
// provider's keys are scanned circularly from that provider's key
// cursor; a provider with no usable key advances the provider cursor.
// Returns ErrAllCoolingDown after a full fruitless pass.
func (r *Ring) Next() (*Selection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.providers) == 0 {
		return nil, ErrEmpty
	}

	now := r.now()
	prevCursor := r.cursor

	for range r.providers {
		p := r.providers[r.cursor]
		prevKeyCur := p.cursor

		for range p.keys {
			k := p.keys[p.cursor]
			idx := p.cursor
			p.cursor = (p.cursor + 1) % len(p.keys)
			if k.cooldownUntil.IsZero() || k.cooldownUntil.Before(now) {
				return &Selection{
					Provider:    p.name,
					Model:       p.model,
					Credential:  k.credential,
					Fingerprint: k.fingerprint,
					providerIdx: r.cursor,
					keyIdx:      idx,
					prevCursor:  prevCursor,
					prevKeyCur:  prevKeyCur,
				}, nil
			}
		}
		r.cursor = (r.cursor + 1) % len(r.providers)
	}

	return nil, ErrAllCoolingDown
}

// ReportSuccess records a completed call on the selected key.
// The cursor advance from Next stands, giving round-robin fairness.
func (r *Ring) ReportSuccess(sel *Selection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := r.keyFor(sel)
	if k == nil {
		return
	}
	k.callCount++
	k.consecutiveFailures = 0
}

// ReportFailure puts the selected key on cooldown for the given window.
func (r *Ring) ReportFailure(sel *Selection, cooldown time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := r.keyFor(sel)
	if k == nil {
		return
	}
	k.consecutiveFailures++
	k.cooldownUntil = r.now().Add(cooldown)
}

// Rollback restores both cursors to their values before the selection.
// Used for rejected calls, which must leave no trace in rotation state.
func (r *Ring) Rollback(sel *Selection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sel.providerIdx >= len(r.providers) {
		return
	}
	p := r.providers[sel.providerIdx]
	r.cursor = sel.prevCursor % len(r.providers)
	p.cursor = sel.prevKeyCur % len(p.keys)
}

// ResetCooldowns clears every cooldown deadline. Called once by the
// dispatcher's exhaustion branch after the global wait.
func (r *Ring) ResetCooldowns() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.providers {
		for _, k := range p.keys {
			k.cooldownUntil = time.Time{}
		}
	}
}

func (r *Ring) keyFor(sel *Selection) *keyState {
	if sel.providerIdx >= len(r.providers) {
		return nil
	}
	p := r.providers[sel.providerIdx]
	if sel.keyIdx >= len(p.keys) {
		return nil
	}
	return p.keys[sel.keyIdx]
}

// Fingerprint derives a short non-reversible identifier for a
// credential, safe to expose in status output and snapshots.
func Fingerprint(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])[:12]
}
