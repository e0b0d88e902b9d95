package rotation

import "time"

// KeyStatus is the externally visible state of one key.
// The credential itself never appears, only its fingerprint.
type KeyStatus struct {
	Fingerprint         string        `json:"fingerprint"`
	Usable              bool          `json:"usable"`
	CooldownRemaining   time.Duration `json:"cooldown_remaining,omitempty"`
	CooldownUntil       time.Time     `json:"cooldown_until,omitempty"`
	CallCount           int64         `json:"call_count"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
}

// ProviderStatus is the externally visible state of one provider.
type ProviderStatus struct {
	Name   string      `json:"name"`
	Model  string      `json:"model"`
	Cursor int         `json:"cursor"`
	Keys   []KeyStatus `json:"keys"`
}

// Snapshot is a read-only copy of the full rotation state. It doubles
// as the persistence format: the state collaborator serializes it and
// feeds it back through Restore on the next start.
type Snapshot struct {
	ProviderCursor int              `json:"provider_cursor"`
	Providers      []ProviderStatus `json:"providers"`
}

// Snapshot returns a copy of the current rotation state.
func (r *Ring) Snapshot() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	snap := &Snapshot{ProviderCursor: r.cursor}
	for _, p := range r.providers {
		ps := ProviderStatus{Name: p.name, Model: p.model, Cursor: p.cursor}
		for _, k := range p.keys {
			ks := KeyStatus{
				Fingerprint:         k.fingerprint,
				Usable:              k.cooldownUntil.IsZero() || k.cooldownUntil.Before(now),
				CallCount:           k.callCount,
				ConsecutiveFailures: k.consecutiveFailures,
			}
			if !ks.Usable {
				ks.CooldownUntil = k.cooldownUntil
				ks.CooldownRemaining = k.cooldownUntil.Sub(now)
			}
			ps.Keys = append(ps.Keys, ks)
		}
		snap.Providers = append(snap.Providers, ps)
	}
	return snap
}

// Restore applies a previously serialized snapshot. Providers are
// matched by name and keys by fingerprint, so a changed key list only
// restores the credentials that survived. Cursors are clamped modulo
// the current list lengths; expired cooldowns are dropped.
func (r *Ring) Restore(snap *Snapshot) {
	if snap == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.providers) == 0 {
		return
	}

	now := r.now()
	byName := make(map[string]ProviderStatus, len(snap.Providers))
	for _, ps := range snap.Providers {
		byName[ps.Name] = ps
	}

	for _, p := range r.providers {
		ps, ok := byName[p.name]
		if !ok {
			continue
		}
		byFp := make(map[string]KeyStatus, len(ps.Keys))
		for _, ks := range ps.Keys {
			byFp[ks.Fingerprint] = ks
		}
		for _, k := range p.keys {
			ks, ok := byFp[k.fingerprint]
			if !ok {
				continue
			}
			k.callCount = ks.CallCount
			k.consecutiveFailures = ks.ConsecutiveFailures
			if !ks.CooldownUntil.IsZero() && ks.CooldownUntil.After(now) {
				k.cooldownUntil = ks.CooldownUntil
			}
		}
		if len(p.keys) > 0 {
			p.cursor = ps.Cursor % len(p.keys)
			if p.cursor < 0 {
				p.cursor = 0
			}
		}
	}
	r.cursor = snap.ProviderCursor % len(r.providers)
	if r.cursor < 0 {
		r.cursor = 0
	}
}
