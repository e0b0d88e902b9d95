package llmpool

import (
	"github.com/samber/lo"

	"github.com/openclaw/llmpool/internal/metrics"
	"github.com/openclaw/llmpool/internal/rotation"
)

// Status is a point-in-time view of the pool, safe to expose over
// HTTP: keys appear only as fingerprints.
type Status struct {
	ProviderCursor int                       `json:"provider_cursor"`
	Providers      []rotation.ProviderStatus `json:"providers"`
	TotalKeys      int                       `json:"total_keys"`
	UsableKeys     int                       `json:"usable_keys"`
	CoolingKeys    int                       `json:"cooling_keys"`
}

// Status reports the current rotation state with aggregate key counts.
// It also refreshes the usable-keys gauge per provider.
func (p *Pool) Status() *Status {
	snap := p.ring.Snapshot()

	allKeys := lo.FlatMap(snap.Providers, func(ps rotation.ProviderStatus, _ int) []rotation.KeyStatus {
		return ps.Keys
	})
	usable := lo.CountBy(allKeys, func(k rotation.KeyStatus) bool { return k.Usable })

	for _, ps := range snap.Providers {
		n := lo.CountBy(ps.Keys, func(k rotation.KeyStatus) bool { return k.Usable })
		metrics.UsableKeys.WithLabelValues(ps.Name).Set(float64(n))
	}

	return &Status{
		ProviderCursor: snap.ProviderCursor,
		Providers:      snap.Providers,
		TotalKeys:      len(allKeys),
		UsableKeys:     usable,
		CoolingKeys:    len(allKeys) - usable,
	}
}
