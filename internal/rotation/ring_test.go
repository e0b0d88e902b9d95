package rotation

import (
	"errors"
	"testing"
	"time"
)

// fakeClock gives tests full control over cooldown arithmetic.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRing_Next_RoundRobin(t *testing.T) {
	clock := newFakeClock()
	r := New(clock.now)
	r.AddProvider("gemini", "gemini-2.0-flash", []string{"k1", "k2", "k3"})

	var got []string
	for i := 0; i < 6; i++ {
		sel, err := r.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		got = append(got, sel.Credential)
		r.ReportSuccess(sel)
	}

	want := []string{"k1", "k2", "k3", "k1", "k2", "k3"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d used %s, want %s", i+1, got[i], want[i])
		}
	}
}

func TestRing_Next_SkipsCooledKeys(t *testing.T) {
	clock := newFakeClock()
	r := New(clock.now)
	r.AddProvider("groq", "llama-3.3-70b-versatile", []string{"k1", "k2"})

	sel, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if sel.Credential != "k1" {
		t.Fatalf("first selection = %s, want k1", sel.Credential)
	}
	r.ReportFailure(sel, 5*time.Minute)

	// k1 is cooling down; every subsequent pick must be k2.
	for i := 0; i < 4; i++ {
		sel, err := r.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if sel.Credential != "k2" {
			t.Errorf("pick %d = %s, want k2", i, sel.Credential)
		}
		r.ReportSuccess(sel)
	}

	// One second short of the window: still cooling.
	clock.advance(5*time.Minute - time.Second)
	sel, _ = r.Next()
	if sel.Credential != "k2" {
		t.Errorf("pick before window elapsed = %s, want k2", sel.Credential)
	}
	r.ReportSuccess(sel)

	// Past the window the key rejoins the rotation.
	clock.advance(2 * time.Second)
	sel, _ = r.Next()
	if sel.Credential != "k1" {
		t.Errorf("pick after window elapsed = %s, want k1", sel.Credential)
	}
}

func TestRing_Next_ProviderFallback(t *testing.T) {
	clock := newFakeClock()
	r := New(clock.now)
	r.AddProvider("gemini", "gemini-2.0-flash", []string{"g1", "g2"})
	r.AddProvider("groq", "llama-3.3-70b-versatile", []string{"q1"})

	// Cool down all of gemini's keys.
	for i := 0; i < 2; i++ {
		sel, err := r.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		r.ReportFailure(sel, time.Minute)
	}

	sel, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if sel.Provider != "groq" || sel.Credential != "q1" {
		t.Errorf("fallback selection = %s/%s, want groq/q1", sel.Provider, sel.Credential)
	}
}

func TestRing_Next_AllCoolingDown(t *testing.T) {
	clock := newFakeClock()
	r := New(clock.now)
	r.AddProvider("gemini", "m", []string{"g1"})
	r.AddProvider("groq", "m", []string{"q1"})

	for i := 0; i < 2; i++ {
		sel, err := r.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		r.ReportFailure(sel, time.Minute)
	}

	if _, err := r.Next(); !errors.Is(err, ErrAllCoolingDown) {
		t.Errorf("Next() error = %v, want ErrAllCoolingDown", err)
	}

	// Reset clears every deadline and selection works again.
	r.ResetCooldowns()
	sel, err := r.Next()
	if err != nil {
		t.Fatalf("Next() after reset error = %v", err)
	}
	if sel.Credential == "" {
		t.Error("expected a usable key after reset")
	}
}

func TestRing_Next_Empty(t *testing.T) {
	r := New(nil)
	if _, err := r.Next(); !errors.Is(err, ErrEmpty) {
		t.Errorf("Next() error = %v, want ErrEmpty", err)
	}
}

func TestRing_AddProvider_SkipsEmptyKeyList(t *testing.T) {
	r := New(nil)
	r.AddProvider("gemini", "m", []string{"g1"})
	r.AddProvider("nvidia", "m", nil) // disabled: no credentials
	r.AddProvider("groq", "m", []string{"q1"})

	if r.Providers() != 2 {
		t.Fatalf("Providers() = %d, want 2", r.Providers())
	}

	// Selection over the remaining two behaves as if nvidia never existed.
	sel1, _ := r.Next()
	r.ReportFailure(sel1, time.Minute)
	sel2, _ := r.Next()
	if sel1.Provider != "gemini" || sel2.Provider != "groq" {
		t.Errorf("scan order = %s, %s; want gemini, groq", sel1.Provider, sel2.Provider)
	}
}

func TestRing_Rollback(t *testing.T) {
	clock := newFakeClock()
	r := New(clock.now)
	r.AddProvider("gemini", "m", []string{"g1", "g2"})

	before := r.Snapshot()
	sel, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	r.Rollback(sel)
	after := r.Snapshot()

	if before.ProviderCursor != after.ProviderCursor {
		t.Errorf("provider cursor mutated by rollback: %d -> %d",
			before.ProviderCursor, after.ProviderCursor)
	}
	if before.Providers[0].Cursor != after.Providers[0].Cursor {
		t.Errorf("key cursor mutated by rollback: %d -> %d",
			before.Providers[0].Cursor, after.Providers[0].Cursor)
	}

	// The very next selection picks the same key again.
	sel2, _ := r.Next()
	if sel2.Credential != sel.Credential {
		t.Errorf("selection after rollback = %s, want %s", sel2.Credential, sel.Credential)
	}
}

func TestRing_CallCountMonotonic(t *testing.T) {
	clock := newFakeClock()
	r := New(clock.now)
	r.AddProvider("gemini", "m", []string{"g1"})

	for i := 0; i < 3; i++ {
		sel, _ := r.Next()
		r.ReportSuccess(sel)
	}
	sel, _ := r.Next()
	r.ReportFailure(sel, time.Minute)

	snap := r.Snapshot()
	k := snap.Providers[0].Keys[0]
	if k.CallCount != 3 {
		t.Errorf("CallCount = %d, want 3 (failures do not count, rotation never resets)", k.CallCount)
	}
	if k.ConsecutiveFailures != 1 {
		t.Errorf("ConsecutiveFailures = %d, want 1", k.ConsecutiveFailures)
	}
}

func TestRing_SnapshotRestore(t *testing.T) {
	clock := newFakeClock()
	r := New(clock.now)
	r.AddProvider("gemini", "m", []string{"g1", "g2"})
	r.AddProvider("groq", "m", []string{"q1"})

	sel, _ := r.Next()
	r.ReportSuccess(sel)
	sel, _ = r.Next()
	r.ReportFailure(sel, 5*time.Minute)

	snap := r.Snapshot()

	// Rebuild the ring as a fresh process would, then restore.
	r2 := New(clock.now)
	r2.AddProvider("gemini", "m", []string{"g1", "g2"})
	r2.AddProvider("groq", "m", []string{"q1"})
	r2.Restore(snap)

	got := r2.Snapshot()
	if got.Providers[0].Keys[0].CallCount != 1 {
		t.Errorf("restored CallCount = %d, want 1", got.Providers[0].Keys[0].CallCount)
	}
	if got.Providers[0].Keys[1].Usable {
		t.Error("restored g2 should still be cooling down")
	}

	// Cursor positions survive too: next pick continues the rotation.
	sel, err := r2.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if sel.Credential != "g1" {
		t.Errorf("selection after restore = %s, want g1 (g2 cooling, cursor wrapped)", sel.Credential)
	}
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("sk-very-secret-credential")
	if len(fp) != 12 {
		t.Fatalf("Fingerprint length = %d, want 12", len(fp))
	}
	if fp == Fingerprint("sk-other") {
		t.Error("distinct credentials should not collide")
	}
}
