package state

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStoreWithClient(client, "testagent")
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	want := &AgentState{
		AgentName: "testagent",
		Counters:  Counters{CallsSucceeded: 9, CyclesCompleted: 2},
	}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.AgentName != want.AgentName || got.Counters != want.Counters {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestRedisStore_LoadMissing(t *testing.T) {
	store := newTestRedisStore(t)
	if _, err := store.Load(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestRedisStore_ParseURL(t *testing.T) {
	if _, err := NewRedisStore("redis://localhost:6379/0", "agent"); err != nil {
		t.Errorf("NewRedisStore() error = %v for valid url", err)
	}
	if _, err := NewRedisStore("://bad", "agent"); err == nil {
		t.Error("NewRedisStore() error = nil for invalid url")
	}
}
