package authcache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestRedisHash(t *testing.T) (*Hash, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewHash(NewRedisBackend(client), UserKeyPrefix, nil), mr
}

func TestHash_StringsRoundTrip(t *testing.T) {
	hash, _ := newTestRedisHash(t)
	ctx := context.Background()

	if _, ok := hash.GetStrings(ctx, "alice", FieldPermissions); ok {
		t.Fatal("expected miss on empty cache")
	}

	hash.SetStrings(ctx, "alice", FieldPermissions, []string{"b.view", "a.view"})

	values, ok := hash.GetStrings(ctx, "alice", FieldPermissions)
	if !ok {
		t.Fatal("expected hit after set")
	}
	if len(values) != 2 || values[0] != "a.view" || values[1] != "b.view" {
		t.Errorf("expected sorted set [a.view b.view], got %v", values)
	}
}

func TestHash_FieldsAreIndependent(t *testing.T) {
	hash, _ := newTestRedisHash(t)
	ctx := context.Background()

	hash.SetStrings(ctx, "alice", FieldPermissions, []string{"x.view"})
	hash.SetStrings(ctx, "alice", FieldRoles, []string{"warehouse:member"})

	if err := hash.Delete(ctx, "alice", FieldPermissions); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, ok := hash.GetStrings(ctx, "alice", FieldPermissions); ok {
		t.Error("deleted field should miss")
	}
	if _, ok := hash.GetStrings(ctx, "alice", FieldRoles); !ok {
		t.Error("sibling field should survive a field delete")
	}
}

func TestHash_ClearRemovesAllFields(t *testing.T) {
	hash, _ := newTestRedisHash(t)
	ctx := context.Background()

	hash.SetStrings(ctx, "alice", FieldPermissions, []string{"x.view"})
	hash.SetStrings(ctx, "alice", FieldDefaultRoles, []string{"system:user"})
	hash.SetStrings(ctx, "bob", FieldPermissions, []string{"y.view"})

	if err := hash.Clear(ctx, "alice"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if _, ok := hash.GetStrings(ctx, "alice", FieldPermissions); ok {
		t.Error("cleared key should miss")
	}
	if _, ok := hash.GetStrings(ctx, "alice", FieldDefaultRoles); ok {
		t.Error("cleared key should miss on every field")
	}
	if _, ok := hash.GetStrings(ctx, "bob", FieldPermissions); !ok {
		t.Error("other keys must not be affected by Clear")
	}
}

func TestHash_JSONRoundTrip(t *testing.T) {
	hash, _ := newTestRedisHash(t)
	ctx := context.Background()

	type snapshot struct {
		Departments []string `json:"departments"`
	}

	hash.SetJSON(ctx, "alice", FieldRelationship, snapshot{Departments: []string{"物流部"}})

	var got snapshot
	if !hash.GetJSON(ctx, "alice", FieldRelationship, &got) {
		t.Fatal("expected hit after SetJSON")
	}
	if len(got.Departments) != 1 || got.Departments[0] != "物流部" {
		t.Errorf("unexpected snapshot: %+v", got)
	}
}

func TestHash_BackendDownFailsOpen(t *testing.T) {
	hash, mr := newTestRedisHash(t)
	ctx := context.Background()

	hash.SetStrings(ctx, "alice", FieldPermissions, []string{"x.view"})
	mr.Close()

	// Reads degrade to a miss, writes are swallowed; neither panics or
	// surfaces an error to resolution.
	if _, ok := hash.GetStrings(ctx, "alice", FieldPermissions); ok {
		t.Error("expected miss when backend is unreachable")
	}
	hash.SetStrings(ctx, "alice", FieldPermissions, []string{"x.view"})

	// Invalidation failures must surface.
	if err := hash.Clear(ctx, "alice"); err == nil {
		t.Error("expected Clear to report backend failure")
	}
}

func TestHash_CorruptValueIsMiss(t *testing.T) {
	hash, mr := newTestRedisHash(t)
	ctx := context.Background()

	mr.HSet(UserKeyPrefix+":alice", FieldPermissions, "not json")

	if _, ok := hash.GetStrings(ctx, "alice", FieldPermissions); ok {
		t.Error("corrupt value should be treated as a miss")
	}
}

func TestMemoryBackend_HashSemantics(t *testing.T) {
	backend, err := NewMemoryBackend(16)
	if err != nil {
		t.Fatalf("NewMemoryBackend failed: %v", err)
	}
	hash := NewHash(backend, RoleKeyPrefix, nil)
	ctx := context.Background()

	hash.SetStrings(ctx, "service:member", FieldPermissions, []string{"ticket.view_ticket"})

	values, ok := hash.GetStrings(ctx, "service:member", FieldPermissions)
	if !ok || len(values) != 1 {
		t.Fatalf("expected hit with one code, got %v ok=%v", values, ok)
	}

	if err := hash.Clear(ctx, "service:member"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := hash.GetStrings(ctx, "service:member", FieldPermissions); ok {
		t.Error("cleared key should miss")
	}
}

type countingStats struct {
	hits, misses int
}

func (c *countingStats) Hit(string)  { c.hits++ }
func (c *countingStats) Miss(string) { c.misses++ }

func TestHash_Stats(t *testing.T) {
	hash, _ := newTestRedisHash(t)
	stats := &countingStats{}
	hash.WithStats(stats)
	ctx := context.Background()

	hash.GetStrings(ctx, "alice", FieldPermissions)
	hash.SetStrings(ctx, "alice", FieldPermissions, []string{"x"})
	hash.GetStrings(ctx, "alice", FieldPermissions)

	if stats.misses != 1 || stats.hits != 1 {
		t.Errorf("expected 1 miss and 1 hit, got %d/%d", stats.misses, stats.hits)
	}
}
