package services

import (
	"reflect"
	"testing"
	"time"
)

func TestPermissionsCacheGetSet(t *testing.T) {
	pc := NewPermissionsCache(5 * time.Minute)

	if _, ok := pc.Get("user-1"); ok {
		t.Error("Expected a miss on an empty cache")
	}

	pc.Set("user-1", []string{"read_own_data", "write_own_data"})
	perms, ok := pc.Get("user-1")
	if !ok {
		t.Fatal("Expected a hit after Set")
	}
	if !reflect.DeepEqual(perms, []string{"read_own_data", "write_own_data"}) {
		t.Errorf("Unexpected permissions: %v", perms)
	}

	// Entries are per user.
	if _, ok := pc.Get("user-2"); ok {
		t.Error("Expected a miss for a different user")
	}
}

func TestPermissionsCacheTTL(t *testing.T) {
	now := time.Now()
	pc := NewPermissionsCache(5 * time.Minute)
	pc.now = func() time.Time { return now }

	pc.Set("user-1", []string{"read_own_data"})

	now = now.Add(4 * time.Minute)
	if _, ok := pc.Get("user-1"); !ok {
		t.Error("Entry should still be fresh at 4m")
	}

	now = now.Add(1 * time.Minute)
	if _, ok := pc.Get("user-1"); ok {
		t.Error("Entry should be stale at exactly the TTL")
	}
}

func TestPermissionsCacheClear(t *testing.T) {
	pc := NewPermissionsCache(5 * time.Minute)
	pc.Set("user-1", []string{"read_own_data"})
	pc.Set("user-2", []string{"manage_users"})

	pc.Clear("user-1")
	if _, ok := pc.Get("user-1"); ok {
		t.Error("Cleared entry should miss")
	}
	if _, ok := pc.Get("user-2"); !ok {
		t.Error("Clear must not touch other users")
	}

	pc.ClearAll()
	if _, ok := pc.Get("user-2"); ok {
		t.Error("ClearAll should drop every entry")
	}
}
