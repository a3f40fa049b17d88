package services

import (
	"sync"
	"time"
)

type permissionsEntry struct {
	permissions []string
	resolvedAt  time.Time
}

// PermissionsCache is a process-local, time-expiring map from user id
// to resolved permission names. It is safe for concurrent use from
// request handlers. Entries older than the TTL are treated as absent;
// role or permission changes must call Clear/ClearAll or stale
// decisions persist until the TTL elapses.
type PermissionsCache struct {
	mu      sync.RWMutex
	entries map[string]permissionsEntry
	ttl     time.Duration

	// now is swappable for TTL tests.
	now func() time.Time
}

func NewPermissionsCache(ttl time.Duration) *PermissionsCache {
	return &PermissionsCache{
		entries: make(map[string]permissionsEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached permission set for userID and whether a fresh
// entry exists.
func (pc *PermissionsCache) Get(userID string) ([]string, bool) {
	pc.mu.RLock()
	entry, ok := pc.entries[userID]
	pc.mu.RUnlock()

	if !ok || pc.now().Sub(entry.resolvedAt) >= pc.ttl {
		return nil, false
	}
	return entry.permissions, true
}

// Set stores the freshly resolved permission set for userID.
func (pc *PermissionsCache) Set(userID string, permissions []string) {
	pc.mu.Lock()
	pc.entries[userID] = permissionsEntry{
		permissions: permissions,
		resolvedAt:  pc.now(),
	}
	pc.mu.Unlock()
}

// Clear drops the entry for one user.
func (pc *PermissionsCache) Clear(userID string) {
	pc.mu.Lock()
	delete(pc.entries, userID)
	pc.mu.Unlock()
}

// ClearAll drops every entry.
func (pc *PermissionsCache) ClearAll() {
	pc.mu.Lock()
	pc.entries = make(map[string]permissionsEntry)
	pc.mu.Unlock()
}
