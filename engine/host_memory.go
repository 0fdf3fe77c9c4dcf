package engine

import (
	"sync"
	"time"
)

type hostEntry struct {
	engineName string
	expiresAt  time.Time
}

// HostMemory remembers which engine last served each search host without
// being challenged. Entries expire after the configured TTL and are pruned
// periodically. One HostMemory is shared by every session.
type HostMemory struct {
	store sync.Map // host (string) -> *hostEntry
	ttl   time.Duration
	done  chan struct{}
	once  sync.Once
}

// NewHostMemory creates a HostMemory with the given TTL and starts a
// background goroutine that prunes expired entries.
func NewHostMemory(ttl time.Duration) *HostMemory {
	hm := &HostMemory{
		ttl:  ttl,
		done: make(chan struct{}),
	}
	go hm.cleanupLoop(cleanupInterval(ttl))
	return hm
}

// Get returns the remembered engine name for a host, or "" if absent or expired.
func (hm *HostMemory) Get(host string) string {
	if hm == nil {
		return ""
	}
	val, ok := hm.store.Load(host)
	if !ok {
		return ""
	}
	entry := val.(*hostEntry)
	if time.Now().After(entry.expiresAt) {
		hm.store.Delete(host)
		return ""
	}
	return entry.engineName
}

// Set records which engine succeeded for a host.
func (hm *HostMemory) Set(host, engineName string) {
	if hm == nil || hm.ttl <= 0 {
		return
	}
	hm.store.Store(host, &hostEntry{
		engineName: engineName,
		expiresAt:  time.Now().Add(hm.ttl),
	})
}

// Delete forgets a host, e.g. after the remembered engine got challenged.
func (hm *HostMemory) Delete(host string) {
	if hm == nil {
		return
	}
	hm.store.Delete(host)
}

// Stop terminates the background cleanup goroutine. Safe to call twice.
func (hm *HostMemory) Stop() {
	if hm == nil {
		return
	}
	hm.once.Do(func() { close(hm.done) })
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > time.Hour {
		return time.Hour
	}
	return ttl
}

func (hm *HostMemory) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-hm.done:
			return
		case <-ticker.C:
			now := time.Now()
			hm.store.Range(func(key, value any) bool {
				if now.After(value.(*hostEntry).expiresAt) {
					hm.store.Delete(key)
				}
				return true
			})
		}
	}
}
