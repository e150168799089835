package memory

import (
	"time"

	"oraculo-be/internal/chatsync"

	"github.com/patrickmn/go-cache"
)

// ManagerRegistry keeps one chat synchronization manager per user. Managers
// idle out after an hour so abandoned dashboards do not poll forever; the
// eviction hook stops the manager's goroutine.
type ManagerRegistry struct {
	cache *cache.Cache
}

func NewManagerRegistry() *ManagerRegistry {
	c := cache.New(1*time.Hour, 10*time.Minute)
	c.OnEvicted(func(_ string, v interface{}) {
		if m, ok := v.(*chatsync.Manager); ok {
			m.Close()
		}
	})
	return &ManagerRegistry{cache: c}
}

// GetOrCreate returns the user's manager, building one with the factory on
// first access. Every hit refreshes the idle timer.
func (r *ManagerRegistry) GetOrCreate(userID string, build func() *chatsync.Manager) *chatsync.Manager {
	if x, found := r.cache.Get(userID); found {
		r.cache.Set(userID, x, cache.DefaultExpiration)
		return x.(*chatsync.Manager)
	}
	m := build()
	r.cache.Set(userID, m, cache.DefaultExpiration)
	return m
}

// Get returns the manager without creating one.
func (r *ManagerRegistry) Get(userID string) (*chatsync.Manager, bool) {
	if x, found := r.cache.Get(userID); found {
		return x.(*chatsync.Manager), true
	}
	return nil, false
}

func (r *ManagerRegistry) Delete(userID string) {
	r.cache.Delete(userID)
}
