package inmemory

import (
	"sync"
	"time"

	groupsdomain "susu-app-go/internal/domain/groups"
)

// GroupCache is a TTL cache for group reads on the API path.
type GroupCache struct {
	mu    sync.RWMutex
	items map[string]groupItem
	now   func() time.Time
}

type groupItem struct {
	value     groupsdomain.SavingsGroup
	expiresAt time.Time
}

func NewGroupCache() *GroupCache {
	return &GroupCache{
		items: make(map[string]groupItem),
		now:   time.Now,
	}
}

func (c *GroupCache) Get(groupID string) (*groupsdomain.SavingsGroup, bool) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[groupID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[groupID]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, groupID)
		}
		c.mu.Unlock()
		return nil, false
	}

	value := item.value
	return &value, true
}

func (c *GroupCache) Set(groupID string, group *groupsdomain.SavingsGroup, ttl time.Duration) {
	if group == nil || ttl <= 0 {
		c.Delete(groupID)
		return
	}

	c.mu.Lock()
	c.items[groupID] = groupItem{
		value:     *group,
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *GroupCache) Delete(groupID string) {
	c.mu.Lock()
	delete(c.items, groupID)
	c.mu.Unlock()
}
