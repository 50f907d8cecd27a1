package inmemory

import (
	"sync"
	"time"
)

// OTPGuard remembers codes that are being verified or were already accepted,
// so the same code cannot verify twice while the provider still considers it
// valid.
type OTPGuard struct {
	mu    sync.Mutex
	items map[string]time.Time
	now   func() time.Time
}

func NewOTPGuard() *OTPGuard {
	return &OTPGuard{
		items: make(map[string]time.Time),
		now:   time.Now,
	}
}

// Claim reserves the code for ttl. It returns false when the code is already
// claimed, so at most one caller proceeds to the provider.
func (g *OTPGuard) Claim(phone, code string, ttl time.Duration) bool {
	key := guardKey(phone, code)
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()
	for k, expiresAt := range g.items {
		if !expiresAt.After(now) {
			delete(g.items, k)
		}
	}
	if _, ok := g.items[key]; ok {
		return false
	}
	g.items[key] = now.Add(ttl)
	return true
}

// Release drops a claim whose verification did not succeed.
func (g *OTPGuard) Release(phone, code string) {
	g.mu.Lock()
	delete(g.items, guardKey(phone, code))
	g.mu.Unlock()
}

func guardKey(phone, code string) string {
	return phone + "|" + code
}
