package groups

import "time"

type Cache interface {
	Get(groupID string) (*SavingsGroup, bool)
	Set(groupID string, group *SavingsGroup, ttl time.Duration)
	Delete(groupID string)
}

type noopCache struct{}

func (noopCache) Get(string) (*SavingsGroup, bool) {
	return nil, false
}

func (noopCache) Set(string, *SavingsGroup, time.Duration) {}

func (noopCache) Delete(string) {}
