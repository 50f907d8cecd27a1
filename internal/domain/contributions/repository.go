package contributions

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, contribution *Contribution) error
	Get(ctx context.Context, contributionID string) (*Contribution, error)
	GetForMember(ctx context.Context, membershipID int64, cycleNumber int) (*Contribution, error)
	// MarkVerified flips is_verified only if it is still false.
	MarkVerified(ctx context.Context, contributionID, verifiedBy string, at time.Time) (bool, error)
	CountVerified(ctx context.Context, groupID string, cycleNumber int) (int64, error)
	ListForCycle(ctx context.Context, groupID string, cycleNumber int) ([]Contribution, error)
}
