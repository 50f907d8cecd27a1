package groups

import (
	"context"
	"sort"
)

// startIfFull sets the start date and builds the payout order once an active
// group has all its members. Must run inside a transaction holding the group
// lock.
func (s *Service) startIfFull(ctx context.Context, tx Repository, group *SavingsGroup) (bool, error) {
	if group.Status != StatusActive || group.Started() || !group.IsFull() {
		return false, nil
	}

	today := s.today()
	set, err := tx.SetStartDate(ctx, group.ID, today)
	if err != nil {
		return false, err
	}
	if !set {
		return false, nil
	}
	group.StartDate = &today

	if err := materialize(ctx, tx, group); err != nil {
		return false, err
	}
	return true, nil
}

// materialize assigns positions 1..N by join time, earliest first, with the
// membership id as the tie-break. Existing rows make it a no-op.
func materialize(ctx context.Context, tx Repository, group *SavingsGroup) error {
	existing, err := tx.CountPayoutOrders(ctx, group.ID)
	if err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	members, err := tx.ListMembers(ctx, group.ID)
	if err != nil {
		return err
	}
	if len(members) != group.ExpectedMembers {
		return ErrGroupNotFull
	}

	sort.SliceStable(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].ID < members[j].ID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})

	orders := make([]PayoutOrder, 0, len(members))
	for i, member := range members {
		orders = append(orders, PayoutOrder{
			GroupID:      group.ID,
			MembershipID: member.ID,
			Position:     i + 1,
		})
	}
	return tx.CreatePayoutOrders(ctx, orders)
}

// MaterializePayoutOrder builds the payout order for a full group that does
// not have one yet and returns the resulting table.
func (s *Service) MaterializePayoutOrder(ctx context.Context, groupID string) ([]PayoutSlot, error) {
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		group, err := tx.LockGroup(ctx, groupID)
		if err != nil {
			return err
		}
		return materialize(ctx, tx, group)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.ListPayoutSlots(ctx, groupID)
}

func (s *Service) BeneficiaryForPosition(ctx context.Context, groupID string, position int) (*PayoutSlot, error) {
	return s.repo.GetPayoutSlot(ctx, groupID, position)
}

func (s *Service) ListPayoutOrder(ctx context.Context, userID, groupID string) ([]PayoutSlot, error) {
	if err := s.CheckAccess(ctx, userID, groupID); err != nil {
		return nil, err
	}
	return s.repo.ListPayoutSlots(ctx, groupID)
}
