package payouts

import "context"

type Repository interface {
	// ReserveIncomplete inserts an incomplete record unless one already exists
	// for the group and cycle. It reports whether a row was inserted.
	ReserveIncomplete(ctx context.Context, record *Record) (bool, error)
	// ClaimDisbursement inserts a disbursed record or upgrades an incomplete
	// one. It reports false when the cycle was already disbursed.
	ClaimDisbursement(ctx context.Context, record *Record) (bool, error)
	ListByGroup(ctx context.Context, groupID string) ([]Record, error)
}
