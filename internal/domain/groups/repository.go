package groups

import (
	"context"
	"time"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	CreateGroup(ctx context.Context, group *SavingsGroup) error
	GetGroup(ctx context.Context, groupID string) (*SavingsGroup, error)
	// LockGroup reads the group with a row lock held until the surrounding
	// transaction ends.
	LockGroup(ctx context.Context, groupID string) (*SavingsGroup, error)
	ListGroupsByAdmin(ctx context.Context, adminID string) ([]SavingsGroup, error)
	ListGroupsByMember(ctx context.Context, userID string) ([]SavingsGroup, error)
	ListActiveGroups(ctx context.Context, filter ListFilter) ([]SavingsGroup, int64, error)
	ListStartedActiveGroups(ctx context.Context, today time.Time) ([]SavingsGroup, error)
	UpdateGroupStatus(ctx context.Context, groupID string, status Status) error
	SetApproval(ctx context.Context, groupID, staffID string, at time.Time) error
	// SetStartDate writes start_date only while it is still NULL.
	SetStartDate(ctx context.Context, groupID string, start time.Time) (bool, error)
	// IncrementMembers bumps current_members only while it is below
	// expected_members.
	IncrementMembers(ctx context.Context, groupID string) (bool, error)

	AddMember(ctx context.Context, member *Membership) error
	GetMember(ctx context.Context, groupID, userID string) (*Membership, error)
	ListMembers(ctx context.Context, groupID string) ([]Membership, error)

	CreateJoinRequest(ctx context.Context, request *JoinRequest) error
	GetJoinRequest(ctx context.Context, requestID string) (*JoinRequest, error)
	GetJoinRequestByUser(ctx context.Context, groupID, userID string) (*JoinRequest, error)
	UpdateJoinRequest(ctx context.Context, request *JoinRequest) error
	ListJoinRequests(ctx context.Context, groupID string, status RequestStatus) ([]JoinRequest, error)

	CountPayoutOrders(ctx context.Context, groupID string) (int64, error)
	CreatePayoutOrders(ctx context.Context, orders []PayoutOrder) error
	GetPayoutSlot(ctx context.Context, groupID string, position int) (*PayoutSlot, error)
	ListPayoutSlots(ctx context.Context, groupID string) ([]PayoutSlot, error)

	UpsertKYC(ctx context.Context, kyc *AdminKYC) error
	GetKYC(ctx context.Context, userID string) (*AdminKYC, error)
	MarkKYCVerified(ctx context.Context, userID, staffID string, at time.Time) error
}
