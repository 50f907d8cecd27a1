package handler

import (
	"context"
	"time"

	"susu-app-go/internal/auth"
	accountsdomain "susu-app-go/internal/domain/accounts"
	contributionsdomain "susu-app-go/internal/domain/contributions"
	groupsdomain "susu-app-go/internal/domain/groups"
	payoutsdomain "susu-app-go/internal/domain/payouts"
	"susu-app-go/pkg/logger"
)

type AccountsService interface {
	Signup(ctx context.Context, input accountsdomain.SignupInput) (*accountsdomain.SignupResult, error)
	SendOTP(ctx context.Context, phone string) (string, error)
	VerifyPhone(ctx context.Context, phone, code string) (*accountsdomain.User, error)
	Login(ctx context.Context, input accountsdomain.LoginInput) (*accountsdomain.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	ForgotPassword(ctx context.Context, loginField string) (string, error)
	ResetPassword(ctx context.Context, input accountsdomain.ResetPasswordInput) error
	Me(ctx context.Context, userID string) (*accountsdomain.Account, error)
}

type GroupsService interface {
	CreateGroup(ctx context.Context, adminID string, input groupsdomain.CreateGroupInput, kyc *groupsdomain.KYCFiles) (*groupsdomain.SavingsGroup, error)
	ApproveGroup(ctx context.Context, staffID, groupID string) (*groupsdomain.SavingsGroup, error)
	SuspendGroup(ctx context.Context, groupID string) (*groupsdomain.SavingsGroup, error)
	RejectGroup(ctx context.Context, groupID string) (*groupsdomain.SavingsGroup, error)
	GroupDetail(ctx context.Context, userID, groupID string) (*groupsdomain.GroupDetail, error)
	ListAdminGroups(ctx context.Context, adminID string) ([]groupsdomain.SavingsGroup, error)
	ListMyGroups(ctx context.Context, userID string) ([]groupsdomain.SavingsGroup, error)
	ListActiveGroups(ctx context.Context, filter groupsdomain.ListFilter) ([]groupsdomain.SavingsGroup, int64, error)
	ListMembers(ctx context.Context, userID, groupID string) ([]groupsdomain.Membership, error)
	MaterializePayoutOrder(ctx context.Context, groupID string) ([]groupsdomain.PayoutSlot, error)
	ListPayoutOrder(ctx context.Context, userID, groupID string) ([]groupsdomain.PayoutSlot, error)
	SubmitJoinRequest(ctx context.Context, userID, groupID string) (*groupsdomain.JoinRequest, bool, error)
	CancelJoinRequest(ctx context.Context, userID, requestID string) (*groupsdomain.JoinRequest, error)
	ListPendingRequests(ctx context.Context, adminID, groupID string) ([]groupsdomain.JoinRequest, error)
	HandleJoinRequest(ctx context.Context, adminID, requestID string, action groupsdomain.Action) (*groupsdomain.JoinRequest, error)
}

type ContributionsService interface {
	Submit(ctx context.Context, userID, groupID string) (*contributionsdomain.Contribution, error)
	Verify(ctx context.Context, adminID, contributionID string) (*contributionsdomain.Contribution, error)
	ListForCycle(ctx context.Context, userID, groupID string, cycleNumber int) ([]contributionsdomain.Contribution, error)
	Progress(ctx context.Context, userID, groupID string) (*contributionsdomain.Progress, error)
}

type PayoutsService interface {
	RunOnce(ctx context.Context) (payoutsdomain.TickReport, error)
	History(ctx context.Context, groupID string) ([]payoutsdomain.Record, error)
}

type Handlers struct {
	Accounts      AccountsService
	Groups        GroupsService
	Contributions ContributionsService
	Payouts       PayoutsService
	log           logger.Logger
	startedAt     time.Time
}

func New(accounts AccountsService, groups GroupsService, contributions ContributionsService, payouts PayoutsService, log logger.Logger) *Handlers {
	return &Handlers{
		Accounts:      accounts,
		Groups:        groups,
		Contributions: contributions,
		Payouts:       payouts,
		log:           log,
		startedAt:     time.Now(),
	}
}
