package contributions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"susu-app-go/internal/domain/cycle"
	groupsdomain "susu-app-go/internal/domain/groups"
	"susu-app-go/pkg/logger"
)

type Groups interface {
	GetGroup(ctx context.Context, groupID string) (*groupsdomain.SavingsGroup, error)
	Membership(ctx context.Context, groupID, userID string) (*groupsdomain.Membership, error)
	ListPayoutOrder(ctx context.Context, userID, groupID string) ([]groupsdomain.PayoutSlot, error)
}

type Service struct {
	repo   Repository
	groups Groups
	log    logger.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewService(repo Repository, groups Groups, log logger.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:   repo,
		groups: groups,
		log:    log,
		loc:    loc,
		now:    time.Now,
	}
}

func ExpectedCount(group *groupsdomain.SavingsGroup) int {
	return group.ExpectedMembers
}

func TotalPot(group *groupsdomain.SavingsGroup) decimal.Decimal {
	return group.TotalPot()
}

// IsCycleComplete never reports a cycle complete below the expected count.
// More verified contributions than expected still count as complete.
func IsCycleComplete(verified int64, expected int) bool {
	return expected > 0 && verified >= int64(expected)
}

// Submit records the caller's contribution for the group's current cycle at
// the group's fixed amount.
func (s *Service) Submit(ctx context.Context, userID, groupID string) (*Contribution, error) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Status != groupsdomain.StatusActive {
		return nil, groupsdomain.ErrGroupNotActive
	}
	if !group.Started() {
		return nil, ErrGroupNotStarted
	}

	member, err := s.groups.Membership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	cycleNumber, err := s.currentCycle(group)
	if err != nil {
		return nil, err
	}

	contribution := Contribution{
		ID:           uuid.NewString(),
		GroupID:      groupID,
		MembershipID: member.ID,
		CycleNumber:  cycleNumber,
		Amount:       group.ContributionAmount,
	}
	if err := s.repo.Create(ctx, &contribution); err != nil {
		return nil, err
	}
	return &contribution, nil
}

// Verify marks a contribution as received. Only the group admin may verify.
func (s *Service) Verify(ctx context.Context, adminID, contributionID string) (*Contribution, error) {
	contribution, err := s.repo.Get(ctx, contributionID)
	if err != nil {
		return nil, err
	}
	group, err := s.groups.GetGroup(ctx, contribution.GroupID)
	if err != nil {
		return nil, err
	}
	if group.AdminID != adminID {
		return nil, groupsdomain.ErrNotGroupAdmin
	}
	if contribution.IsVerified {
		return nil, ErrAlreadyVerified
	}

	at := s.now().UTC()
	updated, err := s.repo.MarkVerified(ctx, contributionID, adminID, at)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrAlreadyVerified
	}

	contribution.IsVerified = true
	contribution.VerifiedBy = &adminID
	contribution.VerifiedAt = &at
	return contribution, nil
}

func (s *Service) VerifiedCount(ctx context.Context, groupID string, cycleNumber int) (int64, error) {
	return s.repo.CountVerified(ctx, groupID, cycleNumber)
}

func (s *Service) Completeness(ctx context.Context, group *groupsdomain.SavingsGroup, cycleNumber int) (Completeness, error) {
	verified, err := s.VerifiedCount(ctx, group.ID, cycleNumber)
	if err != nil {
		return Completeness{}, err
	}
	expected := ExpectedCount(group)
	if verified > int64(expected) {
		s.log.Warn("contributions: more verified contributions than members",
			"group_id", group.ID, "cycle", cycleNumber, "verified", verified, "expected", expected)
	}
	return Completeness{
		CycleNumber: cycleNumber,
		Verified:    verified,
		Expected:    expected,
		Complete:    IsCycleComplete(verified, expected),
	}, nil
}

// ListForCycle lists a cycle's contributions to members and the admin. A
// cycle of zero means the current one.
func (s *Service) ListForCycle(ctx context.Context, userID, groupID string, cycleNumber int) ([]Contribution, error) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.AdminID != userID {
		if _, err := s.groups.Membership(ctx, groupID, userID); err != nil {
			return nil, err
		}
	}
	if cycleNumber < 0 {
		return nil, ErrInvalidCycle
	}
	if cycleNumber == 0 {
		if !group.Started() {
			return []Contribution{}, nil
		}
		cycleNumber, err = s.currentCycle(group)
		if err != nil {
			return nil, err
		}
	}
	return s.repo.ListForCycle(ctx, groupID, cycleNumber)
}

// Progress computes the dashboard with the same cycle arithmetic the payout
// scheduler uses.
func (s *Service) Progress(ctx context.Context, userID, groupID string) (*Progress, error) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	member, err := s.groups.Membership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	progress := Progress{
		Group:    *group,
		Started:  group.Started(),
		TotalPot: TotalPot(group),
		Completeness: Completeness{
			Expected: ExpectedCount(group),
		},
	}
	if !progress.Started {
		return &progress, nil
	}

	state, err := cycle.Evaluate(*group.StartDate, group.PayoutIntervalDays, group.ExpectedMembers, s.today())
	if err != nil {
		if errors.Is(err, cycle.ErrNotStarted) {
			progress.Started = false
			return &progress, nil
		}
		return nil, err
	}
	progress.CycleNumber = state.CycleNumber
	progress.DaysSinceStart = state.DaysSinceStart
	progress.IsPayoutDay = state.IsPayoutDay
	progress.Position = state.Position
	next := state.NextPayoutDate
	progress.NextPayoutDate = &next

	progress.Completeness, err = s.Completeness(ctx, group, state.CycleNumber)
	if err != nil {
		return nil, err
	}

	slots, err := s.groups.ListPayoutOrder(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	for i := range slots {
		if slots[i].Position == state.Position {
			progress.Beneficiary = &slots[i]
		}
		if slots[i].MembershipID == member.ID {
			progress.MyPosition = slots[i].Position
		}
	}

	mine, err := s.repo.GetForMember(ctx, member.ID, state.CycleNumber)
	if err != nil && !errors.Is(err, ErrContributionNotFound) {
		return nil, err
	}
	progress.MyContribution = mine

	return &progress, nil
}

func (s *Service) today() time.Time {
	return cycle.Today(s.now(), s.loc)
}

func (s *Service) currentCycle(group *groupsdomain.SavingsGroup) (int, error) {
	cycleNumber, err := cycle.CurrentCycleNumber(*group.StartDate, group.PayoutIntervalDays, s.today())
	if errors.Is(err, cycle.ErrNotStarted) {
		return 0, ErrGroupNotStarted
	}
	return cycleNumber, err
}
