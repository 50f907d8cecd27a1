package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"susu-app-go/internal/domain/notification"
	"susu-app-go/pkg/logger"
)

var accra = time.FixedZone("GMT", 0)

type fixture struct {
	repo     *fakeRepo
	uploader *fakeUploader
	notifier *recordingNotifier
	service  *Service
	clock    time.Time
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newFakeRepo(),
		uploader: &fakeUploader{},
		notifier: &recordingNotifier{},
		clock:    time.Date(2026, time.April, 6, 9, 0, 0, 0, time.UTC),
	}
	f.service = NewService(f.repo, f.uploader, f.notifier, logger.Nop(), Config{
		Location: accra,
		Now: func() time.Time {
			f.clock = f.clock.Add(time.Second)
			return f.clock
		},
	})
	return f
}

func kycFiles() *KYCFiles {
	return &KYCFiles{
		CardFront: strings.NewReader("front"),
		CardBack:  strings.NewReader("back"),
		LivePhoto: strings.NewReader("live"),
	}
}

func validInput(expected int) CreateGroupInput {
	return CreateGroupInput{
		Name:               "Market Women Susu",
		Description:        "weekly savings",
		ContributionAmount: decimal.RequireFromString("50.00"),
		Frequency:          FrequencyWeekly,
		ExpectedMembers:    expected,
	}
}

// activeGroup creates a group for "admin" and approves it.
func (f *fixture) activeGroup(t *testing.T, expected int) *SavingsGroup {
	t.Helper()
	ctx := context.Background()
	group, err := f.service.CreateGroup(ctx, "admin", validInput(expected), kycFiles())
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if _, err := f.service.ApproveGroup(ctx, "staff", group.ID); err != nil {
		t.Fatalf("approve group: %v", err)
	}
	return group
}

func (f *fixture) request(t *testing.T, userID, groupID string) *JoinRequest {
	t.Helper()
	request, _, err := f.service.SubmitJoinRequest(context.Background(), userID, groupID)
	if err != nil {
		t.Fatalf("submit join request for %s: %v", userID, err)
	}
	return request
}

func TestCreateGroupAdminIsFirstMember(t *testing.T) {
	f := newFixture()

	group, err := f.service.CreateGroup(context.Background(), "admin", validInput(5), kycFiles())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if group.Status != StatusPending {
		t.Fatalf("expected pending, got %s", group.Status)
	}
	if group.CurrentMembers != 1 {
		t.Fatalf("expected 1 member, got %d", group.CurrentMembers)
	}
	if group.PayoutIntervalDays != 7 {
		t.Fatalf("expected weekly default interval 7, got %d", group.PayoutIntervalDays)
	}
	if _, err := f.repo.GetMember(context.Background(), group.ID, "admin"); err != nil {
		t.Fatalf("expected admin membership, got %v", err)
	}
	kyc, err := f.repo.GetKYC(context.Background(), "admin")
	if err != nil {
		t.Fatalf("expected kyc stored: %v", err)
	}
	if kyc.IsManuallyVerified {
		t.Fatalf("expected kyc unverified before approval")
	}
	if len(f.uploader.folders) != 3 {
		t.Fatalf("expected 3 uploads, got %d", len(f.uploader.folders))
	}
}

func TestCreateGroupUploadFailureBlocksCreation(t *testing.T) {
	f := newFixture()
	f.uploader.fail = true

	_, err := f.service.CreateGroup(context.Background(), "admin", validInput(5), kycFiles())
	if !errors.Is(err, ErrKYCUploadFailed) {
		t.Fatalf("expected ErrKYCUploadFailed, got %v", err)
	}
	if len(f.repo.groups) != 0 {
		t.Fatalf("expected no group persisted, got %d", len(f.repo.groups))
	}
}

func TestCreateGroupWithoutDocumentsOnFile(t *testing.T) {
	f := newFixture()

	_, err := f.service.CreateGroup(context.Background(), "admin", validInput(5), nil)
	if !errors.Is(err, ErrKYCRequired) {
		t.Fatalf("expected ErrKYCRequired, got %v", err)
	}

	if _, err := f.service.CreateGroup(context.Background(), "admin", validInput(5), kycFiles()); err != nil {
		t.Fatalf("create with kyc: %v", err)
	}
	if _, err := f.service.CreateGroup(context.Background(), "admin", validInput(4), nil); err != nil {
		t.Fatalf("expected kyc on file to be reused, got %v", err)
	}
}

func TestCreateGroupValidation(t *testing.T) {
	cases := map[string]func(*CreateGroupInput){
		"empty name":        func(in *CreateGroupInput) { in.Name = "  " },
		"zero amount":       func(in *CreateGroupInput) { in.ContributionAmount = decimal.Zero },
		"fractional pesewa": func(in *CreateGroupInput) { in.ContributionAmount = decimal.RequireFromString("10.005") },
		"bad frequency":     func(in *CreateGroupInput) { in.Frequency = "yearly" },
		"single member":     func(in *CreateGroupInput) { in.ExpectedMembers = 1 },
		"negative interval": func(in *CreateGroupInput) { in.PayoutIntervalDays = -3 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			input := validInput(5)
			mutate(&input)

			_, err := f.service.CreateGroup(context.Background(), "admin", input, kycFiles())
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSubmitJoinRequestToFullGroup(t *testing.T) {
	f := newFixture()
	group := f.activeGroup(t, 2)
	request := f.request(t, "u1", group.ID)
	if _, err := f.service.HandleJoinRequest(context.Background(), "admin", request.ID, ActionApprove); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, _, err := f.service.SubmitJoinRequest(context.Background(), "u2", group.ID)
	if !errors.Is(err, ErrGroupFull) {
		t.Fatalf("expected ErrGroupFull, got %v", err)
	}

	stored, _ := f.repo.GetGroup(context.Background(), group.ID)
	if stored.CurrentMembers != 2 {
		t.Fatalf("expected current members unchanged at 2, got %d", stored.CurrentMembers)
	}
}

func TestResubmitRejectedRequest(t *testing.T) {
	f := newFixture()
	group := f.activeGroup(t, 4)
	request := f.request(t, "u1", group.ID)

	if _, err := f.service.HandleJoinRequest(context.Background(), "admin", request.ID, ActionReject); err != nil {
		t.Fatalf("reject: %v", err)
	}
	rejected, _ := f.repo.GetJoinRequest(context.Background(), request.ID)
	if rejected.Status != RequestRejected || rejected.HandledBy == nil || rejected.HandledAt == nil {
		t.Fatalf("expected handled rejected request, got %+v", rejected)
	}

	again, resubmitted, err := f.service.SubmitJoinRequest(context.Background(), "u1", group.ID)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if !resubmitted {
		t.Fatalf("expected resubmission flag")
	}
	if again.ID != request.ID {
		t.Fatalf("expected same request row, got %s vs %s", again.ID, request.ID)
	}
	if again.Status != RequestPending {
		t.Fatalf("expected pending, got %s", again.Status)
	}
	if !again.RequestedAt.After(request.RequestedAt) {
		t.Fatalf("expected requested_at reset, got %s (was %s)", again.RequestedAt, request.RequestedAt)
	}
	if again.HandledBy != nil || again.HandledAt != nil {
		t.Fatalf("expected handled fields cleared, got %+v", again)
	}
}

func TestSubmitJoinRequestConflicts(t *testing.T) {
	f := newFixture()
	group := f.activeGroup(t, 4)
	f.request(t, "u1", group.ID)

	if _, _, err := f.service.SubmitJoinRequest(context.Background(), "u1", group.ID); !errors.Is(err, ErrRequestPending) {
		t.Fatalf("expected ErrRequestPending, got %v", err)
	}
	if _, _, err := f.service.SubmitJoinRequest(context.Background(), "admin", group.ID); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}

	pending, err := f.service.CreateGroup(context.Background(), "admin", validInput(3), nil)
	if err != nil {
		t.Fatalf("create pending group: %v", err)
	}
	if _, _, err := f.service.SubmitJoinRequest(context.Background(), "u1", pending.ID); !errors.Is(err, ErrGroupNotActive) {
		t.Fatalf("expected ErrGroupNotActive, got %v", err)
	}
}

func TestCancelledRequestCanBeResubmitted(t *testing.T) {
	f := newFixture()
	group := f.activeGroup(t, 4)
	request := f.request(t, "u1", group.ID)

	if _, err := f.service.CancelJoinRequest(context.Background(), "u2", request.ID); !errors.Is(err, ErrJoinRequestNotFound) {
		t.Fatalf("expected other users to be unable to cancel, got %v", err)
	}
	cancelled, err := f.service.CancelJoinRequest(context.Background(), "u1", request.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != RequestCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if _, err := f.service.CancelJoinRequest(context.Background(), "u1", request.ID); !errors.Is(err, ErrRequestAlreadyHandled) {
		t.Fatalf("expected ErrRequestAlreadyHandled, got %v", err)
	}
	if _, err := f.service.HandleJoinRequest(context.Background(), "admin", request.ID, ActionApprove); !errors.Is(err, ErrRequestAlreadyHandled) {
		t.Fatalf("expected cancelled request to be unapprovable, got %v", err)
	}

	if _, resubmitted, err := f.service.SubmitJoinRequest(context.Background(), "u1", group.ID); err != nil || !resubmitted {
		t.Fatalf("expected resubmission, got resubmitted=%v err=%v", resubmitted, err)
	}
}

func TestNthApprovalStartsGroup(t *testing.T) {
	f := newFixture()
	group := f.activeGroup(t, 3)
	first := f.request(t, "u1", group.ID)
	second := f.request(t, "u2", group.ID)

	if _, err := f.service.HandleJoinRequest(context.Background(), "admin", first.ID, ActionApprove); err != nil {
		t.Fatalf("approve first: %v", err)
	}
	stored, _ := f.repo.GetGroup(context.Background(), group.ID)
	if stored.StartDate != nil {
		t.Fatalf("expected no start date before group is full")
	}

	if _, err := f.service.HandleJoinRequest(context.Background(), "admin", second.ID, ActionApprove); err != nil {
		t.Fatalf("approve second: %v", err)
	}

	stored, _ = f.repo.GetGroup(context.Background(), group.ID)
	if stored.CurrentMembers != 3 {
		t.Fatalf("expected 3 members, got %d", stored.CurrentMembers)
	}
	if stored.StartDate == nil {
		t.Fatalf("expected start date once full")
	}
	want := time.Date(2026, time.April, 6, 0, 0, 0, 0, time.UTC)
	if !stored.StartDate.Equal(want) {
		t.Fatalf("expected start date %s, got %s", want, stored.StartDate)
	}

	slots, err := f.service.ListPayoutOrder(context.Background(), "u2", group.ID)
	if err != nil {
		t.Fatalf("list payout order: %v", err)
	}
	wantOrder := []string{"admin", "u1", "u2"}
	if len(slots) != len(wantOrder) {
		t.Fatalf("expected %d slots, got %d", len(wantOrder), len(slots))
	}
	for i, slot := range slots {
		if slot.Position != i+1 || slot.UserID != wantOrder[i] {
			t.Fatalf("slot %d: expected position %d for %s, got %+v", i, i+1, wantOrder[i], slot)
		}
	}

	for _, user := range wantOrder {
		if f.notifier.count(user, notification.TemplateGroupStarted) != 1 {
			t.Fatalf("expected %s to be told the group started", user)
		}
	}
	if f.notifier.count("u2", notification.TemplateJoinApproved) != 1 {
		t.Fatalf("expected approval notice for u2")
	}
}

func TestApprovalBlockedWhenGroupFull(t *testing.T) {
	f := newFixture()
	group := f.activeGroup(t, 2)
	first := f.request(t, "u1", group.ID)
	second := f.request(t, "u2", group.ID)

	if _, err := f.service.HandleJoinRequest(context.Background(), "admin", first.ID, ActionApprove); err != nil {
		t.Fatalf("approve first: %v", err)
	}
	if _, err := f.service.HandleJoinRequest(context.Background(), "admin", second.ID, ActionApprove); !errors.Is(err, ErrGroupFull) {
		t.Fatalf("expected ErrGroupFull, got %v", err)
	}

	stillPending, _ := f.repo.GetJoinRequest(context.Background(), second.ID)
	if stillPending.Status != RequestPending {
		t.Fatalf("expected request to stay pending, got %s", stillPending.Status)
	}
	stored, _ := f.repo.GetGroup(context.Background(), group.ID)
	if stored.CurrentMembers != 2 {
		t.Fatalf("expected 2 members, got %d", stored.CurrentMembers)
	}
}

func TestConcurrentApprovalsRespectCap(t *testing.T) {
	f := newFixture()
	group := f.activeGroup(t, 3)

	requests := make([]*JoinRequest, 0, 6)
	for i := 0; i < 6; i++ {
		requests = append(requests, f.request(t, fmt.Sprintf("u%d", i), group.ID))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		approved  int
		rejectedN int
	)
	for _, request := range requests {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.service.HandleJoinRequest(context.Background(), "admin", id, ActionApprove)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				approved++
			case errors.Is(err, ErrGroupFull):
				rejectedN++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(request.ID)
	}
	wg.Wait()

	if approved != 2 || rejectedN != 4 {
		t.Fatalf("expected 2 approvals and 4 full errors, got %d and %d", approved, rejectedN)
	}
	stored, _ := f.repo.GetGroup(context.Background(), group.ID)
	if stored.CurrentMembers != stored.ExpectedMembers {
		t.Fatalf("expected current == expected, got %d/%d", stored.CurrentMembers, stored.ExpectedMembers)
	}
	members, _ := f.repo.ListMembers(context.Background(), group.ID)
	if len(members) != 3 {
		t.Fatalf("expected 3 memberships, got %d", len(members))
	}
}

func TestHandleJoinRequestRequiresGroupAdmin(t *testing.T) {
	f := newFixture()
	group := f.activeGroup(t, 3)
	request := f.request(t, "u1", group.ID)

	if _, err := f.service.HandleJoinRequest(context.Background(), "u9", request.ID, ActionApprove); !errors.Is(err, ErrNotGroupAdmin) {
		t.Fatalf("expected ErrNotGroupAdmin, got %v", err)
	}
	if _, err := f.service.ListPendingRequests(context.Background(), "u9", group.ID); !errors.Is(err, ErrNotGroupAdmin) {
		t.Fatalf("expected ErrNotGroupAdmin for listing, got %v", err)
	}
	if _, err := f.service.HandleJoinRequest(context.Background(), "admin", request.ID, Action("maybe")); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}

	pending, err := f.service.ListPendingRequests(context.Background(), "admin", group.ID)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(pending))
	}
}

func TestFailedApprovalLeavesNoPartialWrites(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	group := f.activeGroup(t, 3)
	request := f.request(t, "u1", group.ID)

	f.repo.staleIncrement = true
	if _, err := f.service.HandleJoinRequest(ctx, "admin", request.ID, ActionApprove); !errors.Is(err, ErrGroupFull) {
		t.Fatalf("expected ErrGroupFull, got %v", err)
	}

	if _, err := f.repo.GetMember(ctx, group.ID, "u1"); err == nil {
		t.Fatal("expected membership insert to be rolled back")
	}
	stored, _ := f.repo.GetGroup(ctx, group.ID)
	if stored.CurrentMembers != 1 {
		t.Fatalf("expected member count to stay at 1, got %d", stored.CurrentMembers)
	}
	pending, _ := f.repo.GetJoinRequest(ctx, request.ID)
	if pending.Status != RequestPending || pending.HandledBy != nil {
		t.Fatalf("expected request to stay pending and unhandled, got %+v", pending)
	}

	f.repo.staleIncrement = false
	approved, err := f.service.HandleJoinRequest(ctx, "admin", request.ID, ActionApprove)
	if err != nil {
		t.Fatalf("approve after rollback: %v", err)
	}
	if approved.Status != RequestApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	members, _ := f.repo.ListMembers(ctx, group.ID)
	if len(members) != 2 {
		t.Fatalf("expected 2 memberships, got %d", len(members))
	}
}

func TestApproveGroupStartsAlreadyFullGroup(t *testing.T) {
	f := newFixture()
	group := f.activeGroup(t, 2)
	if _, err := f.service.SuspendGroup(context.Background(), group.ID); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	// Fill the suspended group directly, as if the last seat was taken before suspension.
	if err := f.repo.AddMember(context.Background(), &Membership{GroupID: group.ID, UserID: "u1", JoinedAt: f.clock}); err != nil {
		t.Fatalf("add member: %v", err)
	}
	f.repo.groups[group.ID].CurrentMembers = 2

	approved, err := f.service.ApproveGroup(context.Background(), "staff", group.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != StatusActive || approved.StartDate == nil {
		t.Fatalf("expected active started group, got %+v", approved)
	}
	count, _ := f.repo.CountPayoutOrders(context.Background(), group.ID)
	if count != 2 {
		t.Fatalf("expected 2 payout orders, got %d", count)
	}
	kyc, _ := f.repo.GetKYC(context.Background(), "admin")
	if !kyc.IsManuallyVerified || kyc.VerifiedBy == nil || *kyc.VerifiedBy != "staff" {
		t.Fatalf("expected kyc verified by staff, got %+v", kyc)
	}
}

func TestGroupStatusTransitions(t *testing.T) {
	f := newFixture()
	group := f.activeGroup(t, 3)

	if _, err := f.service.ApproveGroup(context.Background(), "staff", group.ID); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected approving an active group to fail, got %v", err)
	}
	if _, err := f.service.RejectGroup(context.Background(), group.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := f.service.ApproveGroup(context.Background(), "staff", group.ID); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected rejected to be terminal, got %v", err)
	}
	if _, err := f.service.SuspendGroup(context.Background(), group.ID); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected suspend of rejected group to fail, got %v", err)
	}

	stored, _ := f.repo.GetGroup(context.Background(), group.ID)
	if stored.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", stored.Status)
	}
	members, _ := f.repo.ListMembers(context.Background(), group.ID)
	if len(members) != 1 {
		t.Fatalf("expected memberships untouched, got %d", len(members))
	}
}

func TestMaterializeIsIdempotent(t *testing.T) {
	f := newFixture()
	group := f.activeGroup(t, 2)
	request := f.request(t, "u1", group.ID)
	if _, err := f.service.HandleJoinRequest(context.Background(), "admin", request.ID, ActionApprove); err != nil {
		t.Fatalf("approve: %v", err)
	}

	slots, err := f.service.MaterializePayoutOrder(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("materialize again: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	count, _ := f.repo.CountPayoutOrders(context.Background(), group.ID)
	if count != 2 {
		t.Fatalf("expected 2 payout orders after repeat, got %d", count)
	}
}

func TestMaterializeRequiresFullGroup(t *testing.T) {
	f := newFixture()
	group := f.activeGroup(t, 3)

	if _, err := f.service.MaterializePayoutOrder(context.Background(), group.ID); !errors.Is(err, ErrGroupNotFull) {
		t.Fatalf("expected ErrGroupNotFull, got %v", err)
	}
}

func TestMaterializeBreaksTiesByMembershipID(t *testing.T) {
	f := newFixture()
	joined := time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC)
	f.repo.groups["g1"] = &SavingsGroup{ID: "g1", AdminID: "c", ExpectedMembers: 3, CurrentMembers: 3, Status: StatusActive}
	for _, user := range []string{"c", "a", "b"} {
		if err := f.repo.AddMember(context.Background(), &Membership{GroupID: "g1", UserID: user, JoinedAt: joined}); err != nil {
			t.Fatalf("add member: %v", err)
		}
	}

	slots, err := f.service.MaterializePayoutOrder(context.Background(), "g1")
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	for i, want := range []string{"c", "a", "b"} {
		if slots[i].UserID != want {
			t.Fatalf("position %d: expected %s, got %s", i+1, want, slots[i].UserID)
		}
	}

	beneficiary, err := f.service.BeneficiaryForPosition(context.Background(), "g1", 2)
	if err != nil {
		t.Fatalf("beneficiary: %v", err)
	}
	if beneficiary.UserID != "a" {
		t.Fatalf("expected a at position 2, got %s", beneficiary.UserID)
	}
	if _, err := f.service.BeneficiaryForPosition(context.Background(), "g1", 4); !errors.Is(err, ErrPayoutOrderNotFound) {
		t.Fatalf("expected ErrPayoutOrderNotFound, got %v", err)
	}
}

func TestGroupDetailVisibility(t *testing.T) {
	f := newFixture()
	group := f.activeGroup(t, 3)
	f.request(t, "u1", group.ID)

	detail, err := f.service.GroupDetail(context.Background(), "u1", group.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.IsMember || detail.Members != nil {
		t.Fatalf("expected outsider view without members, got %+v", detail)
	}
	if detail.RequestStatus == nil || *detail.RequestStatus != RequestPending {
		t.Fatalf("expected pending request status in outsider view")
	}

	adminView, err := f.service.GroupDetail(context.Background(), "admin", group.ID)
	if err != nil {
		t.Fatalf("admin detail: %v", err)
	}
	if !adminView.IsAdmin || len(adminView.Members) != 1 {
		t.Fatalf("expected admin view with members, got %+v", adminView)
	}

	pending, _ := f.service.CreateGroup(context.Background(), "admin", validInput(3), nil)
	if _, err := f.service.GroupDetail(context.Background(), "u1", pending.ID); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("expected pending group hidden from outsiders, got %v", err)
	}
	if _, err := f.service.ListMembers(context.Background(), "u1", group.ID); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

func TestParseAction(t *testing.T) {
	if action, err := ParseAction(" Approve "); err != nil || action != ActionApprove {
		t.Fatalf("expected approve, got %q %v", action, err)
	}
	if _, err := ParseAction("ban"); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}
