package groups

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"susu-app-go/internal/domain/notification"
)

type fakeRepo struct {
	txMu sync.Mutex
	mu   sync.Mutex

	groups   map[string]*SavingsGroup
	members  []Membership
	requests map[string]*JoinRequest
	orders   []PayoutOrder
	kyc      map[string]*AdminKYC
	nextID   int64

	// staleIncrement makes IncrementMembers lose its compare-and-set.
	staleIncrement bool
}

type fakeState struct {
	groups   map[string]SavingsGroup
	members  []Membership
	requests map[string]JoinRequest
	orders   []PayoutOrder
	kyc      map[string]AdminKYC
	nextID   int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		groups:   make(map[string]*SavingsGroup),
		requests: make(map[string]*JoinRequest),
		kyc:      make(map[string]*AdminKYC),
	}
}

func (r *fakeRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	saved := r.snapshot()
	if err := fn(r); err != nil {
		r.restore(saved)
		return err
	}
	return nil
}

func (r *fakeRepo) snapshot() fakeState {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := fakeState{
		groups:   make(map[string]SavingsGroup, len(r.groups)),
		members:  append([]Membership(nil), r.members...),
		requests: make(map[string]JoinRequest, len(r.requests)),
		orders:   append([]PayoutOrder(nil), r.orders...),
		kyc:      make(map[string]AdminKYC, len(r.kyc)),
		nextID:   r.nextID,
	}
	for id, group := range r.groups {
		state.groups[id] = *group
	}
	for id, request := range r.requests {
		state.requests[id] = *request
	}
	for id, kyc := range r.kyc {
		state.kyc[id] = *kyc
	}
	return state
}

func (r *fakeRepo) restore(state fakeState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups = make(map[string]*SavingsGroup, len(state.groups))
	for id, group := range state.groups {
		copied := group
		r.groups[id] = &copied
	}
	r.requests = make(map[string]*JoinRequest, len(state.requests))
	for id, request := range state.requests {
		copied := request
		r.requests[id] = &copied
	}
	r.kyc = make(map[string]*AdminKYC, len(state.kyc))
	for id, kyc := range state.kyc {
		copied := kyc
		r.kyc[id] = &copied
	}
	r.members = state.members
	r.orders = state.orders
	r.nextID = state.nextID
}

func (r *fakeRepo) CreateGroup(ctx context.Context, group *SavingsGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *group
	r.groups[group.ID] = &copied
	return nil
}

func (r *fakeRepo) GetGroup(ctx context.Context, groupID string) (*SavingsGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.groups[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}
	copied := *group
	return &copied, nil
}

func (r *fakeRepo) LockGroup(ctx context.Context, groupID string) (*SavingsGroup, error) {
	return r.GetGroup(ctx, groupID)
}

func (r *fakeRepo) ListGroupsByAdmin(ctx context.Context, adminID string) ([]SavingsGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]SavingsGroup, 0)
	for _, group := range r.groups {
		if group.AdminID == adminID {
			result = append(result, *group)
		}
	}
	return result, nil
}

func (r *fakeRepo) ListGroupsByMember(ctx context.Context, userID string) ([]SavingsGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]SavingsGroup, 0)
	for _, member := range r.members {
		if member.UserID == userID {
			result = append(result, *r.groups[member.GroupID])
		}
	}
	return result, nil
}

func (r *fakeRepo) ListActiveGroups(ctx context.Context, filter ListFilter) ([]SavingsGroup, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]SavingsGroup, 0)
	for _, group := range r.groups {
		if group.Status != StatusActive {
			continue
		}
		if filter.Frequency != "" && group.Frequency != filter.Frequency {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(group.Name+" "+group.Description), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, *group)
	}
	return result, int64(len(result)), nil
}

func (r *fakeRepo) ListStartedActiveGroups(ctx context.Context, today time.Time) ([]SavingsGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]SavingsGroup, 0)
	for _, group := range r.groups {
		if group.Status == StatusActive && group.StartDate != nil && !group.StartDate.After(today) {
			result = append(result, *group)
		}
	}
	return result, nil
}

func (r *fakeRepo) UpdateGroupStatus(ctx context.Context, groupID string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[groupID].Status = status
	return nil
}

func (r *fakeRepo) SetApproval(ctx context.Context, groupID, staffID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[groupID].ApprovedBy = &staffID
	r.groups[groupID].ApprovedAt = &at
	return nil
}

func (r *fakeRepo) SetStartDate(ctx context.Context, groupID string, start time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group := r.groups[groupID]
	if group.StartDate != nil {
		return false, nil
	}
	group.StartDate = &start
	return true, nil
}

func (r *fakeRepo) IncrementMembers(ctx context.Context, groupID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group := r.groups[groupID]
	if r.staleIncrement || group.CurrentMembers >= group.ExpectedMembers {
		return false, nil
	}
	group.CurrentMembers++
	return true, nil
}

func (r *fakeRepo) AddMember(ctx context.Context, member *Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.members {
		if existing.GroupID == member.GroupID && existing.UserID == member.UserID {
			return ErrAlreadyMember
		}
	}
	r.nextID++
	member.ID = r.nextID
	r.members = append(r.members, *member)
	return nil
}

func (r *fakeRepo) GetMember(ctx context.Context, groupID, userID string) (*Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, member := range r.members {
		if member.GroupID == groupID && member.UserID == userID {
			copied := member
			return &copied, nil
		}
	}
	return nil, ErrNotMember
}

func (r *fakeRepo) ListMembers(ctx context.Context, groupID string) ([]Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Membership, 0)
	for _, member := range r.members {
		if member.GroupID == groupID {
			result = append(result, member)
		}
	}
	return result, nil
}

func (r *fakeRepo) CreateJoinRequest(ctx context.Context, request *JoinRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.requests {
		if existing.GroupID == request.GroupID && existing.UserID == request.UserID {
			return ErrRequestPending
		}
	}
	copied := *request
	r.requests[request.ID] = &copied
	return nil
}

func (r *fakeRepo) GetJoinRequest(ctx context.Context, requestID string) (*JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[requestID]
	if !ok {
		return nil, ErrJoinRequestNotFound
	}
	copied := *request
	return &copied, nil
}

func (r *fakeRepo) GetJoinRequestByUser(ctx context.Context, groupID, userID string) (*JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, request := range r.requests {
		if request.GroupID == groupID && request.UserID == userID {
			copied := *request
			return &copied, nil
		}
	}
	return nil, ErrJoinRequestNotFound
}

func (r *fakeRepo) UpdateJoinRequest(ctx context.Context, request *JoinRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *request
	r.requests[request.ID] = &copied
	return nil
}

func (r *fakeRepo) ListJoinRequests(ctx context.Context, groupID string, status RequestStatus) ([]JoinRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]JoinRequest, 0)
	for _, request := range r.requests {
		if request.GroupID == groupID && request.Status == status {
			result = append(result, *request)
		}
	}
	return result, nil
}

func (r *fakeRepo) CountPayoutOrders(ctx context.Context, groupID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, order := range r.orders {
		if order.GroupID == groupID {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) CreatePayoutOrders(ctx context.Context, orders []PayoutOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range orders {
		for _, existing := range r.orders {
			if existing.GroupID == order.GroupID && (existing.Position == order.Position || existing.MembershipID == order.MembershipID) {
				return errors.New("duplicate payout order")
			}
		}
	}
	r.orders = append(r.orders, orders...)
	return nil
}

func (r *fakeRepo) GetPayoutSlot(ctx context.Context, groupID string, position int) (*PayoutSlot, error) {
	slots, _ := r.ListPayoutSlots(ctx, groupID)
	for _, slot := range slots {
		if slot.Position == position {
			copied := slot
			return &copied, nil
		}
	}
	return nil, ErrPayoutOrderNotFound
}

func (r *fakeRepo) ListPayoutSlots(ctx context.Context, groupID string) ([]PayoutSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]PayoutSlot, 0)
	for _, order := range r.orders {
		if order.GroupID != groupID {
			continue
		}
		for _, member := range r.members {
			if member.ID == order.MembershipID {
				result = append(result, PayoutSlot{
					Position:     order.Position,
					MembershipID: member.ID,
					UserID:       member.UserID,
					JoinedAt:     member.JoinedAt,
				})
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

func (r *fakeRepo) UpsertKYC(ctx context.Context, kyc *AdminKYC) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *kyc
	r.kyc[kyc.UserID] = &copied
	return nil
}

func (r *fakeRepo) GetKYC(ctx context.Context, userID string) (*AdminKYC, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kyc, ok := r.kyc[userID]
	if !ok {
		return nil, ErrKYCRequired
	}
	copied := *kyc
	return &copied, nil
}

func (r *fakeRepo) MarkKYCVerified(ctx context.Context, userID, staffID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kyc, ok := r.kyc[userID]; ok {
		kyc.IsManuallyVerified = true
		kyc.VerifiedBy = &staffID
		kyc.VerifiedAt = &at
	}
	return nil
}

type fakeUploader struct {
	mu      sync.Mutex
	fail    bool
	folders []string
}

func (u *fakeUploader) Upload(ctx context.Context, file io.Reader, folder, transformation string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail {
		return "", errors.New("storage unavailable")
	}
	u.folders = append(u.folders, folder)
	return "https://cdn.example/" + folder + "img.jpg", nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *recordingNotifier) Notify(ctx context.Context, msg notification.Message) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return true
}

func (n *recordingNotifier) count(userID string, template notification.Template) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, msg := range n.messages {
		if msg.UserID == userID && msg.Template == template {
			total++
		}
	}
	return total
}
