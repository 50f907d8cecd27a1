package groups

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"susu-app-go/internal/domain/cycle"
	"susu-app-go/internal/domain/notification"
	"susu-app-go/pkg/logger"
)

const (
	kycFolder        = "snappx/kyc/"
	defaultCacheTTL  = 30 * time.Second
	maxNameLength    = 100
	maxExpectedCount = 100
)

type Uploader interface {
	Upload(ctx context.Context, file io.Reader, folder, transformation string) (string, error)
}

type Config struct {
	Cache    Cache
	CacheTTL time.Duration
	Location *time.Location
	Now      func() time.Time
}

type Service struct {
	repo     Repository
	uploader Uploader
	notifier notification.Sender
	log      logger.Logger
	cache    Cache
	cacheTTL time.Duration
	loc      *time.Location
	now      func() time.Time
}

func NewService(repo Repository, uploader Uploader, notifier notification.Sender, log logger.Logger, cfg Config) *Service {
	cfg = normalizeConfig(cfg)
	if notifier == nil {
		notifier = notification.Noop{}
	}
	return &Service{
		repo:     repo,
		uploader: uploader,
		notifier: notifier,
		log:      log,
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		loc:      cfg.Location,
		now:      cfg.Now,
	}
}

func normalizeConfig(cfg Config) Config {
	if cfg.Cache == nil {
		cfg.Cache = noopCache{}
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return cfg
}

func (s *Service) today() time.Time {
	return cycle.Today(s.now(), s.loc)
}

func (s *Service) CreateGroup(ctx context.Context, adminID string, input CreateGroupInput, kyc *KYCFiles) (*SavingsGroup, error) {
	input, err := normalizeCreateInput(input)
	if err != nil {
		return nil, err
	}

	var uploaded *AdminKYC
	if kyc != nil {
		uploaded, err = s.uploadKYC(ctx, adminID, kyc)
		if err != nil {
			return nil, err
		}
	} else if _, err := s.repo.GetKYC(ctx, adminID); err != nil {
		return nil, err
	}

	group := SavingsGroup{
		ID:                 uuid.NewString(),
		AdminID:            adminID,
		Name:               input.Name,
		Description:        input.Description,
		ContributionAmount: input.ContributionAmount,
		Frequency:          input.Frequency,
		PayoutIntervalDays: input.PayoutIntervalDays,
		ExpectedMembers:    input.ExpectedMembers,
		CurrentMembers:     1,
		Status:             StatusPending,
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if uploaded != nil {
			if err := tx.UpsertKYC(ctx, uploaded); err != nil {
				return err
			}
		}
		if err := tx.CreateGroup(ctx, &group); err != nil {
			return err
		}
		return tx.AddMember(ctx, &Membership{GroupID: group.ID, UserID: adminID, JoinedAt: s.now().UTC()})
	})
	if err != nil {
		return nil, err
	}

	return &group, nil
}

func normalizeCreateInput(input CreateGroupInput) (CreateGroupInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Frequency = Frequency(strings.ToLower(strings.TrimSpace(string(input.Frequency))))

	switch {
	case input.Name == "":
		return input, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case len(input.Name) > maxNameLength:
		return input, fmt.Errorf("%w: name is too long", ErrInvalidInput)
	case !input.ContributionAmount.IsPositive():
		return input, fmt.Errorf("%w: contribution amount must be positive", ErrInvalidInput)
	case !input.ContributionAmount.Equal(input.ContributionAmount.Round(2)):
		return input, fmt.Errorf("%w: contribution amount has more than two decimal places", ErrInvalidInput)
	case !input.Frequency.Valid():
		return input, fmt.Errorf("%w: frequency must be daily, weekly or monthly", ErrInvalidInput)
	case input.ExpectedMembers < 2 || input.ExpectedMembers > maxExpectedCount:
		return input, fmt.Errorf("%w: expected members must be between 2 and %d", ErrInvalidInput, maxExpectedCount)
	case input.PayoutIntervalDays < 0:
		return input, fmt.Errorf("%w: payout interval must be positive", ErrInvalidInput)
	}

	if input.PayoutIntervalDays == 0 {
		input.PayoutIntervalDays = input.Frequency.DefaultInterval()
	}
	return input, nil
}

func (s *Service) uploadKYC(ctx context.Context, adminID string, files *KYCFiles) (*AdminKYC, error) {
	if files.CardFront == nil || files.CardBack == nil || files.LivePhoto == nil {
		return nil, ErrKYCRequired
	}

	upload := func(name string, file io.Reader) (string, error) {
		url, err := s.uploader.Upload(ctx, file, kycFolder, "")
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrKYCUploadFailed, name, err)
		}
		return url, nil
	}

	front, err := upload("card_front", files.CardFront)
	if err != nil {
		return nil, err
	}
	back, err := upload("card_back", files.CardBack)
	if err != nil {
		return nil, err
	}
	live, err := upload("live_photo", files.LivePhoto)
	if err != nil {
		return nil, err
	}

	return &AdminKYC{
		UserID:       adminID,
		CardFrontURL: front,
		CardBackURL:  back,
		LivePhotoURL: live,
	}, nil
}

// ApproveGroup activates a pending or suspended group. A group that is
// already full starts immediately.
func (s *Service) ApproveGroup(ctx context.Context, staffID, groupID string) (*SavingsGroup, error) {
	var (
		result  SavingsGroup
		started bool
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		group, err := tx.LockGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if group.Status != StatusPending && group.Status != StatusSuspended {
			return ErrInvalidStatusTransition
		}

		at := s.now().UTC()
		if err := tx.UpdateGroupStatus(ctx, groupID, StatusActive); err != nil {
			return err
		}
		if err := tx.SetApproval(ctx, groupID, staffID, at); err != nil {
			return err
		}
		if err := tx.MarkKYCVerified(ctx, group.AdminID, staffID, at); err != nil {
			return err
		}
		group.Status = StatusActive
		group.ApprovedBy = &staffID
		group.ApprovedAt = &at

		started, err = s.startIfFull(ctx, tx, group)
		if err != nil {
			return err
		}

		result = *group
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Delete(groupID)
	s.notify(ctx, result.AdminID, notification.TemplateGroupApproved, groupData(&result))
	if started {
		s.notifyStarted(ctx, &result)
	}
	return &result, nil
}

func (s *Service) SuspendGroup(ctx context.Context, groupID string) (*SavingsGroup, error) {
	return s.transition(ctx, groupID, StatusSuspended, StatusActive)
}

// RejectGroup is terminal.
func (s *Service) RejectGroup(ctx context.Context, groupID string) (*SavingsGroup, error) {
	return s.transition(ctx, groupID, StatusRejected, StatusPending, StatusActive, StatusSuspended)
}

func (s *Service) transition(ctx context.Context, groupID string, to Status, from ...Status) (*SavingsGroup, error) {
	var result SavingsGroup
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		group, err := tx.LockGroup(ctx, groupID)
		if err != nil {
			return err
		}
		allowed := false
		for _, status := range from {
			if group.Status == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return ErrInvalidStatusTransition
		}
		if err := tx.UpdateGroupStatus(ctx, groupID, to); err != nil {
			return err
		}
		group.Status = to
		result = *group
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Delete(groupID)
	return &result, nil
}

func (s *Service) GetGroup(ctx context.Context, groupID string) (*SavingsGroup, error) {
	if cached, ok := s.cache.Get(groupID); ok {
		return cached, nil
	}
	group, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(groupID, group, s.cacheTTL)
	return group, nil
}

func (s *Service) GroupDetail(ctx context.Context, userID, groupID string) (*GroupDetail, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	detail := GroupDetail{
		Group:   *group,
		IsAdmin: group.AdminID == userID,
	}
	for _, member := range members {
		if member.UserID == userID {
			detail.IsMember = true
			break
		}
	}

	if !detail.IsAdmin && !detail.IsMember {
		if group.Status != StatusActive {
			return nil, ErrGroupNotFound
		}
		request, err := s.repo.GetJoinRequestByUser(ctx, groupID, userID)
		if err != nil && !errors.Is(err, ErrJoinRequestNotFound) {
			return nil, err
		}
		if request != nil {
			status := request.Status
			detail.RequestStatus = &status
		}
		return &detail, nil
	}

	detail.Members = members
	return &detail, nil
}

func (s *Service) ListAdminGroups(ctx context.Context, adminID string) ([]SavingsGroup, error) {
	return s.repo.ListGroupsByAdmin(ctx, adminID)
}

func (s *Service) ListMyGroups(ctx context.Context, userID string) ([]SavingsGroup, error) {
	return s.repo.ListGroupsByMember(ctx, userID)
}

func (s *Service) ListActiveGroups(ctx context.Context, filter ListFilter) ([]SavingsGroup, int64, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Frequency != "" && !filter.Frequency.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown frequency", ErrInvalidInput)
	}
	return s.repo.ListActiveGroups(ctx, filter)
}

// ListDueGroups returns active groups whose start date is on or before today.
// Results bypass the cache.
func (s *Service) ListDueGroups(ctx context.Context, today time.Time) ([]SavingsGroup, error) {
	return s.repo.ListStartedActiveGroups(ctx, today)
}

// Membership resolves the caller's membership and fails with ErrNotMember
// when there is none.
func (s *Service) Membership(ctx context.Context, groupID, userID string) (*Membership, error) {
	return s.repo.GetMember(ctx, groupID, userID)
}

func (s *Service) ListMembers(ctx context.Context, userID, groupID string) ([]Membership, error) {
	if err := s.CheckAccess(ctx, userID, groupID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, groupID)
}

// CheckAccess fails with ErrNotMember unless the user is the group admin or a
// member.
func (s *Service) CheckAccess(ctx context.Context, userID, groupID string) error {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.AdminID == userID {
		return nil
	}
	_, err = s.repo.GetMember(ctx, groupID, userID)
	return err
}

func (s *Service) notify(ctx context.Context, userID string, template notification.Template, data map[string]any) {
	if ok := s.notifier.Notify(ctx, notification.Message{UserID: userID, Template: template, Data: data}); !ok {
		s.log.Warn("groups: notification dropped", "user_id", userID, "template", template)
	}
}

func (s *Service) notifyStarted(ctx context.Context, group *SavingsGroup) {
	members, err := s.repo.ListMembers(ctx, group.ID)
	if err != nil {
		s.log.InternalError("groups: list members for start notice failed", err, "group_id", group.ID)
		return
	}
	data := groupData(group)
	if group.StartDate != nil {
		data["start_date"] = group.StartDate.Format(time.DateOnly)
	}
	for _, member := range members {
		s.notify(ctx, member.UserID, notification.TemplateGroupStarted, data)
	}
}

func groupData(group *SavingsGroup) map[string]any {
	return map[string]any{
		"group_id":             group.ID,
		"group_name":           group.Name,
		"contribution_amount":  group.ContributionAmount.StringFixed(2),
		"frequency":            string(group.Frequency),
		"payout_interval_days": group.PayoutIntervalDays,
		"total_pot":            group.TotalPot().StringFixed(2),
	}
}
