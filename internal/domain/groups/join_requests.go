package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"susu-app-go/internal/domain/notification"
)

// SubmitJoinRequest files a request to join an active group. A rejected or
// cancelled request is reopened rather than duplicated; the boolean reports
// that case.
func (s *Service) SubmitJoinRequest(ctx context.Context, userID, groupID string) (*JoinRequest, bool, error) {
	group, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, false, err
	}
	if group.Status != StatusActive {
		return nil, false, ErrGroupNotActive
	}

	if _, err := s.repo.GetMember(ctx, groupID, userID); err == nil {
		return nil, false, ErrAlreadyMember
	} else if !errors.Is(err, ErrNotMember) {
		return nil, false, err
	}

	if group.IsFull() {
		return nil, false, ErrGroupFull
	}

	now := s.now().UTC()
	existing, err := s.repo.GetJoinRequestByUser(ctx, groupID, userID)
	if err != nil && !errors.Is(err, ErrJoinRequestNotFound) {
		return nil, false, err
	}

	var (
		request     *JoinRequest
		resubmitted bool
	)
	if existing != nil {
		switch existing.Status {
		case RequestPending:
			return nil, false, ErrRequestPending
		case RequestApproved:
			return nil, false, ErrRequestAlreadyApproved
		}
		existing.Status = RequestPending
		existing.RequestedAt = now
		existing.HandledBy = nil
		existing.HandledAt = nil
		if err := s.repo.UpdateJoinRequest(ctx, existing); err != nil {
			return nil, false, err
		}
		request, resubmitted = existing, true
	} else {
		request = &JoinRequest{
			ID:          uuid.NewString(),
			GroupID:     groupID,
			UserID:      userID,
			Status:      RequestPending,
			RequestedAt: now,
		}
		if err := s.repo.CreateJoinRequest(ctx, request); err != nil {
			return nil, false, err
		}
	}

	data := groupData(group)
	data["request_id"] = request.ID
	data["requester_id"] = userID
	s.notify(ctx, group.AdminID, notification.TemplateJoinRequested, data)

	return request, resubmitted, nil
}

func (s *Service) CancelJoinRequest(ctx context.Context, userID, requestID string) (*JoinRequest, error) {
	request, err := s.repo.GetJoinRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.UserID != userID {
		return nil, ErrJoinRequestNotFound
	}
	if request.Status != RequestPending {
		return nil, ErrRequestAlreadyHandled
	}

	now := s.now().UTC()
	request.Status = RequestCancelled
	request.HandledAt = &now
	if err := s.repo.UpdateJoinRequest(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *Service) ListPendingRequests(ctx context.Context, adminID, groupID string) ([]JoinRequest, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.AdminID != adminID {
		return nil, ErrNotGroupAdmin
	}
	return s.repo.ListJoinRequests(ctx, groupID, RequestPending)
}

func ParseAction(value string) (Action, error) {
	action := Action(strings.ToLower(strings.TrimSpace(value)))
	switch action {
	case ActionApprove, ActionReject:
		return action, nil
	}
	return "", ErrInvalidAction
}

// HandleJoinRequest approves or rejects a pending request. Approval happens
// under the group row lock: the capacity check, membership insert, counter
// increment and request update commit together, and the group starts when
// the last seat is filled.
func (s *Service) HandleJoinRequest(ctx context.Context, adminID, requestID string, action Action) (*JoinRequest, error) {
	if action != ActionApprove && action != ActionReject {
		return nil, ErrInvalidAction
	}

	var (
		result  JoinRequest
		group   SavingsGroup
		started bool
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		request, err := tx.GetJoinRequest(ctx, requestID)
		if err != nil {
			return err
		}
		locked, err := tx.LockGroup(ctx, request.GroupID)
		if err != nil {
			return err
		}
		if locked.AdminID != adminID {
			return ErrNotGroupAdmin
		}
		if request.Status != RequestPending {
			return ErrRequestAlreadyHandled
		}

		now := s.now().UTC()
		request.HandledBy = &adminID
		request.HandledAt = &now

		if action == ActionReject {
			request.Status = RequestRejected
			if err := tx.UpdateJoinRequest(ctx, request); err != nil {
				return err
			}
			result, group = *request, *locked
			return nil
		}

		if locked.Status != StatusActive {
			return ErrGroupNotActive
		}
		if locked.IsFull() {
			return ErrGroupFull
		}
		if err := tx.AddMember(ctx, &Membership{GroupID: locked.ID, UserID: request.UserID, JoinedAt: now}); err != nil {
			return err
		}
		incremented, err := tx.IncrementMembers(ctx, locked.ID)
		if err != nil {
			return err
		}
		if !incremented {
			return ErrGroupFull
		}
		locked.CurrentMembers++

		request.Status = RequestApproved
		if err := tx.UpdateJoinRequest(ctx, request); err != nil {
			return err
		}

		started, err = s.startIfFull(ctx, tx, locked)
		if err != nil {
			return fmt.Errorf("start group: %w", err)
		}

		result, group = *request, *locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Delete(group.ID)

	template := notification.TemplateJoinApproved
	if result.Status == RequestRejected {
		template = notification.TemplateJoinRejected
	}
	s.notify(ctx, result.UserID, template, groupData(&group))
	if started {
		s.notifyStarted(ctx, &group)
	}

	return &result, nil
}
