package groups

import "errors"

var (
	ErrGroupNotFound           = errors.New("group not found")
	ErrGroupFull               = errors.New("group is full")
	ErrGroupNotActive          = errors.New("group is not active")
	ErrGroupNotFull            = errors.New("group is not full")
	ErrAlreadyMember           = errors.New("already a member")
	ErrNotMember               = errors.New("not a member")
	ErrNotGroupAdmin           = errors.New("not group admin")
	ErrRequestPending          = errors.New("join request already pending")
	ErrRequestAlreadyApproved  = errors.New("join request already approved")
	ErrRequestAlreadyHandled   = errors.New("join request already handled")
	ErrJoinRequestNotFound     = errors.New("join request not found")
	ErrPayoutOrderNotFound     = errors.New("payout order not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidAction           = errors.New("invalid action")
	ErrInvalidInput            = errors.New("invalid input")
	ErrKYCRequired             = errors.New("kyc documents required")
	ErrKYCUploadFailed         = errors.New("kyc upload failed")
)
