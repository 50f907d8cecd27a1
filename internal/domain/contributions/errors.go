package contributions

import "errors"

var (
	ErrContributionNotFound = errors.New("contribution not found")
	ErrAlreadyContributed   = errors.New("already contributed for this cycle")
	ErrAlreadyVerified      = errors.New("contribution already verified")
	ErrGroupNotStarted      = errors.New("group has not started")
	ErrInvalidCycle         = errors.New("invalid cycle number")
)
