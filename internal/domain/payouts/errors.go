package payouts

import "errors"

var ErrMissingBeneficiary = errors.New("no payout order row for position")
