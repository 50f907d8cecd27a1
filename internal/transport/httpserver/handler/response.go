package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"susu-app-go/internal/auth"
	accountsdomain "susu-app-go/internal/domain/accounts"
	contributionsdomain "susu-app-go/internal/domain/contributions"
	groupsdomain "susu-app-go/internal/domain/groups"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{groupsdomain.ErrGroupNotFound, http.StatusNotFound, "group_not_found"},
	{groupsdomain.ErrJoinRequestNotFound, http.StatusNotFound, "join_request_not_found"},
	{groupsdomain.ErrPayoutOrderNotFound, http.StatusNotFound, "payout_order_not_found"},
	{contributionsdomain.ErrContributionNotFound, http.StatusNotFound, "contribution_not_found"},
	{accountsdomain.ErrUserNotFound, http.StatusNotFound, "user_not_found"},

	{groupsdomain.ErrNotGroupAdmin, http.StatusForbidden, "not_group_admin"},
	{groupsdomain.ErrNotMember, http.StatusForbidden, "not_member"},

	{groupsdomain.ErrGroupFull, http.StatusConflict, "group_full"},
	{groupsdomain.ErrAlreadyMember, http.StatusConflict, "already_member"},
	{groupsdomain.ErrRequestPending, http.StatusConflict, "request_pending"},
	{groupsdomain.ErrRequestAlreadyApproved, http.StatusConflict, "request_already_approved"},
	{groupsdomain.ErrRequestAlreadyHandled, http.StatusConflict, "request_already_handled"},
	{groupsdomain.ErrInvalidStatusTransition, http.StatusConflict, "invalid_status_transition"},
	{contributionsdomain.ErrAlreadyContributed, http.StatusConflict, "already_contributed"},
	{contributionsdomain.ErrAlreadyVerified, http.StatusConflict, "already_verified"},
	{accountsdomain.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{accountsdomain.ErrMomoNumberTaken, http.StatusConflict, "momo_number_taken"},

	{groupsdomain.ErrInvalidInput, http.StatusBadRequest, "invalid_request"},
	{groupsdomain.ErrInvalidAction, http.StatusBadRequest, "invalid_action"},
	{groupsdomain.ErrGroupNotActive, http.StatusBadRequest, "group_not_active"},
	{groupsdomain.ErrGroupNotFull, http.StatusBadRequest, "group_not_full"},
	{groupsdomain.ErrKYCRequired, http.StatusBadRequest, "kyc_required"},
	{contributionsdomain.ErrGroupNotStarted, http.StatusBadRequest, "group_not_started"},
	{contributionsdomain.ErrInvalidCycle, http.StatusBadRequest, "invalid_cycle"},
	{accountsdomain.ErrInvalidInput, http.StatusBadRequest, "invalid_request"},
	{accountsdomain.ErrPasswordsDiffer, http.StatusBadRequest, "passwords_differ"},
	{accountsdomain.ErrInvalidOTP, http.StatusBadRequest, "invalid_otp"},

	{accountsdomain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{accountsdomain.ErrNotVerified, http.StatusUnauthorized, "account_not_verified"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{auth.ErrMissingToken, http.StatusUnauthorized, "missing_token"},

	{groupsdomain.ErrKYCUploadFailed, http.StatusBadGateway, "kyc_upload_failed"},
	{accountsdomain.ErrOTPSendFailed, http.StatusBadGateway, "otp_send_failed"},
}

// fail maps known domain errors to their status and logs the rest as
// internal errors.
func (h *Handlers) fail(w http.ResponseWriter, op string, err error, args ...any) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}
		message := err.Error()
		if m.status >= http.StatusInternalServerError {
			h.log.InternalError(op, err, args...)
			message = m.err.Error()
		} else {
			h.log.BusinessError(op, err, args...)
		}
		writeError(w, m.status, m.code, message)
		return
	}

	h.log.InternalError(op, err, args...)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
