package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	groupsdomain "susu-app-go/internal/domain/groups"
	"susu-app-go/internal/transport/httpserver/middleware"
)

type joinRequestActionRequest struct {
	Action string `json:"action"`
}

// SubmitJoinRequest answers 201 for a new request and 200 when an earlier
// rejected or cancelled request was reopened.
func (h *Handlers) SubmitJoinRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	request, created, err := h.Groups.SubmitJoinRequest(r.Context(), user.ID, groupID)
	if err != nil {
		h.fail(w, "join_requests.submit: submit failed", err, "user_id", user.ID, "group_id", groupID)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toJoinRequestResponse(*request))
}

func (h *Handlers) CancelJoinRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	requestID := chi.URLParam(r, "request_id")

	request, err := h.Groups.CancelJoinRequest(r.Context(), user.ID, requestID)
	if err != nil {
		h.fail(w, "join_requests.cancel: cancel failed", err, "user_id", user.ID, "request_id", requestID)
		return
	}
	writeJSON(w, http.StatusOK, toJoinRequestResponse(*request))
}

func (h *Handlers) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	requests, err := h.Groups.ListPendingRequests(r.Context(), user.ID, groupID)
	if err != nil {
		h.fail(w, "join_requests.list: list failed", err, "user_id", user.ID, "group_id", groupID)
		return
	}
	writeJSON(w, http.StatusOK, toJoinRequestResponses(requests))
}

func (h *Handlers) HandleJoinRequest(w http.ResponseWriter, r *http.Request) {
	var req joinRequestActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	action, err := groupsdomain.ParseAction(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_action", "action must be approve or reject")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	requestID := chi.URLParam(r, "request_id")

	request, err := h.Groups.HandleJoinRequest(r.Context(), user.ID, requestID, action)
	if err != nil {
		h.fail(w, "join_requests.handle: handle failed", err, "user_id", user.ID, "request_id", requestID, "action", action)
		return
	}
	writeJSON(w, http.StatusOK, toJoinRequestResponse(*request))
}
