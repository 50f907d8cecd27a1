package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"susu-app-go/internal/transport/httpserver/middleware"
)

func (h *Handlers) SubmitContribution(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	contribution, err := h.Contributions.Submit(r.Context(), user.ID, groupID)
	if err != nil {
		h.fail(w, "contributions.submit: submit failed", err, "user_id", user.ID, "group_id", groupID)
		return
	}
	writeJSON(w, http.StatusCreated, toContributionResponse(*contribution))
}

// ListContributions reads ?cycle=N; without it the current cycle is listed.
func (h *Handlers) ListContributions(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	cycleNumber, err := parseIntParam(r.URL.Query().Get("cycle"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "cycle must be a non-negative integer")
		return
	}

	contributions, err := h.Contributions.ListForCycle(r.Context(), user.ID, groupID, cycleNumber)
	if err != nil {
		h.fail(w, "contributions.list: list failed", err, "user_id", user.ID, "group_id", groupID, "cycle", cycleNumber)
		return
	}
	writeJSON(w, http.StatusOK, toContributionResponses(contributions))
}

func (h *Handlers) VerifyContribution(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	contributionID := chi.URLParam(r, "contribution_id")

	contribution, err := h.Contributions.Verify(r.Context(), user.ID, contributionID)
	if err != nil {
		h.fail(w, "contributions.verify: verify failed", err, "user_id", user.ID, "contribution_id", contributionID)
		return
	}
	writeJSON(w, http.StatusOK, toContributionResponse(*contribution))
}
