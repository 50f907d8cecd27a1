package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"susu-app-go/internal/transport/httpserver/middleware"
)

func (h *Handlers) ApproveGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	group, err := h.Groups.ApproveGroup(r.Context(), user.ID, groupID)
	if err != nil {
		h.fail(w, "admin.approve_group: approve failed", err, "staff_id", user.ID, "group_id", groupID)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(*group))
}

func (h *Handlers) SuspendGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")

	group, err := h.Groups.SuspendGroup(r.Context(), groupID)
	if err != nil {
		h.fail(w, "admin.suspend_group: suspend failed", err, "group_id", groupID)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(*group))
}

func (h *Handlers) RejectGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")

	group, err := h.Groups.RejectGroup(r.Context(), groupID)
	if err != nil {
		h.fail(w, "admin.reject_group: reject failed", err, "group_id", groupID)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(*group))
}

// MaterializePayoutOrder returns an existing order unchanged.
func (h *Handlers) MaterializePayoutOrder(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")

	slots, err := h.Groups.MaterializePayoutOrder(r.Context(), groupID)
	if err != nil {
		h.fail(w, "admin.payout_order: materialize failed", err, "group_id", groupID)
		return
	}
	writeJSON(w, http.StatusOK, toPayoutSlotResponses(slots))
}

// RunPayouts triggers one scheduler tick. Per-group failures are reported in
// the body with a 200; only a failure to list groups is a 500.
func (h *Handlers) RunPayouts(w http.ResponseWriter, r *http.Request) {
	report, err := h.Payouts.RunOnce(r.Context())
	if err != nil && len(report.Results) == 0 {
		h.fail(w, "admin.run_payouts: tick failed", err)
		return
	}
	if err != nil {
		h.log.Warn("admin.run_payouts: tick finished with errors", "err", err)
	}
	writeJSON(w, http.StatusOK, toTickReportResponse(report))
}
