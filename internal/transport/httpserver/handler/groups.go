package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	groupsdomain "susu-app-go/internal/domain/groups"
	"susu-app-go/internal/transport/httpserver/middleware"
)

type createGroupRequest struct {
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	ContributionAmount decimal.Decimal `json:"contribution_amount"`
	Frequency          string          `json:"frequency"`
	PayoutIntervalDays int             `json:"payout_interval_days"`
	ExpectedMembers    int             `json:"expected_members"`
}

var kycFields = []string{"card_front", "card_back", "live_photo"}

// CreateGroup accepts JSON when the admin's KYC documents are already on file
// and multipart/form-data carrying card_front, card_back and live_photo
// otherwise.
func (h *Handlers) CreateGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var (
		req createGroupRequest
		kyc *groupsdomain.KYCFiles
	)
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_form", "invalid multipart form")
			return
		}
		parsed, err := createGroupFromForm(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		req = parsed

		files, closers, err := kycFromForm(r)
		defer func() {
			for _, c := range closers {
				_ = c.Close()
			}
		}()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_form", err.Error())
			return
		}
		kyc = files
	} else if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	group, err := h.Groups.CreateGroup(r.Context(), user.ID, groupsdomain.CreateGroupInput{
		Name:               req.Name,
		Description:        req.Description,
		ContributionAmount: req.ContributionAmount,
		Frequency:          groupsdomain.Frequency(req.Frequency),
		PayoutIntervalDays: req.PayoutIntervalDays,
		ExpectedMembers:    req.ExpectedMembers,
	}, kyc)
	if err != nil {
		h.fail(w, "groups.create: create group failed", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupResponse(*group))
}

func createGroupFromForm(r *http.Request) (createGroupRequest, error) {
	req := createGroupRequest{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Frequency:   r.FormValue("frequency"),
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("contribution_amount")))
	if err != nil {
		return req, errors.New("contribution_amount must be a decimal")
	}
	req.ContributionAmount = amount

	if req.ExpectedMembers, err = strconv.Atoi(strings.TrimSpace(r.FormValue("expected_members"))); err != nil {
		return req, errors.New("expected_members must be an integer")
	}
	if req.PayoutIntervalDays, err = parseIntParam(r.FormValue("payout_interval_days"), 0); err != nil {
		return req, errors.New("payout_interval_days must be a non-negative integer")
	}
	return req, nil
}

// kycFromForm returns nil files when no KYC part was uploaded at all.
func kycFromForm(r *http.Request) (*groupsdomain.KYCFiles, []io.Closer, error) {
	var (
		readers []io.Reader
		closers []io.Closer
	)
	for _, field := range kycFields {
		file, _, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			readers = append(readers, nil)
			continue
		}
		if err != nil {
			return nil, closers, errors.New("invalid " + field)
		}
		closers = append(closers, file)
		readers = append(readers, file)
	}
	if len(closers) == 0 {
		return nil, nil, nil
	}
	return &groupsdomain.KYCFiles{
		CardFront: readers[0],
		CardBack:  readers[1],
		LivePhoto: readers[2],
	}, closers, nil
}

func (h *Handlers) ListActiveGroups(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset, err := parsePage(query.Get("limit"), query.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	expected, err := parseIntParam(query.Get("expected_members"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "expected_members must be a non-negative integer")
		return
	}
	amount, err := parseDecimalParam(query.Get("contribution_amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "contribution_amount must be a decimal")
		return
	}

	groups, total, err := h.Groups.ListActiveGroups(r.Context(), groupsdomain.ListFilter{
		Frequency:          groupsdomain.Frequency(strings.ToLower(strings.TrimSpace(query.Get("frequency")))),
		ExpectedMembers:    expected,
		ContributionAmount: amount,
		Search:             query.Get("search"),
		Limit:              limit,
		Offset:             offset,
	})
	if err != nil {
		h.fail(w, "groups.list_active: list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, groupListResponse{Items: toGroupResponses(groups), Total: total})
}

func (h *Handlers) ListMyGroups(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	groups, err := h.Groups.ListMyGroups(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "groups.list_mine: list failed", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, groupListResponse{Items: toGroupResponses(groups), Total: int64(len(groups))})
}

func (h *Handlers) ListAdminGroups(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	groups, err := h.Groups.ListAdminGroups(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "groups.list_admin: list failed", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, groupListResponse{Items: toGroupResponses(groups), Total: int64(len(groups))})
}

func (h *Handlers) GetGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	detail, err := h.Groups.GroupDetail(r.Context(), user.ID, groupID)
	if err != nil {
		h.fail(w, "groups.get: load detail failed", err, "user_id", user.ID, "group_id", groupID)
		return
	}
	writeJSON(w, http.StatusOK, toGroupDetailResponse(detail))
}

func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	members, err := h.Groups.ListMembers(r.Context(), user.ID, groupID)
	if err != nil {
		h.fail(w, "groups.members: list failed", err, "user_id", user.ID, "group_id", groupID)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponses(members))
}

func (h *Handlers) ListPayoutOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	slots, err := h.Groups.ListPayoutOrder(r.Context(), user.ID, groupID)
	if err != nil {
		h.fail(w, "groups.payout_order: list failed", err, "user_id", user.ID, "group_id", groupID)
		return
	}
	writeJSON(w, http.StatusOK, toPayoutSlotResponses(slots))
}

func (h *Handlers) ListPayouts(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	members, err := h.Groups.ListMembers(r.Context(), user.ID, groupID)
	if err != nil {
		h.fail(w, "groups.payouts: access check failed", err, "user_id", user.ID, "group_id", groupID)
		return
	}
	records, err := h.Payouts.History(r.Context(), groupID)
	if err != nil {
		h.fail(w, "groups.payouts: list failed", err, "user_id", user.ID, "group_id", groupID)
		return
	}

	byMembership := make(map[int64]string, len(members))
	for _, member := range members {
		byMembership[member.ID] = member.UserID
	}
	items := make([]payoutRecordResponse, 0, len(records))
	for _, record := range records {
		items = append(items, toPayoutRecordResponse(record, byMembership))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) GetProgress(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	groupID := chi.URLParam(r, "group_id")

	progress, err := h.Contributions.Progress(r.Context(), user.ID, groupID)
	if err != nil {
		h.fail(w, "groups.progress: load failed", err, "user_id", user.ID, "group_id", groupID)
		return
	}
	writeJSON(w, http.StatusOK, toProgressResponse(progress))
}
