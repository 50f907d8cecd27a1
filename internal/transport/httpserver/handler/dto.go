package handler

import (
	"time"

	"susu-app-go/internal/auth"
	accountsdomain "susu-app-go/internal/domain/accounts"
	contributionsdomain "susu-app-go/internal/domain/contributions"
	groupsdomain "susu-app-go/internal/domain/groups"
	payoutsdomain "susu-app-go/internal/domain/payouts"
)

type userResponse struct {
	ID          string           `json:"id"`
	Email       string           `json:"email"`
	PhoneNumber string           `json:"phone_number"`
	IsVerified  bool             `json:"is_verified"`
	IsStaff     bool             `json:"is_staff"`
	CreatedAt   string           `json:"created_at"`
	Profile     *profileResponse `json:"profile,omitempty"`
}

type profileResponse struct {
	FullName          string  `json:"full_name"`
	DateOfBirth       *string `json:"date_of_birth"`
	UserType          string  `json:"user_type"`
	GhanaPostAddress  string  `json:"ghana_post_address"`
	ProfilePictureURL *string `json:"profile_picture_url"`
	MomoProvider      string  `json:"momo_provider"`
	MomoNumber        string  `json:"momo_number"`
	MomoName          string  `json:"momo_name"`
}

type tokensResponse struct {
	Access           string `json:"access"`
	Refresh          string `json:"refresh"`
	AccessExpiresAt  string `json:"access_expires_at"`
	RefreshExpiresAt string `json:"refresh_expires_at"`
}

type groupResponse struct {
	ID                 string  `json:"id"`
	AdminID            string  `json:"admin_id"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	ContributionAmount string  `json:"contribution_amount"`
	Frequency          string  `json:"frequency"`
	PayoutIntervalDays int     `json:"payout_interval_days"`
	ExpectedMembers    int     `json:"expected_members"`
	CurrentMembers     int     `json:"current_members"`
	TotalPot           string  `json:"total_pot"`
	Status             string  `json:"status"`
	StartDate          *string `json:"start_date"`
	ApprovedAt         *string `json:"approved_at"`
	CreatedAt          string  `json:"created_at"`
}

type groupListResponse struct {
	Items []groupResponse `json:"items"`
	Total int64           `json:"total"`
}

type memberResponse struct {
	ID       int64  `json:"id"`
	UserID   string `json:"user_id"`
	JoinedAt string `json:"joined_at"`
}

type groupDetailResponse struct {
	Group         groupResponse    `json:"group"`
	Members       []memberResponse `json:"members"`
	IsAdmin       bool             `json:"is_admin"`
	IsMember      bool             `json:"is_member"`
	RequestStatus *string          `json:"request_status"`
}

type payoutSlotResponse struct {
	Position     int    `json:"position"`
	MembershipID int64  `json:"membership_id"`
	UserID       string `json:"user_id"`
	JoinedAt     string `json:"joined_at"`
}

type joinRequestResponse struct {
	ID          string  `json:"id"`
	GroupID     string  `json:"group_id"`
	UserID      string  `json:"user_id"`
	Status      string  `json:"status"`
	RequestedAt string  `json:"requested_at"`
	HandledBy   *string `json:"handled_by"`
	HandledAt   *string `json:"handled_at"`
}

type contributionResponse struct {
	ID           string  `json:"id"`
	GroupID      string  `json:"group_id"`
	MembershipID int64   `json:"membership_id"`
	CycleNumber  int     `json:"cycle_number"`
	Amount       string  `json:"amount"`
	IsVerified   bool    `json:"is_verified"`
	VerifiedBy   *string `json:"verified_by"`
	VerifiedAt   *string `json:"verified_at"`
	CreatedAt    string  `json:"created_at"`
}

type progressResponse struct {
	Group          groupResponse         `json:"group"`
	Started        bool                  `json:"started"`
	CycleNumber    int                   `json:"cycle_number"`
	DaysSinceStart int                   `json:"days_since_start"`
	IsPayoutDay    bool                  `json:"is_payout_day"`
	NextPayoutDate *string               `json:"next_payout_date"`
	Position       int                   `json:"position"`
	Beneficiary    *payoutSlotResponse   `json:"beneficiary"`
	VerifiedCount  int64                 `json:"verified_count"`
	ExpectedCount  int                   `json:"expected_count"`
	CycleComplete  bool                  `json:"cycle_complete"`
	TotalPot       string                `json:"total_pot"`
	MyPosition     int                   `json:"my_position"`
	MyContribution *contributionResponse `json:"my_contribution"`
}

type payoutRecordResponse struct {
	ID                      string  `json:"id"`
	GroupID                 string  `json:"group_id"`
	CycleNumber             int     `json:"cycle_number"`
	Status                  string  `json:"status"`
	BeneficiaryMembershipID *int64  `json:"beneficiary_membership_id"`
	BeneficiaryUserID       *string `json:"beneficiary_user_id"`
	Amount                  string  `json:"amount"`
	NotifiedAt              *string `json:"notified_at"`
	DisbursedAt             *string `json:"disbursed_at"`
}

type tickResultResponse struct {
	GroupID       string `json:"group_id"`
	CycleNumber   int    `json:"cycle_number"`
	Position      int    `json:"position"`
	Outcome       string `json:"outcome"`
	BeneficiaryID string `json:"beneficiary_id,omitempty"`
	Amount        string `json:"amount,omitempty"`
	Error         string `json:"error,omitempty"`
}

type tickReportResponse struct {
	Today      string               `json:"today"`
	DurationMS int64                `json:"duration_ms"`
	Results    []tickResultResponse `json:"results"`
	Error      string               `json:"error,omitempty"`
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339)
}

func formatOptionalTime(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := formatTime(*value)
	return &formatted
}

func formatOptionalDate(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := value.Format(time.DateOnly)
	return &formatted
}

func toUserResponse(user accountsdomain.User, profile *accountsdomain.Profile) userResponse {
	resp := userResponse{
		ID:          user.ID,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		IsVerified:  user.IsVerified,
		IsStaff:     user.IsStaff,
		CreatedAt:   formatTime(user.CreatedAt),
	}
	if profile != nil {
		resp.Profile = &profileResponse{
			FullName:          profile.FullName,
			DateOfBirth:       formatOptionalDate(profile.DateOfBirth),
			UserType:          string(profile.UserType),
			GhanaPostAddress:  profile.GhanaPostAddress,
			ProfilePictureURL: profile.ProfilePictureURL,
			MomoProvider:      string(profile.MomoProvider),
			MomoNumber:        profile.MomoNumber,
			MomoName:          profile.MomoName,
		}
	}
	return resp
}

func toTokensResponse(pair auth.TokenPair) tokensResponse {
	return tokensResponse{
		Access:           pair.Access,
		Refresh:          pair.Refresh,
		AccessExpiresAt:  formatTime(pair.AccessExpiresAt),
		RefreshExpiresAt: formatTime(pair.RefreshExpiresAt),
	}
}

func toGroupResponse(group groupsdomain.SavingsGroup) groupResponse {
	return groupResponse{
		ID:                 group.ID,
		AdminID:            group.AdminID,
		Name:               group.Name,
		Description:        group.Description,
		ContributionAmount: group.ContributionAmount.StringFixed(2),
		Frequency:          string(group.Frequency),
		PayoutIntervalDays: group.PayoutIntervalDays,
		ExpectedMembers:    group.ExpectedMembers,
		CurrentMembers:     group.CurrentMembers,
		TotalPot:           group.TotalPot().StringFixed(2),
		Status:             string(group.Status),
		StartDate:          formatOptionalDate(group.StartDate),
		ApprovedAt:         formatOptionalTime(group.ApprovedAt),
		CreatedAt:          formatTime(group.CreatedAt),
	}
}

func toGroupResponses(groups []groupsdomain.SavingsGroup) []groupResponse {
	items := make([]groupResponse, 0, len(groups))
	for _, group := range groups {
		items = append(items, toGroupResponse(group))
	}
	return items
}

func toMemberResponses(members []groupsdomain.Membership) []memberResponse {
	items := make([]memberResponse, 0, len(members))
	for _, member := range members {
		items = append(items, memberResponse{
			ID:       member.ID,
			UserID:   member.UserID,
			JoinedAt: formatTime(member.JoinedAt),
		})
	}
	return items
}

func toGroupDetailResponse(detail *groupsdomain.GroupDetail) groupDetailResponse {
	resp := groupDetailResponse{
		Group:    toGroupResponse(detail.Group),
		Members:  toMemberResponses(detail.Members),
		IsAdmin:  detail.IsAdmin,
		IsMember: detail.IsMember,
	}
	if detail.RequestStatus != nil {
		status := string(*detail.RequestStatus)
		resp.RequestStatus = &status
	}
	return resp
}

func toPayoutSlotResponse(slot groupsdomain.PayoutSlot) payoutSlotResponse {
	return payoutSlotResponse{
		Position:     slot.Position,
		MembershipID: slot.MembershipID,
		UserID:       slot.UserID,
		JoinedAt:     formatTime(slot.JoinedAt),
	}
}

func toPayoutSlotResponses(slots []groupsdomain.PayoutSlot) []payoutSlotResponse {
	items := make([]payoutSlotResponse, 0, len(slots))
	for _, slot := range slots {
		items = append(items, toPayoutSlotResponse(slot))
	}
	return items
}

func toJoinRequestResponse(request groupsdomain.JoinRequest) joinRequestResponse {
	return joinRequestResponse{
		ID:          request.ID,
		GroupID:     request.GroupID,
		UserID:      request.UserID,
		Status:      string(request.Status),
		RequestedAt: formatTime(request.RequestedAt),
		HandledBy:   request.HandledBy,
		HandledAt:   formatOptionalTime(request.HandledAt),
	}
}

func toJoinRequestResponses(requests []groupsdomain.JoinRequest) []joinRequestResponse {
	items := make([]joinRequestResponse, 0, len(requests))
	for _, request := range requests {
		items = append(items, toJoinRequestResponse(request))
	}
	return items
}

func toContributionResponse(contribution contributionsdomain.Contribution) contributionResponse {
	return contributionResponse{
		ID:           contribution.ID,
		GroupID:      contribution.GroupID,
		MembershipID: contribution.MembershipID,
		CycleNumber:  contribution.CycleNumber,
		Amount:       contribution.Amount.StringFixed(2),
		IsVerified:   contribution.IsVerified,
		VerifiedBy:   contribution.VerifiedBy,
		VerifiedAt:   formatOptionalTime(contribution.VerifiedAt),
		CreatedAt:    formatTime(contribution.CreatedAt),
	}
}

func toContributionResponses(contributions []contributionsdomain.Contribution) []contributionResponse {
	items := make([]contributionResponse, 0, len(contributions))
	for _, contribution := range contributions {
		items = append(items, toContributionResponse(contribution))
	}
	return items
}

func toProgressResponse(progress *contributionsdomain.Progress) progressResponse {
	resp := progressResponse{
		Group:          toGroupResponse(progress.Group),
		Started:        progress.Started,
		CycleNumber:    progress.CycleNumber,
		DaysSinceStart: progress.DaysSinceStart,
		IsPayoutDay:    progress.IsPayoutDay,
		NextPayoutDate: formatOptionalDate(progress.NextPayoutDate),
		Position:       progress.Position,
		VerifiedCount:  progress.Completeness.Verified,
		ExpectedCount:  progress.Completeness.Expected,
		CycleComplete:  progress.Completeness.Complete,
		TotalPot:       progress.TotalPot.StringFixed(2),
		MyPosition:     progress.MyPosition,
	}
	if progress.Beneficiary != nil {
		slot := toPayoutSlotResponse(*progress.Beneficiary)
		resp.Beneficiary = &slot
	}
	if progress.MyContribution != nil {
		mine := toContributionResponse(*progress.MyContribution)
		resp.MyContribution = &mine
	}
	return resp
}

// toPayoutRecordResponse resolves the beneficiary's user id through the
// members already loaded for the group.
func toPayoutRecordResponse(record payoutsdomain.Record, members map[int64]string) payoutRecordResponse {
	resp := payoutRecordResponse{
		ID:                      record.ID,
		GroupID:                 record.GroupID,
		CycleNumber:             record.CycleNumber,
		Status:                  string(record.Status),
		BeneficiaryMembershipID: record.BeneficiaryMembershipID,
		Amount:                  record.Amount.StringFixed(2),
		NotifiedAt:              formatOptionalTime(record.NotifiedAt),
		DisbursedAt:             formatOptionalTime(record.DisbursedAt),
	}
	if record.BeneficiaryMembershipID != nil {
		if userID, ok := members[*record.BeneficiaryMembershipID]; ok {
			resp.BeneficiaryUserID = &userID
		}
	}
	return resp
}

func toTickReportResponse(report payoutsdomain.TickReport) tickReportResponse {
	resp := tickReportResponse{
		Today:      report.Today.Format(time.DateOnly),
		DurationMS: report.Duration.Milliseconds(),
		Results:    make([]tickResultResponse, 0, len(report.Results)),
	}
	for _, result := range report.Results {
		item := tickResultResponse{
			GroupID:       result.GroupID,
			CycleNumber:   result.CycleNumber,
			Position:      result.Position,
			Outcome:       string(result.Outcome),
			BeneficiaryID: result.BeneficiaryID,
		}
		if !result.Amount.IsZero() {
			item.Amount = result.Amount.StringFixed(2)
		}
		if result.Err != nil {
			item.Error = result.Err.Error()
		}
		resp.Results = append(resp.Results, item)
	}
	if report.Err != nil {
		resp.Error = report.Err.Error()
	}
	return resp
}
