package groups

import (
	"io"
	"time"

	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// DefaultInterval is the payout interval in days used when a group is created
// without an explicit one.
func (f Frequency) DefaultInterval() int {
	switch f {
	case FrequencyDaily:
		return 1
	case FrequencyWeekly:
		return 7
	case FrequencyMonthly:
		return 30
	}
	return 0
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusRejected  Status = "rejected"
	StatusSuspended Status = "suspended"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestCancelled RequestStatus = "cancelled"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

type SavingsGroup struct {
	ID                 string          `gorm:"type:uuid;primaryKey"`
	AdminID            string          `gorm:"type:uuid;not null;index"`
	Name               string          `gorm:"not null"`
	Description        string          `gorm:"not null"`
	ContributionAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Frequency          Frequency       `gorm:"type:varchar(16);not null"`
	PayoutIntervalDays int             `gorm:"not null"`
	ExpectedMembers    int             `gorm:"not null"`
	CurrentMembers     int             `gorm:"not null"`
	Status             Status          `gorm:"type:varchar(16);not null"`
	StartDate          *time.Time      `gorm:"type:date"`
	ApprovedBy         *string         `gorm:"type:uuid"`
	ApprovedAt         *time.Time
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (SavingsGroup) TableName() string { return "savings_groups" }

func (g SavingsGroup) IsFull() bool {
	return g.CurrentMembers >= g.ExpectedMembers
}

func (g SavingsGroup) Started() bool {
	return g.StartDate != nil
}

// TotalPot is the amount paid out each cycle.
func (g SavingsGroup) TotalPot() decimal.Decimal {
	return g.ContributionAmount.Mul(decimal.NewFromInt(int64(g.ExpectedMembers)))
}

type Membership struct {
	ID       int64     `gorm:"primaryKey;autoIncrement"`
	GroupID  string    `gorm:"type:uuid;not null;uniqueIndex:group_memberships_group_user_key"`
	UserID   string    `gorm:"type:uuid;not null;uniqueIndex:group_memberships_group_user_key"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

func (Membership) TableName() string { return "group_memberships" }

type PayoutOrder struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	GroupID      string `gorm:"type:uuid;not null"`
	MembershipID int64  `gorm:"not null"`
	Position     int    `gorm:"not null"`
}

func (PayoutOrder) TableName() string { return "payout_orders" }

// PayoutSlot is a payout order row joined with its membership.
type PayoutSlot struct {
	Position     int
	MembershipID int64
	UserID       string
	JoinedAt     time.Time
}

type JoinRequest struct {
	ID          string        `gorm:"type:uuid;primaryKey"`
	GroupID     string        `gorm:"type:uuid;not null"`
	UserID      string        `gorm:"type:uuid;not null"`
	Status      RequestStatus `gorm:"type:varchar(16);not null"`
	RequestedAt time.Time     `gorm:"not null"`
	HandledBy   *string       `gorm:"type:uuid"`
	HandledAt   *time.Time
}

func (JoinRequest) TableName() string { return "group_join_requests" }

type AdminKYC struct {
	UserID             string  `gorm:"type:uuid;primaryKey"`
	CardFrontURL       string  `gorm:"not null"`
	CardBackURL        string  `gorm:"not null"`
	LivePhotoURL       string  `gorm:"not null"`
	IsManuallyVerified bool    `gorm:"not null"`
	VerifiedBy         *string `gorm:"type:uuid"`
	VerifiedAt         *time.Time
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (AdminKYC) TableName() string { return "admin_kyc" }

type CreateGroupInput struct {
	Name               string
	Description        string
	ContributionAmount decimal.Decimal
	Frequency          Frequency
	PayoutIntervalDays int
	ExpectedMembers    int
}

// KYCFiles holds the three identity images a group admin must provide. A nil
// *KYCFiles reuses documents already on file.
type KYCFiles struct {
	CardFront io.Reader
	CardBack  io.Reader
	LivePhoto io.Reader
}

type ListFilter struct {
	Frequency          Frequency
	ExpectedMembers    int
	ContributionAmount *decimal.Decimal
	Search             string
	Limit              int
	Offset             int
}

type GroupDetail struct {
	Group         SavingsGroup
	Members       []Membership
	IsAdmin       bool
	IsMember      bool
	RequestStatus *RequestStatus
}
