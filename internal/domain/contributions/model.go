package contributions

import (
	"time"

	"github.com/shopspring/decimal"

	groupsdomain "susu-app-go/internal/domain/groups"
)

type Contribution struct {
	ID           string          `gorm:"type:uuid;primaryKey"`
	GroupID      string          `gorm:"type:uuid;not null"`
	MembershipID int64           `gorm:"not null"`
	CycleNumber  int             `gorm:"not null"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	IsVerified   bool            `gorm:"not null"`
	VerifiedBy   *string         `gorm:"type:uuid"`
	VerifiedAt   *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (Contribution) TableName() string { return "contributions" }

// Completeness summarizes the verified contributions of one cycle.
type Completeness struct {
	CycleNumber int
	Verified    int64
	Expected    int
	Complete    bool
}

// Progress is the member-facing dashboard for a group.
type Progress struct {
	Group          groupsdomain.SavingsGroup
	Started        bool
	CycleNumber    int
	DaysSinceStart int
	IsPayoutDay    bool
	NextPayoutDate *time.Time
	Position       int
	Beneficiary    *groupsdomain.PayoutSlot
	Completeness   Completeness
	TotalPot       decimal.Decimal
	MyPosition     int
	MyContribution *Contribution
}
