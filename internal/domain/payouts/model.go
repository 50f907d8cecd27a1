package payouts

import (
	"time"

	"github.com/shopspring/decimal"
)

type RecordStatus string

const (
	RecordIncomplete RecordStatus = "incomplete"
	RecordDisbursed  RecordStatus = "disbursed"
)

// Record is the per (group, cycle) ledger entry that keeps the scheduler
// idempotent across ticks.
type Record struct {
	ID                      string          `gorm:"type:uuid;primaryKey"`
	GroupID                 string          `gorm:"type:uuid;not null"`
	CycleNumber             int             `gorm:"not null"`
	Status                  RecordStatus    `gorm:"type:varchar(16);not null"`
	BeneficiaryMembershipID *int64          `gorm:"column:beneficiary_membership_id"`
	Amount                  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	NotifiedAt              *time.Time
	DisbursedAt             *time.Time
	CreatedAt               time.Time `gorm:"autoCreateTime"`
	UpdatedAt               time.Time `gorm:"autoUpdateTime"`
}

func (Record) TableName() string { return "payout_records" }

type Outcome string

const (
	OutcomeNotDue             Outcome = "not_due"
	OutcomeIncomplete         Outcome = "incomplete"
	OutcomeDisbursed          Outcome = "disbursed"
	OutcomeAlreadyDisbursed   Outcome = "already_disbursed"
	OutcomeMissingBeneficiary Outcome = "missing_beneficiary"
	OutcomeFailed             Outcome = "failed"
)

var allOutcomes = []Outcome{
	OutcomeNotDue,
	OutcomeIncomplete,
	OutcomeDisbursed,
	OutcomeAlreadyDisbursed,
	OutcomeMissingBeneficiary,
	OutcomeFailed,
}

type GroupResult struct {
	GroupID       string
	CycleNumber   int
	Position      int
	Outcome       Outcome
	BeneficiaryID string
	Amount        decimal.Decimal
	Err           error
}

type TickReport struct {
	Today     time.Time
	StartedAt time.Time
	Duration  time.Duration
	Results   []GroupResult
	Err       error
}

func (r TickReport) Count(outcome Outcome) int {
	total := 0
	for _, result := range r.Results {
		if result.Outcome == outcome {
			total++
		}
	}
	return total
}
