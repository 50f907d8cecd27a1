package payouts

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "susu-app-go/internal/domain/payouts"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ReserveIncomplete(ctx context.Context, record *domain.Record) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "cycle_number"}},
			DoNothing: true,
		}).
		Create(record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ClaimDisbursement relies on the (group_id, cycle_number) unique key: the
// conditional upsert touches no row once the cycle is disbursed.
func (r *PostgresRepository) ClaimDisbursement(ctx context.Context, record *domain.Record) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "group_id"}, {Name: "cycle_number"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":                    record.Status,
				"beneficiary_membership_id": record.BeneficiaryMembershipID,
				"amount":                    record.Amount,
				"disbursed_at":              record.DisbursedAt,
				"updated_at":                time.Now().UTC(),
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Neq{Column: clause.Column{Table: "payout_records", Name: "status"}, Value: domain.RecordDisbursed},
			}},
		}).
		Create(record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *PostgresRepository) ListByGroup(ctx context.Context, groupID string) ([]domain.Record, error) {
	var records []domain.Record
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("cycle_number desc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
