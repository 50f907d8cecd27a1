package contributions

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domain "susu-app-go/internal/domain/contributions"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, contribution *domain.Contribution) error {
	err := r.db.WithContext(ctx).Create(contribution).Error
	if isUniqueViolation(err) {
		return domain.ErrAlreadyContributed
	}
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, contributionID string) (*domain.Contribution, error) {
	return r.first(ctx, "id = ?", contributionID)
}

func (r *PostgresRepository) GetForMember(ctx context.Context, membershipID int64, cycleNumber int) (*domain.Contribution, error) {
	return r.first(ctx, "membership_id = ? AND cycle_number = ?", membershipID, cycleNumber)
}

func (r *PostgresRepository) first(ctx context.Context, query string, args ...interface{}) (*domain.Contribution, error) {
	var contribution domain.Contribution
	if err := r.db.WithContext(ctx).Where(query, args...).First(&contribution).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrContributionNotFound
		}
		return nil, err
	}
	return &contribution, nil
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, contributionID, verifiedBy string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Contribution{}).
		Where("id = ? AND is_verified = ?", contributionID, false).
		Updates(map[string]interface{}{
			"is_verified": true,
			"verified_by": verifiedBy,
			"verified_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *PostgresRepository) CountVerified(ctx context.Context, groupID string, cycleNumber int) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&domain.Contribution{}).
		Where("group_id = ? AND cycle_number = ? AND is_verified = ?", groupID, cycleNumber, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) ListForCycle(ctx context.Context, groupID string, cycleNumber int) ([]domain.Contribution, error) {
	var contributions []domain.Contribution
	if err := r.db.WithContext(ctx).
		Where("group_id = ? AND cycle_number = ?", groupID, cycleNumber).
		Order("created_at asc").
		Find(&contributions).Error; err != nil {
		return nil, err
	}
	return contributions, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
