package groups

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "susu-app-go/internal/domain/groups"
)

const defaultListLimit = 50

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(domain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) CreateGroup(ctx context.Context, group *domain.SavingsGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *PostgresRepository) GetGroup(ctx context.Context, groupID string) (*domain.SavingsGroup, error) {
	return r.getGroup(r.db.WithContext(ctx), groupID)
}

func (r *PostgresRepository) LockGroup(ctx context.Context, groupID string) (*domain.SavingsGroup, error) {
	return r.getGroup(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), groupID)
}

func (r *PostgresRepository) getGroup(db *gorm.DB, groupID string) (*domain.SavingsGroup, error) {
	var group domain.SavingsGroup
	if err := db.Where("id = ?", groupID).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (r *PostgresRepository) ListGroupsByAdmin(ctx context.Context, adminID string) ([]domain.SavingsGroup, error) {
	var groups []domain.SavingsGroup
	if err := r.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		Order("created_at desc").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *PostgresRepository) ListGroupsByMember(ctx context.Context, userID string) ([]domain.SavingsGroup, error) {
	var groups []domain.SavingsGroup
	if err := r.db.WithContext(ctx).
		Table("savings_groups").
		Select("savings_groups.*").
		Joins("join group_memberships on group_memberships.group_id = savings_groups.id").
		Where("group_memberships.user_id = ?", userID).
		Order("group_memberships.joined_at desc").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *PostgresRepository) ListActiveGroups(ctx context.Context, filter domain.ListFilter) ([]domain.SavingsGroup, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.SavingsGroup{}).Where("status = ?", domain.StatusActive)
	if filter.Frequency != "" {
		query = query.Where("frequency = ?", filter.Frequency)
	}
	if filter.ExpectedMembers > 0 {
		query = query.Where("expected_members = ?", filter.ExpectedMembers)
	}
	if filter.ContributionAmount != nil {
		query = query.Where("contribution_amount = ?", *filter.ContributionAmount)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		query = query.Where("(name ILIKE ? OR description ILIKE ?)", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	var groups []domain.SavingsGroup
	if err := query.
		Order("created_at desc").
		Limit(limit).
		Offset(filter.Offset).
		Find(&groups).Error; err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

func (r *PostgresRepository) ListStartedActiveGroups(ctx context.Context, today time.Time) ([]domain.SavingsGroup, error) {
	var groups []domain.SavingsGroup
	if err := r.db.WithContext(ctx).
		Where("status = ? AND start_date IS NOT NULL AND start_date <= ?", domain.StatusActive, today.Format(time.DateOnly)).
		Order("start_date asc, id asc").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *PostgresRepository) UpdateGroupStatus(ctx context.Context, groupID string, status domain.Status) error {
	return r.updateGroup(ctx, groupID, map[string]interface{}{"status": status})
}

func (r *PostgresRepository) SetApproval(ctx context.Context, groupID, staffID string, at time.Time) error {
	return r.updateGroup(ctx, groupID, map[string]interface{}{
		"approved_by": staffID,
		"approved_at": at,
	})
}

func (r *PostgresRepository) updateGroup(ctx context.Context, groupID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&domain.SavingsGroup{}).Where("id = ?", groupID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}

func (r *PostgresRepository) SetStartDate(ctx context.Context, groupID string, start time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.SavingsGroup{}).
		Where("id = ? AND start_date IS NULL", groupID).
		Updates(map[string]interface{}{
			"start_date": start.Format(time.DateOnly),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *PostgresRepository) IncrementMembers(ctx context.Context, groupID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.SavingsGroup{}).
		Where("id = ? AND current_members < expected_members", groupID).
		Updates(map[string]interface{}{
			"current_members": gorm.Expr("current_members + 1"),
			"updated_at":      time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *PostgresRepository) AddMember(ctx context.Context, member *domain.Membership) error {
	err := r.db.WithContext(ctx).Create(member).Error
	if isUniqueViolation(err) {
		return domain.ErrAlreadyMember
	}
	return err
}

func (r *PostgresRepository) GetMember(ctx context.Context, groupID, userID string) (*domain.Membership, error) {
	return r.firstMember(ctx, "group_id = ? AND user_id = ?", groupID, userID)
}

func (r *PostgresRepository) firstMember(ctx context.Context, query string, args ...interface{}) (*domain.Membership, error) {
	var member domain.Membership
	if err := r.db.WithContext(ctx).Where(query, args...).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotMember
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) ListMembers(ctx context.Context, groupID string) ([]domain.Membership, error) {
	var members []domain.Membership
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("joined_at asc, id asc").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) CreateJoinRequest(ctx context.Context, request *domain.JoinRequest) error {
	err := r.db.WithContext(ctx).Create(request).Error
	if isUniqueViolation(err) {
		return domain.ErrRequestPending
	}
	return err
}

func (r *PostgresRepository) GetJoinRequest(ctx context.Context, requestID string) (*domain.JoinRequest, error) {
	return r.firstJoinRequest(ctx, "id = ?", requestID)
}

func (r *PostgresRepository) GetJoinRequestByUser(ctx context.Context, groupID, userID string) (*domain.JoinRequest, error) {
	return r.firstJoinRequest(ctx, "group_id = ? AND user_id = ?", groupID, userID)
}

func (r *PostgresRepository) firstJoinRequest(ctx context.Context, query string, args ...interface{}) (*domain.JoinRequest, error) {
	var request domain.JoinRequest
	if err := r.db.WithContext(ctx).Where(query, args...).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrJoinRequestNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (r *PostgresRepository) UpdateJoinRequest(ctx context.Context, request *domain.JoinRequest) error {
	return r.db.WithContext(ctx).
		Model(&domain.JoinRequest{}).
		Where("id = ?", request.ID).
		Updates(map[string]interface{}{
			"status":       request.Status,
			"requested_at": request.RequestedAt,
			"handled_by":   request.HandledBy,
			"handled_at":   request.HandledAt,
		}).Error
}

func (r *PostgresRepository) ListJoinRequests(ctx context.Context, groupID string, status domain.RequestStatus) ([]domain.JoinRequest, error) {
	var requests []domain.JoinRequest
	if err := r.db.WithContext(ctx).
		Where("group_id = ? AND status = ?", groupID, status).
		Order("requested_at asc").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *PostgresRepository) CountPayoutOrders(ctx context.Context, groupID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.PayoutOrder{}).Where("group_id = ?", groupID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) CreatePayoutOrders(ctx context.Context, orders []domain.PayoutOrder) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&orders).Error
}

type slotRow struct {
	Position     int       `gorm:"column:position"`
	MembershipID int64     `gorm:"column:membership_id"`
	UserID       string    `gorm:"column:user_id"`
	JoinedAt     time.Time `gorm:"column:joined_at"`
}

func (r *PostgresRepository) slotQuery(ctx context.Context, groupID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("payout_orders").
		Select("payout_orders.position, payout_orders.membership_id, group_memberships.user_id, group_memberships.joined_at").
		Joins("join group_memberships on group_memberships.id = payout_orders.membership_id").
		Where("payout_orders.group_id = ?", groupID)
}

func (r *PostgresRepository) GetPayoutSlot(ctx context.Context, groupID string, position int) (*domain.PayoutSlot, error) {
	var rows []slotRow
	if err := r.slotQuery(ctx, groupID).
		Where("payout_orders.position = ?", position).
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrPayoutOrderNotFound
	}
	slot := toSlot(rows[0])
	return &slot, nil
}

func (r *PostgresRepository) ListPayoutSlots(ctx context.Context, groupID string) ([]domain.PayoutSlot, error) {
	var rows []slotRow
	if err := r.slotQuery(ctx, groupID).
		Order("payout_orders.position asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	slots := make([]domain.PayoutSlot, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, toSlot(row))
	}
	return slots, nil
}

func toSlot(row slotRow) domain.PayoutSlot {
	return domain.PayoutSlot{
		Position:     row.Position,
		MembershipID: row.MembershipID,
		UserID:       row.UserID,
		JoinedAt:     row.JoinedAt,
	}
}

func (r *PostgresRepository) UpsertKYC(ctx context.Context, kyc *domain.AdminKYC) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"card_front_url":       kyc.CardFrontURL,
				"card_back_url":        kyc.CardBackURL,
				"live_photo_url":       kyc.LivePhotoURL,
				"is_manually_verified": false,
				"verified_by":          nil,
				"verified_at":          nil,
				"updated_at":           time.Now().UTC(),
			}),
		}).
		Create(kyc).Error
}

func (r *PostgresRepository) GetKYC(ctx context.Context, userID string) (*domain.AdminKYC, error) {
	var kyc domain.AdminKYC
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&kyc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrKYCRequired
		}
		return nil, err
	}
	return &kyc, nil
}

func (r *PostgresRepository) MarkKYCVerified(ctx context.Context, userID, staffID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.AdminKYC{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"is_manually_verified": true,
			"verified_by":          staffID,
			"verified_at":          at,
			"updated_at":           time.Now().UTC(),
		}).Error
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(value)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
