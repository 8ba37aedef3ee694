package repositories

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chhinhsovath/plp-telegram-manager/internal/models"
)

// MembershipRepository wraps the group/user join table.
type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// WithTx returns a copy bound to a transaction handle.
func (r *MembershipRepository) WithTx(tx *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: tx}
}

func (r *MembershipRepository) Get(groupID, userID uint) (*models.GroupMembership, error) {
	var membership models.GroupMembership
	err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *MembershipRepository) Create(membership *models.GroupMembership) error {
	return r.db.Create(membership).Error
}

// Upsert inserts the membership or, when idx_group_user already holds the
// pair, reactivates the existing row in the same statement. The conflict
// path keeps the original joined_at. A separate create plus re-fetch cannot
// recover from a lost race inside an open Postgres transaction, because the
// failed insert aborts every statement after it.
func (r *MembershipRepository) Upsert(membership *models.GroupMembership) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"is_active":  true,
			"left_at":    nil,
			"updated_at": time.Now(),
		}),
	}).Create(membership).Error
}

func (r *MembershipRepository) Update(membership *models.GroupMembership) error {
	return r.db.Save(membership).Error
}

// ListByGroup returns a page of memberships for a group, users preloaded.
func (r *MembershipRepository) ListByGroup(groupID uint, limit, offset int) ([]models.GroupMembership, int64, error) {
	var memberships []models.GroupMembership
	var total int64

	query := r.db.Model(&models.GroupMembership{}).Where("group_id = ?", groupID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Where("group_id = ?", groupID).Preload("User").
		Order("id").Limit(limit).Offset(offset).Find(&memberships).Error
	return memberships, total, err
}

func (r *MembershipRepository) CountActive(groupID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.GroupMembership{}).
		Where("group_id = ? AND is_active = ?", groupID, true).Count(&total).Error
	return total, err
}
