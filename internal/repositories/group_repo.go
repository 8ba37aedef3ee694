package repositories

import (
	"gorm.io/gorm"

	"github.com/chhinhsovath/plp-telegram-manager/internal/models"
)

// GroupRepository wraps group persistence.
type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Create(group *models.Group) error {
	return r.db.Create(group).Error
}

func (r *GroupRepository) GetByID(id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) GetByTelegramID(telegramID int64) (*models.Group, error) {
	var group models.Group
	if err := r.db.Where("telegram_id = ?", telegramID).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) Update(group *models.Group) error {
	return r.db.Save(group).Error
}

// SetActive flips the active flag without touching other columns.
func (r *GroupRepository) SetActive(id uint, active bool) error {
	return r.db.Model(&models.Group{}).Where("id = ?", id).Update("is_active", active).Error
}

func (r *GroupRepository) UpdateMemberCount(id uint, count int) error {
	return r.db.Model(&models.Group{}).Where("id = ?", id).Update("member_count", count).Error
}

// List returns a page of groups plus the total count. When activeOnly is
// set, inactive groups are filtered out.
func (r *GroupRepository) List(activeOnly bool, limit, offset int) ([]models.Group, int64, error) {
	var groups []models.Group
	var total int64

	query := r.db.Model(&models.Group{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id").Limit(limit).Offset(offset).Find(&groups).Error
	return groups, total, err
}

func (r *GroupRepository) ListAll() ([]models.Group, error) {
	var groups []models.Group
	err := r.db.Order("id").Find(&groups).Error
	return groups, err
}

func (r *GroupRepository) Count() (int64, error) {
	var total int64
	err := r.db.Model(&models.Group{}).Count(&total).Error
	return total, err
}

func (r *GroupRepository) CountActive() (int64, error) {
	var total int64
	err := r.db.Model(&models.Group{}).Where("is_active = ?", true).Count(&total).Error
	return total, err
}

// DeleteInactive hard-deletes all inactive groups together with their
// messages, attachments, memberships and analytics events. This is the only
// path that removes group data; everything else just deactivates.
func (r *GroupRepository) DeleteInactive() (int64, error) {
	var deleted int64

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Group{}).Where("is_active = ?", false).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		var messageIDs []uint
		if err := tx.Model(&models.Message{}).Unscoped().Where("group_id IN ?", ids).Pluck("id", &messageIDs).Error; err != nil {
			return err
		}
		if len(messageIDs) > 0 {
			if err := tx.Where("message_id IN ?", messageIDs).Delete(&models.Attachment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Unscoped().Where("group_id IN ?", ids).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id IN ?", ids).Delete(&models.GroupMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id IN ?", ids).Delete(&models.AnalyticsEvent{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&models.Group{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})

	return deleted, err
}
