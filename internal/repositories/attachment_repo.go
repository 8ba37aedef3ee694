package repositories

import (
	"gorm.io/gorm"

	"github.com/chhinhsovath/plp-telegram-manager/internal/models"
)

// AttachmentRepository wraps media attachment persistence.
type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(attachment *models.Attachment) error {
	return r.db.Create(attachment).Error
}

func (r *AttachmentRepository) GetByID(id uint) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := r.db.First(&attachment, id).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

// UpdateStorageURL backfills the durable storage URL after relocation. The
// only mutation attachments ever receive.
func (r *AttachmentRepository) UpdateStorageURL(id uint, url string) error {
	return r.db.Model(&models.Attachment{}).Where("id = ?", id).Update("storage_url", url).Error
}

func (r *AttachmentRepository) UpdateThumbnailURL(id uint, url string) error {
	return r.db.Model(&models.Attachment{}).Where("id = ?", id).Update("thumbnail_url", url).Error
}

// AttachmentFilter narrows dashboard media listings.
type AttachmentFilter struct {
	GroupID  uint
	FileType string
	Limit    int
	Offset   int
}

// List returns a filtered page of attachments plus the total matching count.
// The group filter goes through the owning message.
func (r *AttachmentRepository) List(filter AttachmentFilter) ([]models.Attachment, int64, error) {
	var attachments []models.Attachment
	var total int64

	query := r.db.Model(&models.Attachment{})
	if filter.GroupID != 0 {
		query = query.Joins("JOIN messages ON messages.id = attachments.message_id").
			Where("messages.group_id = ?", filter.GroupID)
	}
	if filter.FileType != "" {
		query = query.Where("attachments.file_type = ?", filter.FileType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("attachments.id DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&attachments).Error
	return attachments, total, err
}

func (r *AttachmentRepository) Count() (int64, error) {
	var total int64
	err := r.db.Model(&models.Attachment{}).Count(&total).Error
	return total, err
}
