package repositories

import (
	"time"

	"gorm.io/gorm"

	"github.com/chhinhsovath/plp-telegram-manager/internal/models"
)

// MessageRepository wraps message persistence and dashboard queries.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// WithTx returns a copy bound to a transaction handle.
func (r *MessageRepository) WithTx(tx *gorm.DB) *MessageRepository {
	return &MessageRepository{db: tx}
}

// MessageFilter narrows dashboard message listings.
type MessageFilter struct {
	GroupID     uint
	MessageType string
	From        *time.Time
	To          *time.Time
	Search      string
	Limit       int
	Offset      int
}

func (r *MessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *MessageRepository) GetByID(id uint) (*models.Message, error) {
	var message models.Message
	if err := r.db.Preload("Attachments").First(&message, id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// GetByTelegramID resolves a message by its group and external message id,
// used when applying edits.
func (r *MessageRepository) GetByTelegramID(groupID uint, telegramID int64) (*models.Message, error) {
	var message models.Message
	err := r.db.Where("group_id = ? AND telegram_id = ?", groupID, telegramID).First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) Update(message *models.Message) error {
	return r.db.Save(message).Error
}

// SoftDelete marks a message deleted without removing the row.
func (r *MessageRepository) SoftDelete(id uint) error {
	return r.db.Delete(&models.Message{}, id).Error
}

// List returns a filtered page of messages plus the total matching count.
func (r *MessageRepository) List(filter MessageFilter) ([]models.Message, int64, error) {
	var messages []models.Message
	var total int64

	query := r.db.Model(&models.Message{})
	if filter.GroupID != 0 {
		query = query.Where("group_id = ?", filter.GroupID)
	}
	if filter.MessageType != "" {
		query = query.Where("message_type = ?", filter.MessageType)
	}
	if filter.From != nil {
		query = query.Where("sent_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("sent_at <= ?", *filter.To)
	}
	if filter.Search != "" {
		query = query.Where("text LIKE ?", "%"+filter.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Attachments").Preload("User").
		Order("sent_at DESC").Limit(filter.Limit).Offset(filter.Offset).
		Find(&messages).Error
	return messages, total, err
}

func (r *MessageRepository) Count() (int64, error) {
	var total int64
	err := r.db.Model(&models.Message{}).Count(&total).Error
	return total, err
}

// TypeCount is a per-message-type aggregate for the dashboard.
type TypeCount struct {
	MessageType string `json:"message_type"`
	Count       int64  `json:"count"`
}

func (r *MessageRepository) CountByType() ([]TypeCount, error) {
	var counts []TypeCount
	err := r.db.Model(&models.Message{}).
		Select("message_type, count(*) as count").
		Group("message_type").
		Order("count DESC").
		Scan(&counts).Error
	return counts, err
}

// DayCount is a per-day message aggregate for the dashboard chart.
type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

func (r *MessageRepository) CountPerDay(since time.Time) ([]DayCount, error) {
	var counts []DayCount
	err := r.db.Model(&models.Message{}).
		Select("DATE(sent_at) as day, count(*) as count").
		Where("sent_at >= ?", since).
		Group("DATE(sent_at)").
		Order("day").
		Scan(&counts).Error
	return counts, err
}
