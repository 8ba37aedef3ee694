package models

import (
	"time"
)

// GroupMembership joins users to groups. Exactly one row per (group, user);
// leaving marks the row inactive instead of deleting it, so re-joining
// reactivates the same row.
type GroupMembership struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	GroupID  uint       `gorm:"not null;uniqueIndex:idx_group_user" json:"group_id"`
	UserID   uint       `gorm:"not null;uniqueIndex:idx_group_user" json:"user_id"`
	IsActive bool       `gorm:"default:true" json:"is_active"`
	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at"`

	Group *Group `gorm:"foreignKey:GroupID" json:"-"`
	User  *User  `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (GroupMembership) TableName() string {
	return "group_memberships"
}
