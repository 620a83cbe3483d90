package model

import "time"

const (
	NotifyMaterialApproved = "material_approved"
	NotifyMaterialRejected = "material_rejected"
	NotifyAccessRequest    = "access_request"
	NotifyAccessApproved   = "access_approved"
	NotifyAccessRejected   = "access_rejected"
)

const (
	NotificationUnread = "unread"
	NotificationRead   = "read"
)

type Notification struct {
	ID uint64 `gorm:"primaryKey"`

	UserID uint64 `gorm:"column:user_id;not null;index:idx_user_status_created,priority:1" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	Type    string `gorm:"column:type;size:32;not null;index" json:"type"`
	Title   string `gorm:"column:title;size:100;not null" json:"title"`
	Message string `gorm:"column:message;size:200;not null" json:"message"`

	RelatedEntity string `gorm:"column:related_entity;size:32" json:"related_entity,omitempty"`
	RelatedID     uint64 `gorm:"column:related_id" json:"related_id,omitempty"`

	Status string `gorm:"column:status;size:8;not null;default:'unread';index:idx_user_status_created,priority:2" json:"status"`

	CreatedAt time.Time `gorm:"index:idx_user_status_created,priority:3" json:"created_at"`
}

// TableName returns the database table name.
func (Notification) TableName() string {
	return "notification"
}
