package model

import "time"

// MaterialAccess records that a user redeemed the access code of a private
// material. One row per (user, material); inserts are idempotent.
type MaterialAccess struct {
	ID uint64 `gorm:"primaryKey"`

	UserID uint64 `gorm:"column:user_id;not null;uniqueIndex:uk_user_material,priority:1" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	MaterialID uint64   `gorm:"column:material_id;not null;index;uniqueIndex:uk_user_material,priority:2" json:"material_id"`
	Material   Material `gorm:"foreignKey:MaterialID;references:ID;constraint:OnDelete:CASCADE" json:"material,omitempty"`

	AccessCode string    `gorm:"column:access_code;size:64;not null" json:"-"`
	AccessedAt time.Time `gorm:"column:accessed_at;not null" json:"accessed_at"`
}

// TableName returns the database table name.
func (MaterialAccess) TableName() string {
	return "material_access"
}
