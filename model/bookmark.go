package model

import "time"

type Bookmark struct {
	ID uint64 `gorm:"primaryKey"`

	UserID uint64 `gorm:"column:user_id;not null;uniqueIndex:uk_user_material_bookmark,priority:1" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	MaterialID uint64   `gorm:"column:material_id;not null;index;uniqueIndex:uk_user_material_bookmark,priority:2" json:"material_id"`
	Material   Material `gorm:"foreignKey:MaterialID;references:ID;constraint:OnDelete:CASCADE" json:"material,omitempty"`

	// Denormalized from the material at creation for cheap filtering.
	MaterialType string `gorm:"column:material_type;size:20;index" json:"material_type,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (Bookmark) TableName() string {
	return "bookmark"
}
