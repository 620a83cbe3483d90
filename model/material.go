package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	MaterialStatusPending  = "pending"
	MaterialStatusApproved = "approved"
	MaterialStatusRejected = "rejected"
)

const (
	AccessTypePublic       = "public"
	AccessTypePrivate      = "private"
	AccessTypeRequestBased = "request-based"
)

type Material struct {
	ID uint64 `gorm:"primaryKey"`

	Title       string `gorm:"column:title;size:200;not null"`
	Description string `gorm:"column:description;size:500"`
	Author      string `gorm:"column:author;size:100"`

	MaterialType string `gorm:"column:material_type;size:20;not null;index:idx_material_type_status,priority:1"`

	// Exactly one of FileURL / YoutubeURL is set.
	FileURL    string `gorm:"column:file_url;size:512" json:"file_url,omitempty"`
	BucketName string `gorm:"column:bucket_name;size:64" json:"-"`
	ObjectName string `gorm:"column:object_name;size:512" json:"-"`
	FileSize   int64  `gorm:"column:file_size;not null;default:0" json:"file_size"`
	FileType   string `gorm:"column:file_type;size:10" json:"file_type,omitempty"`

	YoutubeURL string `gorm:"column:youtube_url;size:512" json:"youtube_url,omitempty"`

	AccessType string `gorm:"column:access_type;size:16;not null;default:'public';index"`
	// Shared secret for private materials. Never serialized.
	AccessCode string `gorm:"column:access_code;size:64" json:"-"`

	UploadedBy uint64 `gorm:"column:uploaded_by;not null;index" json:"uploaded_by"`
	Uploader   User   `gorm:"foreignKey:UploadedBy;references:ID" json:"uploader,omitempty"`

	Status          string     `gorm:"column:status;size:16;not null;default:'pending';index:idx_material_type_status,priority:2" json:"status"`
	VerifiedBy      *uint64    `gorm:"column:verified_by" json:"verified_by,omitempty"`
	VerifiedAt      *time.Time `gorm:"column:verified_at" json:"verified_at,omitempty"`
	RejectionReason string     `gorm:"column:rejection_reason;size:500" json:"rejection_reason,omitempty"`

	ViewCount     uint64 `gorm:"column:view_count;not null;default:0" json:"view_count"`
	DownloadCount uint64 `gorm:"column:download_count;not null;default:0" json:"download_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName returns the database table name.
func (Material) TableName() string {
	return "material"
}
