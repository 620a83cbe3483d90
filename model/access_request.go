package model

import "time"

const (
	RequestStatusPending   = "pending"
	RequestStatusApproved  = "approved"
	RequestStatusRejected  = "rejected"
	RequestStatusCancelled = "cancelled"
)

// AutoCancelAfter is the grace period before an unanswered request is
// cancelled by the sweep.
const AutoCancelAfter = 7 * 24 * time.Hour

type AccessRequest struct {
	ID uint64 `gorm:"primaryKey"`

	StudentID uint64 `gorm:"column:student_id;not null;index;uniqueIndex:uk_student_material_active,priority:1" json:"student_id"`
	Student   User   `gorm:"foreignKey:StudentID;references:ID" json:"student,omitempty"`

	MaterialID uint64   `gorm:"column:material_id;not null;index;uniqueIndex:uk_student_material_active,priority:2" json:"material_id"`
	Material   Material `gorm:"foreignKey:MaterialID;references:ID" json:"material,omitempty"`

	// Frozen at creation from the material's uploader; never updated even if
	// the material changes hands later.
	TeacherID uint64 `gorm:"column:teacher_id;not null;index" json:"teacher_id"`
	Teacher   User   `gorm:"foreignKey:TeacherID;references:ID" json:"teacher,omitempty"`

	Status string `gorm:"column:status;size:16;not null;default:'pending';index" json:"status"`

	// 1 while status is pending/approved, NULL once terminal. MySQL unique
	// indexes skip NULLs, so (student, material, active) allows any number of
	// settled rows but at most one live one.
	Active *uint8 `gorm:"column:active;uniqueIndex:uk_student_material_active,priority:3" json:"-"`

	RequestMessage  string `gorm:"column:request_message;size:500" json:"request_message,omitempty"`
	ResponseMessage string `gorm:"column:response_message;size:500" json:"response_message,omitempty"`

	RespondedAt     *time.Time `gorm:"column:responded_at" json:"responded_at,omitempty"`
	AccessExpiresAt *time.Time `gorm:"column:access_expires_at" json:"access_expires_at,omitempty"`
	AutoCancelAt    time.Time  `gorm:"column:auto_cancel_at;not null;index" json:"auto_cancel_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (AccessRequest) TableName() string {
	return "access_request"
}

// ActiveFlag is the marker stored while a request occupies the
// (student, material) slot.
func ActiveFlag() *uint8 {
	one := uint8(1)
	return &one
}
