package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

type User struct {
	ID uint64 `gorm:"primaryKey"`

	UserName string `gorm:"column:user_name;type:varchar(50);not null;unique"`

	Password string `gorm:"column:pass_word;type:varchar(255);not null" json:"-"`

	Email string `gorm:"column:email;type:varchar(255);not null;unique"`

	Role string `gorm:"column:role;type:varchar(16);not null;default:'student';index"`

	NickName string `gorm:"column:nick_name;type:varchar(80);not null;default:''"`
	Bio      string `gorm:"column:bio;type:varchar(500);not null;default:''"`

	IsActive bool `gorm:"column:is_active;not null;default:false"`

	CreatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName returns the database table name.
func (User) TableName() string {
	return "user_account"
}
