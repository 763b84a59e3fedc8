package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a staff member or a tenant-company user able to authenticate.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string     `gorm:"column:email;not null;uniqueIndex:users_email_key"`
	Name         string     `gorm:"column:name;not null"`
	Role         string     `gorm:"column:role;not null;default:'tenant'"`
	CompanyID    *uuid.UUID `gorm:"column:company_id;type:uuid;index"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Active       bool       `gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
