package entities

import (
	"github.com/google/uuid"
)

type Operator struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Code         string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Name         string    `gorm:"type:varchar(128);not null" json:"name"`
	PasswordHash string    `gorm:"type:varchar(255)" json:"-"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`

	Timestamp
}
