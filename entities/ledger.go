package entities

import (
	"time"

	"github.com/google/uuid"
)

// LedgerSheet is a named append-only sheet with a fixed header.
type LedgerSheet struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name   string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"name"`
	Header []string  `gorm:"type:jsonb;serializer:json;not null" json:"header"`

	CreatedAt time.Time `json:"created_at"`
}

// LedgerRow is never updated or deleted. Seq orders rows within a sheet.
type LedgerRow struct {
	Seq       int64     `gorm:"primaryKey;autoIncrement" json:"seq"`
	SheetID   uuid.UUID `gorm:"type:uuid;index;not null" json:"sheet_id"`
	Cells     []string  `gorm:"type:jsonb;serializer:json;not null" json:"cells"`
	CreatedAt time.Time `json:"created_at"`

	Sheet *LedgerSheet `gorm:"foreignKey:SheetID" json:"-"`
}
