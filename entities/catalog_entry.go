package entities

import (
	"github.com/google/uuid"
)

// CatalogEntry mirrors one row of the master product sheet. Code is not unique in the
// source sheet, so lookups take the first row by insertion order.
type CatalogEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	RowNumber   int       `gorm:"index" json:"row_number"`
	Code        string    `gorm:"type:varchar(128);index;not null" json:"code"`
	Brand       string    `json:"brand,omitempty"`
	Variant     string    `json:"variant,omitempty"`
	DisplayName string    `json:"display_name"`
	Zone        string    `gorm:"type:varchar(64)" json:"zone"`
	Location    string    `gorm:"type:varchar(64)" json:"location"`
	ExpectedQty int       `json:"expected_qty"`

	Timestamp
}
