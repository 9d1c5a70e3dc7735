package ledger

import (
	"Smart-Picking/entities"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	LedgerRepository interface {
		// AppendRows creates the sheet with header on first use and appends rows in one
		// transaction. Either every row is stored or none is.
		AppendRows(ctx context.Context, sheet string, header []string, rows [][]string) error
		GetSheet(ctx context.Context, name string) (*entities.LedgerSheet, error)
		GetRows(ctx context.Context, sheetID string) ([]*entities.LedgerRow, error)
	}

	ledgerRepository struct {
		db *gorm.DB
	}
)

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{
		db: db,
	}
}

// AppendRows inserts the sheet with ON CONFLICT DO NOTHING so two first appends racing on
// the same name both commit, then reads the sheet back to pick up whichever insert won.
// Rows are numbered by the seq sequence in insert order.
func (r *ledgerRepository) AppendRows(ctx context.Context, sheet string, header []string, rows [][]string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := entities.LedgerSheet{ID: uuid.New(), Name: sheet, Header: header}
		if err := createSheetIfAbsent(tx, &s).Error; err != nil {
			return err
		}

		var stored entities.LedgerSheet
		if err := tx.Where("name = ?", sheet).First(&stored).Error; err != nil {
			return err
		}

		batch := make([]entities.LedgerRow, 0, len(rows))
		for _, cells := range rows {
			batch = append(batch, entities.LedgerRow{SheetID: stored.ID, Cells: cells})
		}
		return tx.CreateInBatches(&batch, 100).Error
	})
}

func createSheetIfAbsent(tx *gorm.DB, s *entities.LedgerSheet) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(s)
}

func (r *ledgerRepository) GetSheet(ctx context.Context, name string) (*entities.LedgerSheet, error) {
	var sheet entities.LedgerSheet
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&sheet).Error; err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (r *ledgerRepository) GetRows(ctx context.Context, sheetID string) ([]*entities.LedgerRow, error) {
	var rows []*entities.LedgerRow
	if err := r.db.WithContext(ctx).
		Where("sheet_id = ?", sheetID).
		Order("seq ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
