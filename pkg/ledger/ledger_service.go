package ledger

import (
	"Smart-Picking/domain"
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

type (
	LedgerService interface {
		// AppendCommit writes the rows of one commit to the pick sheet in cart order.
		AppendCommit(ctx context.Context, rows []domain.LedgerRow) error
		AppendRiderRow(ctx context.Context, row domain.RiderLedgerRow) error
		AppendRows(ctx context.Context, sheet string, header []string, rows [][]string) error
		ExportSheet(ctx context.Context, sheet string) ([]byte, error)
	}

	ledgerService struct {
		ledgerRepository LedgerRepository
		pickSheet        string
		riderSheet       string
	}
)

func NewLedgerService(ledgerRepository LedgerRepository, pickSheet, riderSheet string) LedgerService {
	return &ledgerService{
		ledgerRepository: ledgerRepository,
		pickSheet:        pickSheet,
		riderSheet:       riderSheet,
	}
}

func (s *ledgerService) AppendCommit(ctx context.Context, rows []domain.LedgerRow) error {
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, row.Cells())
	}
	return s.AppendRows(ctx, s.pickSheet, domain.PickLedgerHeader, cells)
}

func (s *ledgerService) AppendRiderRow(ctx context.Context, row domain.RiderLedgerRow) error {
	return s.AppendRows(ctx, s.riderSheet, domain.RiderLedgerHeader, [][]string{row.Cells()})
}

func (s *ledgerService) AppendRows(ctx context.Context, sheet string, header []string, rows [][]string) error {
	if len(rows) == 0 {
		return domain.ErrNoRows
	}
	if err := s.ledgerRepository.AppendRows(ctx, sheet, header, rows); err != nil {
		return fmt.Errorf("append %d rows to %s: %w", len(rows), sheet, err)
	}
	return nil
}

func (s *ledgerService) ExportSheet(ctx context.Context, sheet string) ([]byte, error) {
	stored, err := s.ledgerRepository.GetSheet(ctx, sheet)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSheetNotFound
		}
		return nil, err
	}
	rows, err := s.ledgerRepository.GetRows(ctx, stored.ID.String())
	if err != nil {
		return nil, err
	}

	file := xlsx.NewFile()
	xs, err := file.AddSheet(sheetTitle(stored.Name))
	if err != nil {
		return nil, err
	}
	headerRow := xs.AddRow()
	for _, h := range stored.Header {
		headerRow.AddCell().SetString(h)
	}
	for _, r := range rows {
		row := xs.AddRow()
		for _, c := range r.Cells {
			row.AddCell().SetString(c)
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sheetTitle trims a name to the 31 characters a workbook sheet title may hold.
func sheetTitle(name string) string {
	r := []rune(name)
	if len(r) > 31 {
		r = r[:31]
	}
	return string(r)
}
