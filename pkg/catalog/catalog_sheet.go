package catalog

import (
	"Smart-Picking/domain"
	"Smart-Picking/entities"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tealeg/xlsx"
)

// Positional fallbacks for the brand and variant columns of the master sheet.
const (
	brandColumn   = 3
	variantColumn = 5
)

type sheetColumns struct {
	code, zone, location, name, brand, variant, qty int
}

// ReadSheet loads the first sheet of a workbook as trimmed string rows.
func ReadSheet(r io.ReaderAt, size int64) ([][]string, error) {
	file, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return nil, err
	}
	if len(file.Sheets) == 0 {
		return nil, domain.ErrCatalogSheetEmpty
	}
	sheet := file.Sheets[0]

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = strings.TrimSpace(cell.String())
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func findColumns(header []string) (sheetColumns, error) {
	cols := sheetColumns{code: -1, zone: -1, location: -1, name: -1, brand: brandColumn, variant: variantColumn, qty: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "barcode":
			cols.code = i
		case "zone":
			cols.zone = i
		case "location":
			cols.location = i
		case "name", "product name":
			cols.name = i
		case "brand":
			cols.brand = i
		case "variant":
			cols.variant = i
		case "qty", "quantity", "pick qty":
			cols.qty = i
		}
	}
	if cols.code < 0 || cols.zone < 0 || cols.location < 0 {
		return cols, domain.ErrCatalogMissingColumn
	}
	return cols, nil
}

// cleanCode drops the ".0" a spreadsheet leaves on numeric barcodes.
func cleanCode(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ".0")
}

// ParseRows turns sheet rows, header first, into catalog entries in sheet order.
// Rows without a barcode are skipped.
func ParseRows(rows [][]string) ([]entities.CatalogEntry, int, error) {
	if len(rows) < 2 {
		return nil, 0, domain.ErrCatalogSheetEmpty
	}
	cols, err := findColumns(rows[0])
	if err != nil {
		return nil, 0, err
	}

	var (
		entries []entities.CatalogEntry
		skipped int
	)
	for i, row := range rows[1:] {
		get := func(index int) string {
			if index >= 0 && index < len(row) {
				return strings.TrimSpace(row[index])
			}
			return ""
		}

		code := cleanCode(get(cols.code))
		if code == "" {
			skipped++
			continue
		}
		brand, variant := get(cols.brand), get(cols.variant)
		name := get(cols.name)
		if name == "" {
			name = strings.TrimSpace(brand + " " + variant)
		}
		qty, _ := strconv.Atoi(cleanCode(get(cols.qty)))

		entries = append(entries, entities.CatalogEntry{
			ID:          uuid.New(),
			RowNumber:   i + 2,
			Code:        code,
			Brand:       brand,
			Variant:     variant,
			DisplayName: name,
			Zone:        get(cols.zone),
			Location:    get(cols.location),
			ExpectedQty: qty,
		})
	}
	return entries, skipped, nil
}
