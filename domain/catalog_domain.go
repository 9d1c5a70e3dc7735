package domain

import (
	"errors"
)

var (
	MessageSuccessGetCatalogEntry = "catalog entry retrieved successfully"
	MessageSuccessImportCatalog   = "catalog imported successfully"

	MessageFailedGetCatalogEntry = "failed to retrieve catalog entry"
	MessageFailedImportCatalog   = "failed to import catalog"

	ErrProductNotFound      = errors.New("product not found in catalog")
	ErrCatalogSheetEmpty    = errors.New("catalog sheet is empty or missing header row")
	ErrCatalogMissingColumn = errors.New("catalog sheet is missing a required column")
)

type (
	// CatalogEntry is read-only product reference data.
	CatalogEntry struct {
		Code        string `json:"code"`
		DisplayName string `json:"display_name"`
		Zone        string `json:"zone"`
		Location    string `json:"location"`
		ExpectedQty int    `json:"expected_qty,omitempty"`
	}

	ImportCatalogResponse struct {
		Imported int `json:"imported"`
		Skipped  int `json:"skipped"`
	}
)
