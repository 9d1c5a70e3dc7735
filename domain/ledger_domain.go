package domain

import (
	"errors"
	"strconv"
)

var (
	MessageSuccessExportLedger = "ledger exported successfully"
	MessageFailedExportLedger  = "failed to export ledger"

	MessageSuccessFindHandover   = "order folder found"
	MessageSuccessUploadHandover = "handover photo saved"
	MessageFailedFindHandover    = "failed to find order folder"
	MessageFailedUploadHandover  = "failed to save handover photo"

	ErrSheetNotFound       = errors.New("ledger sheet not found")
	ErrNoRows              = errors.New("no ledger rows to append")
	ErrDateFolderNotFound  = errors.New("no date folder for today")
	ErrOrderFolderNotFound = errors.New("no folder for this order today")
)

// PickLedgerHeader is the fixed header of the pick ledger sheet.
var PickLedgerHeader = []string{
	"Timestamp", "Order ID", "Barcode", "Product Name", "Location",
	"Pick Qty", "Operator ID", "Operator Name", "Image Link",
}

// RiderLedgerHeader is the fixed header of the rider handover sheet.
var RiderLedgerHeader = []string{
	"Timestamp", "User Name", "Order ID", "Folder Name", "Rider Image Link",
}

type (
	// LedgerRow is one committed pick. It is never updated once appended.
	LedgerRow struct {
		Timestamp      string `json:"timestamp"`
		Order          string `json:"order"`
		Barcode        string `json:"barcode"`
		ProductName    string `json:"product_name"`
		Location       string `json:"location"`
		Quantity       int    `json:"quantity"`
		OperatorID     string `json:"operator_id"`
		OperatorName   string `json:"operator_name"`
		AssetReference string `json:"asset_reference"`
	}

	RiderLedgerRow struct {
		Timestamp    string
		OperatorName string
		Order        string
		FolderName   string
		AssetLink    string
	}

	HandoverFolderResponse struct {
		Order      string `json:"order"`
		FolderID   string `json:"folder_id"`
		FolderName string `json:"folder_name"`
	}

	UploadHandoverRequest struct {
		Order string `form:"order" validate:"required,max=128"`
	}

	UploadHandoverResponse struct {
		Order      string `json:"order"`
		FolderName string `json:"folder_name"`
		AssetLink  string `json:"asset_link"`
		Warning    string `json:"warning,omitempty"`
	}
)

// Cells returns the row in PickLedgerHeader column order.
func (r LedgerRow) Cells() []string {
	return []string{
		r.Timestamp, r.Order, r.Barcode, r.ProductName, r.Location,
		strconv.Itoa(r.Quantity), r.OperatorID, r.OperatorName, r.AssetReference,
	}
}

func (r RiderLedgerRow) Cells() []string {
	return []string{r.Timestamp, r.OperatorName, r.Order, r.FolderName, r.AssetLink}
}
