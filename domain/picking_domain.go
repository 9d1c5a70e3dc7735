package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessScan          = "scan accepted"
	MessageSuccessConfirmQty    = "quantity confirmed"
	MessageSuccessCapturePhoto  = "photo captured"
	MessageSuccessRemovePhoto   = "photo removed"
	MessageSuccessRemoveItem    = "cart item removed"
	MessageSuccessRevert        = "step reverted"
	MessageSuccessReset         = "session reset"
	MessageSuccessCommit        = "commit saved"
	MessageSuccessCommitWarning = "photos saved but ledger append failed"
	MessageSuccessGetState      = "session state retrieved"

	MessageInputRejected  = "input rejected"
	MessageFailedCommit   = "failed to commit"
	MessageFailedGetState = "failed to retrieve session state"

	// input rejections
	ErrNoCodeDecoded     = errors.New("no code found in image, try again")
	ErrEmptyCode         = errors.New("code is empty")
	ErrLocationMismatch  = errors.New("scanned location does not match expected location")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrQuantityMismatch  = errors.New("quantity does not match expected quantity")
	ErrGalleryFull       = errors.New("photo gallery is full")
	ErrPhotoNotFound     = errors.New("photo not found")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrUnsupportedImage  = errors.New("unsupported image format")
	ErrIllegalTransition = errors.New("action not allowed in current step")

	// prevented actions
	ErrCartEmpty       = errors.New("cart is empty")
	ErrNoPhotos        = errors.New("at least one photo is required")
	ErrCommitPending   = errors.New("a commit is pending, retry or cancel the order")
	ErrNotLoggedIn     = errors.New("no operator logged in")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("session is busy with another request")

	// collaborator failures
	ErrProvisionFailed = errors.New("failed to provision photo folder")
	ErrUploadFailed    = errors.New("failed to upload photo")
	ErrLedgerFailed    = errors.New("failed to append ledger rows")
)

type (
	ScanRequest struct {
		Code string `json:"code" form:"code" validate:"omitempty,max=128,scancode"`
	}

	ConfirmQuantityRequest struct {
		Quantity int `json:"quantity" form:"quantity"`
	}

	RevertRequest struct {
		To string `json:"to" validate:"required,oneof=AWAITING_ORDER AWAITING_PRODUCT AWAITING_LOCATION AWAITING_QUANTITY CART_REVIEW"`
	}

	PickItemResponse struct {
		Barcode          string `json:"barcode"`
		DisplayName      string `json:"display_name"`
		ExpectedLocation string `json:"expected_location"`
		ScannedLocation  string `json:"scanned_location"`
		Quantity         int    `json:"quantity"`
	}

	PhotoResponse struct {
		Index      int       `json:"index"`
		Filename   string    `json:"filename"`
		Size       int       `json:"size"`
		CapturedAt time.Time `json:"captured_at"`
	}

	SessionStateResponse struct {
		SessionID        string             `json:"session_id"`
		OperatorID       string             `json:"operator_id"`
		OperatorName     string             `json:"operator_name"`
		Mode             string             `json:"mode"`
		State            string             `json:"state"`
		Order            string             `json:"order,omitempty"`
		Product          string             `json:"product,omitempty"`
		ProductName      string             `json:"product_name,omitempty"`
		ExpectedLocation string             `json:"expected_location,omitempty"`
		ScannedLocation  string             `json:"scanned_location,omitempty"`
		Quantity         int                `json:"quantity"`
		Cart             []PickItemResponse `json:"cart"`
		Photos           []PhotoResponse    `json:"photos"`
		CanCapture       bool               `json:"can_capture"`
		CommitPending    bool               `json:"commit_pending"`
		AllowedActions   []string           `json:"allowed_actions"`
	}

	CommitResponse struct {
		FolderID       string               `json:"folder_id"`
		FolderPath     string               `json:"folder_path"`
		Assets         []string             `json:"assets"`
		LedgerRows     int                  `json:"ledger_rows"`
		Warning        string               `json:"warning,omitempty"`
		CommittedAt    string               `json:"committed_at"`
		NextState      SessionStateResponse `json:"next_state"`
		LedgerAppended bool                 `json:"ledger_appended"`
	}
)
