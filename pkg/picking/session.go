package picking

import (
	"Smart-Picking/domain"
	"Smart-Picking/internal/utils/storage"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MaxPhotos caps the photo gallery of one commit.
const MaxPhotos = 5

type Mode string

const (
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
)

func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeMulti)) {
		return ModeMulti
	}
	return ModeSingle
}

type OperatorIdentity struct {
	ID          string
	DisplayName string
}

type PhotoAsset struct {
	Data        []byte
	Filename    string
	ContentType string
	CapturedAt  time.Time
}

// CurrentItem holds the item being scanned before it is confirmed.
type CurrentItem struct {
	Barcode           string
	DisplayName       string
	ExpectedLocation  string
	ScannedLocation   string
	ExpectedQty       int
	Quantity          int
	QuantityConfirmed bool
}

func (c CurrentItem) pickItem() PickItem {
	return PickItem{
		Barcode:          c.Barcode,
		DisplayName:      c.DisplayName,
		ExpectedLocation: c.ExpectedLocation,
		ScannedLocation:  c.ScannedLocation,
		Quantity:         c.Quantity,
	}
}

// PendingCommit remembers what a failed commit already did so a retry can resume
// without provisioning a new folder or uploading photos twice.
type PendingCommit struct {
	Folder    storage.Folder
	Timestamp time.Time
	Assets    []string
}

// Session binds one operator to one in-progress order.
type Session struct {
	ID       string
	Operator OperatorIdentity
	Mode     Mode
	State    ScanState
	Order    string
	Current  CurrentItem
	Cart     Cart
	Gallery  []PhotoAsset
	Pending  *PendingCommit

	CreatedAt    time.Time
	LastActivity time.Time

	captureSeq int
	busy       sync.Mutex
}

func NewSession(id string, operator OperatorIdentity, mode Mode, now time.Time) *Session {
	return &Session{
		ID:           id,
		Operator:     operator,
		Mode:         mode,
		State:        StateAwaitingOrder,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// ResetItem clears the item in progress and its photos. Order and cart are kept.
func (s *Session) ResetItem() {
	s.Current = CurrentItem{}
	s.Gallery = nil
	switch {
	case s.Order == "":
		s.State = StateAwaitingOrder
	case s.Mode == ModeMulti && s.Cart.Count() > 0:
		s.State = StateCartReview
	default:
		s.State = StateAwaitingProduct
	}
}

// ResetOrder also drops the order, the cart and any pending commit.
func (s *Session) ResetOrder() {
	s.Order = ""
	s.Cart.Clear()
	s.Pending = nil
	s.ResetItem()
}

// ResetLogin also forgets the operator.
func (s *Session) ResetLogin() {
	s.ResetOrder()
	s.Operator = OperatorIdentity{}
}

// AfterCommit applies the reset that follows a successful commit: the next item of the
// same order in single mode, a fresh order in multi mode.
func (s *Session) AfterCommit() {
	s.Pending = nil
	s.Cart.Clear()
	if s.Mode == ModeMulti {
		s.ResetOrder()
		return
	}
	s.ResetItem()
}

// CanCapture reports whether the capture action is offered.
func (s *Session) CanCapture() bool {
	if s.Pending != nil || len(s.Gallery) >= MaxPhotos {
		return false
	}
	return s.State == StatePacking || s.State == StateReadyToCommit
}

// CommitItems returns the items a commit would write, in pick order.
func (s *Session) CommitItems() []PickItem {
	if s.Mode == ModeMulti {
		return s.Cart.Items()
	}
	if s.Current.QuantityConfirmed {
		return []PickItem{s.Current.pickItem()}
	}
	return nil
}

// CommitEligible returns the reason a commit is not allowed, nil when it is.
func (s *Session) CommitEligible() error {
	switch {
	case s.Operator.ID == "":
		return domain.ErrNotLoggedIn
	case len(s.CommitItems()) == 0:
		return domain.ErrCartEmpty
	case len(s.Gallery) == 0:
		return domain.ErrNoPhotos
	case s.State != StateReadyToCommit:
		return domain.ErrIllegalTransition
	}
	return nil
}

// NewPhoto names a captured image after the order, product, location and capture time.
func (s *Session) NewPhoto(data []byte, contentType string, at time.Time) PhotoAsset {
	s.captureSeq++
	product, location := s.Current.Barcode, s.Current.ScannedLocation
	if s.Mode == ModeMulti {
		product = fmt.Sprintf("%dITEMS", s.Cart.Count())
		location = "MULTI"
		if s.Cart.Count() == 1 {
			item := s.Cart.Items()[0]
			product, location = item.Barcode, item.ScannedLocation
		}
	}
	name := fmt.Sprintf("%s_%s_%s_%s_Img%d.jpg",
		storage.SanitizeName(s.Order),
		storage.SanitizeName(product),
		storage.SanitizeName(location),
		at.Format("20060102_150405"),
		s.captureSeq,
	)
	return PhotoAsset{Data: data, Filename: name, ContentType: contentType, CapturedAt: at}
}
