package picking

import (
	"Smart-Picking/domain"
	"fmt"
	"strings"
)

type ScanState int

const (
	StateAwaitingOrder ScanState = iota
	StateAwaitingProduct
	StateAwaitingLocation
	StateAwaitingQuantity
	StateCartReview
	StatePacking
	StateReadyToCommit
	StateCommitted
)

var stateNames = map[ScanState]string{
	StateAwaitingOrder:    "AWAITING_ORDER",
	StateAwaitingProduct:  "AWAITING_PRODUCT",
	StateAwaitingLocation: "AWAITING_LOCATION",
	StateAwaitingQuantity: "AWAITING_QUANTITY",
	StateCartReview:       "CART_REVIEW",
	StatePacking:          "PACKING",
	StateReadyToCommit:    "READY_TO_COMMIT",
	StateCommitted:        "COMMITTED",
}

func (s ScanState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ScanState(%d)", int(s))
}

func ParseState(name string) (ScanState, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for s, n := range stateNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// Event is an input to the state machine. Scanned and typed codes arrive as the same
// event; the machine never knows how a code was captured.
type Event interface {
	event()
}

type (
	OrderScanned struct{ Code string }
	// ProductScanned carries the catalog result; Entry is nil on a catalog miss.
	ProductScanned struct {
		Code  string
		Entry *domain.CatalogEntry
	}
	LocationScanned   struct{ Code string }
	QuantityConfirmed struct{ Quantity int }
	CartReviewed      struct{}
	PackingStarted    struct{}
	PhotoCaptured     struct{ Photo PhotoAsset }
	PhotoRemoved      struct{ Index int }
	CartItemRemoved   struct{ Index int }
	Reverted          struct{ To ScanState }
	Committed         struct{}
)

func (OrderScanned) event()      {}
func (ProductScanned) event()    {}
func (LocationScanned) event()   {}
func (QuantityConfirmed) event() {}
func (CartReviewed) event()      {}
func (PackingStarted) event()    {}
func (PhotoCaptured) event()     {}
func (PhotoRemoved) event()      {}
func (CartItemRemoved) event()   {}
func (Reverted) event()          {}
func (Committed) event()         {}

// Rejection explains which field was refused. Confirmed fields are never touched by a
// rejected event.
type Rejection struct {
	Field string
	Value string
	Err   error
}

func (r *Rejection) Error() string {
	if r.Value != "" {
		return fmt.Sprintf("%s %q: %v", r.Field, r.Value, r.Err)
	}
	return fmt.Sprintf("%s: %v", r.Field, r.Err)
}

func (r *Rejection) Unwrap() error { return r.Err }

type Result struct {
	From      ScanState
	To        ScanState
	Rejection *Rejection
}

func (r Result) Err() error {
	if r.Rejection == nil {
		return nil
	}
	return r.Rejection
}

// QuantityPolicy selects where the default quantity comes from and whether the
// confirmed quantity must equal the catalog's expected quantity.
type QuantityPolicy struct {
	DefaultFromMaster bool
	EnforceMaster     bool
}

type Policy struct {
	Match    LocationMatcher
	Quantity QuantityPolicy
}

type Machine struct {
	policy Policy
}

func NewMachine(policy Policy) *Machine {
	if policy.Match == nil {
		policy.Match = SubstringMatch
	}
	return &Machine{policy: policy}
}

func reject(s *Session, field, value string, err error) Result {
	return Result{From: s.State, To: s.State, Rejection: &Rejection{Field: field, Value: value, Err: err}}
}

// Apply runs one event against the session and returns the transition taken.
func (m *Machine) Apply(s *Session, ev Event) Result {
	from := s.State
	var res Result
	switch e := ev.(type) {
	case OrderScanned:
		res = m.scanOrder(s, e)
	case ProductScanned:
		res = m.scanProduct(s, e)
	case LocationScanned:
		res = m.scanLocation(s, e)
	case QuantityConfirmed:
		res = m.confirmQuantity(s, e)
	case CartReviewed:
		res = m.reviewCart(s)
	case PackingStarted:
		res = m.startPacking(s)
	case PhotoCaptured:
		res = m.capturePhoto(s, e)
	case PhotoRemoved:
		res = m.removePhoto(s, e)
	case CartItemRemoved:
		res = m.removeCartItem(s, e)
	case Reverted:
		res = m.revert(s, e)
	case Committed:
		res = m.commit(s)
	default:
		res = reject(s, "event", fmt.Sprintf("%T", ev), domain.ErrIllegalTransition)
	}
	res.From = from
	if res.Rejection == nil {
		res.To = s.State
	}
	return res
}

func (m *Machine) scanOrder(s *Session, e OrderScanned) Result {
	if s.State != StateAwaitingOrder {
		return reject(s, "order", e.Code, domain.ErrIllegalTransition)
	}
	code := strings.ToUpper(strings.TrimSpace(e.Code))
	if code == "" {
		return reject(s, "order", "", domain.ErrEmptyCode)
	}
	s.Order = code
	s.State = StateAwaitingProduct
	return Result{}
}

func (m *Machine) scanProduct(s *Session, e ProductScanned) Result {
	if s.State != StateAwaitingProduct && s.State != StateCartReview {
		return reject(s, "product", e.Code, domain.ErrIllegalTransition)
	}
	code := strings.TrimSpace(e.Code)
	if code == "" {
		return reject(s, "product", "", domain.ErrEmptyCode)
	}
	if e.Entry == nil {
		return reject(s, "product", code, domain.ErrProductNotFound)
	}

	qty := 1
	if m.policy.Quantity.DefaultFromMaster && e.Entry.ExpectedQty > 0 {
		qty = e.Entry.ExpectedQty
	}
	s.Current = CurrentItem{
		Barcode:          code,
		DisplayName:      e.Entry.DisplayName,
		ExpectedLocation: TargetLocation(e.Entry.Zone, e.Entry.Location),
		ExpectedQty:      e.Entry.ExpectedQty,
		Quantity:         qty,
	}
	s.Gallery = nil
	s.State = StateAwaitingLocation
	return Result{}
}

func (m *Machine) scanLocation(s *Session, e LocationScanned) Result {
	if s.State != StateAwaitingLocation {
		return reject(s, "location", e.Code, domain.ErrIllegalTransition)
	}
	scanned := NormalizeLocation(e.Code)
	if scanned == "" {
		return reject(s, "location", "", domain.ErrEmptyCode)
	}
	if !m.policy.Match(s.Current.ExpectedLocation, scanned) {
		s.Current.ScannedLocation = ""
		return reject(s, "location", scanned, domain.ErrLocationMismatch)
	}
	s.Current.ScannedLocation = scanned
	s.State = StateAwaitingQuantity
	return Result{}
}

func (m *Machine) confirmQuantity(s *Session, e QuantityConfirmed) Result {
	if s.State != StateAwaitingQuantity {
		return reject(s, "quantity", fmt.Sprint(e.Quantity), domain.ErrIllegalTransition)
	}
	if e.Quantity < 1 {
		return reject(s, "quantity", fmt.Sprint(e.Quantity), domain.ErrInvalidQuantity)
	}
	if m.policy.Quantity.EnforceMaster && s.Current.ExpectedQty > 0 && e.Quantity != s.Current.ExpectedQty {
		return reject(s, "quantity", fmt.Sprint(e.Quantity), domain.ErrQuantityMismatch)
	}

	s.Current.Quantity = e.Quantity
	s.Current.QuantityConfirmed = true
	if s.Mode == ModeMulti {
		if err := s.Cart.Add(s.Current.pickItem()); err != nil {
			return reject(s, "quantity", fmt.Sprint(e.Quantity), err)
		}
		s.Current = CurrentItem{}
		s.State = StateCartReview
		return Result{}
	}
	s.State = packingState(s)
	return Result{}
}

func (m *Machine) reviewCart(s *Session) Result {
	if s.Mode != ModeMulti || (s.State != StateAwaitingProduct && s.State != StateCartReview) {
		return reject(s, "cart", "", domain.ErrIllegalTransition)
	}
	if s.Cart.Count() == 0 {
		return reject(s, "cart", "", domain.ErrCartEmpty)
	}
	s.Current = CurrentItem{}
	s.State = StateCartReview
	return Result{}
}

func (m *Machine) startPacking(s *Session) Result {
	if s.Mode != ModeMulti || (s.State != StateAwaitingProduct && s.State != StateCartReview) {
		return reject(s, "cart", "", domain.ErrIllegalTransition)
	}
	if s.Cart.Count() == 0 {
		return reject(s, "cart", "", domain.ErrCartEmpty)
	}
	s.Current = CurrentItem{}
	s.State = packingState(s)
	return Result{}
}

func packingState(s *Session) ScanState {
	if len(s.Gallery) > 0 {
		return StateReadyToCommit
	}
	return StatePacking
}

func (m *Machine) capturePhoto(s *Session, e PhotoCaptured) Result {
	if s.State != StatePacking && s.State != StateReadyToCommit {
		return reject(s, "photo", e.Photo.Filename, domain.ErrIllegalTransition)
	}
	if s.Pending != nil {
		return reject(s, "photo", e.Photo.Filename, domain.ErrCommitPending)
	}
	if len(s.Gallery) >= MaxPhotos {
		return reject(s, "photo", e.Photo.Filename, domain.ErrGalleryFull)
	}
	s.Gallery = append(s.Gallery, e.Photo)
	s.State = StateReadyToCommit
	return Result{}
}

func (m *Machine) removePhoto(s *Session, e PhotoRemoved) Result {
	if s.State != StatePacking && s.State != StateReadyToCommit {
		return reject(s, "photo", fmt.Sprint(e.Index), domain.ErrIllegalTransition)
	}
	if s.Pending != nil {
		return reject(s, "photo", fmt.Sprint(e.Index), domain.ErrCommitPending)
	}
	if e.Index < 0 || e.Index >= len(s.Gallery) {
		return reject(s, "photo", fmt.Sprint(e.Index), domain.ErrPhotoNotFound)
	}
	s.Gallery = append(s.Gallery[:e.Index], s.Gallery[e.Index+1:]...)
	s.State = packingState(s)
	return Result{}
}

func (m *Machine) removeCartItem(s *Session, e CartItemRemoved) Result {
	switch s.State {
	case StateAwaitingProduct, StateCartReview, StatePacking, StateReadyToCommit:
	default:
		return reject(s, "cart", fmt.Sprint(e.Index), domain.ErrIllegalTransition)
	}
	if s.Mode != ModeMulti {
		return reject(s, "cart", fmt.Sprint(e.Index), domain.ErrIllegalTransition)
	}
	if s.Pending != nil {
		return reject(s, "cart", fmt.Sprint(e.Index), domain.ErrCommitPending)
	}
	if _, err := s.Cart.Remove(e.Index); err != nil {
		return reject(s, "cart", fmt.Sprint(e.Index), err)
	}
	if s.Cart.Count() == 0 {
		s.Gallery = nil
		s.State = StateAwaitingProduct
	}
	return Result{}
}

// revert moves back to an earlier step and drops only what was collected from that
// step onwards.
func (m *Machine) revert(s *Session, e Reverted) Result {
	to := e.To
	if s.State == StateCommitted || to >= s.State {
		return reject(s, "state", to.String(), domain.ErrIllegalTransition)
	}
	if s.Pending != nil {
		return reject(s, "state", to.String(), domain.ErrCommitPending)
	}

	switch to {
	case StateAwaitingOrder:
		s.ResetOrder()
	case StateAwaitingProduct:
		s.Current = CurrentItem{}
		s.Gallery = nil
		s.State = StateAwaitingProduct
	case StateAwaitingLocation:
		if s.Current.Barcode == "" {
			return reject(s, "state", to.String(), domain.ErrIllegalTransition)
		}
		s.Current.ScannedLocation = ""
		s.Current.QuantityConfirmed = false
		s.Gallery = nil
		s.State = StateAwaitingLocation
	case StateAwaitingQuantity:
		if s.Current.ScannedLocation == "" {
			return reject(s, "state", to.String(), domain.ErrIllegalTransition)
		}
		s.Current.QuantityConfirmed = false
		s.Gallery = nil
		s.State = StateAwaitingQuantity
	case StateCartReview:
		if s.Mode != ModeMulti || s.Cart.Count() == 0 {
			return reject(s, "state", to.String(), domain.ErrIllegalTransition)
		}
		s.Gallery = nil
		s.State = StateCartReview
	default:
		return reject(s, "state", to.String(), domain.ErrIllegalTransition)
	}
	return Result{}
}

func (m *Machine) commit(s *Session) Result {
	if err := s.CommitEligible(); err != nil {
		return reject(s, "commit", "", err)
	}
	s.State = StateCommitted
	return Result{}
}

// AllowedActions lists the actions the operator may take in the current state.
func AllowedActions(s *Session) []string {
	if s.Pending != nil {
		return []string{"commit", "cancel_order", "logout"}
	}
	var actions []string
	switch s.State {
	case StateAwaitingOrder:
		actions = append(actions, "scan_order")
	case StateAwaitingProduct:
		actions = append(actions, "scan_product", "revert", "cancel_order")
		if s.Mode == ModeMulti && s.Cart.Count() > 0 {
			actions = append(actions, "review_cart", "begin_packing", "remove_cart_item")
		}
	case StateAwaitingLocation:
		actions = append(actions, "scan_location", "revert", "reset_item", "cancel_order")
	case StateAwaitingQuantity:
		actions = append(actions, "confirm_quantity", "revert", "reset_item", "cancel_order")
	case StateCartReview:
		actions = append(actions, "scan_product", "begin_packing", "remove_cart_item", "revert", "cancel_order")
	case StatePacking, StateReadyToCommit:
		if s.CanCapture() {
			actions = append(actions, "capture_photo")
		}
		if len(s.Gallery) > 0 {
			actions = append(actions, "remove_photo")
		}
		if s.Mode == ModeMulti {
			actions = append(actions, "remove_cart_item")
		}
		actions = append(actions, "revert", "reset_item", "cancel_order")
		if s.CommitEligible() == nil {
			actions = append(actions, "commit")
		}
	}
	return append(actions, "logout")
}
