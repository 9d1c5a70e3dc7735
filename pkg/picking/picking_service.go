package picking

import (
	"Smart-Picking/domain"
	"Smart-Picking/internal/metrics"
	"Smart-Picking/internal/utils/mailing"
	"Smart-Picking/internal/utils/storage"
	"Smart-Picking/pkg/jwt"
	"Smart-Picking/pkg/scanner"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// LedgerTimeLayout is the timestamp format written to the ledger.
const LedgerTimeLayout = "2006-01-02 15:04:05"

type (
	CatalogLookup interface {
		Lookup(ctx context.Context, code string) (domain.CatalogEntry, error)
	}

	OperatorLookup interface {
		Authenticate(ctx context.Context, code, password string) (domain.Operator, error)
	}

	FolderProvisioner interface {
		Provision(ctx context.Context, order string, at time.Time) (storage.Folder, error)
	}

	LedgerWriter interface {
		AppendCommit(ctx context.Context, rows []domain.LedgerRow) error
	}

	LedgerAlerter interface {
		LedgerAppendFailed(ctx context.Context, alert mailing.LedgerAlert)
	}

	// ScanInput is a typed code or a camera frame to decode. Code wins when both are set.
	ScanInput struct {
		Code  string
		Image []byte
	}

	Options struct {
		Catalog     CatalogLookup
		Operators   OperatorLookup
		Provisioner FolderProvisioner
		Store       storage.ObjectStore
		Ledger      LedgerWriter
		Decoder     scanner.Decoder
		Tokens      jwt.JWTService
		Alerter     LedgerAlerter
		Metrics     *metrics.Registry
		Policy      Policy
		Mode        Mode
		Location    *time.Location
		Now         func() time.Time
	}

	PickingService interface {
		Login(ctx context.Context, req domain.LoginRequest, badge []byte) (domain.LoginResponse, error)
		Logout(ctx context.Context, sessionID string) error
		SessionExists(sessionID string) bool
		EvictIdle(maxIdle time.Duration) int

		ScanOrder(ctx context.Context, sessionID string, in ScanInput) (domain.SessionStateResponse, error)
		ScanProduct(ctx context.Context, sessionID string, in ScanInput) (domain.SessionStateResponse, error)
		ScanLocation(ctx context.Context, sessionID string, in ScanInput) (domain.SessionStateResponse, error)
		ConfirmQuantity(ctx context.Context, sessionID string, quantity int) (domain.SessionStateResponse, error)
		ReviewCart(ctx context.Context, sessionID string) (domain.SessionStateResponse, error)
		BeginPacking(ctx context.Context, sessionID string) (domain.SessionStateResponse, error)
		RemoveCartItem(ctx context.Context, sessionID string, index int) (domain.SessionStateResponse, error)
		CapturePhoto(ctx context.Context, sessionID string, data []byte) (domain.SessionStateResponse, error)
		RemovePhoto(ctx context.Context, sessionID string, index int) (domain.SessionStateResponse, error)
		Revert(ctx context.Context, sessionID string, to ScanState) (domain.SessionStateResponse, error)
		ResetItem(ctx context.Context, sessionID string) (domain.SessionStateResponse, error)
		CancelOrder(ctx context.Context, sessionID string) (domain.SessionStateResponse, error)
		Commit(ctx context.Context, sessionID string) (domain.CommitResponse, error)
		GetState(ctx context.Context, sessionID string) (domain.SessionStateResponse, error)
	}

	pickingService struct {
		opts     Options
		machine  *Machine
		sessions *SessionRegistry
	}
)

func NewPickingService(opts Options) PickingService {
	if opts.Decoder == nil {
		opts.Decoder = scanner.NewDecoder()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Mode == "" {
		opts.Mode = ModeSingle
	}
	return &pickingService{
		opts:     opts,
		machine:  NewMachine(opts.Policy),
		sessions: NewSessionRegistry(),
	}
}

func (s *pickingService) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

func (s *pickingService) resolveCode(in ScanInput) (string, error) {
	// request strings may alias the transport's reusable buffer; the session outlives it
	if code := strings.TrimSpace(in.Code); code != "" {
		return strings.Clone(code), nil
	}
	if len(in.Image) == 0 {
		return "", domain.ErrEmptyCode
	}
	return s.opts.Decoder.Decode(in.Image)
}

func (s *pickingService) Login(ctx context.Context, req domain.LoginRequest, badge []byte) (domain.LoginResponse, error) {
	code, err := s.resolveCode(ScanInput{Code: req.Code, Image: badge})
	if err != nil {
		return domain.LoginResponse{}, err
	}
	op, err := s.opts.Operators.Authenticate(ctx, code, req.Password)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	session := NewSession(uuid.NewString(), OperatorIdentity{ID: op.ID, DisplayName: op.DisplayName}, s.opts.Mode, s.now())
	token, err := s.opts.Tokens.GenerateTokenOperator(session.ID, op.ID, op.DisplayName)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	s.sessions.Put(session)
	s.trackSessions()
	log.Infof("operator %s logged in, session %s", op.ID, session.ID)

	return domain.LoginResponse{
		Token:       token,
		SessionID:   session.ID,
		OperatorID:  op.ID,
		DisplayName: op.DisplayName,
	}, nil
}

func (s *pickingService) Logout(_ context.Context, sessionID string) error {
	session, release, err := s.sessions.Acquire(sessionID)
	if err != nil {
		return err
	}
	session.ResetLogin()
	s.sessions.Remove(sessionID)
	release()
	s.trackSessions()
	return nil
}

func (s *pickingService) SessionExists(sessionID string) bool {
	return s.sessions.Exists(sessionID)
}

// EvictIdle logs out every session untouched for longer than maxIdle.
func (s *pickingService) EvictIdle(maxIdle time.Duration) int {
	evicted := s.sessions.Sweep(s.now().Add(-maxIdle))
	if len(evicted) > 0 {
		log.Infof("evicted %d idle picking sessions", len(evicted))
		s.trackSessions()
	}
	return len(evicted)
}

func (s *pickingService) trackSessions() {
	if s.opts.Metrics != nil {
		s.opts.Metrics.ActiveSessions.Set(float64(s.sessions.Count()))
	}
}

// apply runs fn on the locked session and renders the state it leaves behind.
func (s *pickingService) apply(sessionID string, fn func(*Session) error) (domain.SessionStateResponse, error) {
	session, release, err := s.sessions.Acquire(sessionID)
	if err != nil {
		return domain.SessionStateResponse{}, err
	}
	defer release()

	session.LastActivity = s.now()
	if err := fn(session); err != nil {
		s.rejected(err)
		return stateResponse(session), err
	}
	return stateResponse(session), nil
}

func (s *pickingService) event(session *Session, ev Event) error {
	res := s.machine.Apply(session, ev)
	return res.Err()
}

func (s *pickingService) rejected(err error) {
	if s.opts.Metrics == nil {
		return
	}
	var rej *Rejection
	if errors.As(err, &rej) {
		s.opts.Metrics.InputRejections.WithLabelValues(rej.Field).Inc()
	}
}

func (s *pickingService) ScanOrder(_ context.Context, sessionID string, in ScanInput) (domain.SessionStateResponse, error) {
	return s.apply(sessionID, func(session *Session) error {
		code, err := s.resolveCode(in)
		if err != nil {
			return &Rejection{Field: "order", Err: err}
		}
		return s.event(session, OrderScanned{Code: code})
	})
}

func (s *pickingService) ScanProduct(ctx context.Context, sessionID string, in ScanInput) (domain.SessionStateResponse, error) {
	return s.apply(sessionID, func(session *Session) error {
		code, err := s.resolveCode(in)
		if err != nil {
			return &Rejection{Field: "product", Err: err}
		}
		ev := ProductScanned{Code: code}
		if session.State == StateAwaitingProduct || session.State == StateCartReview {
			entry, err := s.opts.Catalog.Lookup(ctx, code)
			switch {
			case err == nil:
				ev.Entry = &entry
			case !errors.Is(err, domain.ErrProductNotFound):
				return fmt.Errorf("catalog lookup %s: %w", code, err)
			}
		}
		return s.event(session, ev)
	})
}

func (s *pickingService) ScanLocation(_ context.Context, sessionID string, in ScanInput) (domain.SessionStateResponse, error) {
	return s.apply(sessionID, func(session *Session) error {
		code, err := s.resolveCode(in)
		if err != nil {
			return &Rejection{Field: "location", Err: err}
		}
		return s.event(session, LocationScanned{Code: code})
	})
}

func (s *pickingService) ConfirmQuantity(_ context.Context, sessionID string, quantity int) (domain.SessionStateResponse, error) {
	return s.apply(sessionID, func(session *Session) error {
		return s.event(session, QuantityConfirmed{Quantity: quantity})
	})
}

func (s *pickingService) ReviewCart(_ context.Context, sessionID string) (domain.SessionStateResponse, error) {
	return s.apply(sessionID, func(session *Session) error {
		return s.event(session, CartReviewed{})
	})
}

func (s *pickingService) BeginPacking(_ context.Context, sessionID string) (domain.SessionStateResponse, error) {
	return s.apply(sessionID, func(session *Session) error {
		return s.event(session, PackingStarted{})
	})
}

func (s *pickingService) RemoveCartItem(_ context.Context, sessionID string, index int) (domain.SessionStateResponse, error) {
	return s.apply(sessionID, func(session *Session) error {
		return s.event(session, CartItemRemoved{Index: index})
	})
}

func (s *pickingService) CapturePhoto(_ context.Context, sessionID string, data []byte) (domain.SessionStateResponse, error) {
	return s.apply(sessionID, func(session *Session) error {
		if !session.CanCapture() {
			// gallery full, pending commit or wrong step: the machine names the reason
			return s.event(session, PhotoCaptured{})
		}
		jpegData, contentType, err := scanner.NormalizePhoto(data)
		if err != nil {
			return &Rejection{Field: "photo", Err: err}
		}
		photo := session.NewPhoto(jpegData, contentType, s.now())
		return s.event(session, PhotoCaptured{Photo: photo})
	})
}

func (s *pickingService) RemovePhoto(_ context.Context, sessionID string, index int) (domain.SessionStateResponse, error) {
	return s.apply(sessionID, func(session *Session) error {
		return s.event(session, PhotoRemoved{Index: index})
	})
}

func (s *pickingService) Revert(_ context.Context, sessionID string, to ScanState) (domain.SessionStateResponse, error) {
	return s.apply(sessionID, func(session *Session) error {
		return s.event(session, Reverted{To: to})
	})
}

func (s *pickingService) ResetItem(_ context.Context, sessionID string) (domain.SessionStateResponse, error) {
	return s.apply(sessionID, func(session *Session) error {
		if session.Pending != nil {
			return &Rejection{Field: "state", Err: domain.ErrCommitPending}
		}
		session.ResetItem()
		return nil
	})
}

func (s *pickingService) CancelOrder(_ context.Context, sessionID string) (domain.SessionStateResponse, error) {
	return s.apply(sessionID, func(session *Session) error {
		if session.Pending != nil {
			log.Warnf("order %s cancelled with a pending commit in %s", session.Order, session.Pending.Folder.Path())
		}
		session.ResetOrder()
		return nil
	})
}

func (s *pickingService) GetState(_ context.Context, sessionID string) (domain.SessionStateResponse, error) {
	return s.apply(sessionID, func(*Session) error { return nil })
}

// Commit provisions a folder, uploads the gallery in order and appends one ledger row
// per picked item. A failed upload keeps what was stored so a retry resumes; a failed
// ledger append is reported as a warning and can be retried the same way.
func (s *pickingService) Commit(ctx context.Context, sessionID string) (domain.CommitResponse, error) {
	session, release, err := s.sessions.Acquire(sessionID)
	if err != nil {
		return domain.CommitResponse{}, err
	}
	defer release()

	started := time.Now()
	session.LastActivity = s.now()
	if err := session.CommitEligible(); err != nil {
		return domain.CommitResponse{NextState: stateResponse(session)}, err
	}
	items := session.CommitItems()
	order := session.Order

	pending := session.Pending
	if pending == nil {
		at := s.now()
		folder, err := s.opts.Provisioner.Provision(ctx, session.Order, at)
		if err != nil {
			s.failed("provision")
			log.Errorf("provision folder for order %s: %v", session.Order, err)
			return domain.CommitResponse{NextState: stateResponse(session)}, fmt.Errorf("%w: %v", domain.ErrProvisionFailed, err)
		}
		pending = &PendingCommit{Folder: folder, Timestamp: at}
		session.Pending = pending
	}

	for i := len(pending.Assets); i < len(session.Gallery); i++ {
		photo := session.Gallery[i]
		ref, err := s.opts.Store.UploadAsset(ctx, photo.Data, photo.Filename, pending.Folder)
		if err != nil {
			s.failed("upload")
			log.Errorf("upload %s to %s: %v", photo.Filename, pending.Folder.Path(), err)
			return domain.CommitResponse{
				FolderID:   pending.Folder.ID,
				FolderPath: pending.Folder.Path(),
				Assets:     append([]string(nil), pending.Assets...),
				NextState:  stateResponse(session),
			}, fmt.Errorf("%w: %s: %v", domain.ErrUploadFailed, photo.Filename, err)
		}
		pending.Assets = append(pending.Assets, ref)
		if s.opts.Metrics != nil {
			s.opts.Metrics.PhotosUploaded.Inc()
		}
	}

	rows := BuildLedgerRows(session.Order, items, session.Operator, pending.Timestamp, pending.Assets[0])
	res := domain.CommitResponse{
		FolderID:    pending.Folder.ID,
		FolderPath:  pending.Folder.Path(),
		Assets:      append([]string(nil), pending.Assets...),
		LedgerRows:  len(rows),
		CommittedAt: pending.Timestamp.Format(LedgerTimeLayout),
	}

	if err := s.opts.Ledger.AppendCommit(ctx, rows); err != nil {
		s.failed("ledger")
		if s.opts.Metrics != nil {
			s.opts.Metrics.LedgerWarnings.Inc()
		}
		log.Warnf("ledger append for order %s failed, photos kept in %s: %v", session.Order, pending.Folder.Path(), err)
		if s.opts.Alerter != nil {
			s.opts.Alerter.LedgerAppendFailed(ctx, mailing.LedgerAlert{
				Order:      session.Order,
				Operator:   session.Operator.DisplayName,
				FolderPath: pending.Folder.Path(),
				Assets:     pending.Assets,
				Rows:       len(rows),
				Cause:      err,
			})
		}
		res.Warning = fmt.Sprintf("%s: %v", domain.ErrLedgerFailed, err)
		res.NextState = stateResponse(session)
		return res, nil
	}

	s.machine.Apply(session, Committed{})
	session.AfterCommit()
	res.LedgerAppended = true
	res.NextState = stateResponse(session)

	if s.opts.Metrics != nil {
		s.opts.Metrics.CommitsTotal.Inc()
		s.opts.Metrics.LedgerRows.Add(float64(len(rows)))
		s.opts.Metrics.CommitLatencySec.Observe(time.Since(started).Seconds())
	}
	log.Infof("order %s committed: %d rows, %d photos in %s", order, len(rows), len(res.Assets), res.FolderPath)
	return res, nil
}

func (s *pickingService) failed(stage string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.CommitFailures.WithLabelValues(stage).Inc()
	}
}

// BuildLedgerRows maps the committed items to ledger rows in cart order. Every row shares
// one timestamp and one asset reference.
func BuildLedgerRows(order string, items []PickItem, op OperatorIdentity, at time.Time, assetRef string) []domain.LedgerRow {
	ts := at.Format(LedgerTimeLayout)
	rows := make([]domain.LedgerRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, domain.LedgerRow{
			Timestamp:      ts,
			Order:          order,
			Barcode:        item.Barcode,
			ProductName:    item.DisplayName,
			Location:       item.ScannedLocation,
			Quantity:       item.Quantity,
			OperatorID:     op.ID,
			OperatorName:   op.DisplayName,
			AssetReference: assetRef,
		})
	}
	return rows
}

func stateResponse(s *Session) domain.SessionStateResponse {
	cart := make([]domain.PickItemResponse, 0, s.Cart.Count())
	for _, item := range s.Cart.Items() {
		cart = append(cart, domain.PickItemResponse{
			Barcode:          item.Barcode,
			DisplayName:      item.DisplayName,
			ExpectedLocation: item.ExpectedLocation,
			ScannedLocation:  item.ScannedLocation,
			Quantity:         item.Quantity,
		})
	}
	photos := make([]domain.PhotoResponse, 0, len(s.Gallery))
	for i, p := range s.Gallery {
		photos = append(photos, domain.PhotoResponse{
			Index:      i,
			Filename:   p.Filename,
			Size:       len(p.Data),
			CapturedAt: p.CapturedAt,
		})
	}

	return domain.SessionStateResponse{
		SessionID:        s.ID,
		OperatorID:       s.Operator.ID,
		OperatorName:     s.Operator.DisplayName,
		Mode:             string(s.Mode),
		State:            s.State.String(),
		Order:            s.Order,
		Product:          s.Current.Barcode,
		ProductName:      s.Current.DisplayName,
		ExpectedLocation: s.Current.ExpectedLocation,
		ScannedLocation:  s.Current.ScannedLocation,
		Quantity:         s.Current.Quantity,
		Cart:             cart,
		Photos:           photos,
		CanCapture:       s.CanCapture(),
		CommitPending:    s.Pending != nil,
		AllowedActions:   AllowedActions(s),
	}
}
