package picking

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"
	"time"

	"Smart-Picking/domain"
	"Smart-Picking/internal/metrics"
	"Smart-Picking/internal/utils/mailing"
	"Smart-Picking/internal/utils/storage"
	"Smart-Picking/pkg/jwt"
	"Smart-Picking/pkg/provision"
	"Smart-Picking/pkg/scanner"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog map[string]domain.CatalogEntry

func (f fakeCatalog) Lookup(_ context.Context, code string) (domain.CatalogEntry, error) {
	e, ok := f[code]
	if !ok {
		return domain.CatalogEntry{}, domain.ErrProductNotFound
	}
	return e, nil
}

type fakeOperators map[string]string

func (f fakeOperators) Authenticate(_ context.Context, code, _ string) (domain.Operator, error) {
	name, ok := f[code]
	if !ok {
		return domain.Operator{}, domain.ErrOperatorNotFound
	}
	return domain.Operator{ID: code, DisplayName: name}, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	failFor int
	calls   int
	commits [][]domain.LedgerRow
}

func (f *fakeLedger) AppendCommit(_ context.Context, rows []domain.LedgerRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failFor > 0 {
		f.failFor--
		return errors.New("sheet unavailable")
	}
	f.commits = append(f.commits, rows)
	return nil
}

type fakeAlerter struct {
	alerts []mailing.LedgerAlert
}

func (f *fakeAlerter) LedgerAppendFailed(_ context.Context, alert mailing.LedgerAlert) {
	f.alerts = append(f.alerts, alert)
}

// flakyStore fails the upload with the given 1-based number once.
type flakyStore struct {
	*storage.MemoryStore
	failOn  int
	uploads int
}

func (f *flakyStore) UploadAsset(ctx context.Context, data []byte, filename string, folder storage.Folder) (string, error) {
	f.uploads++
	if f.uploads == f.failOn {
		return "", errors.New("connection reset")
	}
	return f.MemoryStore.UploadAsset(ctx, data, filename, folder)
}

type fixture struct {
	svc      PickingService
	store    *storage.MemoryStore
	ledger   *fakeLedger
	alerter  *fakeAlerter
	metrics  *metrics.Registry
	clock    *time.Time
	root     storage.Folder
	sessions *SessionRegistry
}

var ict = time.FixedZone("ICT", 7*3600)

func newFixture(t *testing.T, mode Mode, store storage.ObjectStore) *fixture {
	t.Helper()
	mem := storage.NewMemoryStore()
	if store == nil {
		store = mem
	} else if fs, ok := store.(*flakyStore); ok {
		mem = fs.MemoryStore
	}

	now := time.Date(2024, 3, 5, 14, 5, 0, 0, ict)
	f := &fixture{
		store:   mem,
		ledger:  &fakeLedger{},
		alerter: &fakeAlerter{},
		metrics: metrics.NewRegistry(),
		clock:   &now,
		root:    storage.RootFolder("picking"),
	}
	svc := NewPickingService(Options{
		Catalog: fakeCatalog{
			widgetA.Code: widgetA,
			widgetB.Code: widgetB,
		},
		Operators:   fakeOperators{"E001": "Somchai"},
		Provisioner: provision.NewProvisionService(store, f.root, ict),
		Store:       store,
		Ledger:      f.ledger,
		Decoder:     &scanner.StaticDecoder{Codes: []string{"B17"}},
		Tokens:      jwt.NewJWTServiceWithSecret("test-secret"),
		Alerter:     f.alerter,
		Metrics:     f.metrics,
		Mode:        mode,
		Location:    ict,
		Now:         func() time.Time { return *f.clock },
	})
	f.svc = svc
	f.sessions = svc.(*pickingService).sessions
	return f
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: 100, B: uint8(y * 30), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func (f *fixture) login(t *testing.T) string {
	t.Helper()
	res, err := f.svc.Login(context.Background(), domain.LoginRequest{Code: "E001"}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, "Somchai", res.DisplayName)
	return res.SessionID
}

// pickOne scans one item of the current order up to its confirmed quantity.
func (f *fixture) pickOne(t *testing.T, id string, entry domain.CatalogEntry, location string, qty int) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.ScanProduct(ctx, id, ScanInput{Code: entry.Code})
	require.NoError(t, err)
	_, err = f.svc.ScanLocation(ctx, id, ScanInput{Code: location})
	require.NoError(t, err)
	_, err = f.svc.ConfirmQuantity(ctx, id, qty)
	require.NoError(t, err)
}

func TestPickingServiceSingleItemCommit(t *testing.T) {
	f := newFixture(t, ModeSingle, nil)
	ctx := context.Background()
	id := f.login(t)

	st, err := f.svc.ScanOrder(ctx, id, ScanInput{Code: "b17"})
	require.NoError(t, err)
	assert.Equal(t, "AWAITING_PRODUCT", st.State)
	assert.Equal(t, "B17", st.Order)

	f.pickOne(t, id, widgetA, "Z1-12", 3)

	st, err = f.svc.CapturePhoto(ctx, id, testJPEG(t))
	require.NoError(t, err)
	assert.Equal(t, "READY_TO_COMMIT", st.State)
	require.Len(t, st.Photos, 1)
	assert.Equal(t, "B17_8850001112223_Z1-12_20240305_140500_Img1.jpg", st.Photos[0].Filename)

	res, err := f.svc.Commit(ctx, id)
	require.NoError(t, err)
	assert.True(t, res.LedgerAppended)
	assert.Empty(t, res.Warning)
	assert.Equal(t, "picking/05-03-2024/B17_14-05", res.FolderPath)
	assert.Equal(t, 1, res.LedgerRows)
	assert.Equal(t, "2024-03-05 14:05:00", res.CommittedAt)

	require.Len(t, f.ledger.commits, 1)
	row := f.ledger.commits[0][0]
	assert.Equal(t, domain.LedgerRow{
		Timestamp:      "2024-03-05 14:05:00",
		Order:          "B17",
		Barcode:        "8850001112223",
		ProductName:    "Widget A",
		Location:       "Z1-12",
		Quantity:       3,
		OperatorID:     "E001",
		OperatorName:   "Somchai",
		AssetReference: res.Assets[0],
	}, row)

	_, ok := f.store.Object(res.Assets[0])
	assert.True(t, ok)

	// single mode keeps the order for its next item
	assert.Equal(t, "AWAITING_PRODUCT", res.NextState.State)
	assert.Equal(t, "B17", res.NextState.Order)
	assert.Empty(t, res.NextState.Photos)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CommitsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.PhotosUploaded))
}

func TestPickingServiceEveryCommitGetsItsOwnFolder(t *testing.T) {
	f := newFixture(t, ModeSingle, nil)
	ctx := context.Background()
	id := f.login(t)
	_, err := f.svc.ScanOrder(ctx, id, ScanInput{Code: "B17"})
	require.NoError(t, err)

	var paths []string
	for i := 0; i < 2; i++ {
		f.pickOne(t, id, widgetA, "Z1-12", 1)
		_, err = f.svc.CapturePhoto(ctx, id, testJPEG(t))
		require.NoError(t, err)
		res, err := f.svc.Commit(ctx, id)
		require.NoError(t, err)
		paths = append(paths, res.FolderPath)
	}

	assert.Equal(t, []string{"picking/05-03-2024/B17_14-05", "picking/05-03-2024/B17_14-05-2"}, paths)
	assert.Equal(t, 1, f.store.FolderCount(f.root, false), "one date folder")
}

func TestPickingServiceLedgerFailureIsWarningAndRetryable(t *testing.T) {
	f := newFixture(t, ModeSingle, nil)
	f.ledger.failFor = 1
	ctx := context.Background()
	id := f.login(t)

	_, err := f.svc.ScanOrder(ctx, id, ScanInput{Code: "B17"})
	require.NoError(t, err)
	f.pickOne(t, id, widgetA, "Z1-12", 3)
	for i := 0; i < 2; i++ {
		_, err = f.svc.CapturePhoto(ctx, id, testJPEG(t))
		require.NoError(t, err)
	}

	res, err := f.svc.Commit(ctx, id)
	require.NoError(t, err, "a ledger failure is not a commit error")
	assert.False(t, res.LedgerAppended)
	assert.NotEmpty(t, res.Warning)
	assert.Len(t, res.Assets, 2)
	assert.True(t, res.NextState.CommitPending)
	assert.Equal(t, 2, f.store.ObjectCount(), "photos stay uploaded")
	require.Len(t, f.alerter.alerts, 1)
	assert.Equal(t, "B17", f.alerter.alerts[0].Order)

	// edits are frozen until the pending commit is resolved
	_, err = f.svc.CapturePhoto(ctx, id, testJPEG(t))
	assert.ErrorIs(t, err, domain.ErrCommitPending)
	_, err = f.svc.RemovePhoto(ctx, id, 0)
	assert.ErrorIs(t, err, domain.ErrCommitPending)

	*f.clock = f.clock.Add(2 * time.Minute)
	retry, err := f.svc.Commit(ctx, id)
	require.NoError(t, err)
	assert.True(t, retry.LedgerAppended)
	assert.Equal(t, res.FolderPath, retry.FolderPath)
	assert.Equal(t, res.Assets, retry.Assets)
	assert.Equal(t, 2, f.store.ObjectCount(), "no re-upload on retry")

	require.Len(t, f.ledger.commits, 1)
	assert.Equal(t, "2024-03-05 14:05:00", f.ledger.commits[0][0].Timestamp, "original timestamp")
	assert.Equal(t, res.Assets[0], f.ledger.commits[0][0].AssetReference)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.LedgerWarnings))
}

func TestPickingServiceUploadFailureResumes(t *testing.T) {
	flaky := &flakyStore{MemoryStore: storage.NewMemoryStore(), failOn: 2}
	f := newFixture(t, ModeSingle, flaky)
	ctx := context.Background()
	id := f.login(t)

	_, err := f.svc.ScanOrder(ctx, id, ScanInput{Code: "B17"})
	require.NoError(t, err)
	f.pickOne(t, id, widgetA, "Z1-12", 1)
	for i := 0; i < 3; i++ {
		_, err = f.svc.CapturePhoto(ctx, id, testJPEG(t))
		require.NoError(t, err)
	}

	res, err := f.svc.Commit(ctx, id)
	require.ErrorIs(t, err, domain.ErrUploadFailed)
	assert.Len(t, res.Assets, 1)
	assert.Len(t, res.NextState.Photos, 3, "gallery kept for retry")
	assert.Empty(t, f.ledger.commits)

	res, err = f.svc.Commit(ctx, id)
	require.NoError(t, err)
	assert.Len(t, res.Assets, 3)
	assert.Equal(t, 4, flaky.uploads, "only the failed and remaining photos are sent again")
	assert.Equal(t, 3, f.store.ObjectCount())
	assert.Equal(t, 1, f.store.FolderCount(storage.Folder{ID: "picking/05-03-2024/"}, false))
	require.Len(t, f.ledger.commits, 1)
}

func TestPickingServiceMultiItemCommit(t *testing.T) {
	f := newFixture(t, ModeMulti, nil)
	ctx := context.Background()
	id := f.login(t)

	_, err := f.svc.ScanOrder(ctx, id, ScanInput{Code: "B17"})
	require.NoError(t, err)
	f.pickOne(t, id, widgetA, "Z1-12", 2)
	f.pickOne(t, id, widgetB, "Z2-07", 1)

	st, err := f.svc.BeginPacking(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "PACKING", st.State)
	require.Len(t, st.Cart, 2)

	_, err = f.svc.CapturePhoto(ctx, id, testJPEG(t))
	require.NoError(t, err)

	res, err := f.svc.Commit(ctx, id)
	require.NoError(t, err)
	require.Len(t, f.ledger.commits, 1)
	rows := f.ledger.commits[0]
	require.Len(t, rows, 2)
	assert.Equal(t, widgetA.Code, rows[0].Barcode)
	assert.Equal(t, 2, rows[0].Quantity)
	assert.Equal(t, widgetB.Code, rows[1].Barcode)
	assert.Equal(t, rows[0].Timestamp, rows[1].Timestamp)
	assert.Equal(t, rows[0].AssetReference, rows[1].AssetReference)

	assert.Equal(t, "AWAITING_ORDER", res.NextState.State)
	assert.Empty(t, res.NextState.Order)
	assert.Empty(t, res.NextState.Cart)
}

func TestPickingServiceRejections(t *testing.T) {
	f := newFixture(t, ModeSingle, nil)
	ctx := context.Background()
	id := f.login(t)

	// order from the camera frame
	st, err := f.svc.ScanOrder(ctx, id, ScanInput{Image: []byte("frame")})
	require.NoError(t, err)
	assert.Equal(t, "B17", st.Order)

	st, err = f.svc.ScanProduct(ctx, id, ScanInput{Image: []byte("frame")})
	assert.ErrorIs(t, err, domain.ErrNoCodeDecoded)
	assert.Equal(t, "AWAITING_PRODUCT", st.State)

	_, err = f.svc.ScanProduct(ctx, id, ScanInput{Code: "0000"})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = f.svc.ScanProduct(ctx, id, ScanInput{Code: widgetA.Code})
	require.NoError(t, err)
	st, err = f.svc.ScanLocation(ctx, id, ScanInput{Code: "Z9"})
	assert.ErrorIs(t, err, domain.ErrLocationMismatch)
	assert.Equal(t, widgetA.Code, st.Product)

	_, err = f.svc.Commit(ctx, id)
	assert.ErrorIs(t, err, domain.ErrCartEmpty)

	_, err = f.svc.CapturePhoto(ctx, id, []byte("not an image"))
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.InputRejections.WithLabelValues("location")))
}

func TestPickingServiceCancelOrderDropsPendingCommit(t *testing.T) {
	f := newFixture(t, ModeSingle, nil)
	f.ledger.failFor = 1
	ctx := context.Background()
	id := f.login(t)

	_, err := f.svc.ScanOrder(ctx, id, ScanInput{Code: "B17"})
	require.NoError(t, err)
	f.pickOne(t, id, widgetA, "Z1-12", 1)
	_, err = f.svc.CapturePhoto(ctx, id, testJPEG(t))
	require.NoError(t, err)
	_, err = f.svc.Commit(ctx, id)
	require.NoError(t, err)

	_, err = f.svc.ResetItem(ctx, id)
	assert.ErrorIs(t, err, domain.ErrCommitPending)

	st, err := f.svc.CancelOrder(ctx, id)
	require.NoError(t, err)
	assert.False(t, st.CommitPending)
	assert.Equal(t, "AWAITING_ORDER", st.State)
}

func TestPickingServiceBusySession(t *testing.T) {
	f := newFixture(t, ModeSingle, nil)
	id := f.login(t)

	_, release, err := f.sessions.Acquire(id)
	require.NoError(t, err)

	_, err = f.svc.GetState(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrSessionBusy)

	release()
	_, err = f.svc.GetState(context.Background(), id)
	assert.NoError(t, err)
}

func TestPickingServiceLoginLogout(t *testing.T) {
	f := newFixture(t, ModeSingle, nil)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, domain.LoginRequest{Code: "E999"}, nil)
	assert.ErrorIs(t, err, domain.ErrOperatorNotFound)
	_, err = f.svc.Login(ctx, domain.LoginRequest{}, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyCode)

	id := f.login(t)
	assert.True(t, f.svc.SessionExists(id))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ActiveSessions))

	require.NoError(t, f.svc.Logout(ctx, id))
	assert.False(t, f.svc.SessionExists(id))
	_, err = f.svc.GetState(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestPickingServiceEvictsIdleSessions(t *testing.T) {
	f := newFixture(t, ModeSingle, nil)
	ctx := context.Background()
	stale := f.login(t)
	_, err := f.svc.ScanOrder(ctx, stale, ScanInput{Code: "B17"})
	require.NoError(t, err)

	*f.clock = f.clock.Add(10 * time.Hour)
	active := f.login(t)
	held := f.login(t)
	_, release, err := f.sessions.Acquire(held)
	require.NoError(t, err)

	*f.clock = f.clock.Add(3 * time.Hour)
	_, err = f.svc.GetState(ctx, active)
	require.NoError(t, err)
	// held is idle as well but busy, active was just used
	assert.Equal(t, 1, f.svc.EvictIdle(2*time.Hour))
	assert.False(t, f.svc.SessionExists(stale))
	_, err = f.svc.GetState(ctx, stale)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.True(t, f.svc.SessionExists(active))
	assert.True(t, f.svc.SessionExists(held))
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.ActiveSessions))

	release()
	assert.Equal(t, 1, f.svc.EvictIdle(2*time.Hour))
	assert.False(t, f.svc.SessionExists(held))
	assert.True(t, f.svc.SessionExists(active))
}

func TestBuildLedgerRows(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 5, 7, 0, ict)
	items := []PickItem{
		{Barcode: "A", DisplayName: "Alpha", ScannedLocation: "Z1-1", Quantity: 1},
		{Barcode: "B", DisplayName: "Beta", ScannedLocation: "Z1-2", Quantity: 4},
		{Barcode: "A", DisplayName: "Alpha", ScannedLocation: "Z1-1", Quantity: 2},
	}
	rows := BuildLedgerRows("B17", items, OperatorIdentity{ID: "E001", DisplayName: "Somchai"}, at, "ref-1")

	require.Len(t, rows, 3)
	for i, r := range rows {
		assert.Equal(t, items[i].Barcode, r.Barcode)
		assert.Equal(t, items[i].Quantity, r.Quantity)
		assert.Equal(t, "2024-03-05 14:05:07", r.Timestamp)
		assert.Equal(t, "ref-1", r.AssetReference)
	}
	assert.Equal(t, "4", rows[1].Cells()[5])
}
