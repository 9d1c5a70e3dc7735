package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Smart-Picking/domain"
	"Smart-Picking/internal/middleware"
	"Smart-Picking/internal/utils"
	"Smart-Picking/internal/utils/storage"
	"Smart-Picking/pkg/jwt"
	"Smart-Picking/pkg/picking"
	"Smart-Picking/pkg/provision"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct{}

func (stubCatalog) Lookup(_ context.Context, code string) (domain.CatalogEntry, error) {
	if code != "8850001112223" {
		return domain.CatalogEntry{}, domain.ErrProductNotFound
	}
	return domain.CatalogEntry{Code: code, DisplayName: "Widget A", Zone: "Z1", Location: "12"}, nil
}

type stubOperators struct{}

func (stubOperators) Authenticate(_ context.Context, code, _ string) (domain.Operator, error) {
	if strings.ToUpper(code) != "E001" {
		return domain.Operator{}, domain.ErrOperatorNotFound
	}
	return domain.Operator{ID: "E001", DisplayName: "Somchai"}, nil
}

type stubLedger struct {
	fail bool
	rows int
	// order, barcode and location of the last appended row
	last []string
}

func (l *stubLedger) AppendCommit(_ context.Context, rows []domain.LedgerRow) error {
	if l.fail {
		l.fail = false
		return errors.New("sheet unavailable")
	}
	l.rows += len(rows)
	last := rows[len(rows)-1]
	l.last = []string{last.Order, last.Barcode, last.Location}
	return nil
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	app    *fiber.App
	ledger *stubLedger
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	utils.InitValidator()

	loc := time.FixedZone("ICT", 7*3600)
	store := storage.NewMemoryStore()
	tokens := jwt.NewJWTServiceWithSecret("test-secret")
	ledger := &stubLedger{}
	svc := picking.NewPickingService(picking.Options{
		Catalog:     stubCatalog{},
		Operators:   stubOperators{},
		Provisioner: provision.NewProvisionService(store, storage.RootFolder("picking"), loc),
		Store:       store,
		Ledger:      ledger,
		Tokens:      tokens,
		Location:    loc,
		Now:         func() time.Time { return time.Date(2024, 3, 5, 14, 5, 0, 0, loc) },
	})

	mw := middleware.NewMiddleware(svc)
	auth := NewAuthHandler(svc, utils.Validate)
	pick := NewPickingHandler(svc, utils.Validate)

	app := fiber.New()
	app.Post("/login", auth.Login)
	group := app.Group("/picking", mw.AuthMiddleware(tokens))
	group.Get("/state", pick.GetState)
	group.Post("/order", pick.ScanOrder)
	group.Post("/product", pick.ScanProduct)
	group.Post("/location", pick.ScanLocation)
	group.Post("/quantity", pick.ConfirmQuantity)
	group.Post("/photos", pick.CapturePhoto)
	group.Post("/revert", pick.Revert)
	group.Post("/commit", pick.Commit)
	group.Post("/logout", auth.Logout)

	return &testServer{app: app, ledger: ledger}
}

func (s *testServer) do(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	if s.token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return resp.StatusCode, env
}

func (s *testServer) postJSON(t *testing.T, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return s.do(t, req)
}

func (s *testServer) postForm(t *testing.T, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return s.do(t, req)
}

func (s *testServer) postPhoto(t *testing.T, path string) (int, envelope) {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, jpeg.Encode(&img, image.NewGray(image.Rect(0, 0, 8, 8)), nil))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", "photo.jpg")
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return s.do(t, req)
}

func (s *testServer) login(t *testing.T) {
	t.Helper()
	status, env := s.postJSON(t, "/login", `{"code":"E001"}`)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	var res domain.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	s.token = res.Token
}

func (s *testServer) pickToPacking(t *testing.T) {
	t.Helper()
	for _, step := range []struct{ path, body string }{
		{"/picking/order", `{"code":"B17"}`},
		{"/picking/product", `{"code":"8850001112223"}`},
		{"/picking/location", `{"code":"Z1-12"}`},
		{"/picking/quantity", `{"quantity":2}`},
	} {
		status, env := s.postJSON(t, step.path, step.body)
		require.Equal(t, fiber.StatusOK, status, "%s: %s", step.path, env.Error)
	}
}

func TestPickingRequiresToken(t *testing.T) {
	s := newTestServer(t)
	status, env := s.do(t, httptest.NewRequest(http.MethodGet, "/picking/state", nil))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, env.Status)

	status, _ = s.postJSON(t, "/login", `{"code":"E999"}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestPickingHappyPath(t *testing.T) {
	s := newTestServer(t)
	s.login(t)
	s.pickToPacking(t)

	status, env := s.postPhoto(t, "/picking/photos")
	require.Equal(t, fiber.StatusOK, status, env.Error)
	var st domain.SessionStateResponse
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, "READY_TO_COMMIT", st.State)
	assert.Contains(t, st.AllowedActions, "commit")

	status, env = s.postJSON(t, "/picking/commit", "")
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	var res domain.CommitResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "picking/05-03-2024/B17_14-05", res.FolderPath)
	assert.True(t, res.LedgerAppended)
	assert.Equal(t, 1, s.ledger.rows)
}

func TestPickingRejectionKeepsState(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	status, _ := s.postJSON(t, "/picking/order", `{"code":"B17"}`)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = s.postJSON(t, "/picking/product", `{"code":"8850001112223"}`)
	require.Equal(t, fiber.StatusOK, status)

	status, env := s.postJSON(t, "/picking/location", `{"code":"Z9-01"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Error, domain.ErrLocationMismatch.Error())
	var st domain.SessionStateResponse
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, "AWAITING_LOCATION", st.State)
	assert.Equal(t, "8850001112223", st.Product)

	status, _ = s.postJSON(t, "/picking/product", `{"code":"0000"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status, "wrong step")

	status, _ = s.postJSON(t, "/picking/revert", `{"to":"AWAITING_PRODUCT"}`)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = s.postJSON(t, "/picking/product", `{"code":"0000"}`)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestZeroQuantityIsRejectedWithState(t *testing.T) {
	s := newTestServer(t)
	s.login(t)
	for _, step := range []struct{ path, body string }{
		{"/picking/order", `{"code":"B17"}`},
		{"/picking/product", `{"code":"8850001112223"}`},
		{"/picking/location", `{"code":"Z1-12"}`},
	} {
		status, env := s.postJSON(t, step.path, step.body)
		require.Equal(t, fiber.StatusOK, status, "%s: %s", step.path, env.Error)
	}

	status, env := s.postJSON(t, "/picking/quantity", `{"quantity":0}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Error, domain.ErrInvalidQuantity.Error())
	var st domain.SessionStateResponse
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, "AWAITING_QUANTITY", st.State)
	assert.Equal(t, "8850001112223", st.Product)
	assert.Equal(t, "Z1-12", st.ScannedLocation)

	status, _ = s.postJSON(t, "/picking/quantity", `{}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status, "missing quantity is zero")
}

func TestFormScansSurviveLaterRequests(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	for _, step := range []struct{ path, body string }{
		{"/picking/order", "code=B17"},
		{"/picking/product", "code=8850001112223"},
		{"/picking/location", "code=Z1-12"},
	} {
		status, env := s.postForm(t, step.path, step.body)
		require.Equal(t, fiber.StatusOK, status, "%s: %s", step.path, env.Error)
	}
	// the rejected scan reuses the request buffer with different bytes
	status, _ := s.postForm(t, "/picking/product", "code=XYZ9999")
	require.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, env := s.do(t, httptest.NewRequest(http.MethodGet, "/picking/state", nil))
	require.Equal(t, fiber.StatusOK, status)
	var st domain.SessionStateResponse
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, "B17", st.Order)
	assert.Equal(t, "8850001112223", st.Product)
	assert.Equal(t, "Z1-12", st.ScannedLocation)

	status, env = s.postForm(t, "/picking/quantity", "quantity=1")
	require.Equal(t, fiber.StatusOK, status, env.Error)
	status, _ = s.postPhoto(t, "/picking/photos")
	require.Equal(t, fiber.StatusOK, status)
	status, env = s.postJSON(t, "/picking/commit", "")
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	var res domain.CommitResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "picking/05-03-2024/B17_14-05", res.FolderPath)
	assert.Equal(t, []string{"B17", "8850001112223", "Z1-12"}, s.ledger.last)
}

func TestPickingCommitWarning(t *testing.T) {
	s := newTestServer(t)
	s.ledger.fail = true
	s.login(t)
	s.pickToPacking(t)
	status, _ := s.postPhoto(t, "/picking/photos")
	require.Equal(t, fiber.StatusOK, status)

	status, env := s.postJSON(t, "/picking/commit", "")
	require.Equal(t, fiber.StatusAccepted, status)
	var res domain.CommitResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.NotEmpty(t, res.Warning)
	assert.True(t, res.NextState.CommitPending)

	status, _ = s.postPhoto(t, "/picking/photos")
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = s.postJSON(t, "/picking/commit", "")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, 1, s.ledger.rows)
}

func TestLogoutEndsSession(t *testing.T) {
	s := newTestServer(t)
	s.login(t)

	status, _ := s.postJSON(t, "/picking/logout", "")
	require.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/picking/state", nil))
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
