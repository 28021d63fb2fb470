package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/digkill/PhotoStudio/internal/auth"
	"github.com/digkill/PhotoStudio/internal/models"
	"github.com/digkill/PhotoStudio/internal/service"
)

const testSession = "2f1e4b2a-9c1d-4f7e-8b6a-3d5c7e9f1a2b"

type harness struct {
	srv       *Server
	tokens    *auth.TokenIssuer
	accounts  *mockAccounts
	studio    *mockStudio
	recharges *mockRecharges
	ledger    *mockLedger
	settings  *mockSettings
	user      *models.Account
	admin     *models.Account
	current   models.SystemSettings
}

func newHarness(t *testing.T, opts Options, db Pinger) *harness {
	t.Helper()
	h := &harness{
		tokens:    auth.NewTokenIssuer("test-secret", time.Hour),
		accounts:  &mockAccounts{},
		studio:    &mockStudio{},
		recharges: &mockRecharges{},
		ledger:    &mockLedger{},
		settings:  &mockSettings{},
		user:      &models.Account{ID: "user-1", Name: "Rahim", Role: models.RoleUser, Balance: decimal.NewFromInt(100)},
		admin:     &models.Account{ID: "admin-1", Name: "Admin", Role: models.RoleAdmin},
		current: models.SystemSettings{
			GenerationCost: decimal.NewFromInt(20),
			AdminPIN:       "1234",
			PaymentMethods: []models.PaymentMethod{{Name: "bKash", Number: "017"}},
		},
	}
	h.accounts.On("Get", mock.Anything, "user-1").Return(h.user, nil).Maybe()
	h.accounts.On("Get", mock.Anything, "admin-1").Return(h.admin, nil).Maybe()
	h.settings.On("Get", mock.Anything).Return(h.current, nil).Maybe()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.srv = NewServer(opts, log, Deps{
		Accounts:  h.accounts,
		Studio:    h.studio,
		Recharges: h.recharges,
		Ledger:    h.ledger,
		Settings:  h.settings,
		Tokens:    h.tokens,
		DB:        db,
	})
	return h
}

func (h *harness) token(t *testing.T, account *models.Account) string {
	t.Helper()
	tok, err := h.tokens.Issue(account)
	require.NoError(t, err)
	return tok
}

func (h *harness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func generateBody() map[string]any {
	return map[string]any{
		"session_id":    testSession,
		"image":         "data:image/png;base64,iVBORw0KGgo=",
		"gender":        "male",
		"size":          "custom",
		"custom_width":  40,
		"custom_height": "50",
		"background":    "white",
		"clothing":      "no change",
		"face_smooth":   true,
		"brightness":    60,
		"fairness":      10,
	}
}

func TestGenerateRequiresToken(t *testing.T) {
	h := newHarness(t, Options{}, nil)

	rec := h.do(t, http.MethodPost, "/api/studio/generate", "", generateBody())

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH_FAILED", decodeError(t, rec).Code)
}

func TestGenerateSuccess(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	result := &service.GenerationResult{ResultImage: "data:image/png;base64,AAAA", Charged: true, Balance: decimal.NewFromInt(80)}
	h.studio.On("Generate", mock.Anything, h.user, mock.MatchedBy(func(req service.GenerationRequest) bool {
		return req.SessionID == testSession &&
			req.Options.Size.String() == "40x50 mm" &&
			req.Options.Gender == models.GenderMale &&
			req.Options.FaceSmooth &&
			req.Options.Brightness == 60
	}), h.current).Return(result, nil).Once()

	rec := h.do(t, http.MethodPost, "/api/studio/generate", h.token(t, h.user), generateBody())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got service.GenerationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Charged)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(80)))
	h.studio.AssertExpectations(t)
}

func TestGenerateErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrInsufficientBalance, http.StatusPaymentRequired, "INSUFFICIENT_BALANCE"},
		{errors.Join(service.ErrGenerationFailed, errors.New("upstream 503")), http.StatusBadGateway, "GENERATION_FAILED"},
		{service.ErrAccountSuspended, http.StatusForbidden, "ACCESS_DENIED"},
		{errors.New("database is on fire"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		h := newHarness(t, Options{}, nil)
		h.studio.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, tc.err)

		rec := h.do(t, http.MethodPost, "/api/studio/generate", h.token(t, h.user), generateBody())

		assert.Equal(t, tc.status, rec.Code, tc.code)
		resp := decodeError(t, rec)
		assert.Equal(t, tc.code, resp.Code)
		assert.NotContains(t, resp.Message, "upstream 503")
		assert.NotContains(t, resp.Message, "on fire")
	}
}

func TestGenerateValidation(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	body := generateBody()
	body["gender"] = "robot"
	body["session_id"] = "nope"

	rec := h.do(t, http.MethodPost, "/api/studio/generate", h.token(t, h.user), body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "INVALID_REQUEST", resp.Code)
	fields := map[string]bool{}
	for _, d := range resp.Details {
		fields[d.Field] = true
	}
	assert.True(t, fields["gender"])
	assert.True(t, fields["session_id"])
	h.studio.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateRejectsIncompleteCustomSize(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	body := generateBody()
	delete(body, "custom_height")

	rec := h.do(t, http.MethodPost, "/api/studio/generate", h.token(t, h.user), body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	h.studio.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateRateLimited(t *testing.T) {
	h := newHarness(t, Options{GenerateRatePerMin: 1}, nil)
	h.studio.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(&service.GenerationResult{}, nil)
	token := h.token(t, h.user)

	first := h.do(t, http.MethodPost, "/api/studio/generate", token, generateBody())
	second := h.do(t, http.MethodPost, "/api/studio/generate", token, generateBody())

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, second).Code)
}

func TestSuspendedAccountIsRejected(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	h.user.IsSuspended = true

	rec := h.do(t, http.MethodGet, "/api/me", h.token(t, h.user), nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	h := newHarness(t, Options{}, nil)

	rec := h.do(t, http.MethodGet, "/admin/stats", h.token(t, h.user), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	h.accounts.On("Stats", mock.Anything).Return(models.Stats{Users: 3, PendingRecharges: 1, Photos: 9}, nil)
	rec = h.do(t, http.MethodGet, "/admin/stats", h.token(t, h.admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, models.Stats{Users: 3, PendingRecharges: 1, Photos: 9}, stats)
}

func TestAdjustBalanceAcceptsNumberOrText(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	h.ledger.On("Adjust", mock.Anything, "user-1", "50", service.Direction("SUBTRACT")).Return(decimal.Zero, nil).Once()
	h.ledger.On("Adjust", mock.Anything, "user-1", "abc", service.Direction("ADD")).Return(decimal.NewFromInt(30), nil).Once()

	rec := h.do(t, http.MethodPost, "/admin/users/user-1/balance", h.token(t, h.admin), map[string]any{"amount": 50, "direction": "SUBTRACT"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp balanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Balance.IsZero())

	rec = h.do(t, http.MethodPost, "/admin/users/user-1/balance", h.token(t, h.admin), map[string]any{"amount": "abc", "direction": "ADD"})
	require.Equal(t, http.StatusOK, rec.Code)
	h.ledger.AssertExpectations(t)
}

func TestRechargeEndpoints(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	h.recharges.On("Submit", mock.Anything, h.user, mock.MatchedBy(func(in service.RechargeInput) bool {
		return in.Amount.Equal(decimal.NewFromInt(500)) && in.Method == "bKash" && in.TrxID == "ABC123"
	}), h.current).Return(nil, service.ErrDuplicateTransaction)
	h.recharges.On("Approve", mock.Anything, "r-1").Return(nil, service.ErrRechargeNotPending)
	h.recharges.On("List", mock.Anything, models.RechargePending).Return(nil, nil)

	rec := h.do(t, http.MethodPost, "/api/recharges", h.token(t, h.user), map[string]any{
		"amount": "500", "method": "bKash", "sender_number": "01700000000", "trx_id": "ABC123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_TRANSACTION", decodeError(t, rec).Code)

	rec = h.do(t, http.MethodPost, "/admin/recharges/r-1/approve", h.token(t, h.admin), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "RECHARGE_NOT_PENDING", decodeError(t, rec).Code)

	rec = h.do(t, http.MethodGet, "/admin/recharges?status=pending", h.token(t, h.admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRejectRequiresReason(t *testing.T) {
	h := newHarness(t, Options{}, nil)

	rec := h.do(t, http.MethodPost, "/admin/recharges/r-1/reject", h.token(t, h.admin), map[string]any{"reason": ""})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	h.recharges.AssertNotCalled(t, "Reject", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublicSettingsHidePIN(t *testing.T) {
	h := newHarness(t, Options{}, nil)

	rec := h.do(t, http.MethodGet, "/api/settings", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "1234")
	assert.Contains(t, rec.Body.String(), "bKash")
}

func TestHistoryDateFilter(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	h.studio.On("History", mock.Anything, "user-1", day).Return([]models.PhotoRecord{{ID: "p-1"}}, nil)

	rec := h.do(t, http.MethodGet, "/api/photos?date=2026-05-01", h.token(t, h.user), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"p-1"`)

	rec = h.do(t, http.MethodGet, "/api/photos?date=01/05/2026", h.token(t, h.user), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignUpPassesSettings(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	sess := &service.Session{Token: "tok", Account: &models.Account{ID: "new"}}
	h.accounts.On("SignUp", mock.Anything, service.SignUpInput{Name: "Rahim", Email: "rahim@example.com", Password: "secret1"}, h.current).Return(sess, nil)
	h.accounts.On("SignUp", mock.Anything, mock.Anything, mock.Anything).Return(nil, service.ErrEmailTaken)

	rec := h.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{"name": "Rahim", "email": "rahim@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{"name": "Other", "email": "other@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_TAKEN", decodeError(t, rec).Code)
}

func TestUploadLogo(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	png := []byte("\x89PNG\r\n\x1a\n")
	h.settings.On("UploadLogo", mock.Anything, 1, png, "image/png").Return(h.current, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="logo"; filename="nagad.png"`},
		"Content-Type":        {"image/png"},
	})
	require.NoError(t, err)
	_, _ = part.Write(png)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/settings/payment-methods/1/logo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+h.token(t, h.admin))
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	h.settings.AssertExpectations(t)
}

func TestHealthz(t *testing.T) {
	ok := newHarness(t, Options{}, stubPinger{})
	assert.Equal(t, http.StatusOK, ok.do(t, http.MethodGet, "/healthz", "", nil).Code)

	down := newHarness(t, Options{}, stubPinger{err: errors.New("connection refused")})
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/healthz", "", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, Options{}, nil)
	h.do(t, http.MethodGet, "/api/catalog", "", nil)

	rec := h.do(t, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/catalog")
}
