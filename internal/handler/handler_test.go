package handler

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/apolo-gym/internal/model"
	"github.com/mmeshcher/apolo-gym/internal/store"
)

type stubService struct {
	memberFields store.MemberFields
	memberResp   model.Member
	memberErr    error

	cashInFields store.CashInFields
	cashInResp   model.CashIn
	cashInErr    error

	withdrawalFields store.WithdrawalFields
	withdrawalErr    error

	expenseErr error

	openOperator string
	openCash     decimal.Decimal
	openErr      error

	closeReport model.ShiftReport
	closeErr    error

	flushErr error

	members      []model.Member
	memberStatus model.MemberStatus
	findResp     model.Member
	findErr      error
	historyResp  []model.CashIn
	historyErr   error

	cash       decimal.Decimal
	current    model.ShiftStatus
	hasCurrent bool

	lastLimit int
}

func (s *stubService) AddMember(ctx context.Context, f store.MemberFields) (model.Member, error) {
	s.memberFields = f
	return s.memberResp, s.memberErr
}

func (s *stubService) AddCashIn(ctx context.Context, f store.CashInFields) (model.CashIn, error) {
	s.cashInFields = f
	return s.cashInResp, s.cashInErr
}

func (s *stubService) AddWithdrawal(ctx context.Context, f store.WithdrawalFields) (model.Withdrawal, error) {
	s.withdrawalFields = f
	return model.Withdrawal{SequenceNumber: "001", Amount: f.Amount}, s.withdrawalErr
}

func (s *stubService) AddExpense(ctx context.Context, f store.ExpenseFields) (model.Expense, error) {
	return model.Expense{Amount: f.Amount, Supplier: f.Supplier, Reason: f.Reason}, s.expenseErr
}

func (s *stubService) OpenShift(ctx context.Context, operatorName string, openingCash decimal.Decimal) (model.Shift, error) {
	s.openOperator = operatorName
	s.openCash = openingCash
	return model.Shift{OperatorName: operatorName, OpeningCash: openingCash}, s.openErr
}

func (s *stubService) CloseShift(ctx context.Context, closingCash decimal.Decimal) (model.ShiftReport, error) {
	return s.closeReport, s.closeErr
}

func (s *stubService) Flush(ctx context.Context) error {
	return s.flushErr
}

func (s *stubService) ListMembers(status model.MemberStatus) []model.Member {
	s.memberStatus = status
	return s.members
}

func (s *stubService) FindMember(cardNumber string) (model.Member, error) {
	return s.findResp, s.findErr
}

func (s *stubService) MemberSummary() model.MemberSummary {
	return model.MemberSummary{Total: len(s.members), Active: len(s.members)}
}

func (s *stubService) MemberCashIns(cardNumber string) ([]model.CashIn, error) {
	return s.historyResp, s.historyErr
}

func (s *stubService) CashOnHand() decimal.Decimal {
	return s.cash
}

func (s *stubService) CurrentShift() (model.ShiftStatus, bool) {
	return s.current, s.hasCurrent
}

func (s *stubService) RecentCashIns(limit int) []model.CashIn {
	s.lastLimit = limit
	return []model.CashIn{}
}

func (s *stubService) RecentWithdrawals(limit int) []model.Withdrawal {
	s.lastLimit = limit
	return []model.Withdrawal{}
}

func (s *stubService) RecentExpenses(limit int) []model.Expense {
	s.lastLimit = limit
	return []model.Expense{}
}

func (s *stubService) RecentShifts(limit int) []model.Shift {
	s.lastLimit = limit
	return []model.Shift{}
}

func newTestRouter(t *testing.T, svc Service) http.Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	return NewHandler(svc, logger, []string{"http://localhost:5173"}).SetupRouter()
}

func do(t *testing.T, h http.Handler, method, path, body string) *http.Response {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Result()
}

func TestAddMember_Created(t *testing.T) {
	svc := &stubService{
		memberResp: model.Member{ID: "m1", CardNumber: "25-001", FullName: "Ana Gomez", Status: model.StatusActive},
	}
	h := newTestRouter(t, svc)

	res := do(t, h, http.MethodPost, "/api/members",
		`{"nombreCompleto":"Ana Gomez","dni":"123","fechaInicio":"2025-05-01","formaPago":"efectivo","monto":30000}`)
	defer res.Body.Close()

	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var got model.Member
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, "25-001", got.CardNumber)

	assert.Equal(t, "Ana Gomez", svc.memberFields.FullName)
	assert.Equal(t, model.PaymentCash, svc.memberFields.PaymentMethod)
	assert.True(t, svc.memberFields.Amount.Equal(decimal.NewFromInt(30000)))
	assert.Equal(t, time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC), svc.memberFields.StartDate.Time)
}

func TestAddMember_BadJSON(t *testing.T) {
	h := newTestRouter(t, &stubService{})

	res := do(t, h, http.MethodPost, "/api/members", `{"nombreCompleto":`)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestMutationErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: fmt.Errorf("%w: amount must be positive", store.ErrValidation), want: http.StatusBadRequest},
		{name: "not found", err: fmt.Errorf("%w: no member with card 99-999", store.ErrNotFound), want: http.StatusNotFound},
		{name: "conflict", err: fmt.Errorf("%w: no open shift", store.ErrConflict), want: http.StatusConflict},
		{name: "unexpected", err: context.DeadlineExceeded, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, &stubService{cashInErr: tt.err})

			res := do(t, h, http.MethodPost, "/api/cash-ins", `{"carnet":"99-999","monto":100,"formaPago":"efectivo"}`)
			defer res.Body.Close()

			assert.Equal(t, tt.want, res.StatusCode)
		})
	}
}

func TestAddCashIn_GzipBody(t *testing.T) {
	svc := &stubService{
		cashInResp: model.CashIn{ID: "c1", CardNumber: "25-001", MemberName: "Ana Gomez", Amount: decimal.NewFromInt(5000), PaymentMethod: model.PaymentCash},
	}
	h := newTestRouter(t, svc)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(`{"carnet":" 25-001 ","monto":5000,"formaPago":"efectivo"}`))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/cash-ins", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept-Encoding", "gzip")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "gzip", res.Header.Get("Content-Encoding"))
	assert.Equal(t, " 25-001 ", svc.cashInFields.CardNumber)
	assert.True(t, svc.cashInFields.Amount.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, model.PaymentCash, svc.cashInFields.PaymentMethod)

	gr, err := gzip.NewReader(res.Body)
	require.NoError(t, err)
	defer gr.Close()

	var got model.CashIn
	require.NoError(t, json.NewDecoder(gr).Decode(&got))
	assert.Equal(t, "Ana Gomez", got.MemberName)
	assert.Equal(t, "25-001", got.CardNumber)
}

func TestMutation_PersistenceWarning(t *testing.T) {
	svc := &stubService{
		cashInResp: model.CashIn{ID: "i1", CardNumber: "25-001"},
		cashInErr:  fmt.Errorf("%w: save state: disk full", store.ErrPersistence),
	}
	h := newTestRouter(t, svc)

	res := do(t, h, http.MethodPost, "/api/cash-ins", `{"carnet":"25-001","monto":100,"formaPago":"transferencia"}`)
	defer res.Body.Close()

	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, persistenceWarning, res.Header.Get("Warning"))
	assert.Equal(t, model.PaymentTransfer, svc.cashInFields.PaymentMethod)
}

func TestShiftEndpoints(t *testing.T) {
	closing := decimal.NewFromInt(4000)
	svc := &stubService{
		closeReport: model.ShiftReport{
			Shift:        model.Shift{ID: "t1", Closed: true, ClosingCash: &closing},
			ExpectedCash: decimal.NewFromInt(4000),
			Difference:   decimal.Zero,
		},
	}
	h := newTestRouter(t, svc)

	res := do(t, h, http.MethodPost, "/api/shifts/open", `{"usuario":"Juan","montoInicial":1000}`)
	res.Body.Close()
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "Juan", svc.openOperator)
	assert.True(t, svc.openCash.Equal(decimal.NewFromInt(1000)))

	res = do(t, h, http.MethodGet, "/api/shifts/current", "")
	res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	svc.hasCurrent = true
	svc.current = model.ShiftStatus{Shift: model.Shift{ID: "t1"}, CashOnHand: decimal.NewFromInt(6000)}
	res = do(t, h, http.MethodGet, "/api/shifts/current", "")
	var current map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&current))
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 6000, current["efectivoEnCaja"])

	res = do(t, h, http.MethodPost, "/api/shifts/close", `{"montoFinal":4000}`)
	var report map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&report))
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 4000, report["efectivoEsperado"])

	svc.closeErr = fmt.Errorf("%w: no open shift", store.ErrConflict)
	res = do(t, h, http.MethodPost, "/api/shifts/close", `{"montoFinal":4000}`)
	res.Body.Close()
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestMembersQueries(t *testing.T) {
	svc := &stubService{
		members:  []model.Member{{CardNumber: "25-002"}, {CardNumber: "25-001"}},
		findResp: model.Member{CardNumber: "25-001", FullName: "Ana"},
	}
	h := newTestRouter(t, svc)

	res := do(t, h, http.MethodGet, "/api/members?status=vencido", "")
	var members []model.Member
	require.NoError(t, json.NewDecoder(res.Body).Decode(&members))
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, members, 2)
	assert.Equal(t, model.StatusExpired, svc.memberStatus)

	res = do(t, h, http.MethodGet, "/api/members?status=otro", "")
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = do(t, h, http.MethodGet, "/api/members/summary", "")
	var summary model.MemberSummary
	require.NoError(t, json.NewDecoder(res.Body).Decode(&summary))
	res.Body.Close()
	assert.Equal(t, 2, summary.Total)

	res = do(t, h, http.MethodGet, "/api/members/25-001", "")
	var found model.Member
	require.NoError(t, json.NewDecoder(res.Body).Decode(&found))
	res.Body.Close()
	assert.Equal(t, "Ana", found.FullName)

	svc.historyErr = fmt.Errorf("%w: no member with card 25-404", store.ErrNotFound)
	res = do(t, h, http.MethodGet, "/api/members/25-404/cash-ins", "")
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestRecentLists_Limit(t *testing.T) {
	svc := &stubService{}
	h := newTestRouter(t, svc)

	for _, path := range []string{"/api/cash-ins", "/api/withdrawals", "/api/expenses", "/api/shifts"} {
		res := do(t, h, http.MethodGet, path, "")
		res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode, path)
		assert.Equal(t, defaultLimit, svc.lastLimit, path)
	}

	res := do(t, h, http.MethodGet, "/api/withdrawals?limit=3", "")
	res.Body.Close()
	assert.Equal(t, 3, svc.lastLimit)

	res = do(t, h, http.MethodGet, "/api/expenses?limit=-1", "")
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCashOnHandAndFlush(t *testing.T) {
	svc := &stubService{cash: decimal.RequireFromString("4000.5")}
	h := newTestRouter(t, svc)

	res := do(t, h, http.MethodGet, "/api/cash", "")
	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	res.Body.Close()
	assert.EqualValues(t, 4000.5, body["efectivoEnCaja"])

	res = do(t, h, http.MethodPost, "/api/state/flush", "")
	res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	svc.flushErr = fmt.Errorf("%w: save state: read-only file system", store.ErrPersistence)
	res = do(t, h, http.MethodPost, "/api/state/flush", "")
	res.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}

func TestWithdrawalAndExpense(t *testing.T) {
	svc := &stubService{}
	h := newTestRouter(t, svc)

	res := do(t, h, http.MethodPost, "/api/withdrawals", `{"monto":2000,"descripcion":"banco"}`)
	res.Body.Close()
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	require.NotNil(t, svc.withdrawalFields.Description)
	assert.Equal(t, "banco", *svc.withdrawalFields.Description)

	svc.expenseErr = fmt.Errorf("%w: supplier is required", store.ErrValidation)
	res = do(t, h, http.MethodPost, "/api/expenses", `{"monto":10,"motivo":"x"}`)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t, &stubService{})

	req := httptest.NewRequest(http.MethodOptions, "/api/members", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	h := newTestRouter(t, &stubService{})

	res := do(t, h, http.MethodGet, "/api/nope", "")
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
