package balancehttp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kampfth/partner-center/internal/balance"
	_ "github.com/kampfth/partner-center/internal/testing/guard"
)

type mockService struct {
	year        *balance.Year
	yearErr     error
	years       []int
	sortOrder   []string
	partners    []balance.Partner
	partnersErr error

	createdExpenses    []balance.Expense
	updateExpenseErr   error
	deleteExpenseErr   error
	createdWithdrawals []balance.Withdrawal
	createdAdjustments []balance.Adjustment
	initialCash        *balance.InitialCash
}

func (m *mockService) GetYear(ctx context.Context, year int) (*balance.Year, error) {
	return m.year, m.yearErr
}
func (m *mockService) Years(ctx context.Context) ([]int, error) { return m.years, nil }
func (m *mockService) SortOrder(ctx context.Context) (balance.SortOrder, error) {
	return balance.SortOrder{Value: m.sortOrder}, nil
}
func (m *mockService) SetSortOrder(ctx context.Context, names []string) error {
	m.sortOrder = names
	return nil
}
func (m *mockService) Partners(ctx context.Context) ([]balance.Partner, error) {
	return m.partners, nil
}
func (m *mockService) ReplacePartners(ctx context.Context, partners []balance.Partner) error {
	if m.partnersErr != nil {
		return m.partnersErr
	}
	m.partners = partners
	return nil
}
func (m *mockService) CreateExpense(ctx context.Context, e balance.Expense) (int64, error) {
	m.createdExpenses = append(m.createdExpenses, e)
	return int64(len(m.createdExpenses)), nil
}
func (m *mockService) UpdateExpense(ctx context.Context, e balance.Expense) error {
	return m.updateExpenseErr
}
func (m *mockService) DeleteExpense(ctx context.Context, id int64) error {
	return m.deleteExpenseErr
}
func (m *mockService) CreateWithdrawal(ctx context.Context, w balance.Withdrawal) (int64, error) {
	m.createdWithdrawals = append(m.createdWithdrawals, w)
	return int64(len(m.createdWithdrawals)), nil
}
func (m *mockService) UpdateWithdrawal(ctx context.Context, w balance.Withdrawal) error { return nil }
func (m *mockService) DeleteWithdrawal(ctx context.Context, id int64) error             { return nil }
func (m *mockService) CreateAdjustment(ctx context.Context, a balance.Adjustment) (int64, error) {
	m.createdAdjustments = append(m.createdAdjustments, a)
	return int64(len(m.createdAdjustments)), nil
}
func (m *mockService) UpdateAdjustment(ctx context.Context, a balance.Adjustment) error { return nil }
func (m *mockService) DeleteAdjustment(ctx context.Context, id int64) error             { return nil }
func (m *mockService) SetInitialCash(ctx context.Context, ic balance.InitialCash) error {
	m.initialCash = &ic
	return nil
}

type mockEnqueuer struct {
	calls int
}

func (m *mockEnqueuer) EnqueueBalanceWarm(ctx context.Context) error {
	m.calls++
	return nil
}

func testYear() *balance.Year {
	clean, warnings := balance.Normalize(balance.RawInputs{
		Year:     2024,
		Partners: []balance.Partner{{ID: "p1", Name: "Ana"}, {ID: "p2", Name: "Bruno"}},
		RevenueLines: []balance.RevenueLine{
			{Key: "ProductX", Kind: balance.KindProduct, ByMonth: map[string]float64{"2024-01": 600}, YearTotal: 600},
		},
	})
	return balance.ComputeFromClean(clean, warnings)
}

func newTestRouter(svc BalanceService, enq Enqueuer) (chi.Router, *Handler) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, svc, enq)
	h.WithNow(func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) })
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r, h
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestGetBalanceReturnsComputedLedger(t *testing.T) {
	svc := &mockService{year: testYear()}
	r, _ := newTestRouter(svc, nil)

	rr := doJSON(t, r, http.MethodGet, "/balance?year=2024", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var got balance.Year
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 2024, got.Year)
	assert.Equal(t, 600.0, got.RevenueSubtotalByMonth["2024-01"])
}

func TestGetBalanceDefaultsToCurrentYear(t *testing.T) {
	svc := &mockService{year: testYear()}
	r, _ := newTestRouter(svc, nil)

	rr := doJSON(t, r, http.MethodGet, "/balance", nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestGetBalanceRejectsBadYear(t *testing.T) {
	svc := &mockService{year: testYear()}
	r, _ := newTestRouter(svc, nil)

	for _, q := range []string{"year=abc", "year=1800", "year=99999"} {
		rr := doJSON(t, r, http.MethodGet, "/balance?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestGetGridAndPeriod(t *testing.T) {
	svc := &mockService{year: testYear()}
	r, _ := newTestRouter(svc, nil)

	rr := doJSON(t, r, http.MethodGet, "/balance/grid?year=2024", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var grid balance.Grid
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &grid))
	assert.Len(t, grid.Months, 12)

	rr = doJSON(t, r, http.MethodGet, "/balance/period?year=2024&month=2024-01", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var period balance.Period
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &period))
	assert.Equal(t, "2024-01", period.Period)

	rr = doJSON(t, r, http.MethodGet, "/balance/period?year=2024&month=banana", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &period))
	assert.Equal(t, balance.PeriodTotal, period.Period)
}

func TestCreateExpenseValidatesAndEnqueuesWarm(t *testing.T) {
	svc := &mockService{year: testYear()}
	enq := &mockEnqueuer{}
	r, _ := newTestRouter(svc, enq)

	rr := doJSON(t, r, http.MethodPost, "/balance/expenses", map[string]any{
		"yearMonth": "2024-03",
		"category":  "fixed",
		"name":      "Rent",
		"amount":    100,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, svc.createdExpenses, 1)
	assert.Equal(t, balance.ExpenseFixed, svc.createdExpenses[0].Category)
	assert.Equal(t, 1, enq.calls)
}

func TestCreateExpenseRejectsBadPayloads(t *testing.T) {
	svc := &mockService{year: testYear()}
	r, _ := newTestRouter(svc, nil)

	cases := []map[string]any{
		{"yearMonth": "2024-03", "category": "weird", "name": "Rent", "amount": 100},
		{"yearMonth": "march", "category": "fixed", "name": "Rent", "amount": 100},
		{"yearMonth": "2024-03", "category": "fixed", "name": "Rent", "amount": -5},
		{"category": "fixed", "name": "Rent", "amount": 100},
	}
	for i, payload := range cases {
		rr := doJSON(t, r, http.MethodPost, "/balance/expenses", payload)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "case %d", i)
	}
	assert.Empty(t, svc.createdExpenses)
}

func TestUpdateExpenseNotFound(t *testing.T) {
	svc := &mockService{year: testYear(), updateExpenseErr: balance.ErrNotFound}
	r, _ := newTestRouter(svc, nil)

	rr := doJSON(t, r, http.MethodPut, "/balance/expenses/42", map[string]any{
		"yearMonth": "2024-03",
		"category":  "fixed",
		"name":      "Rent",
		"amount":    100,
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteExpense(t *testing.T) {
	svc := &mockService{year: testYear()}
	enq := &mockEnqueuer{}
	r, _ := newTestRouter(svc, enq)

	rr := doJSON(t, r, http.MethodDelete, "/balance/expenses/7", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 1, enq.calls)

	rr = doJSON(t, r, http.MethodDelete, "/balance/expenses/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPutPartnersDuplicateConflicts(t *testing.T) {
	svc := &mockService{partnersErr: balance.ErrDuplicate}
	r, _ := newTestRouter(svc, nil)

	rr := doJSON(t, r, http.MethodPut, "/balance/partners", map[string]any{
		"partners": []map[string]any{
			{"id": "p1", "name": "Ana", "share": 0.5},
			{"id": "p1", "name": "Ana Again", "share": 0.5},
		},
	})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestPutInitialCash(t *testing.T) {
	svc := &mockService{}
	r, _ := newTestRouter(svc, nil)

	rr := doJSON(t, r, http.MethodPut, "/balance/initial-cash", map[string]any{
		"year":   2024,
		"amount": 1500.5,
		"note":   "carried from 2023",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, svc.initialCash)
	assert.Equal(t, 1500.5, svc.initialCash.Amount)
}

func TestGetYearsAlwaysReturnsArray(t *testing.T) {
	svc := &mockService{}
	r, _ := newTestRouter(svc, nil)

	rr := doJSON(t, r, http.MethodGet, "/balance/years", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"years":[]}`, rr.Body.String())
}
