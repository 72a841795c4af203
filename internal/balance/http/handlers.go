// Package balancehttp exposes the balance ledger over JSON endpoints for
// the dashboard SPA.
package balancehttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kampfth/partner-center/internal/balance"
	"github.com/kampfth/partner-center/internal/platform/httpx"
)

var yearMonthRegex = regexp.MustCompile(`^\d{4}-\d{2}$`)

// BalanceService is the ledger contract the handler depends on.
type BalanceService interface {
	GetYear(ctx context.Context, year int) (*balance.Year, error)
	Years(ctx context.Context) ([]int, error)
	SortOrder(ctx context.Context) (balance.SortOrder, error)
	SetSortOrder(ctx context.Context, names []string) error
	Partners(ctx context.Context) ([]balance.Partner, error)
	ReplacePartners(ctx context.Context, partners []balance.Partner) error
	CreateExpense(ctx context.Context, e balance.Expense) (int64, error)
	UpdateExpense(ctx context.Context, e balance.Expense) error
	DeleteExpense(ctx context.Context, id int64) error
	CreateWithdrawal(ctx context.Context, w balance.Withdrawal) (int64, error)
	UpdateWithdrawal(ctx context.Context, w balance.Withdrawal) error
	DeleteWithdrawal(ctx context.Context, id int64) error
	CreateAdjustment(ctx context.Context, a balance.Adjustment) (int64, error)
	UpdateAdjustment(ctx context.Context, a balance.Adjustment) error
	DeleteAdjustment(ctx context.Context, id int64) error
	SetInitialCash(ctx context.Context, ic balance.InitialCash) error
}

// Enqueuer schedules background ledger warming after writes.
type Enqueuer interface {
	EnqueueBalanceWarm(ctx context.Context) error
}

// Handler coordinates HTTP requests for the balance ledger.
type Handler struct {
	logger   *slog.Logger
	service  BalanceService
	enqueuer Enqueuer
	validate *validator.Validate
	now      func() time.Time
}

// NewHandler constructs the balance HTTP handler. The enqueuer may be nil
// when no worker is deployed; writes then rely on cache invalidation alone.
func NewHandler(logger *slog.Logger, service BalanceService, enqueuer Enqueuer) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		enqueuer: enqueuer,
		validate: validator.New(),
		now:      time.Now,
	}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	y, err := h.service.GetYear(r.Context(), year)
	if err != nil {
		h.serverError(w, "load balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, y)
}

func (h *Handler) handleGetGrid(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	y, err := h.service.GetYear(r.Context(), year)
	if err != nil {
		h.serverError(w, "load balance grid", err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance.BuildGrid(y))
}

func (h *Handler) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	y, err := h.service.GetYear(r.Context(), year)
	if err != nil {
		h.serverError(w, "load balance period", err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance.BuildPeriod(y, r.URL.Query().Get("month")))
}

func (h *Handler) handleGetYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.Years(r.Context())
	if err != nil {
		h.serverError(w, "list years", err)
		return
	}
	if years == nil {
		years = []int{}
	}
	httpx.JSON(w, http.StatusOK, map[string][]int{"years": years})
}

func (h *Handler) handleGetSortOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.SortOrder(r.Context())
	if err != nil {
		h.serverError(w, "load sort order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

type sortOrderPayload struct {
	Value []string `json:"value" validate:"required"`
}

func (h *Handler) handlePutSortOrder(w http.ResponseWriter, r *http.Request) {
	var payload sortOrderPayload
	if !h.decode(w, r, &payload) {
		return
	}
	if err := h.service.SetSortOrder(r.Context(), payload.Value); err != nil {
		h.serverError(w, "save sort order", err)
		return
	}
	h.warm(r.Context())
	httpx.JSON(w, http.StatusOK, sortOrderPayload{Value: payload.Value})
}

func (h *Handler) handleGetPartners(w http.ResponseWriter, r *http.Request) {
	partners, err := h.service.Partners(r.Context())
	if err != nil {
		h.serverError(w, "list partners", err)
		return
	}
	if partners == nil {
		partners = []balance.Partner{}
	}
	httpx.JSON(w, http.StatusOK, map[string][]balance.Partner{"partners": partners})
}

type partnersPayload struct {
	Partners []partnerPayload `json:"partners" validate:"required,min=1,dive"`
}

type partnerPayload struct {
	ID    string  `json:"id" validate:"required"`
	Name  string  `json:"name" validate:"required"`
	Share float64 `json:"share" validate:"gte=0,lte=1"`
}

func (h *Handler) handlePutPartners(w http.ResponseWriter, r *http.Request) {
	var payload partnersPayload
	if !h.decode(w, r, &payload) {
		return
	}
	partners := make([]balance.Partner, 0, len(payload.Partners))
	for _, p := range payload.Partners {
		partners = append(partners, balance.Partner{ID: p.ID, Name: p.Name, Share: p.Share})
	}
	if err := h.service.ReplacePartners(r.Context(), partners); err != nil {
		if errors.Is(err, balance.ErrDuplicate) || errors.Is(err, balance.ErrNotFound) {
			httpx.RespondError(w, err, writeMappings...)
			return
		}
		h.serverError(w, "replace partners", err)
		return
	}
	h.warm(r.Context())
	httpx.JSON(w, http.StatusOK, map[string][]balance.Partner{"partners": partners})
}

type expensePayload struct {
	YearMonth string  `json:"yearMonth" validate:"required"`
	Category  string  `json:"category" validate:"required,oneof=fixed variable"`
	Name      string  `json:"name" validate:"required"`
	Amount    float64 `json:"amount" validate:"gte=0"`
}

func (h *Handler) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var payload expensePayload
	if !h.decode(w, r, &payload) {
		return
	}
	if !h.validMonth(w, payload.YearMonth) {
		return
	}
	id, err := h.service.CreateExpense(r.Context(), balance.Expense{
		YearMonth: payload.YearMonth,
		Category:  balance.ExpenseCategory(payload.Category),
		Name:      payload.Name,
		Amount:    payload.Amount,
	})
	if err != nil {
		h.serverError(w, "create expense", err)
		return
	}
	h.warm(r.Context())
	httpx.JSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var payload expensePayload
	if !h.decode(w, r, &payload) {
		return
	}
	if !h.validMonth(w, payload.YearMonth) {
		return
	}
	err := h.service.UpdateExpense(r.Context(), balance.Expense{
		ID:        id,
		YearMonth: payload.YearMonth,
		Category:  balance.ExpenseCategory(payload.Category),
		Name:      payload.Name,
		Amount:    payload.Amount,
	})
	if h.writeResult(w, "update expense", err) {
		h.warm(r.Context())
	}
}

func (h *Handler) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	if h.writeResult(w, "delete expense", h.service.DeleteExpense(r.Context(), id)) {
		h.warm(r.Context())
	}
}

type withdrawalPayload struct {
	YearMonth string  `json:"yearMonth" validate:"required"`
	PartnerID string  `json:"partnerId" validate:"required"`
	Amount    float64 `json:"amount" validate:"gte=0"`
	Note      string  `json:"note"`
}

func (h *Handler) handleCreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var payload withdrawalPayload
	if !h.decode(w, r, &payload) {
		return
	}
	if !h.validMonth(w, payload.YearMonth) {
		return
	}
	id, err := h.service.CreateWithdrawal(r.Context(), balance.Withdrawal{
		YearMonth: payload.YearMonth,
		PartnerID: payload.PartnerID,
		Amount:    payload.Amount,
		Note:      payload.Note,
	})
	if err != nil {
		h.serverError(w, "create withdrawal", err)
		return
	}
	h.warm(r.Context())
	httpx.JSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) handleUpdateWithdrawal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var payload withdrawalPayload
	if !h.decode(w, r, &payload) {
		return
	}
	if !h.validMonth(w, payload.YearMonth) {
		return
	}
	err := h.service.UpdateWithdrawal(r.Context(), balance.Withdrawal{
		ID:        id,
		YearMonth: payload.YearMonth,
		PartnerID: payload.PartnerID,
		Amount:    payload.Amount,
		Note:      payload.Note,
	})
	if h.writeResult(w, "update withdrawal", err) {
		h.warm(r.Context())
	}
}

func (h *Handler) handleDeleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	if h.writeResult(w, "delete withdrawal", h.service.DeleteWithdrawal(r.Context(), id)) {
		h.warm(r.Context())
	}
}

type adjustmentPayload struct {
	YearMonth string  `json:"yearMonth" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Amount    float64 `json:"amount"`
}

func (h *Handler) handleCreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var payload adjustmentPayload
	if !h.decode(w, r, &payload) {
		return
	}
	if !h.validMonth(w, payload.YearMonth) {
		return
	}
	id, err := h.service.CreateAdjustment(r.Context(), balance.Adjustment{
		YearMonth: payload.YearMonth,
		Name:      payload.Name,
		Amount:    payload.Amount,
	})
	if err != nil {
		h.serverError(w, "create adjustment", err)
		return
	}
	h.warm(r.Context())
	httpx.JSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) handleUpdateAdjustment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var payload adjustmentPayload
	if !h.decode(w, r, &payload) {
		return
	}
	if !h.validMonth(w, payload.YearMonth) {
		return
	}
	err := h.service.UpdateAdjustment(r.Context(), balance.Adjustment{
		ID:        id,
		YearMonth: payload.YearMonth,
		Name:      payload.Name,
		Amount:    payload.Amount,
	})
	if h.writeResult(w, "update adjustment", err) {
		h.warm(r.Context())
	}
}

func (h *Handler) handleDeleteAdjustment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	if h.writeResult(w, "delete adjustment", h.service.DeleteAdjustment(r.Context(), id)) {
		h.warm(r.Context())
	}
}

type initialCashPayload struct {
	Year   int     `json:"year" validate:"required,gte=2000,lte=2100"`
	Amount float64 `json:"amount" validate:"gte=0"`
	Note   string  `json:"note"`
}

func (h *Handler) handlePutInitialCash(w http.ResponseWriter, r *http.Request) {
	var payload initialCashPayload
	if !h.decode(w, r, &payload) {
		return
	}
	err := h.service.SetInitialCash(r.Context(), balance.InitialCash{
		Year:   payload.Year,
		Amount: payload.Amount,
		Note:   payload.Note,
	})
	if err != nil {
		h.serverError(w, "save initial cash", err)
		return
	}
	h.warm(r.Context())
	httpx.JSON(w, http.StatusOK, payload)
}

func (h *Handler) yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return h.now().Year(), true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 2000 || year > 2100 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid year", "year must be a four-digit year")
		return 0, false
	}
	return year, true
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, payload any) bool {
	if err := httpx.DecodeJSON(r, payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid payload", "request body must be valid JSON")
		return false
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) validMonth(w http.ResponseWriter, yearMonth string) bool {
	if !yearMonthRegex.MatchString(yearMonth) {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation failed", "yearMonth must be formatted YYYY-MM")
		return false
	}
	return true
}

// writeMappings translate the ledger's write sentinels into problem
// responses.
var writeMappings = []httpx.Mapping{
	{Err: balance.ErrNotFound, Status: http.StatusNotFound, Title: "Not found", Detail: "no record with that id"},
	{Err: balance.ErrDuplicate, Status: http.StatusConflict, Title: "Duplicate partner", Detail: "partner ids must be unique"},
}

// writeResult maps service write errors onto HTTP responses and reports
// whether the write succeeded.
func (h *Handler) writeResult(w http.ResponseWriter, op string, err error) bool {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
		return true
	case errors.Is(err, balance.ErrNotFound):
		httpx.RespondError(w, err, writeMappings...)
		return false
	default:
		h.serverError(w, op, err)
		return false
	}
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal error", "the ledger could not be processed")
}

// warm asks the worker to precompute ledgers after a write. Failures only
// log; the cache bump already guarantees fresh reads.
func (h *Handler) warm(ctx context.Context) {
	if h.enqueuer == nil {
		return
	}
	if err := h.enqueuer.EnqueueBalanceWarm(ctx); err != nil {
		h.logger.Warn("enqueue balance warm", slog.Any("error", err))
	}
}
