package balancehttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers balance endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	writeLimiter := httprate.Limit(30, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/balance", h.handleGetBalance)
	r.Get("/balance/grid", h.handleGetGrid)
	r.Get("/balance/period", h.handleGetPeriod)
	r.Get("/balance/years", h.handleGetYears)
	r.Get("/balance/sort-order", h.handleGetSortOrder)
	r.Get("/balance/partners", h.handleGetPartners)

	r.Group(func(gr chi.Router) {
		gr.Use(writeLimiter)
		gr.Put("/balance/sort-order", h.handlePutSortOrder)
		gr.Put("/balance/partners", h.handlePutPartners)
		gr.Put("/balance/initial-cash", h.handlePutInitialCash)

		gr.Post("/balance/expenses", h.handleCreateExpense)
		gr.Put("/balance/expenses/{id}", h.handleUpdateExpense)
		gr.Delete("/balance/expenses/{id}", h.handleDeleteExpense)

		gr.Post("/balance/withdrawals", h.handleCreateWithdrawal)
		gr.Put("/balance/withdrawals/{id}", h.handleUpdateWithdrawal)
		gr.Delete("/balance/withdrawals/{id}", h.handleDeleteWithdrawal)

		gr.Post("/balance/adjustments", h.handleCreateAdjustment)
		gr.Put("/balance/adjustments/{id}", h.handleUpdateAdjustment)
		gr.Delete("/balance/adjustments/{id}", h.handleDeleteAdjustment)
	})
}
