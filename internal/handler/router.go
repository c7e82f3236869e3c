package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	custommiddleware "github.com/mmeshcher/apolo-gym/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware приложения спортзала.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Accept-Encoding", "Content-Encoding"},
		ExposedHeaders: []string{"Warning"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/members", func(r chi.Router) {
			r.Get("/", h.ListMembers)
			r.Post("/", h.AddMember)
			r.Get("/summary", h.MemberSummary)
			r.Get("/{card}", h.GetMember)
			r.Get("/{card}/cash-ins", h.GetMemberCashIns)
		})

		r.Get("/cash-ins", h.ListCashIns)
		r.Post("/cash-ins", h.AddCashIn)

		r.Get("/withdrawals", h.ListWithdrawals)
		r.Post("/withdrawals", h.AddWithdrawal)

		r.Get("/expenses", h.ListExpenses)
		r.Post("/expenses", h.AddExpense)

		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.ListShifts)
			r.Get("/current", h.CurrentShift)
			r.Post("/open", h.OpenShift)
			r.Post("/close", h.CloseShift)
		})

		r.Get("/cash", h.CashOnHand)
		r.Post("/state/flush", h.Flush)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
