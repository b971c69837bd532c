package web

import (
	"net/http"
	"strconv"
	"strings"

	"partstock/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Handler wires the chi router over the core services. It owns request
// decoding, DTO validation, and the typed-error to status-code mapping;
// nothing in here touches the ledger directly.
type Handler struct {
	purchases   core.PurchaseService
	sales       core.SaleService
	adjustments core.AdjustmentService
	ledger      *core.BatchLedger
	log         *zap.Logger
}

// NewHandler creates and wires the chi router with all routes.
// allowedOrigins is a comma-separated list; empty disables CORS entirely.
func NewHandler(purchases core.PurchaseService, sales core.SaleService,
	adjustments core.AdjustmentService, ledger *core.BatchLedger,
	log *zap.Logger, allowedOrigins string) http.Handler {

	h := &Handler{
		purchases:   purchases,
		sales:       sales,
		adjustments: adjustments,
		ledger:      ledger,
		log:         log,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(log))
	r.Use(Recoverer(log))
	if origins := splitAndTrim(allowedOrigins); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "X-Request-ID", "X-Actor"},
			AllowCredentials: true,
		}))
	}

	r.Get("/api/health", h.health)

	r.Route("/api/purchases", func(r chi.Router) {
		r.Post("/", h.createPurchase)
		r.Get("/", h.listPurchases)
		r.Get("/{id}", h.getPurchase)
		r.Post("/{id}/cancel", h.cancelPurchase)
	})

	r.Route("/api/sales", func(r chi.Router) {
		r.Post("/", h.createSale)
		r.Get("/", h.listSales)
		r.Get("/{id}", h.getSale)
		r.Post("/{id}/cancel", h.cancelSale)
	})

	r.Get("/api/items/{id}/batches", h.listItemBatches)

	r.Route("/api/adjustments", func(r chi.Router) {
		r.Post("/", h.createAdjustment)
		r.Get("/", h.listAdjustments)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// idParam parses the {id} URL parameter.
func idParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// pageParams parses ?page= and ?size= into a core.Page, defaulting when absent.
// Range validation is the Page type's job.
func pageParams(r *http.Request) core.Page {
	page := core.DefaultPage()
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.Number = n
		}
	}
	if v := r.URL.Query().Get("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.Size = n
		}
	}
	return page
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
