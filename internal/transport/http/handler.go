package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "bakesales/internal/errors"
	"bakesales/internal/exporter"
	"bakesales/internal/sales"
	"bakesales/internal/service"
)

const dateLayout = "2006-01-02"

// AnalyticsService is the analytics surface the handlers depend on.
type AnalyticsService interface {
	GetSummary(ctx context.Context, from, to time.Time, filter service.Filter) (*service.Summary, error)
	Compare(ctx context.Context, p1From, p1To, p2From, p2To time.Time, filter service.Filter) (*service.ComparisonView, error)
	LoadRange(ctx context.Context, from, to time.Time, filter service.Filter) (sales.RecordSet, error)
	ListProducts(ctx context.Context, from, to time.Time, category string) ([]string, error)
	ListCategories(ctx context.Context, from, to time.Time) ([]sales.Category, error)
}

// Handler serves the analytics API.
type Handler struct {
	service  AnalyticsService
	exporter *exporter.CSVWriter
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler creates the analytics API handler.
func NewHandler(svc AnalyticsService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:  svc,
		exporter: exporter.NewCSVWriter(),
		logger:   logger.With(slog.String("component", "http_handler")),
		validate: validator.New(),
	}
}

// Routes mounts the analytics endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/summary", h.GetSummary)
	r.Get("/compare", h.GetCompare)
	r.Get("/products", h.GetProducts)
	r.Get("/categories", h.GetCategories)
	r.Get("/export/products", h.ExportProducts)
	r.Get("/export/categories", h.ExportCategories)
	r.Get("/export/compare", h.ExportCompare)
	return r
}

// rangeRequest is the query surface shared by the single-period endpoints.
type rangeRequest struct {
	From     string `validate:"required,datetime=2006-01-02"`
	To       string `validate:"required,datetime=2006-01-02"`
	Category string `validate:"omitempty,max=100"`
	Product  string `validate:"omitempty,max=200"`
}

func (h *Handler) parseRange(r *http.Request) (time.Time, time.Time, service.Filter, *apierrors.APIError) {
	req := rangeRequest{
		From:     r.URL.Query().Get("from"),
		To:       r.URL.Query().Get("to"),
		Category: r.URL.Query().Get("category"),
		Product:  r.URL.Query().Get("product"),
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := verrs[0].Field()
			return time.Time{}, time.Time{}, service.Filter{},
				apierrors.ErrValidation(field, fmt.Sprintf("invalid value for %s", field))
		}
		return time.Time{}, time.Time{}, service.Filter{}, apierrors.InvalidRequestWithError(err)
	}

	from, _ := time.Parse(dateLayout, req.From)
	to, _ := time.Parse(dateLayout, req.To)
	if to.Before(from) {
		return time.Time{}, time.Time{}, service.Filter{},
			apierrors.ErrValidation("to", "end date precedes start date")
	}
	return from, to, service.Filter{Category: req.Category, Product: req.Product}, nil
}

// GetSummary handles GET /api/analytics/summary.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	from, to, filter, apiErr := h.parseRange(r)
	if apiErr != nil {
		render.Render(w, r, apiErr)
		return
	}

	summary, err := h.service.GetSummary(r.Context(), from, to, filter)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// GetCompare handles GET /api/analytics/compare. It takes two ranges:
// p1_from/p1_to and p2_from/p2_to, plus the usual filters.
func (h *Handler) GetCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	parse := func(name string) (time.Time, *apierrors.APIError) {
		raw := q.Get(name)
		if raw == "" {
			return time.Time{}, apierrors.ErrValidation(name, "parameter is required")
		}
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, apierrors.ErrValidation(name, "expected YYYY-MM-DD")
		}
		return t, nil
	}

	var (
		dates  [4]time.Time
		names  = [4]string{"p1_from", "p1_to", "p2_from", "p2_to"}
		apiErr *apierrors.APIError
	)
	for i, name := range names {
		if dates[i], apiErr = parse(name); apiErr != nil {
			render.Render(w, r, apiErr)
			return
		}
	}
	if dates[1].Before(dates[0]) || dates[3].Before(dates[2]) {
		render.Render(w, r, apierrors.ErrValidation("range", "end date precedes start date"))
		return
	}

	filter := service.Filter{Category: q.Get("category"), Product: q.Get("product")}
	view, err := h.service.Compare(r.Context(), dates[0], dates[1], dates[2], dates[3], filter)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetProducts handles GET /api/analytics/products.
func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	from, to, filter, apiErr := h.parseRange(r)
	if apiErr != nil {
		render.Render(w, r, apiErr)
		return
	}

	products, err := h.service.ListProducts(r.Context(), from, to, filter.Category)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"products": products})
}

// GetCategories handles GET /api/analytics/categories.
func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	from, to, _, apiErr := h.parseRange(r)
	if apiErr != nil {
		render.Render(w, r, apiErr)
		return
	}

	categories, err := h.service.ListCategories(r.Context(), from, to)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"categories": categories})
}

// ExportProducts handles GET /api/analytics/export/products and streams the
// per-product summary table as CSV.
func (h *Handler) ExportProducts(w http.ResponseWriter, r *http.Request) {
	h.exportGrouped(w, r, sales.GroupProduct, "Product", "products")
}

// ExportCategories handles GET /api/analytics/export/categories.
func (h *Handler) ExportCategories(w http.ResponseWriter, r *http.Request) {
	h.exportGrouped(w, r, sales.GroupCategory, "Category", "categories")
}

func (h *Handler) exportGrouped(w http.ResponseWriter, r *http.Request, dim sales.GroupKey, keyHeader, stem string) {
	from, to, filter, apiErr := h.parseRange(r)
	if apiErr != nil {
		render.Render(w, r, apiErr)
		return
	}

	records, err := h.service.LoadRange(r.Context(), from, to, filter)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if len(records) == 0 {
		h.renderError(w, r, sales.ErrNoData)
		return
	}

	grouped := sales.GroupBy(records, dim)
	aggs := sales.TopN(grouped, len(grouped)).Ranked
	filename := fmt.Sprintf("%s_%s_%s.csv", stem, from.Format("20060102"), to.Format("20060102"))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := h.exporter.WriteAggregates(w, keyHeader, aggs); err != nil {
		h.logger.Error("csv export failed", slog.String("error", err.Error()))
	}
}

// ExportCompare handles GET /api/analytics/export/compare and streams the
// period diff table as CSV. It takes the same parameters as /compare.
func (h *Handler) ExportCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		dates [4]time.Time
		names = [4]string{"p1_from", "p1_to", "p2_from", "p2_to"}
	)
	for i, name := range names {
		t, err := time.Parse(dateLayout, q.Get(name))
		if err != nil {
			render.Render(w, r, apierrors.ErrValidation(name, "expected YYYY-MM-DD"))
			return
		}
		dates[i] = t
	}

	filter := service.Filter{Category: q.Get("category"), Product: q.Get("product")}
	view, err := h.service.Compare(r.Context(), dates[0], dates[1], dates[2], dates[3], filter)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	keyHeader := "Category"
	if filter.Category != "" || filter.Product != "" {
		keyHeader = "Product"
	}
	filename := fmt.Sprintf("compare_%s_vs_%s.csv",
		dates[0].Format("20060102"), dates[2].Format("20060102"))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	p1Label := fmt.Sprintf("%s to %s", view.Period1.From, view.Period1.To)
	p2Label := fmt.Sprintf("%s to %s", view.Period2.From, view.Period2.To)
	if err := h.exporter.WriteComparison(w, keyHeader, p1Label, p2Label, view.Diff); err != nil {
		h.logger.Error("csv export failed", slog.String("error", err.Error()))
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apierrors.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.Is(err, sales.ErrNoData):
		apiErr = apierrors.ErrNoDataForRange
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		apiErr = apierrors.New(http.StatusRequestTimeout, "REQUEST_TIMEOUT", "request cancelled or timed out")
	default:
		h.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		apiErr = apierrors.ErrInternalServer
	}
	render.Render(w, r, apiErr)
}
