/*
handlers.go - HTTP API handlers for the inventory and sales tracker

PURPOSE:
  Exposes the stock catalog, ledger and reports via REST API. Handles HTTP
  request/response and JSON serialization, and delegates everything else
  to the stock package.

ENDPOINTS:
  Products:
    GET    /api/products              List products
    POST   /api/products              Add product
    GET    /api/products/{id}         Get product
    PATCH  /api/products/{id}         Edit product (partial)
    DELETE /api/products/{id}         Delete product (sales are kept)
    GET    /api/products/{id}/sales   Sales of one product

  Sales:
    GET    /api/sales                 Ledger in creation order
    POST   /api/sales                 Register a sale

  Reports:
    GET    /api/reports/summary       Dashboard totals and top lists
    GET    /api/reports/revenue       Revenue per period
    GET    /api/reports/products      Quantity sold per product
    GET    /api/reports/stock         Current stock levels

  Scenarios:
    GET    /api/scenarios             List demo scenarios
    POST   /api/scenarios/load        Load a demo scenario

REQUEST FLOW:
  1. Parse HTTP request
  2. Call Catalog / Ledger / report folds
  3. Serialize response
  4. Map errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed body or query
  - 404: Unknown product
  - 409: Insufficient stock (details carry the shortfall)
  - 500: Persistence failures

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario endpoints
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/MrDieggo/controleEstoque-app/pkg/logger"
	"github.com/MrDieggo/controleEstoque-app/stock"
)

const defaultTop = 3

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Catalog *stock.Catalog
	Ledger  *stock.Ledger
	Logger  *zap.Logger

	// Names of scenarios loaded since startup, in load order.
	mu     sync.Mutex
	loaded []string
}

// NewHandler creates a handler over a catalog and its ledger. logger may be nil.
func NewHandler(catalog *stock.Catalog, ledger *stock.Ledger, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Catalog: catalog,
		Ledger:  ledger,
		Logger:  log,
	}
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts returns all products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTOs(products))
}

// CreateProduct adds a product.
// POST /api/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	price, err := req.Price.Decimal()
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	p, err := h.Catalog.AddProduct(r.Context(), req.Name, req.Quantity, price)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(p))
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Catalog.Get(r.Context(), productID(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

// UpdateProduct edits the fields present in the body.
// PATCH /api/products/{id}
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	patch := stock.ProductPatch{Name: req.Name, Quantity: req.Quantity}
	if req.Price != nil {
		price, err := req.Price.Decimal()
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		patch.Price = &price
	}
	if patch.IsEmpty() {
		writeError(w, http.StatusBadRequest, "Nothing to update", nil)
		return
	}

	p, err := h.Catalog.EditProduct(r.Context(), productID(r), patch)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

// DeleteProduct removes a product from the catalog.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteProduct(r.Context(), productID(r)); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProductSales returns the sales of one product id. Works for deleted
// products too.
func (h *Handler) ListProductSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.Ledger.SalesForProduct(r.Context(), productID(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTOs(sales))
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// ListSales returns the ledger.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.Ledger.ListSales(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTOs(sales))
}

// CreateSale registers a sale.
// POST /api/sales
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sale, left, err := h.Ledger.Sell(r.Context(), stock.ProductID(req.ProductID), req.Quantity)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateSaleResponse{Sale: toSaleDTO(sale), Remaining: left.Quantity})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// Summary returns the dashboard view.
// GET /api/reports/summary?style=short&locale=pt-BR&top=3
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	q, err := parseReportQuery(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	sales, err := h.Ledger.ListSales(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	s := stock.Summarize(sales, q.bucket, q.top)
	writeJSON(w, http.StatusOK, SummaryDTO{
		TotalRevenue: money(s.TotalRevenue),
		SaleCount:    s.SaleCount,
		UnitsSold:    s.UnitsSold,
		TopProducts:  s.TopProducts,
		TopPeriods:   toPeriodDTOs(s.TopPeriods),
	})
}

// RevenueReport returns revenue per period, oldest first.
// GET /api/reports/revenue?period=month&style=long&locale=en
func (h *Handler) RevenueReport(w http.ResponseWriter, r *http.Request) {
	q, err := parseReportQuery(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	sales, err := h.Ledger.ListSales(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	report := RevenueReportDTO{
		Period: q.period,
		Total:  money(stock.TotalRevenue(sales)),
		Series: toPeriodDTOs(stock.RevenueSeries(sales, q.bucket)),
	}
	if q.period == "month" {
		report.Style = string(q.style)
		report.Locale = string(q.locale)
	}
	writeJSON(w, http.StatusOK, report)
}

// ProductReport returns quantity sold per product name.
// GET /api/reports/products?top=5 (top omitted or 0 lists all)
func (h *Handler) ProductReport(w http.ResponseWriter, r *http.Request) {
	top, err := parseTop(r, 0)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	sales, err := h.Ledger.ListSales(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProductReportDTO{Products: stock.TopProducts(sales, top)})
}

// StockReport returns current stock levels.
func (h *Handler) StockReport(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	report := StockReportDTO{Products: stock.StockLevels(products)}
	for _, p := range products {
		report.TotalUnits += p.Quantity
		if p.Quantity == 0 {
			report.OutOfStock++
		}
	}
	writeJSON(w, http.StatusOK, report)
}

// Health reports that the store can be read.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Catalog.List(r.Context()); err != nil {
		h.Logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// QUERY PARSING
// =============================================================================

type reportQuery struct {
	period string
	style  stock.MonthStyle
	locale stock.Locale
	top    int
	bucket stock.BucketFunc
}

func parseReportQuery(r *http.Request) (reportQuery, error) {
	v := r.URL.Query()
	q := reportQuery{period: v.Get("period")}

	var ok bool
	if q.style, ok = stock.ParseMonthStyle(v.Get("style")); !ok {
		return q, &stock.ValidationError{Field: "style", Message: "must be key, long or short"}
	}
	if q.locale, ok = stock.ParseLocale(v.Get("locale")); !ok {
		return q, &stock.ValidationError{Field: "locale", Message: "must be en or pt-BR"}
	}

	switch q.period {
	case "", "month":
		q.period = "month"
		q.bucket = stock.MonthLabels(q.locale, q.style)
	case "day":
		q.bucket = stock.DayKey
	case "year":
		q.bucket = stock.YearKey
	default:
		return q, &stock.ValidationError{Field: "period", Message: "must be day, month or year"}
	}

	top, err := parseTop(r, defaultTop)
	if err != nil {
		return q, err
	}
	q.top = top
	return q, nil
}

func parseTop(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("top")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &stock.ValidationError{Field: "top", Message: "must be a non-negative integer"}
	}
	return n, nil
}

func productID(r *http.Request) stock.ProductID {
	return stock.ProductID(chi.URLParam(r, "id"))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Code: "BAD_REQUEST"}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps stock errors to status codes and logs server-side
// failures with the request id.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr     *stock.ValidationError
		nfErr    *stock.NotFoundError
		shortErr *stock.InsufficientStockError
	)
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   vErr.Error(),
			Code:    "VALIDATION",
			Details: map[string]string{"field": vErr.Field},
		})
	case errors.As(err, &nfErr):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   nfErr.Error(),
			Code:    "NOT_FOUND",
			Details: map[string]string{"product_id": string(nfErr.ProductID)},
		})
	case errors.As(err, &shortErr):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: shortErr.Error(),
			Code:  "INSUFFICIENT_STOCK",
			Details: map[string]any{
				"product_id": string(shortErr.ProductID),
				"available":  shortErr.Available,
				"requested":  shortErr.Requested,
				"shortfall":  shortErr.Shortfall,
			},
		})
	default:
		logger.WithRequestID(r.Context(), h.Logger).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		code := "INTERNAL"
		if errors.Is(err, stock.ErrPersistence) {
			code = "PERSISTENCE"
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "internal error",
			Code:  code,
		})
	}
}
