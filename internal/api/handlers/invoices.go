package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturier/facturier/internal/api/middleware"
	"github.com/facturier/facturier/internal/cache"
	"github.com/facturier/facturier/internal/export"
	"github.com/facturier/facturier/internal/extract"
	"github.com/facturier/facturier/internal/observability"
	"github.com/facturier/facturier/internal/render"
	"github.com/facturier/facturier/internal/storage"
)

// InvoiceHandler handles invoice CRUD, rendering, and export requests.
type InvoiceHandler struct {
	logger   *observability.Logger
	invoices *storage.InvoiceRepository
	cache    cache.Client
	cacheTTL time.Duration
	renderer *render.Renderer
}

// NewInvoiceHandler creates a new invoice handler. pdfCache may be nil to
// disable caching of rendered documents.
func NewInvoiceHandler(logger *observability.Logger, invoices *storage.InvoiceRepository, pdfCache cache.Client, cacheTTL time.Duration, renderer *render.Renderer) *InvoiceHandler {
	return &InvoiceHandler{
		logger:   logger,
		invoices: invoices,
		cache:    pdfCache,
		cacheTTL: cacheTTL,
		renderer: renderer,
	}
}

// InvoiceRequestDTO is the invoice creation and preview payload.
type InvoiceRequestDTO struct {
	Mode        string             `json:"mode"`
	Language    string             `json:"language"`
	Date        string             `json:"date,omitempty"`
	DocTitle    string             `json:"doc_title,omitempty"`
	FromAddress []string           `json:"from_address"`
	ToAddress   []string           `json:"to_address"`
	Items       []extract.LineItem `json:"items"`
}

// validate normalizes defaults and returns a client-facing message for the
// first rule the payload breaks, or "" when it is acceptable.
func (req *InvoiceRequestDTO) validate() string {
	if req.Mode == "" {
		req.Mode = string(extract.ModeInvoice)
	}
	if req.Mode != string(extract.ModeInvoice) && req.Mode != string(extract.ModeEstimate) {
		return "mode must be invoice or estimate"
	}

	if req.Language == "" {
		req.Language = string(extract.LangEN)
	}
	if req.Language != string(extract.LangEN) && req.Language != string(extract.LangFR) {
		return "language must be en or fr"
	}

	if len(req.Items) == 0 {
		return "at least one item is required"
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return fmt.Sprintf("item %d: quantity must be positive", i+1)
		}
		if item.Price < 0 {
			return fmt.Sprintf("item %d: price must not be negative", i+1)
		}
	}

	if req.Date != "" {
		if _, err := time.Parse("2006-01-02", req.Date); err != nil {
			return "date must be formatted YYYY-MM-DD"
		}
	}

	return ""
}

// computeTotal sums quantity times unit price over all items, rounded to
// two decimal places. The client-supplied total is never trusted.
func computeTotal(items []extract.LineItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	f, _ := total.Round(2).Float64()
	return f
}

// Create handles POST /api/v1/invoices.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req InvoiceRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	now := time.Now().UTC()
	date := req.Date
	if date == "" {
		date = now.Format("2006-01-02")
	}

	inv := &storage.Invoice{
		UserID:      user.ID,
		Number:      now.Format("20060102-150405"),
		Date:        date,
		DocTitle:    req.DocTitle,
		Mode:        extract.Mode(req.Mode),
		Language:    extract.Language(req.Language),
		FromAddress: storage.AddressLines(req.FromAddress),
		ToAddress:   storage.AddressLines(req.ToAddress),
		Items:       storage.LineItems(req.Items),
		Total:       computeTotal(req.Items),
	}

	if err := h.invoices.Create(ctx, inv); err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("Invoice insert failed")
		writeError(w, http.StatusInternalServerError, "failed to create invoice")
		return
	}

	h.logger.Info().
		Str("user_id", user.ID.String()).
		Str("invoice_id", inv.ID.String()).
		Str("invoice_number", inv.Number).
		Float64("total", inv.Total).
		Msg("Invoice created")

	writeJSON(w, http.StatusCreated, inv)
}

// List handles GET /api/v1/invoices.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	invoices, err := h.invoices.ListByUser(ctx, user.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("Invoice list failed")
		writeError(w, http.StatusInternalServerError, "failed to list invoices")
		return
	}

	writeJSON(w, http.StatusOK, invoices)
}

// Get handles GET /api/v1/invoices/{invoiceID}.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "invoiceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	inv, err := h.invoices.GetByID(ctx, id, user.ID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("invoice_id", id.String()).Msg("Invoice fetch failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch invoice")
		return
	}

	writeJSON(w, http.StatusOK, inv)
}

// Delete handles DELETE /api/v1/invoices/{invoiceID}.
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "invoiceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	err = h.invoices.Delete(ctx, id, user.ID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("invoice_id", id.String()).Msg("Invoice delete failed")
		writeError(w, http.StatusInternalServerError, "failed to delete invoice")
		return
	}

	if h.cache != nil {
		if err := h.cache.Delete(ctx, cache.PDFKey(id.String())); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn().Err(err).Str("invoice_id", id.String()).Msg("Cached PDF eviction failed")
		}
	}

	h.logger.Info().Str("user_id", user.ID.String()).Str("invoice_id", id.String()).Msg("Invoice deleted")

	writeJSON(w, http.StatusOK, map[string]string{"message": "Invoice deleted successfully"})
}

// PDF handles GET /api/v1/invoices/{invoiceID}/pdf. Rendered bytes are
// cached per invoice; deleting the invoice evicts them.
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "invoiceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invoice id")
		return
	}

	inv, err := h.invoices.GetByID(ctx, id, user.ID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("invoice_id", id.String()).Msg("Invoice fetch failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch invoice")
		return
	}

	doc := documentFromInvoice(inv)
	filename := render.Filename(doc, time.Now().UTC())

	key := cache.PDFKey(id.String())
	if h.cache != nil {
		if data, cerr := h.cache.Get(ctx, key); cerr == nil {
			servePDF(w, data, filename)
			return
		}
	}

	data, err := h.renderer.Render(doc)
	if err != nil {
		h.logger.Error().Err(err).Str("invoice_id", id.String()).Msg("PDF generation failed")
		writeError(w, http.StatusInternalServerError, "pdf generation failed")
		return
	}

	if h.cache != nil {
		if cerr := h.cache.Set(ctx, key, data, h.cacheTTL); cerr != nil {
			h.logger.Warn().Err(cerr).Str("invoice_id", id.String()).Msg("PDF cache write failed")
		}
	}

	servePDF(w, data, filename)
}

// Preview handles POST /api/v1/invoices/preview. No auth and nothing is
// persisted; the payload is rendered and returned directly.
func (h *InvoiceHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req InvoiceRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	now := time.Now().UTC()
	date := req.Date
	if date == "" {
		date = now.Format("2006-01-02")
	}

	doc := render.Document{
		Mode:        extract.Mode(req.Mode),
		Language:    extract.Language(req.Language),
		Number:      now.Format("20060102-150405"),
		Date:        date,
		DocTitle:    req.DocTitle,
		FromAddress: req.FromAddress,
		ToAddress:   req.ToAddress,
		Items:       req.Items,
		Total:       computeTotal(req.Items),
	}

	data, err := h.renderer.Render(doc)
	if err != nil {
		h.logger.Error().Err(err).Msg("Preview generation failed")
		writeError(w, http.StatusInternalServerError, "pdf generation failed")
		return
	}

	servePDF(w, data, render.Filename(doc, now))
}

// Export handles GET /api/v1/invoices/export.
func (h *InvoiceHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := middleware.UserFromContext(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	invoices, err := h.invoices.ListByUser(ctx, user.ID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("Invoice list failed")
		writeError(w, http.StatusInternalServerError, "failed to list invoices")
		return
	}

	data, err := export.BuildWorkbook(invoices)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("Workbook build failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	filename := "invoices_" + time.Now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Write(data)
}

func documentFromInvoice(inv *storage.Invoice) render.Document {
	return render.Document{
		Mode:        inv.Mode,
		Language:    inv.Language,
		Number:      inv.Number,
		Date:        inv.Date,
		DocTitle:    inv.DocTitle,
		FromAddress: []string(inv.FromAddress),
		ToAddress:   []string(inv.ToAddress),
		Items:       []extract.LineItem(inv.Items),
		Total:       inv.Total,
	}
}

func servePDF(w http.ResponseWriter, data []byte, filename string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Write(data)
}
