package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seodash/seodash/internal/handler/dto"
	"github.com/seodash/seodash/internal/model"
	"github.com/seodash/seodash/internal/service"
)

// API error messages.
const (
	msgNameURLRequired = "URL and name are required"
	msgWebsiteExists   = "Website already exists"
	msgWebsiteNotFound = "Website not found"
	msgInvalidID       = "Invalid website ID"
	msgInvalidBody     = "Invalid request body"
	msgInvalidSample   = "Invalid metric sample"
	msgAuditLimited    = "Audit rate limit exceeded, try again later"
	msgInternal        = "An internal error occurred"

	msgWebsiteDeleted = "Website deleted successfully"
	msgMetricsStored  = "Metrics stored successfully"
	msgAuditCompleted = "Audit completed successfully"
)

// WebsiteService is the business logic behind the websites API.
type WebsiteService interface {
	ListWebsites(ctx context.Context) ([]*model.Website, error)
	CreateWebsite(ctx context.Context, name, siteURL string) (*model.Website, error)
	DeleteWebsite(ctx context.Context, id int64) error
	DefaultDays() int
	GetMetrics(ctx context.Context, websiteID int64, days int) ([]model.MetricSample, error)
	IngestMetrics(ctx context.Context, websiteID int64, samples []model.MetricSample) error
	RunAudit(ctx context.Context, websiteID int64) (*model.AuditResult, error)
	ListAudits(ctx context.Context, websiteID int64, limit int) ([]*model.AuditResult, error)
}

// Audit history page size.
const (
	defaultAuditLimit = 20
	maxAuditLimit     = 100
)

// WebsiteHandler handles the websites, metrics and audit endpoints.
type WebsiteHandler struct {
	svc    WebsiteService
	logger *slog.Logger
}

// NewWebsiteHandler creates a new WebsiteHandler.
func NewWebsiteHandler(svc WebsiteService, logger *slog.Logger) *WebsiteHandler {
	return &WebsiteHandler{
		svc:    svc,
		logger: logger,
	}
}

// Routes mounts the websites API under /api/websites.
func (h *WebsiteHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/metrics", h.Metrics)
	r.Put("/{id}/metrics", h.IngestMetrics)
	r.Post("/{id}/audit", h.Audit)
	r.Get("/{id}/audits", h.Audits)
}

// List handles GET /api/websites.
func (h *WebsiteHandler) List(w http.ResponseWriter, r *http.Request) {
	websites, err := h.svc.ListWebsites(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.WebsiteList(websites))
}

// Create handles POST /api/websites.
func (h *WebsiteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWebsiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	website, err := h.svc.CreateWebsite(r.Context(), req.Name, req.URL)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("website_created",
		"website_id", website.ID,
		"url", website.URL,
	)

	writeJSON(w, http.StatusCreated, website)
}

// Delete handles DELETE /api/websites/{id}.
func (h *WebsiteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := websiteID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteWebsite(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("website_deleted", "website_id", id)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: msgWebsiteDeleted})
}

// Metrics handles GET /api/websites/{id}/metrics?days=n.
func (h *WebsiteHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	id, ok := websiteID(w, r)
	if !ok {
		return
	}

	days := service.ParseDays(r.URL.Query().Get("days"), h.svc.DefaultDays())
	samples, err := h.svc.GetMetrics(r.Context(), id, days)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MetricList(samples))
}

// IngestMetrics handles PUT /api/websites/{id}/metrics.
func (h *WebsiteHandler) IngestMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := websiteID(w, r)
	if !ok {
		return
	}

	var samples []model.MetricSample
	if err := json.NewDecoder(r.Body).Decode(&samples); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := h.svc.IngestMetrics(r.Context(), id, samples); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("metrics_ingested", "website_id", id, "samples", len(samples))

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: msgMetricsStored})
}

// Audit handles POST /api/websites/{id}/audit.
func (h *WebsiteHandler) Audit(w http.ResponseWriter, r *http.Request) {
	id, ok := websiteID(w, r)
	if !ok {
		return
	}

	result, err := h.svc.RunAudit(r.Context(), id)
	if err != nil {
		var limited *service.RateLimitError
		switch {
		case errors.As(err, &limited):
			secs := int(math.Ceil(limited.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, http.StatusTooManyRequests, msgAuditLimited)
		case errors.Is(err, service.ErrWebsiteNotFound):
			writeError(w, http.StatusNotFound, msgWebsiteNotFound)
		default:
			h.logger.Error("audit_failed", "website_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	h.logger.Info("audit_completed",
		"website_id", id,
		"audit_id", result.ID,
		"performance", result.PerformanceScore,
		"seo", result.SEOScore,
	)

	writeJSON(w, http.StatusOK, dto.AuditResponse{
		Message: msgAuditCompleted,
		Results: result,
	})
}

// Audits handles GET /api/websites/{id}/audits?limit=n, newest first.
func (h *WebsiteHandler) Audits(w http.ResponseWriter, r *http.Request) {
	id, ok := websiteID(w, r)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	results, err := h.svc.ListAudits(r.Context(), id, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	if results == nil {
		results = []*model.AuditResult{}
	}

	writeJSON(w, http.StatusOK, results)
}

// handleServiceError maps service errors to HTTP responses.
func (h *WebsiteHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNameURLRequired):
		writeError(w, http.StatusBadRequest, msgNameURLRequired)
	case errors.Is(err, service.ErrWebsiteExists):
		writeError(w, http.StatusBadRequest, msgWebsiteExists)
	case errors.Is(err, service.ErrWebsiteNotFound):
		writeError(w, http.StatusNotFound, msgWebsiteNotFound)
	case errors.Is(err, service.ErrInvalidSample):
		writeError(w, http.StatusBadRequest, msgInvalidSample)
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

// websiteID parses the {id} path parameter, writing a 400 on failure.
func websiteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, msgInvalidID)
		return 0, false
	}
	return id, true
}
