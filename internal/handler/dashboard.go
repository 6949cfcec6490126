package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seodash/seodash/internal/dashboard"
)

// DashboardHandler serves the dashboard page and its htmx fragments.
// Controller errors are already surfaced as notifications, so every action
// responds with the re-rendered #app fragment.
type DashboardHandler struct {
	ctrl   *dashboard.Controller
	page   *dashboard.Page
	tmpl   *dashboard.Templates
	logger *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(ctrl *dashboard.Controller, page *dashboard.Page, tmpl *dashboard.Templates, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		ctrl:   ctrl,
		page:   page,
		tmpl:   tmpl,
		logger: logger,
	}
}

// Routes mounts the dashboard fragment endpoints under /dashboard.
func (h *DashboardHandler) Routes(r chi.Router) {
	r.Handle("/static/*", http.StripPrefix("/dashboard/static", dashboard.StaticHandler()))
	r.Get("/notifications", h.Notifications)
	r.Post("/websites", h.AddWebsite)
	r.Post("/websites/{id}/delete", h.DeleteWebsite)
	r.Post("/websites/{id}/select", h.SelectWebsite)
	r.Post("/range", h.SetDateRange)
	r.Post("/audit", h.RunAudit)
	r.Post("/modal/open", h.OpenAddForm)
	r.Post("/modal/close", h.CloseAddForm)
}

// Index handles GET /. It reloads the website list, and the metrics of a
// website that is still selected, then renders the page.
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	_ = h.ctrl.Refresh(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.RenderIndex(w, h.page.Snapshot()); err != nil {
		h.logger.Error("render_failed", "template", "index", "error", err)
	}
}

// AddWebsite handles POST /dashboard/websites.
func (h *DashboardHandler) AddWebsite(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	_ = h.ctrl.AddWebsite(r.Context(), r.PostFormValue("name"), r.PostFormValue("url"))
	h.renderApp(w, r)
}

// DeleteWebsite handles POST /dashboard/websites/{id}/delete.
// The browser asks for confirmation and sends confirmed=true.
func (h *DashboardHandler) DeleteWebsite(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	id, ok := h.cardID(r)
	if ok {
		confirmed := r.PostFormValue("confirmed") == "true"
		_ = h.ctrl.DeleteWebsite(r.Context(), id, dashboard.ConfirmFunc(func(string) bool {
			return confirmed
		}))
	}
	h.renderApp(w, r)
}

// SelectWebsite handles POST /dashboard/websites/{id}/select.
func (h *DashboardHandler) SelectWebsite(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	if id, ok := h.cardID(r); ok {
		_ = h.ctrl.SelectWebsite(r.Context(), id, r.PostFormValue("name"))
	}
	h.renderApp(w, r)
}

// SetDateRange handles POST /dashboard/range.
func (h *DashboardHandler) SetDateRange(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	days, err := strconv.Atoi(r.PostFormValue("days"))
	if err != nil {
		days = 0
	}
	_ = h.ctrl.SetDateRange(r.Context(), days)
	h.renderApp(w, r)
}

// RunAudit handles POST /dashboard/audit.
func (h *DashboardHandler) RunAudit(w http.ResponseWriter, r *http.Request) {
	_ = h.ctrl.RunAudit(r.Context())
	h.renderApp(w, r)
}

// OpenAddForm handles POST /dashboard/modal/open.
func (h *DashboardHandler) OpenAddForm(w http.ResponseWriter, r *http.Request) {
	h.ctrl.OpenAddForm()
	h.renderApp(w, r)
}

// CloseAddForm handles POST /dashboard/modal/close.
func (h *DashboardHandler) CloseAddForm(w http.ResponseWriter, r *http.Request) {
	h.ctrl.CloseAddForm()
	h.renderApp(w, r)
}

// Notifications handles GET /dashboard/notifications.
func (h *DashboardHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.RenderNotifications(w, h.page.Notifications()); err != nil {
		h.logger.Error("render_failed", "template", "notifications", "error", err)
	}
}

// renderApp writes the #app fragment for htmx, or redirects plain form posts
// back to the page.
func (h *DashboardHandler) renderApp(w http.ResponseWriter, r *http.Request) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.RenderApp(w, h.page.Snapshot()); err != nil {
		h.logger.Error("render_failed", "template", "app", "error", err)
	}
}

func (h *DashboardHandler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return false
	}
	return true
}

// cardID parses the {id} path parameter. Unparsable ids are reported like
// any website missing from the grid.
func (h *DashboardHandler) cardID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.page.Notify(dashboard.MsgUnknownWebsite, dashboard.KindError)
		return 0, false
	}
	return id, true
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
