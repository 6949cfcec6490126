// Package dashboard holds the dashboard state and its orchestration of the
// website, metrics and audit API calls.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/seodash/seodash/internal/apiclient"
	"github.com/seodash/seodash/internal/model"
)

// ChartCanvas is the canvas the metrics chart is bound to.
const ChartCanvas = "metricsChart"

// DeleteConfirmPrompt is shown before a website is deleted.
const DeleteConfirmPrompt = "Are you sure you want to delete this website?"

// User-facing messages.
const (
	MsgRequiredFields = "Please fill in all required fields"
	MsgWebsiteAdded   = "Website added successfully"
	MsgAddFailed      = "Failed to add website"
	MsgWebsiteDeleted = "Website deleted successfully"
	MsgDeleteFailed   = "Failed to delete website"
	MsgLoadFailed     = "Failed to load websites"
	MsgMetricsFailed  = "Failed to load metrics"
	MsgUnknownWebsite = "Website not found"
	MsgSelectFirst    = "Please select a website first"
	MsgAuditRunning   = "Running SEO audit..."
	MsgAuditCompleted = "Audit completed successfully"
	MsgAuditFailed    = "Audit failed"
	MsgChartFailed    = "Failed to draw chart"
)

// Precondition errors. They are surfaced as notifications and never reach the API.
var (
	ErrRequiredFields = errors.New("name and url are required")
	ErrNotConfirmed   = errors.New("deletion not confirmed")
	ErrNoSelection    = errors.New("no website selected")
	ErrUnknownWebsite = errors.New("website is not in the loaded list")
)

// Backend is the REST API the dashboard consumes.
type Backend interface {
	ListWebsites(ctx context.Context) ([]model.Website, error)
	CreateWebsite(ctx context.Context, name, siteURL string) error
	DeleteWebsite(ctx context.Context, id int64) error
	GetMetrics(ctx context.Context, id int64, days int) ([]model.MetricSample, error)
	RunAudit(ctx context.Context, id int64) (json.RawMessage, error)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Controller owns the dashboard state: the selected website, the live chart
// and the date range. State changes and rendering happen under mu; backend
// calls run without it, so a slow request never blocks other operations.
type Controller struct {
	backend Backend
	surface Surface
	charts  *SVGRenderer
	logger  *slog.Logger

	mu         sync.Mutex
	selected   int64
	hasSelect  bool
	chart      *ChartHandle
	dateRange  int
	websites   []model.Website
	inFlight   int
	listSeq    uint64
	metricsSeq uint64
}

// NewController creates a controller. days is the initial date range.
func NewController(backend Backend, surface Surface, charts *SVGRenderer, logger *slog.Logger, days int) *Controller {
	if charts == nil {
		charts = NewSVGRenderer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if days <= 0 {
		days = 30
	}
	surface.SetDateRange(days)
	return &Controller{
		backend:   backend,
		surface:   surface,
		charts:    charts,
		logger:    logger.With("component", "dashboard"),
		dateRange: days,
	}
}

// Selection returns the selected website ID.
func (c *Controller) Selection() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.hasSelect
}

// DateRange returns the active trailing-days window.
func (c *Controller) DateRange() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dateRange
}

// Chart returns the live chart, or nil.
func (c *Controller) Chart() *ChartHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chart
}

// busy shows the loading indicator for one more operation. mu must be held.
// The returned func releases it and takes mu itself.
func (c *Controller) busy() func() {
	c.inFlight++
	if c.inFlight == 1 {
		c.surface.ShowLoading()
	}
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.inFlight--
		if c.inFlight == 0 {
			c.surface.HideLoading()
		}
	}
}

// LoadWebsites fetches the website list and redraws the grid.
func (c *Controller) LoadWebsites(ctx context.Context) error {
	return c.loadWebsites(ctx)
}

// Refresh reloads the list and, when a website is still selected, its metrics.
func (c *Controller) Refresh(ctx context.Context) error {
	if err := c.loadWebsites(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	id, ok := c.selected, c.hasSelect
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.loadMetrics(ctx, id)
}

func (c *Controller) loadWebsites(ctx context.Context) error {
	c.mu.Lock()
	done := c.busy()
	c.listSeq++
	seq := c.listSeq
	c.mu.Unlock()
	defer done()

	websites, err := c.backend.ListWebsites(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.fail(MsgLoadFailed, "load websites", err)
		return err
	}
	if seq != c.listSeq {
		// A newer reload owns the grid.
		return nil
	}

	c.surface.ClearWebsites()
	c.websites = websites
	c.surface.RenderWebsites(WebsiteCards(websites))

	if c.hasSelect && c.find(c.selected) == nil {
		c.clearSelection()
	}
	return nil
}

// OpenAddForm shows the add-website form.
func (c *Controller) OpenAddForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.surface.OpenAddForm()
}

// CloseAddForm dismisses the add-website form.
func (c *Controller) CloseAddForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.surface.CloseAddForm()
}

// AddWebsite creates a website and reloads the whole list.
func (c *Controller) AddWebsite(ctx context.Context, name, siteURL string) error {
	c.mu.Lock()
	if strings.TrimSpace(name) == "" || strings.TrimSpace(siteURL) == "" {
		c.surface.Notify(MsgRequiredFields, KindError)
		c.mu.Unlock()
		return ErrRequiredFields
	}
	done := c.busy()
	c.mu.Unlock()
	defer done()

	err := c.backend.CreateWebsite(ctx, name, siteURL)

	c.mu.Lock()
	if err != nil {
		c.fail(MsgAddFailed, "create website", err)
		c.mu.Unlock()
		return err
	}
	c.surface.CloseAddForm()
	c.surface.Notify(MsgWebsiteAdded, KindSuccess)
	c.mu.Unlock()

	return c.loadWebsites(ctx)
}

// DeleteWebsite deletes a website once confirm approves. Deleting the
// selected website clears the selection and hides the metrics panel.
func (c *Controller) DeleteWebsite(ctx context.Context, id int64, confirm Confirmer) error {
	if confirm == nil || !confirm.Confirm(DeleteConfirmPrompt) {
		return ErrNotConfirmed
	}

	c.mu.Lock()
	done := c.busy()
	c.mu.Unlock()
	defer done()

	err := c.backend.DeleteWebsite(ctx, id)

	c.mu.Lock()
	if err != nil {
		c.fail(MsgDeleteFailed, "delete website", err)
		c.mu.Unlock()
		return err
	}
	c.surface.Notify(MsgWebsiteDeleted, KindSuccess)
	if c.hasSelect && c.selected == id {
		c.clearSelection()
	}
	c.mu.Unlock()

	return c.loadWebsites(ctx)
}

// SelectWebsite makes id the current website and loads its metrics.
// An empty name is looked up in the loaded list.
func (c *Controller) SelectWebsite(ctx context.Context, id int64, name string) error {
	c.mu.Lock()
	website := c.find(id)
	if website == nil {
		c.surface.Notify(MsgUnknownWebsite, KindError)
		c.mu.Unlock()
		return ErrUnknownWebsite
	}
	if strings.TrimSpace(name) == "" {
		name = website.Name
	}
	c.selected, c.hasSelect = id, true
	c.surface.ShowMetricsPanel(name)
	c.mu.Unlock()

	return c.loadMetrics(ctx, id)
}

// LoadWebsiteMetrics fetches metrics for id over the active date range and
// redraws the summary and the chart.
func (c *Controller) LoadWebsiteMetrics(ctx context.Context, id int64) error {
	return c.loadMetrics(ctx, id)
}

// loadMetrics applies a response only if no later metrics request was issued
// and id is still selected.
func (c *Controller) loadMetrics(ctx context.Context, id int64) error {
	c.mu.Lock()
	done := c.busy()
	c.metricsSeq++
	seq, days := c.metricsSeq, c.dateRange
	c.mu.Unlock()
	defer done()

	samples, err := c.backend.GetMetrics(ctx, id, days)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.fail(MsgMetricsFailed, "load metrics", err)
		return err
	}
	if seq != c.metricsSeq || !c.hasSelect || c.selected != id {
		return nil
	}

	c.surface.RenderSummary(Summarize(samples))
	return c.updateChart(samples)
}

// updateChart replaces the live chart. mu must be held.
func (c *Controller) updateChart(samples []model.MetricSample) error {
	c.disposeChart()

	handle, err := c.charts.Render(ChartCanvas, BuildChartConfig(samples))
	if err != nil {
		c.fail(MsgChartFailed, "render chart", err)
		return err
	}
	c.chart = handle
	c.surface.RenderChart(handle.SVG())
	return nil
}

func (c *Controller) disposeChart() {
	if c.chart == nil {
		return
	}
	c.chart.Dispose()
	c.chart = nil
	c.surface.ClearChart()
}

// SetDateRange changes the trailing-days window and reloads the selected
// website's metrics.
func (c *Controller) SetDateRange(ctx context.Context, days int) error {
	if days <= 0 {
		return fmt.Errorf("invalid date range %d", days)
	}

	c.mu.Lock()
	c.dateRange = days
	c.surface.SetDateRange(days)
	id, ok := c.selected, c.hasSelect
	c.mu.Unlock()

	if !ok {
		return nil
	}
	return c.loadMetrics(ctx, id)
}

// RunAudit triggers an audit of the selected website. Results are logged only.
func (c *Controller) RunAudit(ctx context.Context) error {
	c.mu.Lock()
	if !c.hasSelect {
		c.surface.Notify(MsgSelectFirst, KindError)
		c.mu.Unlock()
		return ErrNoSelection
	}
	id := c.selected
	done := c.busy()
	c.surface.Notify(MsgAuditRunning, KindInfo)
	c.mu.Unlock()
	defer done()

	results, err := c.backend.RunAudit(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.fail(MsgAuditFailed, "run audit", err)
		return err
	}

	c.logger.Info("audit completed", "website_id", id, "results", string(results))
	c.surface.Notify(MsgAuditCompleted, KindSuccess)
	return nil
}

// Close releases the live chart.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposeChart()
}

func (c *Controller) clearSelection() {
	c.selected, c.hasSelect = 0, false
	c.disposeChart()
	c.surface.HideMetricsPanel()
}

func (c *Controller) find(id int64) *model.Website {
	for i := range c.websites {
		if c.websites[i].ID == id {
			return &c.websites[i]
		}
	}
	return nil
}

// fail logs err and notifies the server-provided message, or fallback.
func (c *Controller) fail(fallback, op string, err error) {
	message := fallback
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		message = apiErr.Message
	}
	c.logger.Error("dashboard operation failed", "op", op, "error", err)
	c.surface.Notify(message, KindError)
}
