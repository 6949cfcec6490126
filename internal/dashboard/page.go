package dashboard

import (
	"html/template"
	"slices"
	"sync"
)

// Surface is what the controller renders to.
type Surface interface {
	ShowLoading()
	HideLoading()

	// ClearWebsites empties the grid before a new list is drawn.
	ClearWebsites()
	// RenderWebsites draws the cards; an empty slice shows the empty state.
	RenderWebsites(cards []WebsiteCard)

	OpenAddForm()
	CloseAddForm()

	// ShowMetricsPanel sets the header label, reveals the panel and scrolls to it.
	ShowMetricsPanel(websiteName string)
	HideMetricsPanel()
	RenderSummary(summary Summary)
	RenderChart(svg template.HTML)
	ClearChart()

	SetDateRange(days int)
	Notify(message string, kind Kind)
}

// View is a snapshot of the page used by the templates.
type View struct {
	Loading bool

	WebsitesLoaded bool
	Websites       []WebsiteCard
	AddFormOpen    bool

	MetricsVisible  bool
	ScrollToMetrics bool
	SelectedName    string
	Summary         Summary
	Chart           template.HTML

	DateRange     int
	DateRanges    []int
	Notifications []Notification
}

// EmptyState reports whether the empty-state prompt is shown.
func (v View) EmptyState() bool {
	return v.WebsitesLoaded && len(v.Websites) == 0
}

// DateRangeOptions are the trailing-day windows offered by the range control.
var DateRangeOptions = []int{7, 30, 90, 180, 365}

// rangeOptions returns DateRangeOptions plus current, in ascending order.
func rangeOptions(current int) []int {
	if current <= 0 || slices.Contains(DateRangeOptions, current) {
		return DateRangeOptions
	}
	opts := append(slices.Clone(DateRangeOptions), current)
	slices.Sort(opts)
	return opts
}

// Page is the server-side model of the dashboard document.
type Page struct {
	notifier *Notifier

	mu   sync.RWMutex
	view View
}

// NewPage creates a page whose notifications go through notifier.
func NewPage(notifier *Notifier, days int) *Page {
	return &Page{
		notifier: notifier,
		view: View{
			DateRange:  days,
			DateRanges: rangeOptions(days),
		},
	}
}

// Snapshot returns a copy of the current page including live notifications.
// A pending scroll request is consumed by the snapshot that reports it.
func (p *Page) Snapshot() View {
	p.mu.Lock()
	v := p.view
	v.Websites = append([]WebsiteCard(nil), p.view.Websites...)
	p.view.ScrollToMetrics = false
	p.mu.Unlock()

	v.Notifications = p.notifier.Active()
	return v
}

// Notifications returns the visible notifications.
func (p *Page) Notifications() []Notification {
	return p.notifier.Active()
}

func (p *Page) update(fn func(v *View)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.view)
}

func (p *Page) ShowLoading() { p.update(func(v *View) { v.Loading = true }) }
func (p *Page) HideLoading() { p.update(func(v *View) { v.Loading = false }) }

func (p *Page) ClearWebsites() {
	p.update(func(v *View) {
		v.Websites = nil
		v.WebsitesLoaded = false
	})
}

func (p *Page) RenderWebsites(cards []WebsiteCard) {
	p.update(func(v *View) {
		v.Websites = cards
		v.WebsitesLoaded = true
	})
}

func (p *Page) OpenAddForm()  { p.update(func(v *View) { v.AddFormOpen = true }) }
func (p *Page) CloseAddForm() { p.update(func(v *View) { v.AddFormOpen = false }) }

func (p *Page) ShowMetricsPanel(websiteName string) {
	p.update(func(v *View) {
		v.SelectedName = websiteName
		v.MetricsVisible = true
		v.ScrollToMetrics = true
	})
}

func (p *Page) HideMetricsPanel() {
	p.update(func(v *View) {
		v.MetricsVisible = false
		v.ScrollToMetrics = false
		v.SelectedName = ""
		v.Summary = Summary{}
		v.Chart = ""
	})
}

func (p *Page) RenderSummary(summary Summary) {
	p.update(func(v *View) { v.Summary = summary })
}

func (p *Page) RenderChart(svg template.HTML) {
	p.update(func(v *View) { v.Chart = svg })
}

func (p *Page) ClearChart() {
	p.update(func(v *View) { v.Chart = "" })
}

func (p *Page) SetDateRange(days int) {
	p.update(func(v *View) {
		v.DateRange = days
		v.DateRanges = rangeOptions(days)
	})
}

func (p *Page) Notify(message string, kind Kind) {
	p.notifier.Notify(message, kind)
}
