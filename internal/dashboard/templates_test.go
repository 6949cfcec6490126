package dashboard

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderApp(t *testing.T, v View) string {
	t.Helper()
	tmpl, err := ParseTemplates()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tmpl.RenderApp(&buf, v))
	return buf.String()
}

func TestRenderApp_EmptyState(t *testing.T) {
	out := renderApp(t, View{WebsitesLoaded: true})
	assert.Contains(t, out, "No websites added yet.")
	assert.NotContains(t, out, "website-card")
}

func TestRenderApp_Cards(t *testing.T) {
	out := renderApp(t, View{
		WebsitesLoaded: true,
		Websites: []WebsiteCard{
			{ID: 1, Name: "Acme", URL: "acme.com", Verified: true, Status: StatusVerified, LastAudit: AuditRecent},
			{ID: 2, Name: `<img src=x onerror=alert(1)>`, URL: "evil.com", Status: StatusPending, LastAudit: AuditNever},
		},
	})

	assert.Equal(t, 2, strings.Count(out, `class="website-card"`))
	assert.Contains(t, out, `data-website-id="1"`)
	assert.Contains(t, out, "Verified")
	assert.Contains(t, out, "Recent")
	assert.Contains(t, out, "Pending")
	assert.NotContains(t, out, "<img src=x")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "No websites added yet.")
}

func TestRenderApp_Metrics(t *testing.T) {
	out := renderApp(t, View{
		MetricsVisible: true,
		SelectedName:   "Acme",
		Summary:        Summarize(sampleMetrics()),
		DateRange:      90,
		DateRanges:     DateRangeOptions,
		Chart:          "<svg id=\"metricsChart\"></svg>",
	})

	assert.Contains(t, out, `<span id="total-clicks" class="value">30</span>`)
	assert.Contains(t, out, `<span id="avg-ctr" class="value">7.50%</span>`)
	assert.Contains(t, out, `<option value="90" selected>`)
	assert.Contains(t, out, `<svg id="metricsChart"></svg>`)
}

func TestRenderApp_ConfiguredRangeIsSelectable(t *testing.T) {
	notifier := NewNotifier(time.Minute)
	t.Cleanup(notifier.Close)
	page := NewPage(notifier, 14)
	page.ShowMetricsPanel("Acme")

	view := page.Snapshot()
	assert.Equal(t, []int{7, 14, 30, 90, 180, 365}, view.DateRanges)
	assert.Contains(t, renderApp(t, view), `<option value="14" selected>`)

	page.SetDateRange(90)
	view = page.Snapshot()
	assert.Equal(t, DateRangeOptions, view.DateRanges)
	out := renderApp(t, view)
	assert.Contains(t, out, `<option value="90" selected>`)
	assert.NotContains(t, out, `<option value="14"`)
}

func TestRenderApp_HiddenPanelsAndForm(t *testing.T) {
	out := renderApp(t, View{})
	assert.NotContains(t, out, "metrics-section")
	assert.NotContains(t, out, "add-website-modal")

	out = renderApp(t, View{AddFormOpen: true})
	assert.Contains(t, out, "add-website-modal")
}

func TestRenderIndex_IncludesNotifications(t *testing.T) {
	tmpl, err := ParseTemplates()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tmpl.RenderIndex(&buf, View{
		Notifications: []Notification{{ID: 3, Message: "Website added successfully", Kind: KindSuccess, CreatedAt: time.Now()}},
	}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<!doctype html>"))
	assert.Contains(t, out, `class="notification notification-success"`)
	assert.Contains(t, out, "Website added successfully")
}

func TestStaticHandler(t *testing.T) {
	h := StaticHandler()

	for _, name := range []string{"/dashboard.css", "/dashboard.js"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, name, nil))
		assert.Equal(t, http.StatusOK, rec.Code, name)
	}
}
