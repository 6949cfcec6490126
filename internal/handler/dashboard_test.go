package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seodash/seodash/internal/apiclient"
	"github.com/seodash/seodash/internal/dashboard"
	"github.com/seodash/seodash/internal/model"
)

type dashboardEnv struct {
	svc    *fakeWebsiteService
	router http.Handler
}

// newDashboardEnv wires the dashboard to a real API server backed by the fake service.
func newDashboardEnv(t *testing.T) *dashboardEnv {
	t.Helper()

	svc := newFakeWebsiteService()
	api := httptest.NewServer(newAPIRouter(svc))
	t.Cleanup(api.Close)

	client, err := apiclient.New(api.URL, api.Client())
	if err != nil {
		t.Fatalf("failed to create api client: %v", err)
	}

	notifier := dashboard.NewNotifier(time.Hour)
	t.Cleanup(notifier.Close)
	page := dashboard.NewPage(notifier, 30)
	ctrl := dashboard.NewController(client, page, nil, discardLogger(), 30)
	t.Cleanup(ctrl.Close)

	tmpl, err := dashboard.ParseTemplates()
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}

	h := NewDashboardHandler(ctrl, page, tmpl, discardLogger())
	r := chi.NewRouter()
	r.Get("/", h.Index)
	r.Route("/dashboard", h.Routes)

	return &dashboardEnv{svc: svc, router: r}
}

func (e *dashboardEnv) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (e *dashboardEnv) post(path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *dashboardEnv) notifications() string {
	return e.get("/dashboard/notifications").Body.String()
}

func TestDashboard_IndexEmptyState(t *testing.T) {
	env := newDashboardEnv(t)

	rec := env.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected Content-Type: %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "No websites added yet.") {
		t.Error("expected empty-state prompt")
	}
}

func TestDashboard_IndexAcmeScenario(t *testing.T) {
	env := newDashboardEnv(t)
	acme := env.svc.add("Acme", "acme.com", true)
	now := model.NewTimestamp(time.Now())
	acme.LastAudit = &now

	body := env.get("/").Body.String()
	if n := strings.Count(body, `class="website-card"`); n != 1 {
		t.Fatalf("expected 1 card, got %d", n)
	}
	for _, want := range []string{"Acme", "Verified", "Recent"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in page", want)
		}
	}
}

func TestDashboard_AddWebsite(t *testing.T) {
	env := newDashboardEnv(t)

	rec := env.post("/dashboard/modal/open", nil, true)
	if !strings.Contains(rec.Body.String(), "add-website-modal") {
		t.Fatal("expected add form to be open")
	}

	rec = env.post("/dashboard/websites", url.Values{"name": {"Acme"}, "url": {"acme.com"}}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, `<main id="app"`) {
		t.Errorf("expected #app fragment, got %.40s", body)
	}
	if strings.Contains(body, "add-website-modal") {
		t.Error("expected add form to be closed")
	}
	if !strings.Contains(body, `class="website-card"`) {
		t.Error("expected the new card")
	}
	if !strings.Contains(env.notifications(), dashboard.MsgWebsiteAdded) {
		t.Error("expected success notification")
	}
}

func TestDashboard_AddWebsiteErrors(t *testing.T) {
	env := newDashboardEnv(t)
	env.svc.add("Acme", "acme.com", false)

	env.post("/dashboard/websites", url.Values{"name": {"Acme"}}, true)
	if !strings.Contains(env.notifications(), dashboard.MsgRequiredFields) {
		t.Error("expected required-fields notification")
	}

	env.post("/dashboard/websites", url.Values{"name": {"Dup"}, "url": {"acme.com"}}, true)
	if !strings.Contains(env.notifications(), "Website already exists") {
		t.Error("expected the API error message")
	}
}

func TestDashboard_SelectShowsMetrics(t *testing.T) {
	env := newDashboardEnv(t)
	acme := env.svc.add("Acme", "acme.com", true)
	env.svc.samples[acme.ID] = []model.MetricSample{
		{Date: model.NewDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), Clicks: 10, Impressions: 100, CTR: 0.1, Position: 5.5},
		{Date: model.NewDate(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), Clicks: 20, Impressions: 300, CTR: 0.0667, Position: 4.5},
	}
	env.get("/")

	rec := env.post(fmt.Sprintf("/dashboard/websites/%d/select", acme.ID), url.Values{"name": {"Acme"}}, true)
	body := rec.Body.String()

	for _, want := range []string{
		`id="metrics-section"`,
		`<span id="total-clicks" class="value">30</span>`,
		`<span id="total-impressions" class="value">400</span>`,
		`<span id="avg-ctr" class="value">7.50%</span>`,
		`<span id="avg-position" class="value">5.0</span>`,
		`<svg id="metricsChart"`,
		"data-scroll-into-view",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in fragment", want)
		}
	}

	rec = env.post("/dashboard/range", url.Values{"days": {"90"}}, true)
	if !strings.Contains(rec.Body.String(), `<option value="90" selected>`) {
		t.Error("expected 90 days to be selected")
	}
	if got := env.svc.days(); got != 90 {
		t.Errorf("expected metrics reload for 90 days, got %d", got)
	}
}

func TestDashboard_IndexReloadsSelectedMetrics(t *testing.T) {
	env := newDashboardEnv(t)
	acme := env.svc.add("Acme", "acme.com", true)
	env.get("/")
	env.post(fmt.Sprintf("/dashboard/websites/%d/select", acme.ID), nil, true)

	day := model.NewDate(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	if err := env.svc.IngestMetrics(context.Background(), acme.ID, []model.MetricSample{
		{Date: day, Clicks: 12, Impressions: 48, Position: 3},
	}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	body := env.get("/").Body.String()
	for _, want := range []string{
		`<span id="total-clicks" class="value">12</span>`,
		`<span id="avg-ctr" class="value">25.00%</span>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q after reload", want)
		}
	}
}

func TestDashboard_SelectInvalidID(t *testing.T) {
	env := newDashboardEnv(t)

	rec := env.post("/dashboard/websites/abc/select", nil, true)
	if strings.Contains(rec.Body.String(), "metrics-section") {
		t.Error("expected no metrics panel")
	}
	if !strings.Contains(env.notifications(), dashboard.MsgUnknownWebsite) {
		t.Error("expected unknown website notification")
	}
}

func TestDashboard_DeleteSelected(t *testing.T) {
	env := newDashboardEnv(t)
	acme := env.svc.add("Acme", "acme.com", false)
	env.get("/")
	env.post(fmt.Sprintf("/dashboard/websites/%d/select", acme.ID), nil, true)

	path := fmt.Sprintf("/dashboard/websites/%d/delete", acme.ID)

	rec := env.post(path, nil, true)
	if !strings.Contains(rec.Body.String(), "metrics-section") {
		t.Error("unconfirmed delete must leave the panel")
	}
	if env.svc.count() != 1 {
		t.Fatal("unconfirmed delete must not call the API")
	}

	rec = env.post(path, url.Values{"confirmed": {"true"}}, true)
	body := rec.Body.String()
	if strings.Contains(body, "metrics-section") {
		t.Error("expected metrics panel to be hidden")
	}
	if !strings.Contains(body, "No websites added yet.") {
		t.Error("expected empty state after deleting the only website")
	}
	if !strings.Contains(env.notifications(), dashboard.MsgWebsiteDeleted) {
		t.Error("expected delete notification")
	}
}

func TestDashboard_AuditWithoutSelection(t *testing.T) {
	env := newDashboardEnv(t)

	env.post("/dashboard/audit", nil, true)
	if !strings.Contains(env.notifications(), dashboard.MsgSelectFirst) {
		t.Error("expected select-first notification")
	}
}

func TestDashboard_AuditSelected(t *testing.T) {
	env := newDashboardEnv(t)
	acme := env.svc.add("Acme", "acme.com", false)
	env.get("/")
	env.post(fmt.Sprintf("/dashboard/websites/%d/select", acme.ID), nil, true)

	env.post("/dashboard/audit", nil, true)
	notes := env.notifications()
	if !strings.Contains(notes, dashboard.MsgAuditRunning) || !strings.Contains(notes, dashboard.MsgAuditCompleted) {
		t.Errorf("expected running and completed notifications, got %s", notes)
	}
	if !env.svc.audited(acme.ID) {
		t.Error("expected the audit to reach the API")
	}
}

func TestDashboard_PlainFormPostRedirects(t *testing.T) {
	env := newDashboardEnv(t)

	rec := env.post("/dashboard/modal/close", nil, false)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("expected redirect to /, got %s", loc)
	}
}

func TestDashboard_Static(t *testing.T) {
	env := newDashboardEnv(t)

	for _, path := range []string{"/dashboard/static/dashboard.css", "/dashboard/static/dashboard.js"} {
		if rec := env.get(path); rec.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, rec.Code)
		}
	}
}
