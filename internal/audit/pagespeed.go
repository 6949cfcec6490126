package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/seodash/seodash/internal/model"
)

// DefaultPageSpeedEndpoint is the public PageSpeed Insights v5 endpoint.
const DefaultPageSpeedEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// failingScore marks a Lighthouse audit as failed when its score is below it.
const failingScore = 0.5

// maxPageSpeedBody bounds the decoded response; full Lighthouse reports are large.
const maxPageSpeedBody = 32 << 20

// ErrMissingLighthouse is returned when a 200 response carries no lighthouseResult.
var ErrMissingLighthouse = errors.New("PageSpeed response has no lighthouse result")

// PageSpeedClient calls the PageSpeed Insights API.
type PageSpeedClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewPageSpeedClient creates a client. An empty endpoint uses the public API;
// a nil client uses NewHTTPClient.
func NewPageSpeedClient(endpoint, apiKey string, client *http.Client) *PageSpeedClient {
	if endpoint == "" {
		endpoint = DefaultPageSpeedEndpoint
	}
	if client == nil {
		client = NewHTTPClient()
	}
	return &PageSpeedClient{endpoint: endpoint, apiKey: apiKey, client: client}
}

type lighthouseCategory struct {
	Score *float64 `json:"score"`
}

type lighthouseAudit struct {
	Score            *float64 `json:"score"`
	ScoreDisplayMode string   `json:"scoreDisplayMode"`
	NumericValue     float64  `json:"numericValue"`
}

type pageSpeedResponse struct {
	LighthouseResult *struct {
		Categories map[string]lighthouseCategory `json:"categories"`
		Audits     map[string]lighthouseAudit    `json:"audits"`
	} `json:"lighthouseResult"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Run audits pageURL across every category and returns the scores.
func (c *PageSpeedClient) Run(ctx context.Context, pageURL string) (*model.AuditScores, error) {
	params := url.Values{}
	params.Set("url", pageURL)
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	for _, category := range model.AllAuditCategories {
		params.Add("category", string(category))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build PageSpeed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("PageSpeed request failed: %w", err)
	}
	defer resp.Body.Close()

	var data pageSpeedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPageSpeedBody)).Decode(&data); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("PageSpeed API error: %s", http.StatusText(resp.StatusCode))
		}
		return nil, fmt.Errorf("decode PageSpeed response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		message := "Unknown error"
		if data.Error != nil && data.Error.Message != "" {
			message = data.Error.Message
		}
		return nil, fmt.Errorf("PageSpeed API error: %s", message)
	}

	if data.LighthouseResult == nil {
		return nil, ErrMissingLighthouse
	}

	categories := data.LighthouseResult.Categories
	audits := data.LighthouseResult.Audits

	return &model.AuditScores{
		PerformanceScore:       categoryScore(categories, "performance"),
		AccessibilityScore:     categoryScore(categories, "accessibility"),
		BestPracticesScore:     categoryScore(categories, "best-practices"),
		SEOScore:               categoryScore(categories, "seo"),
		SpeedIndex:             audits["speed-index"].NumericValue,
		FirstContentfulPaint:   audits["first-contentful-paint"].NumericValue,
		LargestContentfulPaint: audits["largest-contentful-paint"].NumericValue,
		FailedAudits:           failedAudits(audits),
	}, nil
}

// categoryScore converts a 0-1 Lighthouse score into an integer percentage.
// Missing or null scores count as 0.
func categoryScore(categories map[string]lighthouseCategory, name string) int {
	category, ok := categories[name]
	if !ok || category.Score == nil {
		return 0
	}
	return int(*category.Score * 100)
}

// failedAudits lists scored audits below failingScore, sorted by ID.
func failedAudits(audits map[string]lighthouseAudit) []string {
	var failed []string
	for id, a := range audits {
		if a.Score == nil {
			continue
		}
		mode := strings.ToLower(a.ScoreDisplayMode)
		if mode != "binary" && mode != "numeric" && mode != "metricsavings" {
			continue
		}
		if *a.Score < failingScore {
			failed = append(failed, id)
		}
	}
	sort.Strings(failed)
	return failed
}
