package model

import "time"

// AuditCategory is a Lighthouse category requested from PageSpeed Insights.
type AuditCategory string

const (
	CategoryPerformance   AuditCategory = "PERFORMANCE"
	CategoryAccessibility AuditCategory = "ACCESSIBILITY"
	CategoryBestPractices AuditCategory = "BEST_PRACTICES"
	CategorySEO           AuditCategory = "SEO"
)

// AllAuditCategories lists the categories every audit requests.
var AllAuditCategories = []AuditCategory{
	CategoryPerformance,
	CategoryAccessibility,
	CategoryBestPractices,
	CategorySEO,
}

// AuditScores is the outcome of a single audit run.
// Scores are 0-100; timings are milliseconds.
type AuditScores struct {
	PerformanceScore       int      `json:"performance_score"`
	AccessibilityScore     int      `json:"accessibility_score"`
	BestPracticesScore     int      `json:"best_practices_score"`
	SEOScore               int      `json:"seo_score"`
	SpeedIndex             float64  `json:"speed_index"`
	FirstContentfulPaint   float64  `json:"first_contentful_paint"`
	LargestContentfulPaint float64  `json:"largest_contentful_paint"`
	FailedAudits           []string `json:"failed_audits,omitempty"`
}

// AuditResult is a persisted audit for a website.
type AuditResult struct {
	ID        string    `json:"id"` // ULID
	WebsiteID int64     `json:"website_id"`
	CreatedAt time.Time `json:"created_at"`
	AuditScores
}
