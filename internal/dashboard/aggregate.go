package dashboard

import (
	"math"
	"strconv"

	"github.com/seodash/seodash/internal/model"
)

// Summary is the aggregate of a metrics window shown in the summary cards.
type Summary struct {
	TotalClicks      int64
	TotalImpressions int64
	// AvgCTR is a percentage rounded to 2 decimals; 0 without impressions.
	AvgCTR float64
	// AvgPosition is the mean position rounded to 1 decimal; 0 without samples.
	AvgPosition float64
	Samples     int
}

// Summarize aggregates samples.
func Summarize(samples []model.MetricSample) Summary {
	s := Summary{Samples: len(samples)}
	if len(samples) == 0 {
		return s
	}

	var positions float64
	for _, sample := range samples {
		s.TotalClicks += sample.Clicks
		s.TotalImpressions += sample.Impressions
		positions += sample.Position
	}

	if s.TotalImpressions > 0 {
		s.AvgCTR = round(float64(s.TotalClicks)/float64(s.TotalImpressions)*100, 2)
	}
	s.AvgPosition = round(positions/float64(len(samples)), 1)
	return s
}

// ClicksText is the displayed total clicks.
func (s Summary) ClicksText() string {
	return strconv.FormatInt(s.TotalClicks, 10)
}

// ImpressionsText is the displayed total impressions.
func (s Summary) ImpressionsText() string {
	return strconv.FormatInt(s.TotalImpressions, 10)
}

// CTRText is the displayed average CTR: "7.50%", or "0%" without impressions.
func (s Summary) CTRText() string {
	if s.TotalImpressions == 0 {
		return "0%"
	}
	return strconv.FormatFloat(s.AvgCTR, 'f', 2, 64) + "%"
}

// PositionText is the displayed average position: "5.0", or "0" without samples.
func (s Summary) PositionText() string {
	if s.Samples == 0 {
		return "0"
	}
	return strconv.FormatFloat(s.AvgPosition, 'f', 1, 64)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Card status and last-audit labels.
const (
	StatusVerified = "Verified"
	StatusPending  = "Pending"
	AuditRecent    = "Recent"
	AuditNever     = "Never"
)

// WebsiteCard is the view model of one website in the grid.
type WebsiteCard struct {
	ID        int64
	Name      string
	URL       string
	Verified  bool
	Status    string
	LastAudit string
}

// WebsiteCards derives one card per website, in order.
func WebsiteCards(websites []model.Website) []WebsiteCard {
	cards := make([]WebsiteCard, 0, len(websites))
	for _, w := range websites {
		card := WebsiteCard{
			ID:        w.ID,
			Name:      w.Name,
			URL:       w.URL,
			Verified:  w.IsVerified,
			Status:    StatusPending,
			LastAudit: AuditNever,
		}
		if w.IsVerified {
			card.Status = StatusVerified
		}
		if w.HasBeenAudited() {
			card.LastAudit = AuditRecent
		}
		cards = append(cards, card)
	}
	return cards
}
