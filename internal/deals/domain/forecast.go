package domain

import (
	"time"

	"github.com/google/uuid"
)

// Risk classifies how likely an open deal is to slip.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// ClassifyRisk rates a deal by its age in the pipeline and its expected close date.
func ClassifyRisk(d *Deal, now time.Time) Risk {
	age := DaysInStage(d.CreatedAt, now)
	today := truncateDay(now)

	if age > 90 {
		return RiskHigh
	}
	if d.ExpectedCloseDate != nil && truncateDay(*d.ExpectedCloseDate).Before(today) {
		return RiskHigh
	}
	if age > 60 {
		return RiskMedium
	}
	if d.ExpectedCloseDate != nil && d.Stage != StageNegotiation &&
		!truncateDay(*d.ExpectedCloseDate).After(today.AddDate(0, 0, 7)) {
		return RiskMedium
	}
	return RiskLow
}

// Recommendations suggests next actions for a deal that has spent
// daysInStage days in its current stage.
func Recommendations(d *Deal, daysInStage int, now time.Time) []string {
	recs := make([]string, 0, 2)
	switch d.Stage {
	case StageLeadIn:
		recs = append(recs, "Contact the client to qualify their requirements")
		if daysInStage > 7 {
			recs = append(recs, "Lead has waited over a week; follow up today")
		}
	case StageQualification:
		recs = append(recs, "Confirm budget and financing")
		if daysInStage > 14 {
			recs = append(recs, "Qualification is stalling; schedule a viewing")
		}
	case StageProposal:
		recs = append(recs, "Follow up on the proposal")
		if daysInStage > 14 {
			recs = append(recs, "Proposal open for over two weeks; consider revising the offer")
		}
	case StageNegotiation:
		recs = append(recs, "Prepare the closing documents")
		if daysInStage > 21 {
			recs = append(recs, "Negotiation is dragging; involve the tenant admin")
		}
	}
	if !d.Stage.Terminal() && d.ExpectedCloseDate != nil && truncateDay(*d.ExpectedCloseDate).Before(truncateDay(now)) {
		recs = append(recs, "Expected close date has passed; agree a new date with the client")
	}
	return recs
}

// ForecastItem is the projection of one open deal.
type ForecastItem struct {
	DealID          uuid.UUID `json:"dealId"`
	Title           string    `json:"title"`
	Stage           Stage     `json:"stage"`
	Value           float64   `json:"value"`
	Probability     int       `json:"probability"`
	ExpectedValue   float64   `json:"expectedValue"`
	DaysInPipeline  int       `json:"daysInPipeline"`
	DaysInStage     int       `json:"daysInStage"`
	Risk            Risk      `json:"risk"`
	Recommendations []string  `json:"recommendations"`
}

// Forecast summarises the open pipeline.
type Forecast struct {
	Items              []ForecastItem `json:"items"`
	TotalValue         float64        `json:"totalValue"`
	TotalExpectedValue float64        `json:"totalExpectedValue"`
	ByRisk             map[Risk]int   `json:"byRisk"`
}

// BuildForecast projects every open deal. stageSince holds when each deal
// entered its current stage; deals missing from it use their creation time.
func BuildForecast(deals []*Deal, stageSince map[uuid.UUID]time.Time, now time.Time) Forecast {
	f := Forecast{
		Items:  make([]ForecastItem, 0, len(deals)),
		ByRisk: map[Risk]int{RiskLow: 0, RiskMedium: 0, RiskHigh: 0},
	}
	for _, d := range deals {
		if d.Status != StatusOpen {
			continue
		}
		since, ok := stageSince[d.ID]
		if !ok {
			since = d.CreatedAt
		}
		days := DaysInStage(since, now)
		item := ForecastItem{
			DealID:          d.ID,
			Title:           d.Title,
			Stage:           d.Stage,
			Value:           d.Value,
			Probability:     Probability(d.Stage),
			ExpectedValue:   ExpectedValue(d.Value, d.Stage),
			DaysInPipeline:  DaysInStage(d.CreatedAt, now),
			DaysInStage:     days,
			Risk:            ClassifyRisk(d, now),
			Recommendations: Recommendations(d, days, now),
		}
		f.Items = append(f.Items, item)
		f.TotalValue += item.Value
		f.TotalExpectedValue += item.ExpectedValue
		f.ByRisk[item.Risk]++
	}
	return f
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
