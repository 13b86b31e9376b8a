package domain

import (
	"math"
	"time"
)

// StageStat aggregates the deals in one stage.
type StageStat struct {
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// Stats summarises a set of deals. Rates are percentages.
type Stats struct {
	Total           int                 `json:"total"`
	TotalValue      float64             `json:"totalValue"`
	ByStage         map[Stage]StageStat `json:"byStage"`
	Open            int                 `json:"open"`
	Won             int                 `json:"won"`
	Lost            int                 `json:"lost"`
	ConversionRate  float64             `json:"conversionRate"`
	WinRate         float64             `json:"winRate"`
	LossRate        float64             `json:"lossRate"`
	ExpectedRevenue float64             `json:"expectedRevenue"`
	ClosedThisMonth int                 `json:"closedThisMonth"`
	AvgDaysToClose  float64             `json:"avgDaysToClose"`
	// Velocity is won deals per month since the oldest deal, at least one month.
	Velocity float64 `json:"velocity"`
}

// ComputeStats aggregates deals as of now. Win and loss rates only count
// closed deals; expected revenue only counts open ones.
func ComputeStats(deals []*Deal, now time.Time) Stats {
	s := Stats{ByStage: make(map[Stage]StageStat, len(transitions))}
	for _, stage := range Stages() {
		s.ByStage[stage] = StageStat{}
	}

	var oldest time.Time
	daysToClose := 0
	y, m, _ := now.Date()
	for _, d := range deals {
		s.Total++
		s.TotalValue += d.Value
		st := s.ByStage[d.Stage]
		st.Count++
		st.Value += d.Value
		s.ByStage[d.Stage] = st

		if oldest.IsZero() || d.CreatedAt.Before(oldest) {
			oldest = d.CreatedAt
		}

		switch d.Stage {
		case StageWon:
			s.Won++
			if d.ClosedAt != nil {
				daysToClose += DaysInStage(d.CreatedAt, *d.ClosedAt)
			}
		case StageLost:
			s.Lost++
		default:
			s.Open++
			s.ExpectedRevenue += ExpectedValue(d.Value, d.Stage)
		}

		if d.ClosedAt != nil {
			cy, cm, _ := d.ClosedAt.In(now.Location()).Date()
			if cy == y && cm == m {
				s.ClosedThisMonth++
			}
		}
	}

	if s.Total > 0 {
		s.ConversionRate = percent(s.Won, s.Total)
	}
	if closed := s.Won + s.Lost; closed > 0 {
		s.WinRate = percent(s.Won, closed)
		s.LossRate = percent(s.Lost, closed)
	}
	if s.Won > 0 {
		s.AvgDaysToClose = round2(float64(daysToClose) / float64(s.Won))
	}
	if !oldest.IsZero() {
		months := math.Max(1, float64(DaysInStage(oldest, now))/30)
		s.Velocity = round2(float64(s.Won) / months)
	}
	s.ExpectedRevenue = round2(s.ExpectedRevenue)
	return s
}

func percent(part, whole int) float64 {
	return round2(float64(part) / float64(whole) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
