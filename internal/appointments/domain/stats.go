package domain

import (
	"math"
	"time"
)

// Stats aggregates appointments in scope.
type Stats struct {
	Total            int              `json:"total"`
	Today            int              `json:"today"`
	ThisWeek         int              `json:"thisWeek"`
	ThisMonth        int              `json:"thisMonth"`
	ByStatus         map[Status]int   `json:"byStatus"`
	ByType           map[Type]int     `json:"byType"`
	ByPriority       map[Priority]int `json:"byPriority"`
	AverageDuration  float64          `json:"averageDuration"`
	CompletionRate   float64          `json:"completionRate"`
	CancellationRate float64          `json:"cancellationRate"`
	ReschedulingRate float64          `json:"reschedulingRate"`
}

// ComputeStats counts appointments by their calendar date. Weeks start on
// Monday. Rates are percentages of the total.
func ComputeStats(appts []*Appointment, now time.Time) Stats {
	today := DateOnly(now)
	weekStart := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	weekEnd := weekStart.AddDate(0, 0, 7)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	st := Stats{
		Total:      len(appts),
		ByStatus:   map[Status]int{},
		ByType:     map[Type]int{},
		ByPriority: map[Priority]int{},
	}
	var durationSum, completed, canceled, rescheduled int
	for _, a := range appts {
		day := DateOnly(a.Date)
		if day.Equal(today) {
			st.Today++
		}
		if within(day, weekStart, weekEnd) {
			st.ThisWeek++
		}
		if within(day, monthStart, monthEnd) {
			st.ThisMonth++
		}
		st.ByStatus[a.Status]++
		st.ByType[a.Type]++
		st.ByPriority[a.Priority]++

		switch a.Status {
		case StatusCompleted:
			completed++
			if a.ActualDuration != nil {
				durationSum += *a.ActualDuration
			} else {
				durationSum += a.EstimatedDuration
			}
		case StatusCanceled:
			canceled++
		}
		if a.ReschedulingCount > 0 {
			rescheduled++
		}
	}

	if completed > 0 {
		st.AverageDuration = round2(float64(durationSum) / float64(completed))
	}
	st.CompletionRate = percent(completed, st.Total)
	st.CancellationRate = percent(canceled, st.Total)
	st.ReschedulingRate = percent(rescheduled, st.Total)
	return st
}

func within(day, from, to time.Time) bool {
	return !day.Before(from) && day.Before(to)
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) * 100 / float64(whole))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
