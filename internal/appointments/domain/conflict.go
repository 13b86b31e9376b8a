package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// MaxSuggestions caps the alternatives offered on a conflict.
const MaxSuggestions = 3

// Conflict describes an existing appointment that overlaps a request.
type Conflict struct {
	AppointmentID uuid.UUID `json:"appointmentId"`
	Title         string    `json:"title"`
	Status        Status    `json:"status"`
	StartTime     Clock     `json:"startTime"`
	EndTime       Clock     `json:"endTime"`
}

// Suggestion is an available slot that can take the request instead.
type Suggestion struct {
	SlotID    uuid.UUID `json:"slotId"`
	Date      time.Time `json:"date"`
	StartTime Clock     `json:"startTime"`
	EndTime   Clock     `json:"endTime"`
}

// ConflictDetails is attached to scheduling conflict errors.
type ConflictDetails struct {
	Conflicts   []Conflict   `json:"conflicts"`
	Suggestions []Suggestion `json:"suggestions"`
}

// HasConflict reports whether any overlap was found.
func (d ConflictDetails) HasConflict() bool { return len(d.Conflicts) > 0 }

// FindConflicts returns the active appointments overlapping [start, start+duration)
// on date, skipping exclude.
func FindConflicts(existing []*Appointment, date time.Time, start Clock, duration int, exclude uuid.UUID) []Conflict {
	end := start.Add(duration)
	out := make([]Conflict, 0)
	for _, a := range existing {
		if a.ID == exclude || !a.Status.Active() {
			continue
		}
		if a.Overlaps(date, start, end) {
			out = append(out, Conflict{
				AppointmentID: a.ID,
				Title:         a.Title,
				Status:        a.Status,
				StartTime:     a.StartTime,
				EndTime:       a.EndTime(),
			})
		}
	}
	return out
}

// FreeSlots returns the available slots long enough for duration that do not
// overlap any active appointment, earliest first.
func FreeSlots(slots []*Slot, booked []*Appointment, duration int, exclude uuid.UUID) []*Slot {
	out := make([]*Slot, 0, len(slots))
	for _, s := range slots {
		if !s.Fits(duration) {
			continue
		}
		if len(FindConflicts(booked, s.Date, s.StartTime, duration, exclude)) > 0 {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

// Suggest turns the first free slots into suggestions.
func Suggest(free []*Slot, duration int) []Suggestion {
	n := min(len(free), MaxSuggestions)
	out := make([]Suggestion, 0, n)
	for _, s := range free[:n] {
		out = append(out, Suggestion{
			SlotID:    s.ID,
			Date:      s.Date,
			StartTime: s.StartTime,
			EndTime:   s.StartTime.Add(duration),
		})
	}
	return out
}
