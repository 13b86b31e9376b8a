// Package calendar pushes appointments to an external calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"estate_crm_backend/platform/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// ErrNotConfigured is returned by Disabled.
var ErrNotConfigured = errors.New("external calendar not configured")

// Event is the calendar copy of an appointment.
type Event struct {
	// ExternalID is set when the appointment was synced before.
	ExternalID  string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Canceled    bool
}

// Client writes events to the external calendar and returns the remote id.
type Client interface {
	Upsert(ctx context.Context, ev Event) (string, error)
}

// Google writes events through the Google Calendar API.
type Google struct {
	events     *gcal.EventsService
	calendarID string
	timezone   string
}

// NewGoogle authenticates with a stored refresh token.
func NewGoogle(ctx context.Context, cfg config.CalendarConfig) (*Google, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GetGoogleClientID(),
		ClientSecret: cfg.GetGoogleClientSecret(),
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcal.CalendarEventsScope},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.GetGoogleRefreshToken()})

	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	calendarID := cfg.GetGoogleCalendarID()
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Google{events: svc.Events, calendarID: calendarID, timezone: cfg.GetCalendarTimezone()}, nil
}

// Upsert inserts a new event or updates the one synced before.
func (g *Google) Upsert(ctx context.Context, ev Event) (string, error) {
	body := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.Format(time.RFC3339), TimeZone: g.timezone},
		End:         &gcal.EventDateTime{DateTime: ev.End.Format(time.RFC3339), TimeZone: g.timezone},
	}
	if ev.Canceled {
		body.Status = "cancelled"
	}

	var (
		out *gcal.Event
		err error
	)
	if ev.ExternalID != "" {
		out, err = g.events.Update(g.calendarID, ev.ExternalID, body).Context(ctx).Do()
	} else {
		out, err = g.events.Insert(g.calendarID, body).Context(ctx).Do()
	}
	if err != nil {
		return "", fmt.Errorf("google calendar: %w", err)
	}
	return out.Id, nil
}

// Disabled fails every sync. Attempts are still recorded on the appointment.
type Disabled struct{}

// Upsert implements Client.
func (Disabled) Upsert(context.Context, Event) (string, error) {
	return "", ErrNotConfigured
}

var (
	_ Client = (*Google)(nil)
	_ Client = Disabled{}
)
