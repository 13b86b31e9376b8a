package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func newTestGoogle(t *testing.T, handler http.HandlerFunc) *Google {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := gcal.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("calendar service: %v", err)
	}
	return &Google{events: svc.Events, calendarID: "primary", timezone: "Europe/Amsterdam"}
}

func TestUpsertInsertsNewEvent(t *testing.T) {
	var method, path string
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_ = json.NewEncoder(w).Encode(gcal.Event{Id: "evt-1"})
	})

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	id, err := g.Upsert(context.Background(), Event{Summary: "Viewing", Start: start, End: start.Add(time.Hour)})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if id != "evt-1" {
		t.Fatalf("expected evt-1, got %q", id)
	}
	if method != http.MethodPost || path != "/calendars/primary/events" {
		t.Fatalf("unexpected request %s %s", method, path)
	}
}

func TestUpsertUpdatesKnownEvent(t *testing.T) {
	var method, path string
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_ = json.NewEncoder(w).Encode(gcal.Event{Id: "evt-1"})
	})

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if _, err := g.Upsert(context.Background(), Event{ExternalID: "evt-1", Start: start, End: start.Add(time.Hour)}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if method != http.MethodPut || path != "/calendars/primary/events/evt-1" {
		t.Fatalf("unexpected request %s %s", method, path)
	}
}

func TestUpsertReportsRemoteFailure(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if _, err := g.Upsert(context.Background(), Event{Start: start, End: start.Add(time.Hour)}); err == nil {
		t.Fatal("expected error")
	}
}

func TestDisabledAlwaysFails(t *testing.T) {
	if _, err := (Disabled{}).Upsert(context.Background(), Event{}); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
