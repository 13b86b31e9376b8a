package adapters

import (
	"context"
	"errors"
	"testing"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/contacts/scoring"
	"estate_crm_backend/internal/events"

	"github.com/google/uuid"
)

type adjustCall struct {
	p         *access.Principal
	contactID uuid.UUID
	delta     int
	reason    string
}

type fakeAdjuster struct {
	calls []adjustCall
	err   error
}

func (f *fakeAdjuster) AdjustScore(_ context.Context, p *access.Principal, contactID uuid.UUID, delta int, reason string) (*scoring.Result, error) {
	f.calls = append(f.calls, adjustCall{p: p, contactID: contactID, delta: delta, reason: reason})
	if f.err != nil {
		return nil, f.err
	}
	return &scoring.Result{ContactID: contactID}, nil
}

func stageChanged(to string) events.DealStageChanged {
	return events.DealStageChanged{
		BaseEvent: events.NewBaseEvent(),
		DealID:    uuid.New(),
		TenantID:  uuid.New(),
		ActorID:   uuid.New(),
		ClientID:  uuid.New(),
		FromStage: "negotiation",
		ToStage:   to,
	}
}

func TestDealScoreHandlerAppliesStageDelta(t *testing.T) {
	adj := &fakeAdjuster{}
	h := NewDealScoreHandler(adj, nil)
	e := stageChanged("won")

	if err := h.Handle(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(adj.calls) != 1 {
		t.Fatalf("expected one adjustment, got %d", len(adj.calls))
	}
	call := adj.calls[0]
	if call.delta != 50 || call.contactID != e.ClientID {
		t.Fatalf("unexpected adjustment %+v", call)
	}
	if call.p.ID != e.ActorID || call.p.TenantID != e.TenantID || call.p.Role != access.RoleSystem {
		t.Fatalf("unexpected principal %+v", call.p)
	}
	if call.p.Role.Valid() {
		t.Fatal("the system principal must not be a grantable role")
	}
	if call.reason != "deal moved to won" {
		t.Fatalf("unexpected reason %q", call.reason)
	}
}

func TestDealScoreHandlerSkipsZeroDelta(t *testing.T) {
	adj := &fakeAdjuster{}
	h := NewDealScoreHandler(adj, nil)

	if err := h.Handle(context.Background(), stageChanged("lead_in")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(adj.calls) != 0 {
		t.Fatalf("expected no adjustment, got %d", len(adj.calls))
	}
}

func TestDealScoreHandlerIgnoresOtherEvents(t *testing.T) {
	adj := &fakeAdjuster{}
	h := NewDealScoreHandler(adj, nil)

	if err := h.Handle(context.Background(), events.ContactScoreUpdated{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(adj.calls) != 0 {
		t.Fatal("expected no adjustment")
	}
}

func TestDealScoreHandlerReturnsAdjustError(t *testing.T) {
	adj := &fakeAdjuster{err: errors.New("boom")}
	h := NewDealScoreHandler(adj, nil)

	if err := h.Handle(context.Background(), stageChanged("lost")); err == nil {
		t.Fatal("expected error")
	}
	if adj.calls[0].delta != -20 {
		t.Fatalf("expected -20, got %d", adj.calls[0].delta)
	}
}
