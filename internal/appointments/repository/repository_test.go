package repository

import (
	"strings"
	"testing"
)

func TestTablesColumnsMatchFields(t *testing.T) {
	a := AppointmentTable.New()
	if got, want := len(AppointmentTable.Fields(a)), len(AppointmentTable.Columns); got != want {
		t.Fatalf("appointment fields %d != columns %d", got, want)
	}
	if got, want := len(AppointmentTable.Values(a)), len(AppointmentTable.Columns); got != want {
		t.Fatalf("appointment values %d != columns %d", got, want)
	}

	s := SlotTable.New()
	if got, want := len(SlotTable.Fields(s)), len(SlotTable.Columns); got != want {
		t.Fatalf("slot fields %d != columns %d", got, want)
	}
	if got, want := len(SlotTable.Values(s)), len(SlotTable.Columns); got != want {
		t.Fatalf("slot values %d != columns %d", got, want)
	}
}

func TestSlotsHaveNoTenantColumn(t *testing.T) {
	if SlotTable.Scoping.TenantColumn != "" {
		t.Fatal("slots must be scoped through their owner")
	}
	if SlotTable.Scoping.OwnerColumn != "owner_id" {
		t.Fatalf("unexpected owner column %q", SlotTable.Scoping.OwnerColumn)
	}
}

func TestBookSlotIsConditional(t *testing.T) {
	lower := strings.ToLower(bookSlotQuery)
	for _, fragment := range []string{"set status = 'booked'", "status = 'available'", "owner_id = $2"} {
		if !strings.Contains(lower, fragment) {
			t.Fatalf("expected fragment %q in %q", fragment, bookSlotQuery)
		}
	}
	if !strings.Contains(strings.ToLower(releaseSlotQuery), "appointment_id = $2") {
		t.Fatal("release must only free slots held by the appointment")
	}
}

func TestFailStaleSyncsOnlyTouchesSyncing(t *testing.T) {
	lower := strings.ToLower(failStaleSyncsQuery)
	for _, fragment := range []string{"sync_status = 'failed'", "where sync_status = 'syncing'", "last_sync_at < $1"} {
		if !strings.Contains(lower, fragment) {
			t.Fatalf("expected fragment %q in %q", fragment, failStaleSyncsQuery)
		}
	}
}
