package events

import "testing"

func TestVariableEventNames(t *testing.T) {
	cases := []struct {
		event Event
		want  string
	}{
		{DealClosed{Won: true}, "deals.won"},
		{DealClosed{}, "deals.lost"},
		{AppointmentStatusChanged{To: "confirmed"}, "appointments.confirmed"},
		{AppointmentStatusChanged{To: "canceled"}, "appointments.canceled"},
		{AppointmentStatusChanged{To: "pending"}, "appointments.status_changed"},
		{AppointmentSyncResult{}, "appointments.sync_failed"},
		{AppointmentSyncResult{Succeeded: true}, "appointments.synced"},
	}
	for _, tc := range cases {
		if got := tc.event.EventName(); got != tc.want {
			t.Fatalf("EventName() = %q, want %q", got, tc.want)
		}
	}
}
