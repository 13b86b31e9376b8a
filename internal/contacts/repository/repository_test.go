package repository

import (
	"strings"
	"testing"
)

func TestSignalQueriesAreKeyedByContactAndTenant(t *testing.T) {
	cases := map[string][]string{
		countActiveDealsQuery:  {"from deals", "d.client_id = $1", "d.status = 'open'", "c.tenant_id = d.tenant_id"},
		countAppointmentsQuery: {"from appointments", "a.contact_id = $1", "c.tenant_id = a.tenant_id"},
	}
	for query, fragments := range cases {
		lower := strings.ToLower(query)
		for _, fragment := range fragments {
			if !strings.Contains(lower, fragment) {
				t.Fatalf("expected fragment %q in %q", fragment, query)
			}
		}
	}
}

func TestTableColumnsMatchFields(t *testing.T) {
	c := Table.New()
	if got, want := len(Table.Fields(c)), len(Table.Columns); got != want {
		t.Fatalf("fields %d != columns %d", got, want)
	}
	if got, want := len(Table.Values(c)), len(Table.Columns); got != want {
		t.Fatalf("values %d != columns %d", got, want)
	}
}
