package repository

import "testing"

func TestTableColumnsMatchFields(t *testing.T) {
	p := Table.New()
	if len(Table.Fields(p)) != len(Table.Columns) || len(Table.Values(p)) != len(Table.Columns) {
		t.Fatal("property table fields and columns out of sync")
	}
	for col := range Table.Sortable {
		if col == "" {
			t.Fatal("empty sort key")
		}
	}
}

func TestPropertiesAreTenantScoped(t *testing.T) {
	if Table.Scoping.TenantColumn != "tenant_id" || Table.Scoping.OwnerColumn != "owner_id" {
		t.Fatalf("unexpected scoping %+v", Table.Scoping)
	}
}
