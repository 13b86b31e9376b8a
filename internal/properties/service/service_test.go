package service

import (
	"context"
	"testing"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/entity"
	"estate_crm_backend/internal/properties/domain"
	"estate_crm_backend/internal/properties/transport"
	"estate_crm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	props      map[uuid.UUID]*domain.Property
	lastParams entity.ListParams
}

func (m *memoryStore) FindAll(_ context.Context, _ *access.Principal, params entity.ListParams) (entity.ListResult[domain.Property], error) {
	m.lastParams = params
	items := make([]*domain.Property, 0, len(m.props))
	for _, p := range m.props {
		items = append(items, p)
	}
	return entity.ListResult[domain.Property]{Items: items, Total: len(items)}, nil
}

func (m *memoryStore) FindByID(_ context.Context, _ *access.Principal, id uuid.UUID) (*domain.Property, error) {
	p, ok := m.props[id]
	if !ok {
		return nil, apperr.NotFound("properties not found")
	}
	cp := *p
	return &cp, nil
}

func (m *memoryStore) Create(_ context.Context, p *access.Principal, prop *domain.Property) error {
	prop.ID = uuid.New()
	prop.TenantID = p.TenantID
	if prop.OwnerID == uuid.Nil {
		prop.OwnerID = p.ID
	}
	prop.Version = 1
	cp := *prop
	m.props[prop.ID] = &cp
	return nil
}

func (m *memoryStore) Update(ctx context.Context, p *access.Principal, id uuid.UUID, mutate func(*domain.Property) error) (*domain.Property, error) {
	prop, err := m.FindByID(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(prop); err != nil {
		return nil, err
	}
	prop.Version++
	cp := *prop
	m.props[id] = &cp
	return prop, nil
}

func (m *memoryStore) Delete(_ context.Context, _ *access.Principal, id uuid.UUID) error {
	delete(m.props, id)
	return nil
}

func newService() (*Service, *memoryStore, *access.Principal) {
	store := &memoryStore{props: map[uuid.UUID]*domain.Property{}}
	return New(store), store, &access.Principal{ID: uuid.New(), TenantID: uuid.New(), Role: access.RoleAgent}
}

func TestCreateDefaultsToAvailable(t *testing.T) {
	svc, _, p := newService()

	prop, err := svc.Create(context.Background(), p, transport.CreatePropertyRequest{
		Title: " Canal house ", Address: "Herengracht 1", City: "Amsterdam", PostalCode: "1015 ba", Price: 1250000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAvailable, prop.Status)
	assert.Equal(t, "Canal house", prop.Title)
	assert.Equal(t, "1015 BA", prop.PostalCode)
	assert.Equal(t, p.ID, prop.OwnerID)
}

func TestUpdateRejectsStaleVersion(t *testing.T) {
	svc, _, p := newService()
	prop, err := svc.Create(context.Background(), p, transport.CreatePropertyRequest{Title: "Loft", Address: "A 1", City: "Utrecht", Price: 1})
	require.NoError(t, err)

	sold := domain.StatusSold
	_, err = svc.Update(context.Background(), p, prop.ID, transport.UpdatePropertyRequest{Status: &sold, Version: prop.Version + 3})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	updated, err := svc.Update(context.Background(), p, prop.ID, transport.UpdatePropertyRequest{Status: &sold, Version: prop.Version})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSold, updated.Status)
}

func TestListBuildsPriceRange(t *testing.T) {
	svc, store, p := newService()
	lo, hi := 200000.0, 400000.0

	_, err := svc.List(context.Background(), p, transport.ListPropertiesRequest{City: "Delft", MinPrice: &lo, MaxPrice: &hi})
	require.NoError(t, err)
	require.Len(t, store.lastParams.Filters, 3)
	assert.Equal(t, entity.OpGte, store.lastParams.Filters[1].Op)
	assert.Equal(t, entity.OpLte, store.lastParams.Filters[2].Op)
	assert.Equal(t, 25, store.lastParams.PageSize)

	_, err = svc.List(context.Background(), p, transport.ListPropertiesRequest{MinPrice: &hi, MaxPrice: &lo})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
