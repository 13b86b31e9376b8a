package service

import (
	"context"
	"testing"
	"time"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/contacts/domain"
	"estate_crm_backend/internal/contacts/transport"
	"estate_crm_backend/internal/entity"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/phone"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	contacts map[uuid.UUID]*domain.Contact
	batches  int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{contacts: map[uuid.UUID]*domain.Contact{}}
}

func (m *memoryStore) FindAll(context.Context, *access.Principal, entity.ListParams) (entity.ListResult[domain.Contact], error) {
	items := make([]*domain.Contact, 0, len(m.contacts))
	for _, c := range m.contacts {
		items = append(items, c)
	}
	return entity.ListResult[domain.Contact]{Items: items, Total: len(items)}, nil
}

func (m *memoryStore) FindByID(_ context.Context, _ *access.Principal, id uuid.UUID) (*domain.Contact, error) {
	c, ok := m.contacts[id]
	if !ok {
		return nil, apperr.NotFound("contacts not found")
	}
	cp := *c
	return &cp, nil
}

func (m *memoryStore) Create(_ context.Context, p *access.Principal, c *domain.Contact) error {
	c.ID = uuid.New()
	c.TenantID = p.TenantID
	if c.OwnerID == uuid.Nil {
		c.OwnerID = p.ID
	}
	c.Version = 1
	m.contacts[c.ID] = c
	return nil
}

func (m *memoryStore) CreateMany(ctx context.Context, p *access.Principal, cs []*domain.Contact) error {
	m.batches++
	for _, c := range cs {
		if err := m.Create(ctx, p, c); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryStore) Update(ctx context.Context, p *access.Principal, id uuid.UUID, mutate func(*domain.Contact) error) (*domain.Contact, error) {
	c, err := m.FindByID(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(c); err != nil {
		return nil, err
	}
	c.Version++
	m.contacts[id] = c
	return c, nil
}

func (m *memoryStore) Delete(_ context.Context, _ *access.Principal, id uuid.UUID) error {
	delete(m.contacts, id)
	return nil
}

func agent() *access.Principal {
	return &access.Principal{ID: uuid.New(), TenantID: uuid.New(), Role: access.RoleAgent}
}

func ptr[T any](v T) *T { return &v }

func TestCreateNormalizesAndDefaults(t *testing.T) {
	svc := New(newMemoryStore(), phone.NewNormalizer("NL"))

	c, err := svc.Create(context.Background(), agent(), transport.CreateContactRequest{
		FirstName: "  Eva ",
		Email:     ptr(" Eva@Example.COM "),
		Phone:     ptr("06 12345678"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Eva", c.FirstName)
	assert.Equal(t, "eva@example.com", *c.Email)
	assert.Equal(t, "+31612345678", *c.Phone)
	assert.Equal(t, domain.CategoryLead, c.Category)
	assert.Equal(t, domain.StageNew, c.LeadStage)
	assert.Equal(t, "active", c.Status)
}

func TestSetLeadStageConvertedPromotesToClient(t *testing.T) {
	store := newMemoryStore()
	svc := New(store, phone.NewNormalizer(""))
	p := agent()
	c, err := svc.Create(context.Background(), p, transport.CreateContactRequest{FirstName: "Eva"})
	require.NoError(t, err)

	got, err := svc.SetLeadStage(context.Background(), p, c.ID, domain.StageConverted)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryClient, got.Category)

	_, err = svc.SetLeadStage(context.Background(), p, c.ID, "bogus")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateWithStaleVersionConflicts(t *testing.T) {
	store := newMemoryStore()
	svc := New(store, phone.NewNormalizer(""))
	p := agent()
	c, err := svc.Create(context.Background(), p, transport.CreateContactRequest{FirstName: "Eva"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), p, c.ID, transport.UpdateContactRequest{LastName: ptr("Jansen"), Version: 7})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	got, err := svc.Update(context.Background(), p, c.ID, transport.UpdateContactRequest{LastName: ptr("Jansen"), Version: 1})
	require.NoError(t, err)
	assert.Equal(t, "Jansen", got.LastName)
}

func TestRecordInteractionStampsTime(t *testing.T) {
	store := newMemoryStore()
	svc := New(store, phone.NewNormalizer(""))
	fixed := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	p := agent()
	c, err := svc.Create(context.Background(), p, transport.CreateContactRequest{FirstName: "Eva"})
	require.NoError(t, err)

	got, err := svc.RecordInteraction(context.Background(), p, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.InteractionCount)
	assert.Equal(t, fixed, *got.LastInteractionAt)
}

func TestImportUsesSingleBatch(t *testing.T) {
	store := newMemoryStore()
	svc := New(store, phone.NewNormalizer(""))

	_, err := svc.Import(context.Background(), agent(), nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	got, err := svc.Import(context.Background(), agent(), []transport.CreateContactRequest{{FirstName: "A"}, {FirstName: "B"}})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, store.batches)
}
