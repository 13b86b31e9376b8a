package scoring

import (
	"context"
	"sync"
	"testing"
	"time"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/audit"
	"estate_crm_backend/internal/contacts/domain"
	"estate_crm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type memoryContacts struct {
	mu       sync.Mutex
	contacts map[uuid.UUID]*domain.Contact
}

func (m *memoryContacts) FindByID(_ context.Context, _ *access.Principal, id uuid.UUID) (*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return nil, apperr.NotFound("contacts not found")
	}
	cp := *c
	return &cp, nil
}

func (m *memoryContacts) Update(ctx context.Context, p *access.Principal, id uuid.UUID, mutate func(*domain.Contact) error) (*domain.Contact, error) {
	c, err := m.FindByID(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(c); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c.Version++
	m.contacts[id] = c
	cp := *c
	return &cp, nil
}

type fixedSignals struct{ deals, appointments int }

func (f fixedSignals) CountActiveDeals(context.Context, uuid.UUID) (int, error) { return f.deals, nil }
func (f fixedSignals) CountAppointments(context.Context, uuid.UUID) (int, error) {
	return f.appointments, nil
}

type activityLog struct{ entries []audit.Entry }

func (a *activityLog) Record(_ context.Context, e audit.Entry) error {
	a.entries = append(a.entries, e)
	return nil
}

func newService(c *domain.Contact, signals fixedSignals) (*Service, *memoryContacts, *activityLog) {
	store := &memoryContacts{contacts: map[uuid.UUID]*domain.Contact{c.ID: c}}
	log := &activityLog{}
	svc := New(store, signals, log, nil, nil, nil)
	svc.now = func() time.Time { return now }
	return svc, store, log
}

func principal() *access.Principal {
	return &access.Principal{ID: uuid.New(), TenantID: uuid.New(), Role: access.RoleAgent}
}

func daysAgo(n int) *time.Time {
	t := now.AddDate(0, 0, -n)
	return &t
}

func TestComputeQualifiedContactScenario(t *testing.T) {
	b := Compute(Inputs{
		Stage:             domain.StageQualified,
		InteractionCount:  12,
		IsQualified:       true,
		ActiveDeals:       1,
		LastInteractionAt: daysAgo(45),
	}, now)

	assert.Equal(t, 10, b.Base)
	assert.Equal(t, 25, b.Stage)
	assert.Equal(t, 20, b.Interactions)
	assert.Equal(t, 10, b.Qualified)
	assert.Equal(t, 0, b.Budget)
	assert.Equal(t, 15, b.ActiveDeal)
	assert.Equal(t, 0, b.Appointment)
	assert.Equal(t, -10, b.Decay)
	assert.Equal(t, 70, b.Total)
}

func TestComputeDecayAndBounds(t *testing.T) {
	cases := []struct {
		name string
		in   Inputs
		want int
	}{
		{"never interacted does not decay", Inputs{Stage: domain.StageNew}, 10},
		{"29 days no decay", Inputs{Stage: domain.StageNew, LastInteractionAt: daysAgo(29)}, 10},
		{"60 days two steps", Inputs{Stage: domain.StageContacted, LastInteractionAt: daysAgo(60)}, 5},
		{"lost clamps at zero", Inputs{Stage: domain.StageLost, LastInteractionAt: daysAgo(120)}, 0},
		{"everything clamps at hundred", Inputs{
			Stage: domain.StageConverted, InteractionCount: 50, IsQualified: true,
			HasBudget: true, ActiveDeals: 3, Appointments: 2, LastInteractionAt: daysAgo(1),
		}, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Compute(tc.in, now).Total)
		})
	}
}

func TestUpdateScoreClamps(t *testing.T) {
	c := &domain.Contact{FirstName: "Eva", LeadScore: 40}
	c.ID = uuid.New()
	svc, store, log := newService(c, fixedSignals{})

	res, err := svc.UpdateScore(context.Background(), principal(), c.ID, 150, "manual review")
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, 40, res.Previous)

	res, err = svc.UpdateScore(context.Background(), principal(), c.ID, -10, "manual review")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, 0, store.contacts[c.ID].LeadScore)

	require.Len(t, log.entries, 2)
	assert.Equal(t, "lead_score_updated", log.entries[1].Type)
	assert.Equal(t, 0, log.entries[1].Metadata["score"])
	assert.Equal(t, 100, log.entries[1].Metadata["previous"])
	assert.Equal(t, "manual review", log.entries[1].Metadata["reason"])
}

func TestAdjustScoreClampsAgainstCurrent(t *testing.T) {
	c := &domain.Contact{FirstName: "Eva", LeadScore: 80}
	c.ID = uuid.New()
	svc, _, _ := newService(c, fixedSignals{})

	res, err := svc.AdjustScore(context.Background(), principal(), c.ID, 50, "deal won")
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)

	res, err = svc.AdjustScore(context.Background(), principal(), c.ID, -20, "deal lost")
	require.NoError(t, err)
	assert.Equal(t, 80, res.Score)
}

func TestRecalculateIsIdempotent(t *testing.T) {
	c := &domain.Contact{
		FirstName:         "Eva",
		LeadStage:         domain.StageQualified,
		InteractionCount:  12,
		IsQualified:       true,
		LastInteractionAt: daysAgo(45),
	}
	c.ID = uuid.New()
	svc, _, log := newService(c, fixedSignals{deals: 1})

	first, err := svc.Recalculate(context.Background(), principal(), c.ID)
	require.NoError(t, err)
	second, err := svc.Recalculate(context.Background(), principal(), c.ID)
	require.NoError(t, err)

	assert.Equal(t, 70, first.Score)
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, 70, second.Previous)
	assert.Equal(t, RecalculationReason, log.entries[1].Metadata["reason"])
}

func TestRecalculateMissingContact(t *testing.T) {
	c := &domain.Contact{FirstName: "Eva"}
	c.ID = uuid.New()
	svc, _, _ := newService(c, fixedSignals{})

	_, err := svc.Recalculate(context.Background(), principal(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSystemAdjustmentNamesTriggeringUser(t *testing.T) {
	c := &domain.Contact{FirstName: "Eva", LeadScore: 30}
	c.ID = uuid.New()
	svc, _, log := newService(c, fixedSignals{})
	agentID := uuid.New()

	_, err := svc.AdjustScore(context.Background(), access.SystemPrincipal(uuid.New(), agentID), c.ID, 10, "deal moved to qualification")
	require.NoError(t, err)

	require.Len(t, log.entries, 1)
	assert.Equal(t, agentID, log.entries[0].ActorID)
	assert.Equal(t, true, log.entries[0].Metadata["system"])
	assert.Equal(t, agentID, log.entries[0].Metadata["triggeredBy"])
}
