package access

import (
	"context"
	"fmt"
	"time"

	"estate_crm_backend/platform/db"
	"estate_crm_backend/platform/metrics"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// listActiveMembersQuery returns every active member of a tenant regardless of
// role, so a tenant admin also sees records owned by super admins in the tenant.
const listActiveMembersQuery = `
SELECT u.id
FROM users u
WHERE u.tenant_id = $1 AND u.active
ORDER BY u.id`

// PgDirectory reads tenant membership from the users table.
type PgDirectory struct {
	q db.Querier
}

// NewPgDirectory creates a directory backed by q.
func NewPgDirectory(q db.Querier) *PgDirectory {
	return &PgDirectory{q: q}
}

// MemberIDs implements AgentDirectory.
func (d *PgDirectory) MemberIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := d.q.Query(ctx, listActiveMembersQuery, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list tenant members: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tenant member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CachedDirectory memoizes another directory in process. Concurrent misses
// for the same tenant share one lookup.
type CachedDirectory struct {
	next    AgentDirectory
	cache   *ristretto.Cache[string, []uuid.UUID]
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
}

// NewCachedDirectory wraps next. maxCost bounds the number of cached member ids.
func NewCachedDirectory(next AgentDirectory, ttl time.Duration, maxCost int64, m *metrics.Metrics) (*CachedDirectory, error) {
	if maxCost < 1 {
		maxCost = 1 << 20
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, []uuid.UUID]{
		NumCounters:        max(maxCost, 1000),
		MaxCost:            maxCost,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create directory cache: %w", err)
	}
	return &CachedDirectory{next: next, cache: cache, ttl: ttl, metrics: m}, nil
}

// MemberIDs implements AgentDirectory.
func (d *CachedDirectory) MemberIDs(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	key := tenantID.String()
	if ids, ok := d.cache.Get(key); ok {
		d.metrics.IncDirectoryLookup(true)
		return ids, nil
	}
	d.metrics.IncDirectoryLookup(false)

	v, err, _ := d.group.Do(key, func() (any, error) {
		ids, err := d.next.MemberIDs(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		d.cache.SetWithTTL(key, ids, int64(len(ids))+1, d.ttl)
		d.cache.Wait()
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]uuid.UUID), nil
}

// Invalidate drops the cached members of a tenant.
func (d *CachedDirectory) Invalidate(tenantID uuid.UUID) {
	d.cache.Del(tenantID.String())
}

// Close releases the cache.
func (d *CachedDirectory) Close() {
	d.cache.Close()
}
