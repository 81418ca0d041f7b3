package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ordena/comandero/internal/model"
)

// Store is the device-local persisted cache behind the Manager.  Snapshots
// are keyed by tenant so two businesses sharing a device can never see each
// other's tables, and SwitchTenant wipes the outgoing tenant's keys
// entirely — an arena reset rather than a selective cleanup.
//
// A nil redis client disables persistence; every method becomes a no-op
// that the Manager tolerates.
type Store struct {
	rdb    *redis.Client
	prefix string
}

// NewStore wraps a redis client.  rdb may be nil.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, prefix: "device"}
}

func (s *Store) tableKey(tenantID, tableID int64) string {
	return fmt.Sprintf("%s:%d:table:%d", s.prefix, tenantID, tableID)
}

func (s *Store) markerKey(tenantID int64) string {
	return fmt.Sprintf("%s:%d:markers", s.prefix, tenantID)
}

func (s *Store) pattern(tenantID int64) string {
	return fmt.Sprintf("%s:%d:*", s.prefix, tenantID)
}

// SaveTable persists one table snapshot.
func (s *Store) SaveTable(ctx context.Context, tenantID int64, t model.Table) error {
	if s.rdb == nil {
		return nil
	}
	bs, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.tableKey(tenantID, t.ID), bs, 0).Err()
}

// LoadTables returns every persisted table of the tenant.
func (s *Store) LoadTables(ctx context.Context, tenantID int64) ([]model.Table, error) {
	if s.rdb == nil {
		return nil, nil
	}
	var out []model.Table
	iter := s.rdb.Scan(ctx, 0, fmt.Sprintf("%s:%d:table:*", s.prefix, tenantID), 100).Iterator()
	for iter.Next(ctx) {
		bs, err := s.rdb.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, err
		}
		var t model.Table
		if err := json.Unmarshal(bs, &t); err != nil {
			// A corrupt snapshot is dropped rather than wedging startup.
			continue
		}
		out = append(out, t)
	}
	return out, iter.Err()
}

// SaveMarkers persists the dispatch idempotency set alongside the carts so
// a device restart cannot re-send already dispatched lines.
func (s *Store) SaveMarkers(ctx context.Context, tenantID int64, markers []string) error {
	if s.rdb == nil {
		return nil
	}
	bs, err := json.Marshal(markers)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.markerKey(tenantID), bs, 0).Err()
}

// LoadMarkers returns the persisted dispatch markers for the tenant.
func (s *Store) LoadMarkers(ctx context.Context, tenantID int64) ([]string, error) {
	if s.rdb == nil {
		return nil, nil
	}
	bs, err := s.rdb.Get(ctx, s.markerKey(tenantID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal(bs, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTable removes one table's snapshot.
func (s *Store) DeleteTable(ctx context.Context, tenantID, tableID int64) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, s.tableKey(tenantID, tableID)).Err()
}

// ActiveTenant returns the tenant id this device last ran as, or 0.
func (s *Store) ActiveTenant(ctx context.Context) (int64, error) {
	if s.rdb == nil {
		return 0, nil
	}
	id, err := s.rdb.Get(ctx, s.prefix+":active_tenant").Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return id, err
}

// SetActiveTenant records which tenant the device is now serving.
func (s *Store) SetActiveTenant(ctx context.Context, tenantID int64) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Set(ctx, s.prefix+":active_tenant", tenantID, 0).Err()
}

// SwitchTenant wipes every key of the outgoing tenant.  Invoked whenever
// the active business identity on the device changes; leaking one tenant's
// carts into another's session is the failure this exists to prevent.
func (s *Store) SwitchTenant(ctx context.Context, outgoingTenantID int64) error {
	if s.rdb == nil || outgoingTenantID == 0 {
		return nil
	}
	iter := s.rdb.Scan(ctx, 0, s.pattern(outgoingTenantID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}
