package role

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/listora/listora/internal/audit"
	"github.com/listora/listora/internal/platform/kv"
)

// Service exposes the authorization engine. One instance per store
// connection; all state lives in the injected store.
type Service struct {
	store  kv.Store
	audit  audit.Recorder
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the engine. The recorder may be nil, in which case
// audit events are dropped.
func NewService(store kv.Store, recorder audit.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		audit:  recorder,
		logger: logger,
		now:    time.Now,
	}
}

// record emits an audit event. Delivery is fire-and-forget relative to the
// mutation: failures are logged, never propagated.
func (s *Service) record(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.At = s.now().UTC()
	event.Success = true
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Error("record audit event",
			slog.String("action", string(event.Action)),
			slog.Any("error", err))
	}
}

func (s *Service) persistRole(ctx context.Context, r *Role) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("role: marshal role %s: %w", r.ID, err)
	}
	key := roleKey(r.TenantID, r.ID)
	if r.IsGlobal {
		key = globalRoleKey(r.ID)
	}
	return s.store.Set(ctx, key, string(data))
}

func (s *Service) loadRole(ctx context.Context, key string) (*Role, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var r Role
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("role: unmarshal record at %s: %w", key, err)
	}
	return &r, nil
}

// resolveRole finds a role visible from the tenant: tenant-local first,
// then global. Assignment and resolution paths use this, unlike GetRole
// which only falls back to global for the system tenant.
func (s *Service) resolveRole(ctx context.Context, tenantID, roleID string) (*Role, error) {
	r, err := s.loadRole(ctx, roleKey(tenantID, roleID))
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.GetGlobalRole(ctx, roleID)
}
