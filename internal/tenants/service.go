package tenants

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/listora/listora/internal/role"
)

// RoleSeeder instantiates predefined roles. Implemented by the role service.
type RoleSeeder interface {
	CreatePredefinedRole(ctx context.Context, tenantID, name, siteID string) (*role.Role, error)
}

var tenantIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// ErrInvalidID rejects tenant ids that would not survive as key segments.
var ErrInvalidID = fmt.Errorf("tenant id must match %s", tenantIDPattern)

// Service implements tenant registration.
type Service struct {
	repo   Repository
	seeder RoleSeeder
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a tenant service.
func NewService(repo Repository, seeder RoleSeeder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, seeder: seeder, logger: logger, now: time.Now}
}

// Register creates a tenant and seeds its tenant-wide roles. The tenant id
// becomes part of every role and listing key, so it is validated strictly.
// Seeding failures are logged but do not roll the tenant back; instantiation
// is idempotent per template name and can be retried.
func (s *Service) Register(ctx context.Context, id, name string) (Tenant, error) {
	id = strings.TrimSpace(id)
	if !tenantIDPattern.MatchString(id) {
		return Tenant{}, ErrInvalidID
	}

	tenant := Tenant{
		ID:        id,
		Name:      strings.TrimSpace(name),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, tenant); err != nil {
		return Tenant{}, err
	}

	if s.seeder != nil {
		for _, tplName := range role.TemplateNames() {
			tpl, ok := role.LookupTemplate(tplName)
			if !ok || tpl.SiteScoped {
				continue
			}
			if _, err := s.seeder.CreatePredefinedRole(ctx, id, tplName, ""); err != nil {
				s.logger.Error("seed tenant role",
					slog.String("tenant", id),
					slog.String("template", tplName),
					slog.Any("error", err))
			}
		}
	}
	return tenant, nil
}

// Get returns one tenant.
func (s *Service) Get(ctx context.Context, id string) (Tenant, error) {
	return s.repo.Get(ctx, id)
}

// List returns all tenants.
func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	return s.repo.List(ctx)
}
