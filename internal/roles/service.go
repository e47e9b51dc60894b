package roles

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gatekeep-io/gatekeep/internal/audit"
	"github.com/gatekeep-io/gatekeep/internal/catalog"
	"github.com/gatekeep-io/gatekeep/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (*Role, error)
	List(ctx context.Context) ([]Role, error)
	Create(ctx context.Context, name string, perms []catalog.Permission) (*Role, error)
	Update(ctx context.Context, id int64, params UpdateParams) (*Role, error)
	Delete(ctx context.Context, id int64) error
}

// CatalogPort resolves permission names against the catalog.
type CatalogPort interface {
	ValidateNames(ctx context.Context, names []string) ([]catalog.Permission, error)
}

// Service is the role mutator. All invariants hold here and in the storage
// constraints underneath; nothing is persisted on any error path.
type Service struct {
	repo     RepositoryPort
	catalog  CatalogPort
	recorder *audit.Recorder
	logger   *slog.Logger
}

// NewService builds a Service. recorder may be nil.
func NewService(repo RepositoryPort, cat CatalogPort, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: cat, recorder: recorder, logger: logger}
}

// Create persists a new role with the trimmed name and validated permission
// set. An empty permission set is legal.
func (s *Service) Create(ctx context.Context, name string, permissionNames []string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("role name required")
	}
	perms, err := s.catalog.ValidateNames(ctx, permissionNames)
	if err != nil {
		return nil, err
	}
	role, err := s.repo.Create(ctx, name, perms)
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.ActionRoleCreated, role.ID, fmt.Sprintf("name=%s permissions=%s", role.Name, strings.Join(role.PermissionNames(), ",")))
	return role, nil
}

// List returns all roles enriched with catalog descriptions.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Get returns a single role.
func (s *Service) Get(ctx context.Context, id int64) (*Role, error) {
	return s.repo.Get(ctx, id)
}

// Update renames a role and/or replaces its permission set. A non-nil empty
// permission list clears the set entirely; the replacement is never a merge.
func (s *Service) Update(ctx context.Context, id int64, name *string, permissionNames *[]string) (*Role, error) {
	params := UpdateParams{}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, shared.NewValidationError("role name required")
		}
		params.Name = &trimmed
	}
	if permissionNames != nil {
		perms, err := s.catalog.ValidateNames(ctx, *permissionNames)
		if err != nil {
			return nil, err
		}
		if perms == nil {
			perms = []catalog.Permission{}
		}
		params.Permissions = &perms
	}
	role, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.ActionRoleUpdated, role.ID, fmt.Sprintf("name=%s permissions=%s", role.Name, strings.Join(role.PermissionNames(), ",")))
	return role, nil
}

// Delete removes a role that no principal references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, audit.ActionRoleDeleted, id, "")
	return nil
}

func (s *Service) record(ctx context.Context, action string, roleID int64, detail string) {
	actor := "system"
	if p, ok := shared.PrincipalFromContext(ctx); ok {
		actor = strconv.FormatInt(p.PrincipalID, 10)
	}
	s.recorder.Record(ctx, actor, action, "role", roleID, detail)
}
