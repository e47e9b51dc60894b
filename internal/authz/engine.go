// Package authz renders per-request allow/deny verdicts. The engine is
// stateless and safe for unbounded concurrent use; each check performs one
// fresh read of the principal and one of the role store.
package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gatekeep-io/gatekeep/internal/identity"
	"github.com/gatekeep-io/gatekeep/internal/roles"
	"github.com/gatekeep-io/gatekeep/internal/shared"
)

// PrincipalDirectory resolves principal records.
type PrincipalDirectory interface {
	Find(ctx context.Context, id int64) (identity.Principal, error)
}

// RoleStore resolves role records with their permission sets.
type RoleStore interface {
	Get(ctx context.Context, id int64) (*roles.Role, error)
}

// Decision is the outcome of one authorization check.
type Decision struct {
	Allowed  bool
	Reason   string
	RoleName string
}

// Engine decides whether a principal may perform an action.
type Engine struct {
	principals PrincipalDirectory
	roles      RoleStore
	logger     *slog.Logger
}

// NewEngine constructs an Engine.
func NewEngine(principals PrincipalDirectory, rolesStore RoleStore, logger *slog.Logger) *Engine {
	return &Engine{principals: principals, roles: rolesStore, logger: logger}
}

// Authorize checks the required permission for the principal. Denials are
// reported both in the Decision and as a typed error: ErrUnauthenticated when
// the principal cannot be established, ErrPermissionDenied when it lacks the
// permission, ErrUnavailable on any datastore failure. A datastore failure
// always denies; the engine never fails open.
func (e *Engine) Authorize(ctx context.Context, principalID int64, required string) (Decision, error) {
	if required == "" {
		return Decision{}, shared.NewValidationError("permission name required")
	}

	principal, err := e.principals.Find(ctx, principalID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Decision{Reason: "unknown principal"}, fmt.Errorf("principal %d: %w", principalID, shared.ErrUnauthenticated)
		}
		e.logger.ErrorContext(ctx, "resolve principal", slog.Int64("principal_id", principalID), slog.Any("error", err))
		return Decision{Reason: "principal lookup failed"}, fmt.Errorf("resolve principal: %w", shared.ErrUnavailable)
	}

	if principal.RoleID == nil {
		return Decision{Reason: "no role assigned"}, fmt.Errorf("permission %q: %w", required, shared.ErrPermissionDenied)
	}

	role, err := e.roles.Get(ctx, *principal.RoleID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// The role was deleted out from under the principal; the empty
			// permission set applies.
			return Decision{Reason: "role no longer exists"}, fmt.Errorf("permission %q: %w", required, shared.ErrPermissionDenied)
		}
		e.logger.ErrorContext(ctx, "resolve role", slog.Int64("role_id", *principal.RoleID), slog.Any("error", err))
		return Decision{Reason: "role lookup failed"}, fmt.Errorf("resolve role: %w", shared.ErrUnavailable)
	}

	if hint := roleHint(ctx); hint != "" && hint != role.Name {
		e.logger.WarnContext(ctx, "role hint mismatch",
			slog.Int64("principal_id", principalID),
			slog.String("hint", hint),
			slog.String("actual", role.Name))
	}

	if role.Name == roles.SuperadminRole {
		return Decision{Allowed: true, Reason: "superadmin", RoleName: role.Name}, nil
	}

	if role.HasPermission(required) {
		return Decision{Allowed: true, Reason: "granted", RoleName: role.Name}, nil
	}
	return Decision{Reason: fmt.Sprintf("missing permission %q", required), RoleName: role.Name},
		fmt.Errorf("permission %q: %w", required, shared.ErrPermissionDenied)
}

func roleHint(ctx context.Context) string {
	if p, ok := shared.PrincipalFromContext(ctx); ok {
		return p.RoleNameHint
	}
	return ""
}
