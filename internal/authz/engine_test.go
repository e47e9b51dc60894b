package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekeep-io/gatekeep/internal/catalog"
	"github.com/gatekeep-io/gatekeep/internal/identity"
	"github.com/gatekeep-io/gatekeep/internal/roles"
	"github.com/gatekeep-io/gatekeep/internal/shared"
)

type fakeDirectory struct {
	principals map[int64]identity.Principal
	err        error
}

func (f *fakeDirectory) Find(ctx context.Context, id int64) (identity.Principal, error) {
	if f.err != nil {
		return identity.Principal{}, f.err
	}
	p, ok := f.principals[id]
	if !ok {
		return identity.Principal{}, fmt.Errorf("principal %d: %w", id, shared.ErrNotFound)
	}
	return p, nil
}

type fakeRoleStore struct {
	roles map[int64]*roles.Role
	err   error
}

func (f *fakeRoleStore) Get(ctx context.Context, id int64) (*roles.Role, error) {
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.roles[id]
	if !ok {
		return nil, fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
	}
	return r, nil
}

func roleID(id int64) *int64 { return &id }

func testFixture() (*fakeDirectory, *fakeRoleStore) {
	dir := &fakeDirectory{principals: map[int64]identity.Principal{
		1: {ID: 1, Subject: "root@local", RoleID: roleID(10)},
		2: {ID: 2, Subject: "editor@local", RoleID: roleID(20)},
		3: {ID: 3, Subject: "drifter@local"},
	}}
	store := &fakeRoleStore{roles: map[int64]*roles.Role{
		10: {ID: 10, Name: "superadmin"},
		20: {ID: 20, Name: "editor", Permissions: []catalog.Permission{
			{ID: 1, Name: "doc:read"},
		}},
	}}
	return dir, store
}

func newTestEngine(dir *fakeDirectory, store *fakeRoleStore) *Engine {
	return NewEngine(dir, store, slog.New(slog.DiscardHandler))
}

func TestAuthorizeSuperadminBypassesMembership(t *testing.T) {
	dir, store := testFixture()
	engine := newTestEngine(dir, store)

	// Even a permission absent from every role is granted.
	decision, err := engine.Authorize(context.Background(), 1, "anything:at-all")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, "superadmin", decision.RoleName)
}

func TestAuthorizeGrantsHeldPermission(t *testing.T) {
	dir, store := testFixture()
	engine := newTestEngine(dir, store)

	decision, err := engine.Authorize(context.Background(), 2, "doc:read")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, "editor", decision.RoleName)
}

func TestAuthorizeDeniesMissingPermission(t *testing.T) {
	dir, store := testFixture()
	engine := newTestEngine(dir, store)

	decision, err := engine.Authorize(context.Background(), 2, "doc:write")
	assert.ErrorIs(t, err, shared.ErrPermissionDenied)
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "doc:write")
}

func TestAuthorizeIsCaseSensitive(t *testing.T) {
	dir, store := testFixture()
	engine := newTestEngine(dir, store)

	_, err := engine.Authorize(context.Background(), 2, "DOC:READ")
	assert.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestAuthorizeUnknownPrincipal(t *testing.T) {
	dir, store := testFixture()
	engine := newTestEngine(dir, store)

	decision, err := engine.Authorize(context.Background(), 99, "doc:read")
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
	assert.False(t, decision.Allowed)
}

func TestAuthorizePrincipalWithoutRoleIsDenied(t *testing.T) {
	dir, store := testFixture()
	engine := newTestEngine(dir, store)

	decision, err := engine.Authorize(context.Background(), 3, "doc:read")
	assert.ErrorIs(t, err, shared.ErrPermissionDenied)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "no role assigned", decision.Reason)
}

func TestAuthorizeDirectoryFailureDeniesClosed(t *testing.T) {
	dir, store := testFixture()
	dir.err = errors.New("connection refused")
	engine := newTestEngine(dir, store)

	decision, err := engine.Authorize(context.Background(), 1, "doc:read")
	assert.ErrorIs(t, err, shared.ErrUnavailable)
	assert.False(t, decision.Allowed)
}

func TestAuthorizeRoleStoreFailureDeniesClosed(t *testing.T) {
	dir, store := testFixture()
	store.err = errors.New("timeout")
	engine := newTestEngine(dir, store)

	decision, err := engine.Authorize(context.Background(), 2, "doc:read")
	assert.ErrorIs(t, err, shared.ErrUnavailable)
	assert.False(t, decision.Allowed)
}

func TestAuthorizeDanglingRoleReferenceIsDenied(t *testing.T) {
	dir, store := testFixture()
	delete(store.roles, 20)
	engine := newTestEngine(dir, store)

	decision, err := engine.Authorize(context.Background(), 2, "doc:read")
	assert.ErrorIs(t, err, shared.ErrPermissionDenied)
	assert.False(t, decision.Allowed)
}

func TestAuthorizeEmptyPermissionNameRejected(t *testing.T) {
	dir, store := testFixture()
	engine := newTestEngine(dir, store)

	_, err := engine.Authorize(context.Background(), 2, "")
	var ve *shared.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestAuthorizeRenamedSuperadminLosesBypass(t *testing.T) {
	dir, store := testFixture()
	store.roles[10].Name = "root"
	engine := newTestEngine(dir, store)

	_, err := engine.Authorize(context.Background(), 1, "doc:read")
	assert.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestAuthorizeHintMismatchDoesNotChangeVerdict(t *testing.T) {
	dir, store := testFixture()
	engine := newTestEngine(dir, store)

	ctx := shared.ContextWithPrincipal(context.Background(), shared.AuthenticatedPrincipal{
		PrincipalID:  2,
		RoleNameHint: "superadmin",
	})
	// A forged superadmin hint must not grant the bypass.
	_, err := engine.Authorize(ctx, 2, "doc:write")
	assert.ErrorIs(t, err, shared.ErrPermissionDenied)
}
