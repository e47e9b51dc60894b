// Package identity reads principal records owned by the external identity
// subsystem. This core never creates or mutates principals; it only needs
// the role reference each principal carries.
package identity

// Principal is an authenticated actor. RoleID is nil when no role has been
// assigned, which authorization treats as the empty permission set.
type Principal struct {
	ID      int64
	Subject string
	RoleID  *int64
}
