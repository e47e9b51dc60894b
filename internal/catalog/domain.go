// Package catalog exposes the read-only universe of permission names.
// Catalog rows are seeded by an external process and never mutated at
// runtime.
package catalog

// Permission represents an atomic capability such as "doc:read".
type Permission struct {
	ID          int64
	Name        string
	Description string
}
