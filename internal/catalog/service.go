package catalog

import (
	"context"
	"sort"

	"github.com/gatekeep-io/gatekeep/internal/shared"
)

// RepositoryPort defines read access to the permission catalog.
type RepositoryPort interface {
	ListAll(ctx context.Context) ([]Permission, error)
	FindByNames(ctx context.Context, names []string) ([]Permission, error)
}

// Service answers catalog queries. The catalog has no mutation operations;
// population belongs to the seeding process.
type Service struct {
	repo  RepositoryPort
	cache *Cache
}

// NewService builds a Service instance. cache may be nil.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// ListAll returns every permission ordered by name.
func (s *Service) ListAll(ctx context.Context) ([]Permission, error) {
	return s.cache.Fetch(ctx, s.repo.ListAll)
}

// ValidateNames resolves a candidate set of permission names all-or-nothing:
// it returns the matching permissions iff every name exists, and otherwise
// fails with a ValidationError enumerating every unrecognized name. An empty
// input is legal and yields an empty result.
func (s *Service) ValidateNames(ctx context.Context, names []string) ([]Permission, error) {
	if len(names) == 0 {
		return nil, nil
	}

	unique := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, name)
	}

	found, err := s.repo.FindByNames(ctx, unique)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]Permission, len(found))
	for _, p := range found {
		byName[p.Name] = p
	}

	var unknown []string
	resolved := make([]Permission, 0, len(unique))
	for _, name := range unique {
		p, ok := byName[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		resolved = append(resolved, p)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, shared.NewValidationError("unknown permissions", unknown...)
	}
	return resolved, nil
}
