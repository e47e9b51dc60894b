package audit

import (
	"context"
	"fmt"
)

// RepositoryPort defines data access methods for the audit trail.
type RepositoryPort interface {
	List(ctx context.Context, offset, limit int) ([]Event, error)
}

// PagingInfo describes the position of a timeline page.
type PagingInfo struct {
	Page     int
	PageSize int
	HasNext  bool
}

// Result wraps a timeline page with paging information.
type Result struct {
	Events []Event
	Paging PagingInfo
}

// Service coordinates audit timeline reads.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Timeline returns a page of events, newest first.
func (s *Service) Timeline(ctx context.Context, page, pageSize int) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize
	events, err := s.repo.List(ctx, offset, pageSize+1)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(events) > pageSize
	if hasNext {
		events = events[:pageSize]
	}
	return Result{
		Events: events,
		Paging: PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext},
	}, nil
}
