package orders

import (
	"context"

	"clinic/internal/platform/clinicapi"
)

// Source is the clinic API's order listing.
type Source interface {
	ListOrders(ctx context.Context) ([]clinicapi.Order, error)
}

type Service struct {
	Source Source
}

func NewService(source Source) *Service {
	return &Service{Source: source}
}

// ListForCategory fetches every order and keeps the ones referencing categoryID.
// An employee without a category sees nothing, and no upstream call is made.
func (s *Service) ListForCategory(ctx context.Context, categoryID string) ([]clinicapi.Order, error) {
	if categoryID == "" {
		return []clinicapi.Order{}, nil
	}
	all, err := s.Source.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return ScopeToCategory(all, categoryID), nil
}

// ScopeToCategory returns the orders whose category reference equals
// categoryID, preserving input order. Orders without a category never match.
func ScopeToCategory(all []clinicapi.Order, categoryID string) []clinicapi.Order {
	out := make([]clinicapi.Order, 0, len(all))
	if categoryID == "" {
		return out
	}
	for _, o := range all {
		if o.CategoryID() == categoryID {
			out = append(out, o)
		}
	}
	return out
}
