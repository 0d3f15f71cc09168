package dto

import "github.com/jsamuelsen/classquotes/internal/domain"

// ListQuotesQuery is the query string of GET /api/quotes. Every parameter
// is optional; absent filters match everything.
type ListQuotesQuery struct {
	Search string `form:"search" validate:"max=200"`
	Role   string `form:"role" validate:"omitempty,oneof=All Teacher Student"`
	Time   string `form:"time" validate:"omitempty,oneof=All '7 Days' Month Year"`
}

// Filters converts a validated query into domain filters.
func (q ListQuotesQuery) Filters() (domain.Filters, error) {
	role, err := domain.ParseRoleFilter(q.Role)
	if err != nil {
		return domain.Filters{}, err
	}

	window, err := domain.ParseTimeFilter(q.Time)
	if err != nil {
		return domain.Filters{}, err
	}

	return domain.Filters{Search: q.Search, Role: role, Time: window}, nil
}
