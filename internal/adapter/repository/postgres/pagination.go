package postgres

import (
	"fmt"
	"strings"
)

type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// RepositoryQueryParams is the paginated-query contract consumed by external
// reporting flows. SortField must be one of the repository's sortable
// columns.
type RepositoryQueryParams struct {
	StartPage  int
	PageSize   int
	SortField  string
	SortOrder  SortOrder
	SearchTerm string
}

type PaginatedResponse[T any] struct {
	Result       []T   `json:"result"`
	TotalResults int64 `json:"totalResults"`
	PageSize     int   `json:"pageSize"`
	PageNumber   int   `json:"pageNumber"`
	TotalPages   int   `json:"totalPages"`
}

func (p RepositoryQueryParams) normalized() RepositoryQueryParams {
	out := p
	if out.StartPage < 1 {
		out.StartPage = 1
	}
	if out.PageSize < 1 {
		out.PageSize = 10
	}
	if out.SortOrder != SortOrderDesc {
		out.SortOrder = SortOrderAsc
	}
	out.SearchTerm = strings.TrimSpace(out.SearchTerm)
	return out
}

// orderClause validates the requested sort field against the whitelist and
// builds the ORDER BY fragment.
func (p RepositoryQueryParams) orderClause(sortable map[string]struct{}, fallback string) (string, error) {
	field := strings.TrimSpace(p.SortField)
	if field == "" {
		field = fallback
	}
	if _, ok := sortable[field]; !ok {
		return "", fmt.Errorf("Invalid sort field %s", field)
	}
	return fmt.Sprintf("ORDER BY %s %s", field, p.SortOrder), nil
}

func totalPages(totalResults int64, pageSize int) int {
	if totalResults == 0 {
		return 0
	}
	return int((totalResults + int64(pageSize) - 1) / int64(pageSize))
}
