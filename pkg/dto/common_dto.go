package dto

// PageQuery is the page/limit pair accepted by paginated list endpoints.
type PageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Normalize clamps the query: page starts at 1 and out-of-range limits fall
// back to defaultLimit.
func (q PageQuery) Normalize(defaultLimit, maxLimit int) PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > maxLimit {
		q.Limit = defaultLimit
	}
	return q
}

func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

func NewPaginationMeta(q PageQuery, total int64) PaginationMeta {
	totalPages := 0
	if q.Limit > 0 {
		totalPages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}
	return PaginationMeta{
		CurrentPage: q.Page,
		TotalPages:  totalPages,
		TotalItems:  total,
		Limit:       q.Limit,
	}
}
