package dto

const (
	// DefaultPerPage is used when a list request omits per_page.
	DefaultPerPage = 20
	// MaxPerPage caps per_page on every list endpoint.
	MaxPerPage = 100
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasPrev bool  `json:"has_prev"`
	HasNext bool  `json:"has_next"`
}

// NormalizePage clamps page and perPage to accepted values.
func NormalizePage(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// NewPaginationMeta derives page counts for total rows.
func NewPaginationMeta(page, perPage int, total int64) PaginationMeta {
	page, perPage = NormalizePage(page, perPage)
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return PaginationMeta{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
		HasPrev: page > 1,
		HasNext: int64(page*perPage) < total,
	}
}
