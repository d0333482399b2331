package report

// DefaultPageSize matches the row count of the dashboard tables.
const DefaultPageSize = 20

// View is the per-request dashboard state: active filters and the page
// being looked at. It is passed by value; nothing is kept between requests.
type View struct {
	Filter   Filter
	Page     int
	PageSize int
}

// Page is one page of a result set.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	TotalItems int `json:"totalItems"`
}

// Paginate slices items for page, clamping page into [1, TotalPages]. An
// empty set still has one (empty) page.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(items)
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	return Page[T]{
		Items:      items[start:end],
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
		TotalItems: total,
	}
}
