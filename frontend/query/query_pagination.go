package query

// PageSize is the fixed number of records per page.
const PageSize = 10

const maxPagesShown = 5

// TotalPages is ceil(total / size).
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// PageWindow lists at most five page numbers centered on current and clamped
// to [1, totalPages]. It is nil when there is nothing to paginate.
func PageWindow(current, totalPages int) []int {
	if totalPages <= 1 {
		return nil
	}
	start := max(1, current-maxPagesShown/2)
	end := start + maxPagesShown - 1
	if end > totalPages {
		end = totalPages
		start = max(1, end-maxPagesShown+1)
	}
	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}
