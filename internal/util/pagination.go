package util

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Calculate clamps page/limit and returns the offset and effective limit for
// an offset-style paginated query.
func Calculate(page, limit int) (offset, size int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	return (page - 1) * limit, limit
}

// TotalPages is ceil(total/limit) for pagination metadata.
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
