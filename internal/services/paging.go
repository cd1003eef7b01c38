package services

import "github.com/stackit/backend/internal/storage"

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// normalizePage clamps page to >= 1 and limit to [1, maxPageSize].
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func pageWindow(page, limit int) storage.Window {
	return storage.Window{Skip: int64((page - 1) * limit), Limit: int64(limit)}
}
