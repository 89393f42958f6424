package repository

import "gorm.io/gorm"

// PageSize is the fixed number of items per list page.
const PageSize = 10

// Pagination describes the page actually served. The requested page number is
// clamped to the valid range rather than rejected: a non-positive page becomes
// 1 and a page past the end becomes the last page.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// HasNext reports whether a later page exists.
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

// HasPrev reports whether an earlier page exists.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// NextPage returns the following page number, clamped to the last page.
func (p Pagination) NextPage() int {
	if p.HasNext() {
		return p.Page + 1
	}
	return p.TotalPages
}

// PrevPage returns the preceding page number, clamped to 1.
func (p Pagination) PrevPage() int {
	if p.HasPrev() {
		return p.Page - 1
	}
	return 1
}

// clampPage normalises a requested page number against the item total.
func clampPage(page int, total int64) Pagination {
	totalPages := int((total + PageSize - 1) / PageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return Pagination{
		Page:       page,
		PageSize:   PageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// paginate counts the query, clamps the page and fetches the matching slice
// into dest. Count and Find each run on their own session so the shared
// condition chain is not consumed twice.
func paginate(query *gorm.DB, model interface{}, page int, dest interface{}) (Pagination, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Model(model).Count(&total).Error; err != nil {
		return Pagination{}, err
	}
	p := clampPage(page, total)
	offset := (p.Page - 1) * p.PageSize
	if err := query.Session(&gorm.Session{}).Offset(offset).Limit(p.PageSize).Find(dest).Error; err != nil {
		return Pagination{}, err
	}
	return p, nil
}
