package search

import "time"

// NewDateRangeAt 供测试注入固定时钟
func NewDateRangeAt(now func() time.Time) *DateRange {
	return newDateRange(now)
}
