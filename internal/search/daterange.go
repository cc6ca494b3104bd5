package search

import (
	"fmt"
	"sync"
	"time"
)

const dateLayout = "2006-01-02"

// Preset 日期范围快捷选择
type Preset string

const (
	PresetToday      Preset = "today"
	PresetLast7Days  Preset = "last7days"
	PresetLast30Days Preset = "last30days"
	PresetLast90Days Preset = "last90days"
)

var presetDays = map[Preset]int{
	PresetToday:      0,
	PresetLast7Days:  7,
	PresetLast30Days: 30,
	PresetLast90Days: 90,
}

// DateRange 侧边栏日期范围筛选
// 编辑过程只改暂存值，Commit 才更新用于查询的已提交范围；
// 提交时起止倒置自动交换。非法日期在输入边界拒绝，不会进入暂存值。
type DateRange struct {
	mu sync.Mutex

	stagedStart time.Time
	stagedEnd   time.Time
	start       time.Time
	end         time.Time

	now func() time.Time // 可注入，便于测试
}

// NewDateRange 创建日期范围（初始为今天~今天）
func NewDateRange() *DateRange {
	return newDateRange(time.Now)
}

func newDateRange(now func() time.Time) *DateRange {
	today := truncateDay(now())
	return &DateRange{
		stagedStart: today,
		stagedEnd:   today,
		start:       today,
		end:         today,
		now:         now,
	}
}

// SetStart 暂存开始日期；无法解析的输入直接拒绝
func (r *DateRange) SetStart(date string) error {
	d, err := parseDate(date)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stagedStart = d
	return nil
}

// SetEnd 暂存结束日期
func (r *DateRange) SetEnd(date string) error {
	d, err := parseDate(date)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stagedEnd = d
	return nil
}

// QuickSelect 快捷选择：start = 今天 − N 天，end = 今天
// 只更新暂存值，仍需 Commit 才生效。
func (r *DateRange) QuickSelect(p Preset) error {
	days, ok := presetDays[p]
	if !ok {
		return fmt.Errorf("unknown date range preset: %q", p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	today := truncateDay(r.now())
	r.stagedStart = today.AddDate(0, 0, -days)
	r.stagedEnd = today
	return nil
}

// Commit 提交暂存范围；起止倒置时交换后再生效
func (r *DateRange) Commit() (start, end string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, e := r.stagedStart, r.stagedEnd
	if s.After(e) {
		s, e = e, s
	}
	r.stagedStart, r.stagedEnd = s, e
	r.start, r.end = s, e
	return s.Format(dateLayout), e.Format(dateLayout)
}

// Committed 返回当前已提交（用于查询）的范围
func (r *DateRange) Committed() (start, end string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.start.Format(dateLayout), r.end.Format(dateLayout)
}

func parseDate(date string) (time.Time, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return d, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
