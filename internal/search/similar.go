package search

import (
	"context"
	"sync"
	"time"

	"pulsegrid-client/internal/debounce"
	"pulsegrid-client/internal/models"

	"go.uber.org/zap"
)

const keySimilar = "similar-cases"

// SimilarAPI 相似病例检索所需的远端能力（排序算法在服务端）
type SimilarAPI interface {
	SearchSimilar(ctx context.Context, grid models.PulseGrid) ([]models.SimilarCase, error)
}

// RecordLoader 点选相似病例后的载入入口（由会话控制器实现）
type RecordLoader interface {
	LoadRecord(ctx context.Context, recordID int64) error
}

// SimilarLookup 脉象相似病例检索
// 由九宫格内容变化驱动，去抖后查询；九宫格为空时不发请求、立即清空结果。
// 只读不写：检索本身绝不改动编辑中的会话状态。
type SimilarLookup struct {
	mu sync.Mutex

	api    SimilarAPI
	loader RecordLoader
	deb    *debounce.Coordinator
	seq    *debounce.Sequence
	logger *zap.Logger
	delay  time.Duration

	results []models.SimilarCase
}

// NewSimilarLookup 创建相似病例检索
func NewSimilarLookup(apiClient SimilarAPI, loader RecordLoader, deb *debounce.Coordinator, delay time.Duration, logger *zap.Logger) *SimilarLookup {
	return &SimilarLookup{
		api:    apiClient,
		loader: loader,
		deb:    deb,
		seq:    debounce.NewSequence(),
		logger: logger,
		delay:  delay,
	}
}

// GridChanged 九宫格内容变化
// 空九宫格：取消未触发的检索、作废在途请求、清空结果，不发网络请求。
// 非空：取快照去抖检索，避免后续编辑影响在途请求。
func (s *SimilarLookup) GridChanged(ctx context.Context, grid models.PulseGrid) {
	if grid.IsEmpty() {
		s.deb.Cancel(keySimilar)
		s.seq.Next(keySimilar)
		s.mu.Lock()
		s.results = nil
		s.mu.Unlock()
		return
	}

	snapshot := grid.Clone()
	s.deb.Schedule(keySimilar, s.delay, func() {
		s.run(ctx, snapshot)
	})
}

func (s *SimilarLookup) run(ctx context.Context, grid models.PulseGrid) {
	seq := s.seq.Next(keySimilar)

	cases, err := s.api.SearchSimilar(ctx, grid)
	if err != nil {
		s.logger.Warn("similar case lookup failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seq.IsCurrent(keySimilar, seq) {
		return
	}
	s.results = cases
}

// SelectCase 点选相似病例，交给会话控制器载入对应病历
func (s *SimilarLookup) SelectCase(ctx context.Context, recordID int64) error {
	return s.loader.LoadRecord(ctx, recordID)
}

// Results 当前相似病例列表的拷贝
func (s *SimilarLookup) Results() []models.SimilarCase {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SimilarCase, len(s.results))
	copy(out, s.results)
	return out
}
