package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"pulsegrid-client/internal/debounce"
	"pulsegrid-client/internal/models"

	"go.uber.org/zap"
)

// Mode 搜索侧边栏当前模式
type Mode string

const (
	// ModeSearching 按姓名/电话文本搜索（非空查询优先于日期范围）
	ModeSearching Mode = "searching"
	// ModeBrowsing 按已提交日期范围浏览
	ModeBrowsing Mode = "browsing"
)

// 去抖与序号共用的 key：文本输入与日期浏览互斥，走同一个 key；
// 就诊历史是独立的第二类查询，单独取号。
const (
	keyPatientList = "patient-list"
	keyHistory     = "patient-history"
)

// SearchAPI 搜索侧所需的远端能力
type SearchAPI interface {
	SearchPatients(ctx context.Context, query string) ([]models.PatientSummary, error)
	PatientsByDate(ctx context.Context, startDate, endDate string) ([]models.PatientSummary, error)
	PatientHistory(ctx context.Context, patientID int64) ([]models.VisitSummary, error)
}

// Index 患者搜索侧边栏的状态
// 把文本搜索、日期浏览、患者点选三种来源合并成一份“当前结果列表”
// 和一份“当前就诊历史”。文本输入经去抖收敛；每个在途请求带序号，
// 慢的旧响应不允许覆盖新结果。
type Index struct {
	mu sync.Mutex

	api    SearchAPI
	deb    *debounce.Coordinator
	seq    *debounce.Sequence
	Range  *DateRange
	logger *zap.Logger
	delay  time.Duration

	query           string
	results         []models.PatientSummary
	selectedPatient int64
	history         []models.VisitSummary
	selectedRecord  int64
}

// NewIndex 创建搜索侧边栏状态
func NewIndex(apiClient SearchAPI, deb *debounce.Coordinator, delay time.Duration, logger *zap.Logger) *Index {
	return &Index{
		api:    apiClient,
		deb:    deb,
		seq:    debounce.NewSequence(),
		Range:  NewDateRange(),
		logger: logger,
		delay:  delay,
	}
}

// Mode 当前模式：非空（去除首尾空白）查询优先于日期范围
func (i *Index) Mode() Mode {
	i.mu.Lock()
	defer i.mu.Unlock()
	if strings.TrimSpace(i.query) != "" {
		return ModeSearching
	}
	return ModeBrowsing
}

// QueryChanged 文本输入变化；经去抖后重发当前模式的查询
// 输入非空进入搜索模式，清空则退回日期浏览模式并重查日期范围。
func (i *Index) QueryChanged(ctx context.Context, query string) {
	i.mu.Lock()
	i.query = query
	i.mu.Unlock()

	i.deb.Schedule(keyPatientList, i.delay, func() {
		i.Refresh(ctx)
	})
}

// CommitRange 提交日期范围；浏览模式下立即重查（点选无需去抖）
func (i *Index) CommitRange(ctx context.Context) {
	i.Range.Commit()
	if i.Mode() == ModeBrowsing {
		i.Refresh(ctx)
	}
}

// Refresh 按当前模式重发查询（保存/删除后的外部刷新也走这里）
// 失败时保留上一次的结果；过期响应丢弃。
func (i *Index) Refresh(ctx context.Context) {
	i.mu.Lock()
	query := strings.TrimSpace(i.query)
	i.mu.Unlock()

	seq := i.seq.Next(keyPatientList)

	var (
		list []models.PatientSummary
		err  error
	)
	if query != "" {
		list, err = i.api.SearchPatients(ctx, query)
	} else {
		start, end := i.Range.Committed()
		list, err = i.api.PatientsByDate(ctx, start, end)
	}
	if err != nil {
		i.logger.Warn("patient list refresh failed",
			zap.String("query", query),
			zap.Error(err),
		)
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.seq.IsCurrent(keyPatientList, seq) {
		return
	}
	i.results = list
}

// SelectPatient 点选患者：独立发起就诊历史查询，不影响主搜索的去抖
func (i *Index) SelectPatient(ctx context.Context, patientID int64) {
	i.mu.Lock()
	i.selectedPatient = patientID
	i.mu.Unlock()

	seq := i.seq.Next(keyHistory)

	history, err := i.api.PatientHistory(ctx, patientID)
	if err != nil {
		i.logger.Warn("patient history fetch failed",
			zap.Int64("patient_id", patientID),
			zap.Error(err),
		)
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.seq.IsCurrent(keyHistory, seq) {
		return
	}
	if i.selectedPatient != patientID {
		return
	}
	i.history = history
}

// SelectRecord 标记当前选中的历史病历（载入本身由会话控制器负责）
func (i *Index) SelectRecord(recordID int64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.selectedRecord = recordID
}

// WatchRefresh 消费会话控制器的刷新信号，重发当前模式的查询
// 通道关闭或 ctx 取消时返回。
func (i *Index) WatchRefresh(ctx context.Context, signals <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-signals:
			if !ok {
				return
			}
			i.Refresh(ctx)
		}
	}
}

// Results 当前患者结果列表的拷贝
func (i *Index) Results() []models.PatientSummary {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]models.PatientSummary, len(i.results))
	copy(out, i.results)
	return out
}

// History 选中患者的就诊历史拷贝
func (i *Index) History() []models.VisitSummary {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]models.VisitSummary, len(i.history))
	copy(out, i.history)
	return out
}

// SelectedPatient 当前选中的患者 ID（0 表示未选中）
func (i *Index) SelectedPatient() int64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.selectedPatient
}
