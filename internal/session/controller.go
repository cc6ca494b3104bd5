package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pulsegrid-client/internal/api"
	"pulsegrid-client/internal/models"

	"go.uber.org/zap"
)

// ErrStale 被更新操作取代的过期结果（静默丢弃，不向用户呈现）
var ErrStale = errors.New("stale result superseded by a newer operation")

// ErrBusy 同类操作仍在途（保存/删除/分析按钮应在在途期间禁用）
var ErrBusy = errors.New("operation already in flight")

// RecordService 会话控制器所需的远端病历服务能力
type RecordService interface {
	LatestRecord(ctx context.Context, patientID int64) (*api.LatestRecordResponse, error)
	Record(ctx context.Context, recordID int64) (*api.RecordResponse, error)
	SaveRecord(ctx context.Context, req api.SaveRecordRequest) (int64, error)
	DeleteRecord(ctx context.Context, recordID int64) error
	Analyze(ctx context.Context, note models.ClinicalNote, grid models.PulseGrid) (*models.AnalysisResult, error)
}

// State 会话状态快照（呈现层的唯一数据来源）
type State struct {
	Patient  models.PatientInfo
	Note     models.ClinicalNote
	Grid     models.PulseGrid
	Analysis *models.AnalysisResult

	// CurrentRecordID 为 0 表示未保存的新病历
	CurrentRecordID int64

	Mode    models.PracticeMode
	Teacher string
}

// Confirmation 删除确认弹窗状态
// 不变式：Visible 为 true 时 TargetRecordID 必非 0。
type Confirmation struct {
	Visible        bool
	TargetRecordID int64
}

// Controller 会话控制器
// 持有当前患者/病历/九宫格/分析结果，驱动载入-编辑-保存/删除-重置生命周期。
// 所有状态变更都经由具名操作，载入类操作按序号丢弃被取代的慢响应。
type Controller struct {
	mu     sync.Mutex
	svc    RecordService
	logger *zap.Logger

	state   State
	confirm Confirmation

	// 载入操作序号（cancel-on-supersede：旧载入的结果到达时已非最新则丢弃）
	loadSeq uint64

	// 在途标记（防止重复提交产生重复病历）
	saving    bool
	deleting  bool
	analyzing bool

	refreshCh chan struct{}
}

// NewController 创建会话控制器（空白新病历状态）
func NewController(svc RecordService, logger *zap.Logger) *Controller {
	c := &Controller{
		svc:       svc,
		logger:    logger,
		refreshCh: make(chan struct{}, 1),
	}
	c.state.Patient = models.NewPatientInfo()
	c.state.Note = models.NewClinicalNote()
	c.state.Grid = models.NewPulseGrid()
	c.state.Mode = models.ModePersonal
	return c
}

// Snapshot 返回当前会话状态的拷贝
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	out := c.state
	out.Grid = c.state.Grid.Clone()
	if c.state.Analysis != nil {
		a := *c.state.Analysis
		out.Analysis = &a
	}
	return out
}

// ConfirmationState 返回删除确认弹窗状态
func (c *Controller) ConfirmationState() Confirmation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirm
}

// RefreshSignals 保存/删除成功后向侧边栏搜索发出的刷新信号
func (c *Controller) RefreshSignals() <-chan struct{} {
	return c.refreshCh
}

// LoadPatient 载入患者及其最近一次病历
// 成功时整体替换患者信息/病历/九宫格，恢复载荷中携带的执诊模式与老师，
// 并清空分析结果（分析结果不得跨临床上下文保留）。
// 失败或被更新的载入取代时，当前状态保持不变。
func (c *Controller) LoadPatient(ctx context.Context, patientID int64) error {
	c.mu.Lock()
	c.loadSeq++
	seq := c.loadSeq
	c.mu.Unlock()

	resp, err := c.svc.LatestRecord(ctx, patientID)
	if err != nil {
		c.logger.Warn("load patient failed",
			zap.Int64("patient_id", patientID),
			zap.Error(err),
		)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.loadSeq {
		return ErrStale
	}

	c.state.Patient = resp.PatientInfo
	c.state.Note = noteWithDefaults(resp.MedicalRecord)
	c.state.Grid = gridOrBlank(resp.PulseGrid)
	if resp.RecordID != nil {
		c.state.CurrentRecordID = *resp.RecordID
	} else {
		c.state.CurrentRecordID = 0
	}
	// 按患者载入时载荷可能携带上次的执诊模式/老师；按病历载入则没有这两个字段，
	// 两条路径的行为刻意保持不同，勿合并。
	if resp.Mode != "" {
		c.state.Mode = resp.Mode
	}
	if resp.Teacher != "" {
		c.state.Teacher = resp.Teacher
	}
	c.state.Analysis = nil

	c.logger.Info("patient loaded",
		zap.Int64("patient_id", patientID),
		zap.Int64("record_id", c.state.CurrentRecordID),
	)
	return nil
}

// LoadRecord 按病历 ID 载入单条历史病历
// 只替换病历与九宫格并清空分析结果；患者信息沿用已载入的患者，
// 执诊模式/老师不受影响。失败或被取代时状态不变。
func (c *Controller) LoadRecord(ctx context.Context, recordID int64) error {
	c.mu.Lock()
	c.loadSeq++
	seq := c.loadSeq
	c.mu.Unlock()

	resp, err := c.svc.Record(ctx, recordID)
	if err != nil {
		c.logger.Warn("load record failed",
			zap.Int64("record_id", recordID),
			zap.Error(err),
		)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.loadSeq {
		return ErrStale
	}

	c.state.CurrentRecordID = recordID
	c.state.Note = noteWithDefaults(resp.MedicalRecord)
	c.state.Grid = gridOrBlank(resp.PulseGrid)
	c.state.Analysis = nil

	c.logger.Info("record loaded", zap.Int64("record_id", recordID))
	return nil
}

// Save 保存当前快照
// 跟诊模式下老师为空时直接返回校验错误，不发起网络请求。
// 成功后采用服务端返回的病历 ID，随即清空可编辑字段回到空白新病历状态
// （保留执诊模式/老师），并发出侧边栏刷新信号——保存即翻页，便于连续录入。
func (c *Controller) Save(ctx context.Context) (int64, error) {
	c.mu.Lock()
	if c.saving {
		c.mu.Unlock()
		return 0, ErrBusy
	}
	if c.state.Mode == models.ModeShadowing && strings.TrimSpace(c.state.Teacher) == "" {
		c.mu.Unlock()
		return 0, &api.ValidationError{Message: "跟诊模式下必须选择带教老师"}
	}
	req := api.SaveRecordRequest{
		PatientInfo:   c.state.Patient,
		MedicalRecord: c.state.Note,
		PulseGrid:     c.state.Grid.Clone(),
		Mode:          c.state.Mode,
		Teacher:       c.state.Teacher,
	}
	c.saving = true
	c.mu.Unlock()

	recordID, err := c.svc.SaveRecord(ctx, req)

	c.mu.Lock()
	c.saving = false
	if err != nil {
		c.mu.Unlock()
		return 0, err
	}
	c.state.CurrentRecordID = recordID
	c.resetEditableLocked()
	c.mu.Unlock()

	c.signalRefresh()
	return recordID, nil
}

// NewPatient 无条件重置为空白新病历
// 清空患者信息/病历/九宫格/分析结果与当前病历 ID；
// 执诊模式/老师是会话偏好而非病历字段，不重置。
func (c *Controller) NewPatient() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetEditableLocked()
	c.state.CurrentRecordID = 0
}

// RequestDelete 请求删除当前病历，打开确认弹窗
// 没有已载入的病历时返回校验错误，不进入确认流程。
func (c *Controller) RequestDelete() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.CurrentRecordID == 0 {
		return &api.ValidationError{Message: "当前没有可删除的病历"}
	}
	c.confirm = Confirmation{Visible: true, TargetRecordID: c.state.CurrentRecordID}
	return nil
}

// CancelDelete 取消删除，关闭确认弹窗，无副作用
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirm = Confirmation{}
}

// ConfirmDelete 确认删除
// 成功后重置为空白新病历并发出刷新信号；失败时向用户转述服务端错误。
// 无论成败，确认弹窗都会关闭。
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if !c.confirm.Visible {
		c.mu.Unlock()
		return &api.ValidationError{Message: "没有待确认的删除操作"}
	}
	if c.deleting {
		c.mu.Unlock()
		return ErrBusy
	}
	target := c.confirm.TargetRecordID
	c.deleting = true
	c.mu.Unlock()

	err := c.svc.DeleteRecord(ctx, target)

	c.mu.Lock()
	c.deleting = false
	c.confirm = Confirmation{}
	if err == nil {
		c.resetEditableLocked()
		c.state.CurrentRecordID = 0
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("delete record failed",
			zap.Int64("record_id", target),
			zap.Error(err),
		)
		return err
	}
	c.signalRefresh()
	return nil
}

// Analyze 请求 AI 辅助分析
// 与载入/保存/删除不同，这里的失败直接向上传播，由调用方决定用户反馈。
// 分析期间发生了新的载入时，迟到的结果按过期丢弃，不会挂到新的临床上下文上。
func (c *Controller) Analyze(ctx context.Context) error {
	c.mu.Lock()
	if c.analyzing {
		c.mu.Unlock()
		return ErrBusy
	}
	note := c.state.Note
	grid := c.state.Grid.Clone()
	seq := c.loadSeq
	c.analyzing = true
	c.mu.Unlock()

	result, err := c.svc.Analyze(ctx, note, grid)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.analyzing = false
	if err != nil {
		return err
	}
	if seq != c.loadSeq {
		return ErrStale
	}
	c.state.Analysis = result
	return nil
}

// SetPatientInfo 更新患者信息（字段编辑）
func (c *Controller) SetPatientInfo(info models.PatientInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Patient = info
}

// SetClinicalNote 更新病历主体
func (c *Controller) SetClinicalNote(note models.ClinicalNote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Note = note
}

// SetPulseValue 更新单个脉位描述
func (c *Controller) SetPulseValue(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Grid.Set(key, value)
}

// SetMode 切换执诊模式
func (c *Controller) SetMode(mode models.PracticeMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Mode = mode
}

// SetTeacher 设置带教老师
func (c *Controller) SetTeacher(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Teacher = name
}

// resetEditableLocked 清空可编辑字段（患者/病历/九宫格/分析结果）
// 保留 CurrentRecordID 与执诊模式/老师，由调用方决定是否一并清理。
func (c *Controller) resetEditableLocked() {
	c.state.Patient = models.NewPatientInfo()
	c.state.Note = models.NewClinicalNote()
	c.state.Grid = models.NewPulseGrid()
	c.state.Analysis = nil
}

// signalRefresh 向搜索侧发出刷新信号；信号本身已表示“全量重查”，
// 通道满时丢弃重复信号是安全的。
func (c *Controller) signalRefresh() {
	select {
	case c.refreshCh <- struct{}{}:
	default:
	}
}

// noteWithDefaults 服务端缺省字段逐项回退到本地默认值
func noteWithDefaults(note models.ClinicalNote) models.ClinicalNote {
	if note.TotalDosage == "" {
		note.TotalDosage = models.DefaultTotalDosage
	}
	return note
}

func gridOrBlank(grid models.PulseGrid) models.PulseGrid {
	if grid == nil {
		return models.NewPulseGrid()
	}
	return grid.Clone()
}
