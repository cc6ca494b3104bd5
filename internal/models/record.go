package models

// PracticeMode 执诊模式
type PracticeMode string

const (
	// ModePersonal 独立执诊
	ModePersonal PracticeMode = "personal"
	// ModeShadowing 跟诊模式（学员跟随带教老师记录，保存前必须填写老师姓名）
	ModeShadowing PracticeMode = "shadowing"
)

// 性别取值（与原始录入习惯一致，使用中文）
const (
	GenderMale   = "男"
	GenderFemale = "女"
)

// DefaultTotalDosage 剂量默认值
const DefaultTotalDosage = "6付"

// PatientInfo 患者基本信息
// 年龄按原始输入保存为字符串，不做校验。
type PatientInfo struct {
	Name   string `json:"name"`
	Age    string `json:"age"`
	Gender string `json:"gender"`
	Phone  string `json:"phone"`
}

// NewPatientInfo 创建空白患者信息（性别默认男）
func NewPatientInfo() PatientInfo {
	return PatientInfo{Gender: GenderMale}
}

// ClinicalNote 病历主体（主诉、处方、剂量、备注）
type ClinicalNote struct {
	Complaint    string `json:"complaint"`
	Prescription string `json:"prescription"`
	TotalDosage  string `json:"total_dosage"`
	Note         string `json:"note"`
}

// NewClinicalNote 创建空白病历（剂量取默认值）
func NewClinicalNote() ClinicalNote {
	return ClinicalNote{TotalDosage: DefaultTotalDosage}
}

// AnalysisResult AI 辅助分析结果
// 仅由远端分析接口产生；nil 表示尚未分析或已因上下文切换而作废。
type AnalysisResult struct {
	ConsistencyComment  string `json:"consistency_comment"`
	PrescriptionComment string `json:"prescription_comment"`
	Suggestion          string `json:"suggestion"`
}

// PatientSummary 患者搜索结果条目
type PatientSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	LastVisit string `json:"last_visit"`
}

// VisitSummary 患者就诊历史条目
type VisitSummary struct {
	ID        int64  `json:"id"`
	VisitDate string `json:"visit_date"`
	Complaint string `json:"complaint"`
}

// SimilarCase 脉象相似病例（由远端相似度检索返回，客户端只展示）
type SimilarCase struct {
	RecordID    int64     `json:"record_id"`
	PatientName string    `json:"patient_name"`
	VisitDate   string    `json:"visit_date"`
	Complaint   string    `json:"complaint"`
	Score       int       `json:"score"`
	PulseGrid   PulseGrid `json:"pulse_grid"`
	Matches     []string  `json:"matches"`
}

// Practitioner 医师（role 为 "doctor" 或 "teacher"）
type Practitioner struct {
	Name string `json:"name"`
	Role string `json:"role"`
}
