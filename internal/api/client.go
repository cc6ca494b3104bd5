package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pulsegrid-client/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LatestRecordResponse GET /api/patients/{id}/latest_record 响应
// record_id 为 null 表示患者尚无病历；mode/teacher 仅在服务端保存过时返回。
type LatestRecordResponse struct {
	RecordID      *int64              `json:"record_id"`
	PatientInfo   models.PatientInfo  `json:"patient_info"`
	MedicalRecord models.ClinicalNote `json:"medical_record"`
	PulseGrid     models.PulseGrid    `json:"pulse_grid"`
	Mode          models.PracticeMode `json:"mode,omitempty"`
	Teacher       string              `json:"teacher,omitempty"`
}

// RecordResponse GET /api/records/{id} 响应
// 注意：按病历载入时服务端不返回患者信息与执诊模式（响应结构与按患者载入不同）。
type RecordResponse struct {
	MedicalRecord models.ClinicalNote `json:"medical_record"`
	PulseGrid     models.PulseGrid    `json:"pulse_grid"`
}

// SaveRecordRequest POST /api/records/save 请求体（完整快照）
type SaveRecordRequest struct {
	PatientInfo   models.PatientInfo  `json:"patient_info"`
	MedicalRecord models.ClinicalNote `json:"medical_record"`
	PulseGrid     models.PulseGrid    `json:"pulse_grid"`
	Mode          models.PracticeMode `json:"mode"`
	Teacher       string              `json:"teacher"`
}

type saveRecordResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	RecordID int64  `json:"record_id"`
}

type analyzeRequest struct {
	MedicalRecord models.ClinicalNote `json:"medical_record"`
	PulseGrid     models.PulseGrid    `json:"pulse_grid"`
}

type searchSimilarRequest struct {
	PulseGrid models.PulseGrid `json:"pulse_grid"`
}

// 服务端错误响应体（FastAPI 风格 {"detail": "..."}）
type errorBody struct {
	Detail string `json:"detail"`
}

// Client 远端病历服务客户端
// 所有调用共用统一超时；不做自动重试（保存/删除非幂等，搜索类由去抖层重发）。
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient 创建病历服务客户端
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	// 每个请求打上请求 ID 便于服务端日志关联
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetHeader("X-Request-ID", uuid.NewString())
		return nil
	})

	return &Client{
		http:   httpClient,
		logger: logger,
	}
}

// LatestRecord 获取患者最近一次病历
func (c *Client) LatestRecord(ctx context.Context, patientID int64) (*LatestRecordResponse, error) {
	var out LatestRecordResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/api/patients/%d/latest_record", patientID))
	if err := c.check("load latest record", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// PatientHistory 获取患者就诊历史（按就诊日期倒序）
func (c *Client) PatientHistory(ctx context.Context, patientID int64) ([]models.VisitSummary, error) {
	var out []models.VisitSummary
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/api/patients/%d/history", patientID))
	if err := c.check("load patient history", resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// Record 按病历 ID 获取单条病历
func (c *Client) Record(ctx context.Context, recordID int64) (*RecordResponse, error) {
	var out RecordResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/api/records/%d", recordID))
	if err := c.check("load record", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveRecord 保存病历快照，返回服务端分配的病历 ID
func (c *Client) SaveRecord(ctx context.Context, req SaveRecordRequest) (int64, error) {
	var out saveRecordResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/api/records/save")
	if err := c.check("save record", resp, err); err != nil {
		return 0, err
	}
	c.logger.Info("record saved",
		zap.Int64("record_id", out.RecordID),
		zap.String("message", out.Message),
	)
	return out.RecordID, nil
}

// DeleteRecord 删除指定病历
func (c *Client) DeleteRecord(ctx context.Context, recordID int64) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/api/records/%d", recordID))
	if err := c.check("delete record", resp, err); err != nil {
		return err
	}
	c.logger.Info("record deleted", zap.Int64("record_id", recordID))
	return nil
}

// Analyze 请求 AI 辅助分析（病历 + 九宫格快照）
func (c *Client) Analyze(ctx context.Context, note models.ClinicalNote, grid models.PulseGrid) (*models.AnalysisResult, error) {
	var out models.AnalysisResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(analyzeRequest{MedicalRecord: note, PulseGrid: grid}).
		SetResult(&out).
		Post("/api/analyze")
	if err := c.check("analyze record", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchSimilar 按九宫格内容检索相似病例（排序算法在服务端）
func (c *Client) SearchSimilar(ctx context.Context, grid models.PulseGrid) ([]models.SimilarCase, error) {
	var out []models.SimilarCase
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(searchSimilarRequest{PulseGrid: grid}).
		SetResult(&out).
		Post("/api/records/search_similar")
	if err := c.check("search similar records", resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchPatients 按姓名/电话模糊搜索患者
func (c *Client) SearchPatients(ctx context.Context, query string) ([]models.PatientSummary, error) {
	var out []models.PatientSummary
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("query", query).
		SetResult(&out).
		Get("/api/patients/search")
	if err := c.check("search patients", resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// PatientsByDate 按就诊日期范围浏览患者
func (c *Client) PatientsByDate(ctx context.Context, startDate, endDate string) ([]models.PatientSummary, error) {
	var out []models.PatientSummary
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"start_date": startDate,
			"end_date":   endDate,
		}).
		SetResult(&out).
		Get("/api/patients/by_date")
	if err := c.check("browse patients by date", resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// Practitioners 获取医师名册（含带教老师）
func (c *Client) Practitioners(ctx context.Context) ([]models.Practitioner, error) {
	var out []models.Practitioner
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/practitioners")
	if err := c.check("load practitioners", resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// check 统一的响应检查：传输错误 → TransportError，非 2xx → ServiceError
func (c *Client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		c.logger.Error("record service call failed",
			zap.String("op", op),
			zap.Error(err),
		)
		return &TransportError{Op: op, Err: err}
	}
	if resp.IsError() {
		detail := parseDetail(resp.Body())
		c.logger.Warn("record service returned error",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode()),
			zap.String("detail", detail),
		)
		return &ServiceError{Op: op, StatusCode: resp.StatusCode(), Detail: detail}
	}
	return nil
}

func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Detail != "" {
		return eb.Detail
	}
	// 非 JSON 错误体按原文返回
	return string(body)
}
