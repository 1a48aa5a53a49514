package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/riderops/riderops/internal/cache"
	"github.com/riderops/riderops/internal/config"
	"github.com/riderops/riderops/internal/metrics"
	"github.com/riderops/riderops/pkg/errors"
	"github.com/riderops/riderops/pkg/filter"
	"github.com/riderops/riderops/pkg/logger"
	"github.com/riderops/riderops/pkg/model"
	"github.com/riderops/riderops/pkg/reconcile"
	"github.com/riderops/riderops/pkg/report"
)

// ReportHandler 报表处理器
type ReportHandler struct {
	roster    *cache.RosterCache
	shifts    *cache.ShiftStore
	reference *config.Reference
	cfg       config.ReportConfig
	rlog      *logger.ReportLogger
}

// NewReportHandler 创建报表处理器
func NewReportHandler(roster *cache.RosterCache, shifts *cache.ShiftStore, reference *config.Reference, cfg config.ReportConfig) *ReportHandler {
	return &ReportHandler{
		roster:    roster,
		shifts:    shifts,
		reference: reference,
		cfg:       cfg,
		rlog:      logger.NewReportLogger(),
	}
}

// ReportRequest 报表请求
type ReportRequest struct {
	Date       string `json:"date,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	GrandTotal *bool  `json:"grand_total,omitempty"`
	Validate   *bool  `json:"validate,omitempty"` // 按参照表剔除无效的合同×城市组合
}

// ReportResponse 分组报表响应
type ReportResponse struct {
	RunID   string            `json:"run_id"`
	Date    string            `json:"date"`
	Rows    []model.ReportRow `json:"rows"`
	Empty   bool              `json:"empty,omitempty"`
	Warning string            `json:"warning,omitempty"`
}

// TableResponse 表格报表响应
type TableResponse struct {
	RunID string             `json:"run_id"`
	Table *model.ReportTable `json:"table"`
	Empty bool               `json:"empty,omitempty"`
}

// ByContract 按合同分组的单日报表
func (h *ReportHandler) ByContract(w http.ResponseWriter, r *http.Request) {
	h.groupedReport(w, r, "contract", func(b *report.Builder, roster *model.Roster, records []model.ShiftRecord, date model.Date) ([]model.ReportRow, error) {
		return b.ByContract(roster, records, date)
	})
}

// ByCity 按城市分组的单日报表
func (h *ReportHandler) ByCity(w http.ResponseWriter, r *http.Request) {
	h.groupedReport(w, r, "city", func(b *report.Builder, roster *model.Roster, records []model.ShiftRecord, date model.Date) ([]model.ReportRow, error) {
		return b.ByCity(roster, records, date)
	})
}

// Cross 合同×城市交叉的单日报表
func (h *ReportHandler) Cross(w http.ResponseWriter, r *http.Request) {
	h.groupedReport(w, r, "cross", func(b *report.Builder, roster *model.Roster, records []model.ShiftRecord, date model.Date) ([]model.ReportRow, error) {
		return b.Cross(roster, records, date)
	})
}

func (h *ReportHandler) groupedReport(w http.ResponseWriter, r *http.Request, name string, build func(*report.Builder, *model.Roster, []model.ShiftRecord, model.Date) ([]model.ReportRow, error)) {
	started := time.Now()

	req, ok := h.parseRequest(w, r, true)
	if !ok {
		return
	}

	roster, records, ok := h.materialize(r.Context(), w, model.Date(req.Date))
	if !ok {
		metrics.RecordReport(name, false, time.Since(started))
		return
	}

	run := model.NewReportRun(model.SingleDate(model.Date(req.Date)))
	runID := run.ID.String()
	h.rlog.StartRun(runID, roster.Len(), len(records))

	rows, err := build(h.builder(req), roster, records, model.Date(req.Date))
	if err != nil {
		metrics.RecordReport(name, false, time.Since(started))
		respondError(w, toAppError(err))
		return
	}

	metrics.RecordReport(name, true, time.Since(started))
	h.rlog.RunComplete(runID, time.Since(started), len(rows))

	resp := ReportResponse{
		RunID: runID,
		Date:  req.Date,
		Rows:  rows,
		Empty: len(records) == 0,
	}
	if resp.Empty {
		resp.Warning = errors.EmptyResult(name).Message
	}
	respondJSON(w, http.StatusOK, resp)
}

// MultiDate 区间内逐日的合同报表
func (h *ReportHandler) MultiDate(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	req, ok := h.parseRequest(w, r, false)
	if !ok {
		return
	}
	rng := model.DateRange{StartDate: model.Date(req.StartDate), EndDate: model.Date(req.EndDate)}
	if !rng.Valid() {
		respondError(w, errors.InvalidDateRange(req.StartDate, req.EndDate))
		return
	}

	roster, err := h.requireRoster(r.Context())
	if err != nil {
		respondError(w, toAppError(err))
		return
	}

	records := filter.Dedup(filter.ByStatuses(h.shifts.All(), h.reference.AssignmentStatuses()))
	byDate := filter.InRange(records, rng)

	table, err := h.builder(req).MultiDate(roster, byDate, rng)
	if err != nil {
		metrics.RecordReport("multidate", false, time.Since(started))
		respondError(w, toAppError(err))
		return
	}

	metrics.RecordReport("multidate", true, time.Since(started))
	respondJSON(w, http.StatusOK, TableResponse{
		RunID: model.NewReportRun(rng).ID.String(),
		Table: table,
		Empty: table.Empty(),
	})
}

// OverviewResponse 总览响应
type OverviewResponse struct {
	Date    string                `json:"date"`
	Metrics model.OverviewMetrics `json:"metrics"`
	Orphans []string              `json:"orphans,omitempty"`
}

// Overview 单日总览指标
func (h *ReportHandler) Overview(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r, true)
	if !ok {
		return
	}

	roster, records, ok := h.materialize(r.Context(), w, model.Date(req.Date))
	if !ok {
		return
	}

	res, err := reconcile.Reconcile(roster, records, model.Date(req.Date))
	if err != nil {
		respondError(w, toAppError(err))
		return
	}

	respondJSON(w, http.StatusOK, OverviewResponse{
		Date:    req.Date,
		Metrics: report.Overview(res),
		Orphans: res.Orphans,
	})
}

// Daily 单日班次明细
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r, true)
	if !ok {
		return
	}

	roster, records, ok := h.materialize(r.Context(), w, model.Date(req.Date))
	if !ok {
		return
	}

	shifts := report.Daily(roster, records, model.Date(req.Date))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":   req.Date,
		"shifts": shifts,
		"count":  len(shifts),
	})
}

// Unassigned 单日未排班员工
func (h *ReportHandler) Unassigned(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r, true)
	if !ok {
		return
	}

	roster, records, ok := h.materialize(r.Context(), w, model.Date(req.Date))
	if !ok {
		return
	}

	res, err := reconcile.Reconcile(roster, records, model.Date(req.Date))
	if err != nil {
		respondError(w, toAppError(err))
		return
	}

	employees := reconcile.Unassigned(roster, res)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":      req.Date,
		"employees": employees,
		"count":     len(employees),
	})
}

// Pivot 合同×城市班次分布
func (h *ReportHandler) Pivot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}
	var req ReportRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
			return
		}
	}

	records := h.shifts.All()
	if req.Date != "" {
		records = filter.OnDate(records, model.Date(req.Date))
	}

	table := h.builder(&req).Pivot(records)
	respondJSON(w, http.StatusOK, TableResponse{
		RunID: uuid.New().String(),
		Table: table,
		Empty: table.Empty(),
	})
}

// NoShow 缺勤班次分布
func (h *ReportHandler) NoShow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}
	var req ReportRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
			return
		}
	}

	records := h.shifts.All()
	if req.Date != "" {
		records = filter.OnDate(records, model.Date(req.Date))
	}

	table := h.builder(&req).NoShowPivot(records)
	respondJSON(w, http.StatusOK, TableResponse{
		RunID: uuid.New().String(),
		Table: table,
		Empty: table.Empty(),
	})
}

// Status 班次状态分布
func (h *ReportHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}
	var req ReportRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
			return
		}
	}

	records := h.shifts.All()
	if req.Date != "" {
		records = filter.OnDate(records, model.Date(req.Date))
	}

	table := h.builder(&req).StatusPivot(records)
	respondJSON(w, http.StatusOK, TableResponse{
		RunID: uuid.New().String(),
		Table: table,
		Empty: table.Empty(),
	})
}

// parseRequest 解析报表请求，needDate为真时要求单日日期
func (h *ReportHandler) parseRequest(w http.ResponseWriter, r *http.Request, needDate bool) (*ReportRequest, bool) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return nil, false
	}

	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return nil, false
	}

	if needDate {
		if req.Date == "" {
			respondError(w, errors.New(errors.CodeInvalidInput, "缺少date字段"))
			return nil, false
		}
		if _, err := time.Parse(model.DateFormat, req.Date); err != nil {
			respondError(w, errors.DateParseFailed("date", req.Date))
			return nil, false
		}
	}

	return &req, true
}

// builder 按请求与默认配置组装报表构建器
func (h *ReportHandler) builder(req *ReportRequest) *report.Builder {
	grandTotal := h.cfg.GrandTotal
	if req.GrandTotal != nil {
		grandTotal = *req.GrandTotal
	}
	validate := h.cfg.ValidateContractCity
	if req.Validate != nil {
		validate = *req.Validate
	}

	opts := []report.Option{
		report.WithGrandTotal(grandTotal),
		report.WithCityOrder(h.reference.CityOrder()),
	}
	if validate {
		opts = append(opts, report.WithValidityFilter(h.reference.IsValidContractCity))
	}
	return report.NewBuilder(opts...)
}

// materialize 取出花名册和当日去重后的排班口径班次
func (h *ReportHandler) materialize(ctx context.Context, w http.ResponseWriter, date model.Date) (*model.Roster, []model.ShiftRecord, bool) {
	roster, err := h.requireRoster(ctx)
	if err != nil {
		respondError(w, toAppError(err))
		return nil, nil, false
	}

	records := filter.ByStatuses(h.shifts.All(), h.reference.AssignmentStatuses())
	records = filter.OnDate(records, date)
	records = filter.Dedup(records)
	return roster, records, true
}

func (h *ReportHandler) requireRoster(ctx context.Context) (*model.Roster, error) {
	roster, err := h.roster.Get(ctx)
	if err != nil {
		return nil, err
	}
	if roster == nil || roster.Len() == 0 {
		return nil, errors.ErrEmptyRoster
	}
	return roster, nil
}
