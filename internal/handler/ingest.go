// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/riderops/riderops/internal/cache"
	"github.com/riderops/riderops/internal/metrics"
	"github.com/riderops/riderops/internal/source"
	"github.com/riderops/riderops/pkg/errors"
	"github.com/riderops/riderops/pkg/logger"
	"github.com/riderops/riderops/pkg/schema"
)

// IngestHandler 数据接入处理器
type IngestHandler struct {
	roster         *cache.RosterCache
	shifts         *cache.ShiftStore
	normalizer     *schema.Normalizer
	maxUploadBytes int64
}

// NewIngestHandler 创建数据接入处理器
func NewIngestHandler(roster *cache.RosterCache, shifts *cache.ShiftStore, normalizer *schema.Normalizer, maxUploadBytes int64) *IngestHandler {
	return &IngestHandler{
		roster:         roster,
		shifts:         shifts,
		normalizer:     normalizer,
		maxUploadBytes: maxUploadBytes,
	}
}

// ShiftUploadResponse 班次上传响应
type ShiftUploadResponse struct {
	Accepted []AcceptedFile `json:"accepted"`
	Skipped  []SkippedFile  `json:"skipped,omitempty"`
	Total    int            `json:"total_records"`
}

// AcceptedFile 成功接入的文件
type AcceptedFile struct {
	Name    string `json:"name"`
	Records int    `json:"records"`
}

// SkippedFile 被跳过的文件及原因
type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// UploadShifts 接入班次文件。
// 一次请求可带多个文件，单个文件解析失败只跳过该文件。
func (h *IngestHandler) UploadShifts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析上传表单失败"))
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		respondError(w, errors.New(errors.CodeInvalidInput, "没有上传任何文件"))
		return
	}

	resp := ShiftUploadResponse{}
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			resp.Skipped = append(resp.Skipped, SkippedFile{Name: fh.Filename, Reason: err.Error()})
			metrics.RecordIngest("shifts", false, 0)
			continue
		}

		table, err := source.ReadTable(fh.Filename, f)
		f.Close()
		if err != nil {
			h.skipFile(&resp, fh.Filename, err)
			continue
		}

		records, err := h.normalizer.NormalizeShifts(table)
		if err != nil {
			h.skipFile(&resp, fh.Filename, err)
			continue
		}

		h.shifts.Put(fh.Filename, records)
		resp.Accepted = append(resp.Accepted, AcceptedFile{Name: fh.Filename, Records: len(records)})
		resp.Total += len(records)
		metrics.RecordIngest("shifts", true, len(records))
	}

	metrics.SetShiftRecords(h.shifts.Count())

	if len(resp.Accepted) == 0 {
		respondError(w, errors.New(errors.CodeSourceUnavailable, "所有文件均接入失败").
			WithField("skipped", resp.Skipped))
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *IngestHandler) skipFile(resp *ShiftUploadResponse, name string, err error) {
	logger.Warn().Err(err).Str("file", name).Msg("文件接入失败，跳过")
	resp.Skipped = append(resp.Skipped, SkippedFile{Name: name, Reason: err.Error()})
	metrics.RecordIngest("shifts", false, 0)
	metrics.RecordSourceFailure(name)
}

// RosterResponse 花名册响应
type RosterResponse struct {
	Employees int       `json:"employees"`
	Contracts []string  `json:"contracts"`
	Cities    []string  `json:"cities"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Roster 花名册接入。
// POST上传文件覆盖缓存，DELETE失效缓存。
func (h *IngestHandler) Roster(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.uploadRoster(w, r)
	case http.MethodDelete:
		h.roster.Invalidate()
		metrics.SetRosterSize(0)
		respondJSON(w, http.StatusOK, map[string]string{"state": string(h.roster.State())})
	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST和DELETE方法"))
	}
}

func (h *IngestHandler) uploadRoster(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析上传表单失败"))
		return
	}

	f, fh, err := r.FormFile("file")
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "缺少file字段"))
		return
	}
	defer f.Close()

	table, err := source.ReadTable(fh.Filename, f)
	if err != nil {
		metrics.RecordIngest("roster", false, 0)
		respondError(w, toAppError(err))
		return
	}

	roster, err := h.normalizer.NormalizeEmployees(table)
	if err != nil {
		metrics.RecordIngest("roster", false, 0)
		respondError(w, toAppError(err))
		return
	}
	if roster.Len() == 0 {
		metrics.RecordIngest("roster", false, 0)
		respondError(w, errors.ErrEmptyRoster)
		return
	}

	h.roster.Set(roster)
	metrics.RecordIngest("roster", true, roster.Len())
	metrics.SetRosterSize(roster.Len())

	logger.Info().
		Str("file", fh.Filename).
		Int("employees", roster.Len()).
		Msg("花名册已更新")

	respondJSON(w, http.StatusOK, RosterResponse{
		Employees: roster.Len(),
		Contracts: roster.Contracts(),
		Cities:    roster.Cities(),
		FetchedAt: h.roster.FetchedAt(),
	})
}

// StatusResponse 接入状态响应
type StatusResponse struct {
	RosterState  string    `json:"roster_state"`
	Employees    int       `json:"employees"`
	ShiftSources []string  `json:"shift_sources"`
	ShiftRecords int       `json:"shift_records"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// Status 返回接入状态
func (h *IngestHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	resp := StatusResponse{
		RosterState:  string(h.roster.State()),
		ShiftSources: h.shifts.Sources(),
		ShiftRecords: h.shifts.Count(),
		UpdatedAt:    h.shifts.UpdatedAt(),
	}
	if roster, err := h.roster.Get(r.Context()); err == nil && roster != nil {
		resp.Employees = roster.Len()
	}

	respondJSON(w, http.StatusOK, resp)
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
	})
}

// toAppError 把任意错误转成应用错误
func toAppError(err error) *errors.AppError {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return errors.Wrap(err, errors.CodeInternal, "内部错误")
}
