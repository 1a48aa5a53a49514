package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/riderops/riderops/internal/cache"
	"github.com/riderops/riderops/internal/metrics"
	"github.com/riderops/riderops/pkg/errors"
	"github.com/riderops/riderops/pkg/logger"
	"github.com/riderops/riderops/pkg/model"
	"github.com/riderops/riderops/pkg/reconcile"
)

// InactiveHandler 闲置检测处理器
type InactiveHandler struct {
	roster *cache.RosterCache
	shifts *cache.ShiftStore
}

// NewInactiveHandler 创建闲置检测处理器
func NewInactiveHandler(roster *cache.RosterCache, shifts *cache.ShiftStore) *InactiveHandler {
	return &InactiveHandler{roster: roster, shifts: shifts}
}

// InactiveRequest 闲置检测请求
type InactiveRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// InactiveResponse 闲置检测响应
type InactiveResponse struct {
	State            string           `json:"state"`
	Range            model.DateRange  `json:"range"`
	Inactive         []model.Employee `json:"inactive"`
	InactiveCount    int              `json:"inactive_count"`
	ActiveCount      int              `json:"active_count"`
	SourcesOK        []string         `json:"sources_ok"`
	SourcesFailed    []string         `json:"sources_failed,omitempty"`
	AllSourcesFailed bool             `json:"all_sources_failed,omitempty"`
	Warning          string           `json:"warning,omitempty"`
}

// Check 执行闲置检测。
// 区间内在任一来源出现过非缺勤班次的员工算活跃。
func (h *InactiveHandler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req InactiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	rng := model.DateRange{StartDate: model.Date(req.StartDate), EndDate: model.Date(req.EndDate)}
	if !rng.Valid() {
		respondError(w, errors.InvalidDateRange(req.StartDate, req.EndDate))
		return
	}

	started := time.Now()
	detector := reconcile.NewDetector(h.shifts.ActivitySources()...)
	fetchRoster := func(ctx context.Context) (*model.Roster, error) {
		roster, err := h.roster.Get(ctx)
		if err != nil {
			return nil, err
		}
		if roster == nil {
			return nil, errors.ErrEmptyRoster
		}
		return roster, nil
	}

	result, err := detector.Run(r.Context(), fetchRoster, rng)
	if err != nil {
		metrics.RecordReport("inactive", false, time.Since(started))
		respondError(w, toAppError(err))
		return
	}

	for _, name := range result.SourcesFailed {
		metrics.RecordSourceFailure(name)
	}
	metrics.RecordReport("inactive", true, time.Since(started))
	metrics.SetInactiveEmployees(len(result.Inactive))

	logger.Info().
		Str("state", detector.State().String()).
		Int("inactive", len(result.Inactive)).
		Int("active", result.ActiveCount).
		Dur("duration", time.Since(started)).
		Msg("闲置检测完成")

	resp := InactiveResponse{
		State:            detector.State().String(),
		Range:            result.Range,
		Inactive:         result.Inactive,
		InactiveCount:    len(result.Inactive),
		ActiveCount:      result.ActiveCount,
		SourcesOK:        result.SourcesOK,
		SourcesFailed:    result.SourcesFailed,
		AllSourcesFailed: result.AllSourcesFailed,
	}
	if result.AllSourcesFailed {
		resp.Warning = "所有活跃来源均失败，闲置结果覆盖整册，仅供排查"
	}

	respondJSON(w, http.StatusOK, resp)
}
