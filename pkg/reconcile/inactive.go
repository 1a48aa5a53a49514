package reconcile

import (
	"context"
	"sync"

	"github.com/riderops/riderops/pkg/errors"
	"github.com/riderops/riderops/pkg/filter"
	"github.com/riderops/riderops/pkg/logger"
	"github.com/riderops/riderops/pkg/model"
)

// ActivitySource 活跃数据来源，通常对应一个城市的班次导出
type ActivitySource interface {
	Name() string
	Fetch(ctx context.Context, rng model.DateRange) ([]model.ShiftRecord, error)
}

// DetectorState 闲置检测的运行状态
type DetectorState int

const (
	StateNotStarted DetectorState = iota
	StateFetchingRoster
	StateFetchingActivity
	StateReconciling
	StateDone
	StateFailed
)

// String 返回状态名
func (s DetectorState) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateFetchingRoster:
		return "fetching_roster"
	case StateFetchingActivity:
		return "fetching_activity"
	case StateReconciling:
		return "reconciling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InactiveReport 闲置检测结果
type InactiveReport struct {
	Range            model.DateRange  `json:"range"`
	Inactive         []model.Employee `json:"inactive"`
	ActiveCount      int              `json:"active_count"`
	SourcesOK        []string         `json:"sources_ok"`
	SourcesFailed    []string         `json:"sources_failed"`
	AllSourcesFailed bool             `json:"all_sources_failed"`
}

// Detector 闲置员工检测器。
// 花名册获取失败是致命错误，单个活跃来源失败只做降级。
type Detector struct {
	mu      sync.Mutex
	state   DetectorState
	sources []ActivitySource
	log     *logger.ReportLogger
}

// NewDetector 创建检测器
func NewDetector(sources ...ActivitySource) *Detector {
	return &Detector{state: StateNotStarted, sources: sources, log: logger.NewReportLogger()}
}

// State 返回当前运行状态
func (d *Detector) State() DetectorState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Detector) setState(s DetectorState) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// Run 执行一次闲置检测。
// 区间内在任一来源出现过非缺勤班次的员工算活跃，其余算闲置。
// 所有来源都失败时结果仍产出，但整册都会被标为闲置，调用方需留意告警位。
func (d *Detector) Run(ctx context.Context, fetchRoster func(context.Context) (*model.Roster, error), rng model.DateRange) (*InactiveReport, error) {
	if !rng.Valid() {
		return nil, errors.InvalidDateRange(string(rng.StartDate), string(rng.EndDate))
	}

	d.setState(StateFetchingRoster)
	roster, err := fetchRoster(ctx)
	if err != nil {
		d.setState(StateFailed)
		return nil, errors.Wrap(err, errors.CodeSourceUnavailable, "花名册获取失败")
	}
	if roster == nil || roster.Len() == 0 {
		d.setState(StateFailed)
		return nil, errors.ErrEmptyRoster
	}

	d.setState(StateFetchingActivity)
	active := make(map[string]struct{})
	report := &InactiveReport{Range: rng}
	for _, src := range d.sources {
		records, err := src.Fetch(ctx, rng)
		if err != nil {
			d.log.SourceSkipped(src.Name(), err.Error())
			report.SourcesFailed = append(report.SourcesFailed, src.Name())
			continue
		}
		report.SourcesOK = append(report.SourcesOK, src.Name())
		for _, rec := range filter.ByPolicy(records, filter.PolicyActivity) {
			date := rec.ActivityDate()
			if date == "" || !rng.Contains(date) {
				continue
			}
			active[rec.EmployeeID] = struct{}{}
		}
	}

	d.setState(StateReconciling)
	report.AllSourcesFailed = len(d.sources) > 0 && len(report.SourcesOK) == 0
	if report.AllSourcesFailed {
		logger.Warn().
			Int("sources", len(d.sources)).
			Msg("所有活跃来源均失败，整册将被标为闲置")
	}

	for _, id := range sortedIDs(roster) {
		if _, ok := active[id]; ok {
			continue
		}
		if emp, ok := roster.Get(id); ok {
			report.Inactive = append(report.Inactive, emp)
		}
	}
	report.ActiveCount = roster.Len() - len(report.Inactive)

	d.setState(StateDone)
	return report, nil
}
