// Package filter 按状态与日期筛选班次记录
package filter

import (
	"sort"
	"strings"

	"github.com/riderops/riderops/pkg/model"
)

// Policy 状态取舍口径
type Policy string

const (
	// PolicyAssignment 排班口径：只认计入排班的终态
	PolicyAssignment Policy = "assignment"
	// PolicyActivity 活跃口径：除未到岗外全部计入
	PolicyActivity Policy = "activity"
)

// Keep 判断状态在该口径下是否保留
func (p Policy) Keep(status model.ShiftStatus) bool {
	switch p {
	case PolicyActivity:
		return status.CountsAsActivity()
	default:
		return status.CountsAsAssignment()
	}
}

// ByPolicy 按口径筛选班次
func ByPolicy(records []model.ShiftRecord, p Policy) []model.ShiftRecord {
	out := make([]model.ShiftRecord, 0, len(records))
	for _, rec := range records {
		if p.Keep(rec.Status) {
			out = append(out, rec)
		}
	}
	return out
}

// ByStatuses 按指定状态集合筛选班次，状态匹配不区分大小写
func ByStatuses(records []model.ShiftRecord, statuses []string) []model.ShiftRecord {
	set := make(map[string]struct{}, len(statuses))
	for _, s := range statuses {
		set[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}

	out := make([]model.ShiftRecord, 0, len(records))
	for _, rec := range records {
		if _, ok := set[string(rec.Status)]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// OnDate 筛选计划日期为指定日历日的班次
func OnDate(records []model.ShiftRecord, date model.Date) []model.ShiftRecord {
	out := make([]model.ShiftRecord, 0, len(records))
	for _, rec := range records {
		if rec.OnDate(date) {
			out = append(out, rec)
		}
	}
	return out
}

// InRange 按计划日期把区间内的班次分组，键为日历日。
// 区间外或无计划日期的班次不计入。
func InRange(records []model.ShiftRecord, rng model.DateRange) map[model.Date][]model.ShiftRecord {
	out := make(map[model.Date][]model.ShiftRecord)
	for _, rec := range records {
		if !rec.HasPlannedDate() {
			continue
		}
		if !rng.Contains(rec.PlannedStartDate) {
			continue
		}
		out[rec.PlannedStartDate] = append(out[rec.PlannedStartDate], rec)
	}
	return out
}

// Dedup 每个员工每个日历日只保留一条班次，取计划开始时刻最早的一条。
// 无时刻的班次排在有时刻的之后，同刻保持输入顺序。
func Dedup(records []model.ShiftRecord) []model.ShiftRecord {
	sorted := make([]model.ShiftRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return clockRank(sorted[i].PlannedStartTime) < clockRank(sorted[j].PlannedStartTime)
	})

	type key struct {
		id   string
		date model.Date
	}
	seen := make(map[key]struct{}, len(sorted))
	out := make([]model.ShiftRecord, 0, len(sorted))
	for _, rec := range sorted {
		k := key{rec.EmployeeID, rec.PlannedStartDate}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// 无时刻按一天之后排序
func clockRank(clock string) string {
	if clock == "" {
		return "99:99"
	}
	return clock
}
