// Package reconcile 提供花名册与班次的对账引擎
package reconcile

import (
	"sort"

	"github.com/riderops/riderops/pkg/errors"
	"github.com/riderops/riderops/pkg/model"
)

// Result 单个日历日的对账结果
type Result struct {
	Date        model.Date          `json:"date"`
	Total       int                 `json:"total"`
	Assigned    int                 `json:"assigned"`
	Unassigned  int                 `json:"unassigned"`
	Rate        float64             `json:"rate"`
	AssignedIDs map[string]struct{} `json:"-"`
	// 班次中出现但不在花名册里的员工编号，不计入统计
	Orphans []string `json:"orphans,omitempty"`
}

// IsAssigned 检查员工当日是否已排班
func (r *Result) IsAssigned(employeeID string) bool {
	_, ok := r.AssignedIDs[employeeID]
	return ok
}

// Reconcile 以花名册为准对账单日班次。
// 总数取花名册人数，排班数取花名册与班次员工的交集，
// 班次里的陌生编号记入Orphans但不影响比率。
func Reconcile(roster *model.Roster, records []model.ShiftRecord, date model.Date) (*Result, error) {
	if roster == nil || roster.Len() == 0 {
		return nil, errors.ErrEmptyRoster
	}

	ids := roster.IDs()
	assigned := make(map[string]struct{})
	orphanSet := make(map[string]struct{})
	for _, rec := range records {
		if _, ok := ids[rec.EmployeeID]; ok {
			assigned[rec.EmployeeID] = struct{}{}
		} else {
			orphanSet[rec.EmployeeID] = struct{}{}
		}
	}

	orphans := make([]string, 0, len(orphanSet))
	for id := range orphanSet {
		orphans = append(orphans, id)
	}
	sort.Strings(orphans)

	total := roster.Len()
	return &Result{
		Date:        date,
		Total:       total,
		Assigned:    len(assigned),
		Unassigned:  total - len(assigned),
		Rate:        model.Percentage(len(assigned), total),
		AssignedIDs: assigned,
		Orphans:     orphans,
	}, nil
}

// Range 逐日对账区间内的班次，byDate以日历日为键。
// 没有班次的日历日也产出结果，排班数为零。
func Range(roster *model.Roster, byDate map[model.Date][]model.ShiftRecord, rng model.DateRange) ([]*Result, error) {
	if !rng.Valid() {
		return nil, errors.InvalidDateRange(string(rng.StartDate), string(rng.EndDate))
	}

	dates := rng.Dates()
	results := make([]*Result, 0, len(dates))
	for _, d := range dates {
		res, err := Reconcile(roster, byDate[d], d)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Unassigned 返回花名册中当日未排班的员工，按编号排序
func Unassigned(roster *model.Roster, res *Result) []model.Employee {
	out := make([]model.Employee, 0, res.Unassigned)
	for _, id := range sortedIDs(roster) {
		if res.IsAssigned(id) {
			continue
		}
		if emp, ok := roster.Get(id); ok {
			out = append(out, emp)
		}
	}
	return out
}

func sortedIDs(roster *model.Roster) []string {
	ids := make([]string, 0, roster.Len())
	for id := range roster.IDs() {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
