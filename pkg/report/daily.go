package report

import (
	"sort"

	"github.com/riderops/riderops/pkg/model"
	"github.com/riderops/riderops/pkg/reconcile"
)

// DailyShift 单日班次明细行，班次记录与花名册信息的拼接
type DailyShift struct {
	EmployeeID string            `json:"employee_id"`
	Name       string            `json:"name"`
	Contract   string            `json:"contract"`
	City       string            `json:"city"`
	Status     model.ShiftStatus `json:"status"`
	StartTime  string            `json:"start_time,omitempty"`
	EndTime    string            `json:"end_time,omitempty"`
}

// Daily 生成单日班次明细，按城市和员工编号排序。
// 花名册外的陌生编号不列出。
func Daily(roster *model.Roster, records []model.ShiftRecord, date model.Date) []DailyShift {
	out := make([]DailyShift, 0, len(records))
	for _, rec := range records {
		if !rec.OnDate(date) {
			continue
		}
		emp, ok := roster.Get(rec.EmployeeID)
		if !ok {
			continue
		}
		out = append(out, DailyShift{
			EmployeeID: rec.EmployeeID,
			Name:       emp.Name,
			Contract:   emp.Contract,
			City:       emp.City,
			Status:     rec.Status,
			StartTime:  rec.PlannedStartTime,
			EndTime:    rec.PlannedEndTime,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].City != out[j].City {
			return out[i].City < out[j].City
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}

// UnassignedTable 把当日未排班员工组装为导出表格
func UnassignedTable(roster *model.Roster, res *reconcile.Result) *model.ReportTable {
	table := &model.ReportTable{
		Title:   "Unassigned Employees " + string(res.Date),
		Columns: []string{"Employee ID", "Name", "Contract", "City", "Supervisor"},
	}
	for _, emp := range reconcile.Unassigned(roster, res) {
		table.AddRow(emp.ID, emp.Name, emp.Contract, emp.City, emp.Supervisor)
	}
	return table
}
