// Package schema 将来源各异的表格归一为规范字段
package schema

import "strings"

// 规范字段名
const (
	FieldEmployeeID       = "employee_id"
	FieldEmployeeName     = "employee_name"
	FieldContractName     = "contract_name"
	FieldCity             = "city"
	FieldSupervisor       = "supervisor"
	FieldShiftStatus      = "shift_status"
	FieldPlannedStartDate = "planned_start_date"
	FieldPlannedEndDate   = "planned_end_date"
	FieldActualStartDate  = "actual_start_date"
	FieldPlannedStartTime = "planned_start_time"
	FieldPlannedEndTime   = "planned_end_time"
)

// FieldSpec 规范字段及其别名，别名需预先归一
type FieldSpec struct {
	Canonical string
	Aliases   []string
}

// 花名册必填字段
var EmployeeRequired = []string{
	FieldEmployeeID, FieldEmployeeName, FieldContractName, FieldCity,
}

// 班次必填字段
var ShiftRequired = []string{
	FieldEmployeeID, FieldShiftStatus, FieldPlannedStartDate,
}

// 花名册字段别名表
var EmployeeSpecs = []FieldSpec{
	{FieldEmployeeID, []string{"employeeid", "empid", "riderid", "courierid", "staffid", "id"}},
	{FieldEmployeeName, []string{"employeename", "ridername", "couriername", "fullname", "name"}},
	{FieldContractName, []string{"contractname", "contract", "project", "projectname"}},
	{FieldCity, []string{"city", "location", "area"}},
	{FieldSupervisor, []string{"supervisor", "teamleader", "manager", "captain"}},
}

// 班次字段别名表
var ShiftSpecs = []FieldSpec{
	{FieldEmployeeID, []string{"employeeid", "empid", "riderid", "courierid", "staffid", "id"}},
	{FieldShiftStatus, []string{"shiftstatus", "status", "state"}},
	{FieldPlannedStartDate, []string{"plannedstartdate", "shiftdate", "startdate", "planneddate", "date"}},
	{FieldPlannedEndDate, []string{"plannedenddate", "enddate"}},
	{FieldActualStartDate, []string{"actualstartdate", "actualdate", "checkindate"}},
	{FieldPlannedStartTime, []string{"plannedstarttime", "starttime", "shiftstart"}},
	{FieldPlannedEndTime, []string{"plannedendtime", "endtime", "shiftend"}},
	{FieldContractName, []string{"contractname", "contract", "project", "projectname"}},
	{FieldCity, []string{"city", "location", "area"}},
}

// NormalizeHeader 归一表头写法：小写并剔除空格、下划线、连字符与BOM
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\uFEFF")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, h)
}

// InferMappings 推断规范字段到列下标的映射。
// 先做精确匹配，再做子串匹配，同名冲突时先到先得。
func InferMappings(headers []string, specs []FieldSpec) map[string]int {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	mappings := make(map[string]int)
	claimed := make(map[int]bool)

	// 精确匹配
	for _, spec := range specs {
		for i, h := range normalized {
			if claimed[i] || h == "" {
				continue
			}
			if matchExact(h, spec.Aliases) {
				mappings[spec.Canonical] = i
				claimed[i] = true
				break
			}
		}
	}

	// 子串匹配兜底
	for _, spec := range specs {
		if _, ok := mappings[spec.Canonical]; ok {
			continue
		}
		for i, h := range normalized {
			if claimed[i] || h == "" {
				continue
			}
			if matchSubstring(h, spec.Aliases) {
				mappings[spec.Canonical] = i
				claimed[i] = true
				break
			}
		}
	}

	return mappings
}

func matchExact(header string, aliases []string) bool {
	for _, a := range aliases {
		if header == a {
			return true
		}
	}
	return false
}

func matchSubstring(header string, aliases []string) bool {
	for _, a := range aliases {
		// 过短的别名子串匹配过于宽泛
		if len(a) < 4 {
			continue
		}
		if strings.Contains(header, a) {
			return true
		}
	}
	return false
}

// MissingRequired 返回映射中缺失的必填字段
func MissingRequired(mappings map[string]int, required []string) []string {
	var missing []string
	for _, field := range required {
		if _, ok := mappings[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}
