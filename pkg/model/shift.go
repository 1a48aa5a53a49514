// Package model 定义对账引擎的核心数据模型
package model

import "strings"

// ShiftStatus 班次状态（源文件中的自由文本，规范化为已知枚举或原样保留）
type ShiftStatus string

const (
	StatusEvaluated ShiftStatus = "EVALUATED"
	StatusPublished ShiftStatus = "PUBLISHED"
)

// CountsAsAssignment 检查该状态是否计入出勤（标准报表口径）
func (s ShiftStatus) CountsAsAssignment() bool {
	return s == StatusEvaluated || s == StatusPublished
}

// IsNoShow 检查状态文本是否为缺勤变体
// 用子串匹配以兼容 NO_SHOW(UNEXCUSED)、NO-SHOW-EXCUSED 等写法
func (s ShiftStatus) IsNoShow() bool {
	upper := strings.ToUpper(string(s))
	return strings.Contains(upper, "NO") && strings.Contains(upper, "SHOW")
}

// CountsAsActivity 检查该状态是否计入活跃（仅排除缺勤变体，闲置检测口径）
// 注意：与 CountsAsAssignment 是两套不同的过滤策略，不可混用
func (s ShiftStatus) CountsAsActivity() bool {
	return !s.IsNoShow()
}

// ShiftRecord 单条班次记录（一个城市导出文件中的一行）
type ShiftRecord struct {
	EmployeeID       string      `json:"employee_id"`
	Status           ShiftStatus `json:"shift_status"`
	PlannedStartDate Date        `json:"planned_start_date"` // YYYY-MM-DD，空串表示解析失败
	PlannedEndDate   Date        `json:"planned_end_date,omitempty"`
	ActualStartDate  Date        `json:"actual_start_date,omitempty"`
	PlannedStartTime string      `json:"planned_start_time,omitempty"` // HH:MM
	PlannedEndTime   string      `json:"planned_end_time,omitempty"`   // HH:MM
	Contract         string      `json:"contract_name,omitempty"`
	City             string      `json:"city,omitempty"`
	SourceFile       string      `json:"source_file,omitempty"`
}

// HasPlannedDate 检查计划开始日期是否解析成功
func (s *ShiftRecord) HasPlannedDate() bool {
	return s.PlannedStartDate != ""
}

// OnDate 检查班次是否在指定日期（仅比较日历日）
func (s *ShiftRecord) OnDate(d Date) bool {
	return s.PlannedStartDate == d
}

// ActivityDate 返回活跃性判定使用的日期：优先计划日期，其次实际日期
func (s *ShiftRecord) ActivityDate() Date {
	if s.PlannedStartDate != "" {
		return s.PlannedStartDate
	}
	return s.ActualStartDate
}
