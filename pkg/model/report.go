// Package model 定义对账引擎的核心数据模型
package model

import "math"

// GrandTotalLabel 汇总行的标签
const GrandTotalLabel = "Grand Total"

// ReportRow 分组报表行
type ReportRow struct {
	Contract   string  `json:"contract,omitempty"`
	City       string  `json:"city,omitempty"`
	Date       Date    `json:"date,omitempty"`
	Total      int     `json:"total"`
	Assigned   int     `json:"assigned"`
	Unassigned int     `json:"unassigned"`
	Percentage float64 `json:"percentage"`
}

// IsGrandTotal 检查是否为汇总行
func (r *ReportRow) IsGrandTotal() bool {
	return r.Contract == GrandTotalLabel || r.City == GrandTotalLabel
}

// Percentage 计算出勤率：round(assigned/total*100, 2)，total为0时返回0
func Percentage(assigned, total int) float64 {
	if total <= 0 {
		return 0.0
	}
	return math.Round(float64(assigned)/float64(total)*100*100) / 100
}

// ReportTable 报表（有序列名 + 行集合），供展示层和CSV导出消费
type ReportTable struct {
	Title   string     `json:"title,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Empty 检查报表是否无数据行
func (t *ReportTable) Empty() bool {
	return len(t.Rows) == 0
}

// AddRow 追加一行，列数不足时补空串
func (t *ReportTable) AddRow(cells ...string) {
	for len(cells) < len(t.Columns) {
		cells = append(cells, "")
	}
	t.Rows = append(t.Rows, cells)
}

// OverviewMetrics 总览指标
type OverviewMetrics struct {
	TotalEmployees  int     `json:"total_employees"`
	TotalAssigned   int     `json:"total_assigned"`
	TotalUnassigned int     `json:"total_unassigned"`
	OverallRate     float64 `json:"overall_rate"`
}
