// Package model 定义对账引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// Date 日历日期（YYYY-MM-DD），丢弃时分秒后按字符串比较即可排序
type Date = string

// DateFormat 日期的规范格式
const DateFormat = "2006-01-02"

// DateRange 日期范围
type DateRange struct {
	StartDate Date `json:"start_date"` // YYYY-MM-DD
	EndDate   Date `json:"end_date"`   // YYYY-MM-DD
}

// Valid 检查范围是否有效
func (dr DateRange) Valid() bool {
	if _, err := time.Parse(DateFormat, dr.StartDate); err != nil {
		return false
	}
	if _, err := time.Parse(DateFormat, dr.EndDate); err != nil {
		return false
	}
	return dr.StartDate <= dr.EndDate
}

// Contains 检查日期是否落在范围内（含边界）
func (dr DateRange) Contains(d Date) bool {
	return d >= dr.StartDate && d <= dr.EndDate
}

// Dates 展开范围内的全部日期，升序
func (dr DateRange) Dates() []Date {
	start, err1 := time.Parse(DateFormat, dr.StartDate)
	end, err2 := time.Parse(DateFormat, dr.EndDate)
	if err1 != nil || err2 != nil || end.Before(start) {
		return nil
	}

	var dates []Date
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateFormat))
	}
	return dates
}

// SingleDate 构造只含一天的范围
func SingleDate(d Date) DateRange {
	return DateRange{StartDate: d, EndDate: d}
}

// ReportRun 一次报表运行的元信息
type ReportRun struct {
	ID        uuid.UUID `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Dates     DateRange `json:"dates"`
}

// NewReportRun 创建报表运行
func NewReportRun(dates DateRange) ReportRun {
	return ReportRun{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Dates:     dates,
	}
}
