// Package report 将对账结果组装为分组报表与导出表格
package report

import (
	"sort"

	"github.com/riderops/riderops/pkg/errors"
	"github.com/riderops/riderops/pkg/model"
	"github.com/riderops/riderops/pkg/reconcile"
)

// Builder 报表构建器
type Builder struct {
	grandTotal bool
	validCombo func(contract, city string) bool
	cityOrder  []string
}

// Option 构建器选项
type Option func(*Builder)

// WithGrandTotal 控制是否附加汇总行
func WithGrandTotal(enabled bool) Option {
	return func(b *Builder) {
		b.grandTotal = enabled
	}
}

// WithValidityFilter 设置合同×城市有效性判定，无效组合从交叉报表中剔除
func WithValidityFilter(fn func(contract, city string) bool) Option {
	return func(b *Builder) {
		b.validCombo = fn
	}
}

// WithCityOrder 设置交叉报表的城市展示顺序，未列出的城市排在其后
func WithCityOrder(order []string) Option {
	return func(b *Builder) {
		b.cityOrder = order
	}
}

// NewBuilder 创建报表构建器，默认附加汇总行、不做有效性过滤
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{grandTotal: true}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ByContract 按合同分组对账，行按合同名排序
func (b *Builder) ByContract(roster *model.Roster, records []model.ShiftRecord, date model.Date) ([]model.ReportRow, error) {
	return b.grouped(roster, records, date, func(e model.Employee) string { return e.Contract }, func(row *model.ReportRow, key string) {
		row.Contract = key
	})
}

// ByCity 按城市分组对账，行按城市名排序
func (b *Builder) ByCity(roster *model.Roster, records []model.ShiftRecord, date model.Date) ([]model.ReportRow, error) {
	return b.grouped(roster, records, date, func(e model.Employee) string { return e.City }, func(row *model.ReportRow, key string) {
		row.City = key
	})
}

func (b *Builder) grouped(roster *model.Roster, records []model.ShiftRecord, date model.Date, keyOf func(model.Employee) string, setKey func(*model.ReportRow, string)) ([]model.ReportRow, error) {
	if roster == nil || roster.Len() == 0 {
		return nil, errors.ErrEmptyRoster
	}

	res, err := reconcile.Reconcile(roster, records, date)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		total    int
		assigned int
	}
	buckets := make(map[string]*bucket)
	for _, id := range rosterIDs(roster) {
		emp, _ := roster.Get(id)
		key := keyOf(emp)
		bk := buckets[key]
		if bk == nil {
			bk = &bucket{}
			buckets[key] = bk
		}
		bk.total++
		if res.IsAssigned(id) {
			bk.assigned++
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]model.ReportRow, 0, len(keys)+1)
	for _, k := range keys {
		bk := buckets[k]
		row := model.ReportRow{
			Date:       date,
			Total:      bk.total,
			Assigned:   bk.assigned,
			Unassigned: bk.total - bk.assigned,
			Percentage: model.Percentage(bk.assigned, bk.total),
		}
		setKey(&row, k)
		rows = append(rows, row)
	}

	if b.grandTotal {
		row := grandTotalRow(rows)
		row.Date = date
		setKey(&row, model.GrandTotalLabel)
		rows = append(rows, row)
	}

	return rows, nil
}

// Cross 按合同×城市交叉对账。
// 配置了有效性判定时，无效组合整行剔除，其员工不计入汇总。
func (b *Builder) Cross(roster *model.Roster, records []model.ShiftRecord, date model.Date) ([]model.ReportRow, error) {
	if roster == nil || roster.Len() == 0 {
		return nil, errors.ErrEmptyRoster
	}

	res, err := reconcile.Reconcile(roster, records, date)
	if err != nil {
		return nil, err
	}

	type combo struct {
		contract string
		city     string
	}
	type bucket struct {
		total    int
		assigned int
	}
	buckets := make(map[combo]*bucket)
	for _, id := range rosterIDs(roster) {
		emp, _ := roster.Get(id)
		c := combo{emp.Contract, emp.City}
		if b.validCombo != nil && !b.validCombo(c.contract, c.city) {
			continue
		}
		bk := buckets[c]
		if bk == nil {
			bk = &bucket{}
			buckets[c] = bk
		}
		bk.total++
		if res.IsAssigned(id) {
			bk.assigned++
		}
	}

	combos := make([]combo, 0, len(buckets))
	for c := range buckets {
		combos = append(combos, c)
	}
	cityRank := b.cityRank()
	sort.Slice(combos, func(i, j int) bool {
		if combos[i].contract != combos[j].contract {
			return combos[i].contract < combos[j].contract
		}
		ri, rj := cityRank(combos[i].city), cityRank(combos[j].city)
		if ri != rj {
			return ri < rj
		}
		return combos[i].city < combos[j].city
	})

	rows := make([]model.ReportRow, 0, len(combos)+1)
	for _, c := range combos {
		bk := buckets[c]
		rows = append(rows, model.ReportRow{
			Contract:   c.contract,
			City:       c.city,
			Date:       date,
			Total:      bk.total,
			Assigned:   bk.assigned,
			Unassigned: bk.total - bk.assigned,
			Percentage: model.Percentage(bk.assigned, bk.total),
		})
	}

	if b.grandTotal {
		row := grandTotalRow(rows)
		row.Date = date
		row.Contract = model.GrandTotalLabel
		rows = append(rows, row)
	}

	return rows, nil
}

// Overview 由单日对账结果计算总览指标
func Overview(res *reconcile.Result) model.OverviewMetrics {
	return model.OverviewMetrics{
		TotalEmployees:  res.Total,
		TotalAssigned:   res.Assigned,
		TotalUnassigned: res.Unassigned,
		OverallRate:     res.Rate,
	}
}

// 汇总行由各分组行的和重新计算，不平均各行比率
func grandTotalRow(rows []model.ReportRow) model.ReportRow {
	var total, assigned int
	for _, r := range rows {
		total += r.Total
		assigned += r.Assigned
	}
	return model.ReportRow{
		Total:      total,
		Assigned:   assigned,
		Unassigned: total - assigned,
		Percentage: model.Percentage(assigned, total),
	}
}

func (b *Builder) cityRank() func(string) int {
	if len(b.cityOrder) == 0 {
		return func(string) int { return 0 }
	}
	rank := make(map[string]int, len(b.cityOrder))
	for i, c := range b.cityOrder {
		rank[c] = i
	}
	return func(city string) int {
		if r, ok := rank[city]; ok {
			return r
		}
		return len(rank)
	}
}

func rosterIDs(roster *model.Roster) []string {
	ids := make([]string, 0, roster.Len())
	for id := range roster.IDs() {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
