package report

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/riderops/riderops/pkg/errors"
	"github.com/riderops/riderops/pkg/model"
)

// MultiDate 生成区间内逐日的合同报表。
// 每个日历日占三列：排班数、未排班数、比率，列名带日期标签。
func (b *Builder) MultiDate(roster *model.Roster, byDate map[model.Date][]model.ShiftRecord, rng model.DateRange) (*model.ReportTable, error) {
	if !rng.Valid() {
		return nil, errors.InvalidDateRange(string(rng.StartDate), string(rng.EndDate))
	}

	dates := rng.Dates()
	inner := NewBuilder(WithGrandTotal(false))

	perDate := make(map[model.Date]map[string]model.ReportRow, len(dates))
	contractSet := make(map[string]struct{})
	for _, d := range dates {
		rows, err := inner.ByContract(roster, byDate[d], d)
		if err != nil {
			return nil, err
		}
		m := make(map[string]model.ReportRow, len(rows))
		for _, r := range rows {
			m[r.Contract] = r
			contractSet[r.Contract] = struct{}{}
		}
		perDate[d] = m
	}

	contracts := make([]string, 0, len(contractSet))
	for c := range contractSet {
		contracts = append(contracts, c)
	}
	sort.Strings(contracts)

	columns := make([]string, 0, 1+3*len(dates))
	columns = append(columns, "Contract")
	for _, d := range dates {
		label := dateLabel(d)
		columns = append(columns,
			label+" Assigned",
			label+" Unassigned",
			label+" %",
		)
	}

	table := &model.ReportTable{
		Title:   fmt.Sprintf("Assignment %s ~ %s", rng.StartDate, rng.EndDate),
		Columns: columns,
	}

	for _, c := range contracts {
		cells := make([]string, 0, len(columns))
		cells = append(cells, c)
		for _, d := range dates {
			row := perDate[d][c]
			cells = append(cells, formatTriple(row)...)
		}
		table.AddRow(cells...)
	}

	if b.grandTotal {
		cells := make([]string, 0, len(columns))
		cells = append(cells, model.GrandTotalLabel)
		for _, d := range dates {
			var total, assigned int
			for _, c := range contracts {
				row := perDate[d][c]
				total += row.Total
				assigned += row.Assigned
			}
			cells = append(cells, formatTriple(model.ReportRow{
				Total:      total,
				Assigned:   assigned,
				Unassigned: total - assigned,
				Percentage: model.Percentage(assigned, total),
			})...)
		}
		table.AddRow(cells...)
	}

	return table, nil
}

func formatTriple(row model.ReportRow) []string {
	return []string{
		strconv.Itoa(row.Assigned),
		strconv.Itoa(row.Unassigned),
		strconv.FormatFloat(row.Percentage, 'f', 2, 64),
	}
}

// dateLabel 把规范日期转成列名里的短标签，如 05-Mar
func dateLabel(d model.Date) string {
	t, err := time.Parse(model.DateFormat, string(d))
	if err != nil {
		return string(d)
	}
	return t.Format("02-Jan")
}
