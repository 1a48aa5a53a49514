package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/riderops/riderops/pkg/model"
)

// WriteCSV 把报表写成CSV，首行为列名
func WriteCSV(w io.Writer, table *model.ReportTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return err
	}
	for _, row := range table.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RowsTable 把分组报表行组装为导出表格
func RowsTable(title string, rows []model.ReportRow) *model.ReportTable {
	table := &model.ReportTable{
		Title:   title,
		Columns: []string{"Contract", "City", "Date", "Total", "Assigned", "Unassigned", "%"},
	}
	for _, r := range rows {
		table.AddRow(
			r.Contract,
			r.City,
			string(r.Date),
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Assigned),
			strconv.Itoa(r.Unassigned),
			strconv.FormatFloat(r.Percentage, 'f', 2, 64),
		)
	}
	return table
}
