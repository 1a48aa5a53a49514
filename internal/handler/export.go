package handler

import (
	"fmt"
	"net/http"

	"github.com/riderops/riderops/pkg/errors"
	"github.com/riderops/riderops/pkg/model"
	"github.com/riderops/riderops/pkg/reconcile"
	"github.com/riderops/riderops/pkg/report"
)

// ExportCSV 导出单日报表为CSV。
// 查询参数report取contract、city、cross或unassigned，date为规范日期。
func (h *ReportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	kind := r.URL.Query().Get("report")
	date := model.Date(r.URL.Query().Get("date"))
	if date == "" {
		respondError(w, errors.New(errors.CodeInvalidInput, "缺少date参数"))
		return
	}

	roster, records, ok := h.materialize(r.Context(), w, date)
	if !ok {
		return
	}

	req := &ReportRequest{Date: string(date)}
	var table *model.ReportTable
	switch kind {
	case "contract", "":
		rows, err := h.builder(req).ByContract(roster, records, date)
		if err != nil {
			respondError(w, toAppError(err))
			return
		}
		table = report.RowsTable("Assignment by Contract "+string(date), rows)
	case "city":
		rows, err := h.builder(req).ByCity(roster, records, date)
		if err != nil {
			respondError(w, toAppError(err))
			return
		}
		table = report.RowsTable("Assignment by City "+string(date), rows)
	case "cross":
		rows, err := h.builder(req).Cross(roster, records, date)
		if err != nil {
			respondError(w, toAppError(err))
			return
		}
		table = report.RowsTable("Assignment by Contract and City "+string(date), rows)
	case "unassigned":
		res, err := reconcile.Reconcile(roster, records, date)
		if err != nil {
			respondError(w, toAppError(err))
			return
		}
		table = report.UnassignedTable(roster, res)
	default:
		respondError(w, errors.New(errors.CodeInvalidInput, "未知的report参数: "+kind))
		return
	}

	filename := fmt.Sprintf("%s_%s.csv", reportFileStem(kind), date)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := report.WriteCSV(w, table); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeReportFailed, "CSV导出失败"))
	}
}

func reportFileStem(kind string) string {
	if kind == "" {
		return "contract"
	}
	return kind
}
