package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/riderops/riderops/pkg/model"
	"github.com/riderops/riderops/pkg/reconcile"
)

func testRoster() *model.Roster {
	return model.NewRoster([]model.Employee{
		{ID: "1001", Name: "Ahmed", Contract: "Tantawy", City: "Tanta"},
		{ID: "1002", Name: "Omar", Contract: "Tantawy", City: "Mansoura"},
		{ID: "1003", Name: "Sara", Contract: "Tantawy", City: "Tanta"},
		{ID: "1004", Name: "Mona", Contract: "Tanta Car", City: "Tanta"},
	})
}

func shift(id string, date model.Date) model.ShiftRecord {
	return model.ShiftRecord{EmployeeID: id, Status: model.StatusEvaluated, PlannedStartDate: date}
}

func TestByContract(t *testing.T) {
	b := NewBuilder()
	records := []model.ShiftRecord{
		shift("1001", "2026-03-05"),
		shift("1002", "2026-03-05"),
		shift("1004", "2026-03-05"),
	}

	rows, err := b.ByContract(testRoster(), records, "2026-03-05")
	if err != nil {
		t.Fatalf("ByContract() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len = %d, want 2个合同加汇总行", len(rows))
	}

	if rows[0].Contract != "Tanta Car" || rows[0].Assigned != 1 || rows[0].Total != 1 {
		t.Errorf("Tanta Car 行错误: %+v", rows[0])
	}
	if rows[1].Contract != "Tantawy" || rows[1].Assigned != 2 || rows[1].Total != 3 {
		t.Errorf("Tantawy 行错误: %+v", rows[1])
	}

	gt := rows[2]
	if !gt.IsGrandTotal() {
		t.Fatal("末行应为汇总行")
	}
	// 汇总行由各行之和重算，不平均各行比率
	if gt.Total != 4 || gt.Assigned != 3 || gt.Percentage != 75.0 {
		t.Errorf("汇总行错误: %+v", gt)
	}

	// 每行不变式
	for _, r := range rows {
		if r.Assigned+r.Unassigned != r.Total {
			t.Errorf("行 %q 排班与未排班之和不等于总数", r.Contract)
		}
	}
}

func TestByContractNoGrandTotal(t *testing.T) {
	b := NewBuilder(WithGrandTotal(false))
	rows, err := b.ByContract(testRoster(), nil, "2026-03-05")
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range rows {
		if r.IsGrandTotal() {
			t.Error("关闭汇总行后不应出现汇总行")
		}
	}
}

func TestByCity(t *testing.T) {
	b := NewBuilder(WithGrandTotal(false))
	rows, err := b.ByCity(testRoster(), []model.ShiftRecord{shift("1001", "2026-03-05")}, "2026-03-05")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2", len(rows))
	}
	if rows[0].City != "Mansoura" || rows[1].City != "Tanta" {
		t.Errorf("城市行应按名称排序: %+v", rows)
	}
	if rows[1].Total != 3 || rows[1].Assigned != 1 {
		t.Errorf("Tanta 行错误: %+v", rows[1])
	}
}

func TestCrossValidityFilter(t *testing.T) {
	// Tantawy×Mansoura 视为无效组合
	valid := func(contract, city string) bool {
		return !(contract == "Tantawy" && city == "Mansoura")
	}
	b := NewBuilder(WithValidityFilter(valid))

	rows, err := b.Cross(testRoster(), []model.ShiftRecord{shift("1002", "2026-03-05")}, "2026-03-05")
	if err != nil {
		t.Fatal(err)
	}

	for _, r := range rows {
		if r.Contract == "Tantawy" && r.City == "Mansoura" {
			t.Error("无效组合应被剔除")
		}
	}
	// 被剔除组合的员工不计入汇总
	gt := rows[len(rows)-1]
	if !gt.IsGrandTotal() || gt.Total != 3 || gt.Assigned != 0 {
		t.Errorf("汇总行错误: %+v", gt)
	}
}

func TestCrossCityOrder(t *testing.T) {
	b := NewBuilder(WithGrandTotal(false), WithCityOrder([]string{"Tanta", "Mansoura"}))
	rows, err := b.Cross(testRoster(), nil, "2026-03-05")
	if err != nil {
		t.Fatal(err)
	}
	// Tantawy 的两个城市按配置顺序而非字母序
	var tantawy []string
	for _, r := range rows {
		if r.Contract == "Tantawy" {
			tantawy = append(tantawy, r.City)
		}
	}
	if len(tantawy) != 2 || tantawy[0] != "Tanta" || tantawy[1] != "Mansoura" {
		t.Errorf("城市顺序错误: %v", tantawy)
	}
}

func TestMultiDate(t *testing.T) {
	b := NewBuilder()
	byDate := map[model.Date][]model.ShiftRecord{
		"2026-03-05": {shift("1001", "2026-03-05"), shift("1004", "2026-03-05")},
		"2026-03-06": {shift("1002", "2026-03-06")},
	}

	table, err := b.MultiDate(testRoster(), byDate, model.DateRange{StartDate: "2026-03-05", EndDate: "2026-03-06"})
	if err != nil {
		t.Fatalf("MultiDate() error = %v", err)
	}

	wantCols := []string{
		"Contract",
		"05-Mar Assigned", "05-Mar Unassigned", "05-Mar %",
		"06-Mar Assigned", "06-Mar Unassigned", "06-Mar %",
	}
	if len(table.Columns) != len(wantCols) {
		t.Fatalf("Columns = %v", table.Columns)
	}
	for i, c := range wantCols {
		if table.Columns[i] != c {
			t.Errorf("Columns[%d] = %q, want %q", i, table.Columns[i], c)
		}
	}

	// 2个合同行加汇总行
	if len(table.Rows) != 3 {
		t.Fatalf("Rows = %d, want 3", len(table.Rows))
	}
	tantawy := table.Rows[1]
	if tantawy[0] != "Tantawy" || tantawy[1] != "1" || tantawy[2] != "2" || tantawy[3] != "33.33" {
		t.Errorf("Tantawy 05-Mar 错误: %v", tantawy)
	}
	if tantawy[4] != "1" || tantawy[6] != "33.33" {
		t.Errorf("Tantawy 06-Mar 错误: %v", tantawy)
	}

	gt := table.Rows[2]
	if gt[0] != model.GrandTotalLabel || gt[1] != "2" || gt[2] != "2" || gt[3] != "50.00" {
		t.Errorf("汇总行错误: %v", gt)
	}
}

func TestPivot(t *testing.T) {
	b := NewBuilder()
	records := []model.ShiftRecord{
		{EmployeeID: "1", Status: "EVALUATED", Contract: "Tantawy", City: "Tanta"},
		{EmployeeID: "2", Status: "NO_SHOW", Contract: "Tantawy", City: "Tanta"},
		{EmployeeID: "3", Status: "EVALUATED", Contract: "Tantawy", City: "Mansoura"},
		{EmployeeID: "4", Status: "NO SHOW (EXCUSED)", Contract: "Tanta Car", City: "Tanta"},
	}

	table := b.Pivot(records)
	if len(table.Columns) != 4 { // Contract, Mansoura, Tanta, Total
		t.Fatalf("Columns = %v", table.Columns)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("Rows = %d, want 2合同加汇总", len(table.Rows))
	}
	// Tantawy: Mansoura=1 Tanta=2 Total=3
	tantawy := table.Rows[1]
	if tantawy[0] != "Tantawy" || tantawy[1] != "1" || tantawy[2] != "2" || tantawy[3] != "3" {
		t.Errorf("Tantawy 行错误: %v", tantawy)
	}
	gt := table.Rows[2]
	if gt[0] != model.GrandTotalLabel || gt[3] != "4" {
		t.Errorf("汇总行错误: %v", gt)
	}

	noShow := b.NoShowPivot(records)
	// 两条缺勤记录，含带后缀的写法
	var total string
	for _, row := range noShow.Rows {
		if row[0] == model.GrandTotalLabel {
			total = row[len(row)-1]
		}
	}
	if total != "2" {
		t.Errorf("缺勤合计 = %q, want 2", total)
	}
}

func TestStatusPivot(t *testing.T) {
	b := NewBuilder()
	records := []model.ShiftRecord{
		{EmployeeID: "1", Status: "EVALUATED"},
		{EmployeeID: "2", Status: "EVALUATED"},
		{EmployeeID: "3", Status: "DRAFT"},
	}
	table := b.StatusPivot(records)
	if len(table.Rows) != 3 {
		t.Fatalf("Rows = %d, want 2状态加汇总", len(table.Rows))
	}
	if table.Rows[0][0] != "DRAFT" || table.Rows[0][1] != "1" {
		t.Errorf("DRAFT 行错误: %v", table.Rows[0])
	}
	if table.Rows[1][0] != "EVALUATED" || table.Rows[1][1] != "2" {
		t.Errorf("EVALUATED 行错误: %v", table.Rows[1])
	}
}

func TestDaily(t *testing.T) {
	roster := testRoster()
	records := []model.ShiftRecord{
		{EmployeeID: "1002", Status: "EVALUATED", PlannedStartDate: "2026-03-05", PlannedStartTime: "08:00", PlannedEndTime: "16:00"},
		{EmployeeID: "1001", Status: "PUBLISHED", PlannedStartDate: "2026-03-05"},
		{EmployeeID: "9999", Status: "EVALUATED", PlannedStartDate: "2026-03-05"}, // 花名册外
		{EmployeeID: "1003", Status: "EVALUATED", PlannedStartDate: "2026-03-06"}, // 其他日期
	}

	got := Daily(roster, records, "2026-03-05")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// 按城市排序：Mansoura在Tanta前
	if got[0].EmployeeID != "1002" || got[0].Name != "Omar" || got[0].StartTime != "08:00" {
		t.Errorf("首行错误: %+v", got[0])
	}
	if got[1].EmployeeID != "1001" || got[1].City != "Tanta" {
		t.Errorf("次行错误: %+v", got[1])
	}
}

func TestUnassignedTable(t *testing.T) {
	roster := testRoster()
	res, err := reconcile.Reconcile(roster, []model.ShiftRecord{shift("1001", "2026-03-05")}, "2026-03-05")
	if err != nil {
		t.Fatal(err)
	}
	table := UnassignedTable(roster, res)
	if len(table.Rows) != 3 {
		t.Fatalf("Rows = %d, want 3", len(table.Rows))
	}
	if table.Rows[0][0] != "1002" {
		t.Errorf("首行 = %v", table.Rows[0])
	}
}

func TestWriteCSV(t *testing.T) {
	table := &model.ReportTable{
		Columns: []string{"Contract", "Total"},
		Rows:    [][]string{{"Tantawy", "3"}, {"Grand Total", "3"}},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || lines[0] != "Contract,Total" || lines[1] != "Tantawy,3" {
		t.Errorf("CSV输出错误: %q", buf.String())
	}
}

func TestOverview(t *testing.T) {
	res, err := reconcile.Reconcile(testRoster(), []model.ShiftRecord{shift("1001", "2026-03-05")}, "2026-03-05")
	if err != nil {
		t.Fatal(err)
	}
	m := Overview(res)
	if m.TotalEmployees != 4 || m.TotalAssigned != 1 || m.TotalUnassigned != 3 || m.OverallRate != 25.0 {
		t.Errorf("Overview() = %+v", m)
	}
}
