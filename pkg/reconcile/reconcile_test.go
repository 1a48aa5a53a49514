package reconcile

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/riderops/riderops/pkg/errors"
	"github.com/riderops/riderops/pkg/filter"
	"github.com/riderops/riderops/pkg/model"
)

func testRoster() *model.Roster {
	return model.NewRoster([]model.Employee{
		{ID: "1001", Name: "Ahmed", Contract: "Tantawy", City: "Tanta"},
		{ID: "1002", Name: "Omar", Contract: "Tantawy", City: "Mansoura"},
		{ID: "1003", Name: "Sara", Contract: "Tanta Car", City: "Tanta"},
	})
}

func shift(id string, date model.Date) model.ShiftRecord {
	return model.ShiftRecord{EmployeeID: id, Status: model.StatusEvaluated, PlannedStartDate: date}
}

func TestReconcile(t *testing.T) {
	roster := testRoster()
	records := []model.ShiftRecord{
		shift("1001", "2026-03-05"),
		shift("9999", "2026-03-05"), // 花名册外的陌生编号
	}

	res, err := Reconcile(roster, records, "2026-03-05")
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if res.Total != 3 || res.Assigned != 1 || res.Unassigned != 2 {
		t.Errorf("total/assigned/unassigned = %d/%d/%d, want 3/1/2", res.Total, res.Assigned, res.Unassigned)
	}
	// 不变式：排班数加未排班数恒等于总数
	if res.Assigned+res.Unassigned != res.Total {
		t.Error("排班数与未排班数之和应等于总数")
	}
	// 陌生编号只记录不计数
	if len(res.Orphans) != 1 || res.Orphans[0] != "9999" {
		t.Errorf("Orphans = %v, want [9999]", res.Orphans)
	}
	if res.Rate != 33.33 {
		t.Errorf("Rate = %v, want 33.33", res.Rate)
	}
	if !res.IsAssigned("1001") || res.IsAssigned("1002") {
		t.Error("IsAssigned 判定错误")
	}
}

func TestReconcileAllNoShow(t *testing.T) {
	roster := testRoster()
	records := []model.ShiftRecord{
		{EmployeeID: "1001", Status: "NO_SHOW(UNEXCUSED)", PlannedStartDate: "2026-03-05"},
		{EmployeeID: "1002", Status: "NO SHOW (EXCUSED)", PlannedStartDate: "2026-03-05"},
	}
	kept := filter.ByPolicy(records, filter.PolicyAssignment)
	if len(kept) != 0 {
		t.Fatalf("缺勤记录不应计入排班, got %d", len(kept))
	}

	res, err := Reconcile(roster, kept, "2026-03-05")
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if res.Assigned != 0 || res.Unassigned != 3 || res.Rate != 0 {
		t.Errorf("全员缺勤应得零排班率: %+v", res)
	}
}

func TestReconcileEmptyRoster(t *testing.T) {
	if _, err := Reconcile(model.NewRoster(nil), nil, "2026-03-05"); !stderrors.Is(err, errors.ErrEmptyRoster) {
		t.Errorf("空花名册应返回 ErrEmptyRoster, got %v", err)
	}
}

func TestRange(t *testing.T) {
	roster := testRoster()
	byDate := map[model.Date][]model.ShiftRecord{
		"2026-03-05": {shift("1001", "2026-03-05"), shift("1002", "2026-03-05")},
		// 03-06 没有任何班次
		"2026-03-07": {shift("1003", "2026-03-07")},
	}

	results, err := Range(roster, byDate, model.DateRange{StartDate: "2026-03-05", EndDate: "2026-03-07"})
	if err != nil {
		t.Fatalf("Range() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len = %d, want 3", len(results))
	}
	if results[0].Assigned != 2 {
		t.Errorf("03-05 排班数 = %d, want 2", results[0].Assigned)
	}
	// 无班次的日历日也要产出零结果
	if results[1].Date != "2026-03-06" || results[1].Assigned != 0 || results[1].Unassigned != 3 {
		t.Errorf("空日结果错误: %+v", results[1])
	}
}

func TestRangeInvalid(t *testing.T) {
	_, err := Range(testRoster(), nil, model.DateRange{StartDate: "2026-03-07", EndDate: "2026-03-05"})
	if !errors.Is(err, errors.CodeInvalidDateRange) {
		t.Errorf("倒置区间应返回 INVALID_DATE_RANGE, got %v", err)
	}
}

func TestUnassigned(t *testing.T) {
	roster := testRoster()
	res, err := Reconcile(roster, []model.ShiftRecord{shift("1002", "2026-03-05")}, "2026-03-05")
	if err != nil {
		t.Fatal(err)
	}
	got := Unassigned(roster, res)
	if len(got) != 2 || got[0].ID != "1001" || got[1].ID != "1003" {
		t.Errorf("Unassigned() = %+v, want 1001与1003按序", got)
	}
}

// 测试用活跃来源
type fakeSource struct {
	name    string
	records []model.ShiftRecord
	err     error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, rng model.DateRange) ([]model.ShiftRecord, error) {
	return f.records, f.err
}

func fetchTestRoster(ctx context.Context) (*model.Roster, error) {
	return testRoster(), nil
}

func TestDetectorRun(t *testing.T) {
	activity := func(id, status string, date model.Date) model.ShiftRecord {
		return model.ShiftRecord{EmployeeID: id, Status: model.ShiftStatus(status), PlannedStartDate: date}
	}

	d := NewDetector(
		&fakeSource{name: "tanta", records: []model.ShiftRecord{
			activity("1001", "CANCELLED", "2026-03-05"), // 取消也算活跃
			activity("1002", "NO_SHOW", "2026-03-05"),   // 缺勤不算
		}},
		&fakeSource{name: "mansoura", records: []model.ShiftRecord{
			activity("1003", "EVALUATED", "2026-02-01"), // 区间外不算
		}},
	)

	rng := model.DateRange{StartDate: "2026-03-01", EndDate: "2026-03-07"}
	report, err := d.Run(context.Background(), fetchTestRoster, rng)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if d.State() != StateDone {
		t.Errorf("State() = %v, want done", d.State())
	}
	if report.ActiveCount != 1 {
		t.Errorf("ActiveCount = %d, want 1", report.ActiveCount)
	}
	if len(report.Inactive) != 2 || report.Inactive[0].ID != "1002" || report.Inactive[1].ID != "1003" {
		t.Errorf("Inactive = %+v, want 1002与1003", report.Inactive)
	}
	if len(report.SourcesOK) != 2 || len(report.SourcesFailed) != 0 {
		t.Errorf("来源统计错误: ok=%v failed=%v", report.SourcesOK, report.SourcesFailed)
	}
}

func TestDetectorSourceIsolation(t *testing.T) {
	d := NewDetector(
		&fakeSource{name: "broken", err: stderrors.New("连接超时")},
		&fakeSource{name: "tanta", records: []model.ShiftRecord{
			{EmployeeID: "1001", Status: model.StatusEvaluated, PlannedStartDate: "2026-03-05"},
		}},
	)

	rng := model.DateRange{StartDate: "2026-03-01", EndDate: "2026-03-07"}
	report, err := d.Run(context.Background(), fetchTestRoster, rng)
	if err != nil {
		t.Fatalf("单个来源失败不应中断: %v", err)
	}
	if len(report.SourcesFailed) != 1 || report.SourcesFailed[0] != "broken" {
		t.Errorf("SourcesFailed = %v", report.SourcesFailed)
	}
	if report.AllSourcesFailed {
		t.Error("仍有来源成功时不应置全失败位")
	}
	if report.ActiveCount != 1 {
		t.Errorf("ActiveCount = %d, want 1", report.ActiveCount)
	}
}

func TestDetectorAllSourcesFailed(t *testing.T) {
	d := NewDetector(
		&fakeSource{name: "a", err: stderrors.New("boom")},
		&fakeSource{name: "b", err: stderrors.New("boom")},
	)

	rng := model.DateRange{StartDate: "2026-03-01", EndDate: "2026-03-07"}
	report, err := d.Run(context.Background(), fetchTestRoster, rng)
	if err != nil {
		t.Fatalf("来源全失败仍应产出结果: %v", err)
	}
	if !report.AllSourcesFailed {
		t.Error("应置全失败位")
	}
	// 没有活跃数据时整册都是闲置，调用方靠全失败位甄别
	if len(report.Inactive) != 3 {
		t.Errorf("Inactive = %d, want 3", len(report.Inactive))
	}
}

func TestDetectorRosterFatal(t *testing.T) {
	d := NewDetector(&fakeSource{name: "tanta"})
	failRoster := func(ctx context.Context) (*model.Roster, error) {
		return nil, stderrors.New("HTTP 503")
	}

	rng := model.DateRange{StartDate: "2026-03-01", EndDate: "2026-03-07"}
	if _, err := d.Run(context.Background(), failRoster, rng); err == nil {
		t.Fatal("花名册失败应为致命错误")
	}
	if d.State() != StateFailed {
		t.Errorf("State() = %v, want failed", d.State())
	}
}
