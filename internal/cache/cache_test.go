package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/riderops/riderops/pkg/model"
)

type fakeFetcher struct {
	roster *model.Roster
	err    error
	calls  int
}

func (f *fakeFetcher) Fetch(ctx context.Context) (*model.Roster, error) {
	f.calls++
	return f.roster, f.err
}

func TestRosterCacheLifecycle(t *testing.T) {
	roster := model.NewRoster([]model.Employee{{ID: "1001", Name: "Ahmed"}})
	fetcher := &fakeFetcher{roster: roster}
	c := NewRosterCache(fetcher)

	if c.State() != RosterEmpty {
		t.Errorf("初始状态 = %v, want empty", c.State())
	}

	got, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Len() != 1 || c.State() != RosterPopulated {
		t.Error("回源后应进入populated状态")
	}

	// 命中缓存不再回源
	c.Get(context.Background())
	if fetcher.calls != 1 {
		t.Errorf("calls = %d, want 1", fetcher.calls)
	}

	// 失效后重新回源
	c.Invalidate()
	if c.State() != RosterEmpty {
		t.Error("失效后应回到empty状态")
	}
	c.Get(context.Background())
	if fetcher.calls != 2 {
		t.Errorf("calls = %d, want 2", fetcher.calls)
	}
}

func TestRosterCacheFetchError(t *testing.T) {
	c := NewRosterCache(&fakeFetcher{err: errors.New("boom")})
	if _, err := c.Get(context.Background()); err == nil {
		t.Fatal("回源失败应透出错误")
	}
	if c.State() != RosterEmpty {
		t.Error("回源失败不应改变状态")
	}
}

func TestRosterCacheNoFetcher(t *testing.T) {
	c := NewRosterCache(nil)
	roster, err := c.Get(context.Background())
	if err != nil || roster != nil {
		t.Errorf("无来源时应返回空: (%v, %v)", roster, err)
	}

	c.Set(model.NewRoster([]model.Employee{{ID: "1"}}))
	if c.State() != RosterPopulated {
		t.Error("上传写入后应进入populated状态")
	}
}

func TestShiftStore(t *testing.T) {
	s := NewShiftStore()
	s.Put("tanta.xlsx", []model.ShiftRecord{{EmployeeID: "1"}, {EmployeeID: "2"}})
	s.Put("cairo.xlsx", []model.ShiftRecord{{EmployeeID: "3"}})

	if s.Count() != 3 {
		t.Errorf("Count() = %d, want 3", s.Count())
	}
	sources := s.Sources()
	if len(sources) != 2 || sources[0] != "cairo.xlsx" {
		t.Errorf("Sources() = %v", sources)
	}
	// 名序拼接
	all := s.All()
	if len(all) != 3 || all[0].EmployeeID != "3" {
		t.Errorf("All() = %+v", all)
	}

	// 同名来源整体替换
	s.Put("tanta.xlsx", []model.ShiftRecord{{EmployeeID: "9"}})
	if s.Count() != 2 {
		t.Errorf("替换后 Count() = %d, want 2", s.Count())
	}

	s.Clear()
	if s.Count() != 0 || len(s.Sources()) != 0 {
		t.Error("Clear() 后应为空")
	}
}

func TestActivitySources(t *testing.T) {
	s := NewShiftStore()
	s.Put("tanta.xlsx", []model.ShiftRecord{{EmployeeID: "1"}})
	s.Put("cairo.xlsx", []model.ShiftRecord{{EmployeeID: "2"}})

	sources := s.ActivitySources()
	if len(sources) != 2 {
		t.Fatalf("len = %d, want 2", len(sources))
	}
	if sources[0].Name() != "cairo.xlsx" {
		t.Errorf("Name() = %q", sources[0].Name())
	}
	records, err := sources[0].Fetch(context.Background(), model.DateRange{})
	if err != nil || len(records) != 1 || records[0].EmployeeID != "2" {
		t.Errorf("Fetch() = (%+v, %v)", records, err)
	}
}
