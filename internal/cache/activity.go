package cache

import (
	"context"

	"github.com/riderops/riderops/pkg/model"
	"github.com/riderops/riderops/pkg/reconcile"
)

// storeSource 把存储里的单个来源文件适配成活跃数据来源
type storeSource struct {
	store *ShiftStore
	name  string
}

func (s *storeSource) Name() string {
	return s.name
}

func (s *storeSource) Fetch(ctx context.Context, rng model.DateRange) ([]model.ShiftRecord, error) {
	return s.store.Source(s.name), nil
}

// ActivitySources 把每个来源文件暴露为独立的活跃数据来源，
// 闲置检测据此做逐来源隔离
func (s *ShiftStore) ActivitySources() []reconcile.ActivitySource {
	names := s.Sources()
	out := make([]reconcile.ActivitySource, 0, len(names))
	for _, name := range names {
		out = append(out, &storeSource{store: s, name: name})
	}
	return out
}
