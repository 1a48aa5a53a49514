// Package cache 花名册与班次数据的内存存储
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riderops/riderops/internal/source"
	"github.com/riderops/riderops/pkg/model"
)

// RosterState 花名册缓存状态
type RosterState string

const (
	RosterEmpty     RosterState = "empty"
	RosterPopulated RosterState = "populated"
)

// RosterCache 花名册缓存。
// 命中时直接返回，未命中且配置了远端来源时回源拉取。
type RosterCache struct {
	mu        sync.RWMutex
	roster    *model.Roster
	fetchedAt time.Time
	fetcher   source.RosterFetcher
}

// NewRosterCache 创建花名册缓存，fetcher可为nil表示只接受上传
func NewRosterCache(fetcher source.RosterFetcher) *RosterCache {
	return &RosterCache{fetcher: fetcher}
}

// Get 返回缓存的花名册，缓存为空时尝试回源
func (c *RosterCache) Get(ctx context.Context) (*model.Roster, error) {
	c.mu.RLock()
	roster := c.roster
	c.mu.RUnlock()
	if roster != nil {
		return roster, nil
	}

	if c.fetcher == nil {
		return nil, nil
	}

	fetched, err := c.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.Set(fetched)
	return fetched, nil
}

// Set 写入花名册
func (c *RosterCache) Set(roster *model.Roster) {
	c.mu.Lock()
	c.roster = roster
	c.fetchedAt = time.Now()
	c.mu.Unlock()
}

// Invalidate 失效缓存，下次Get时重新回源
func (c *RosterCache) Invalidate() {
	c.mu.Lock()
	c.roster = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// State 返回缓存状态
func (c *RosterCache) State() RosterState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.roster == nil {
		return RosterEmpty
	}
	return RosterPopulated
}

// FetchedAt 返回最近一次写入时间
func (c *RosterCache) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}

// ShiftStore 按来源文件组织的班次存储
type ShiftStore struct {
	mu        sync.RWMutex
	bySource  map[string][]model.ShiftRecord
	updatedAt time.Time
}

// NewShiftStore 创建班次存储
func NewShiftStore() *ShiftStore {
	return &ShiftStore{bySource: make(map[string][]model.ShiftRecord)}
}

// Put 写入一个来源的班次，同名来源整体替换
func (s *ShiftStore) Put(sourceName string, records []model.ShiftRecord) {
	s.mu.Lock()
	s.bySource[sourceName] = records
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

// All 返回全部班次，按来源名序拼接
func (s *ShiftStore) All() []model.ShiftRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ShiftRecord
	for _, name := range s.sourcesLocked() {
		out = append(out, s.bySource[name]...)
	}
	return out
}

// Source 返回指定来源的班次
func (s *ShiftStore) Source(name string) []model.ShiftRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bySource[name]
}

// Sources 返回来源名列表，按名称排序
func (s *ShiftStore) Sources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sourcesLocked()
}

func (s *ShiftStore) sourcesLocked() []string {
	names := make([]string, 0, len(s.bySource))
	for name := range s.bySource {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear 清空全部班次
func (s *ShiftStore) Clear() {
	s.mu.Lock()
	s.bySource = make(map[string][]model.ShiftRecord)
	s.updatedAt = time.Time{}
	s.mu.Unlock()
}

// Count 返回班次总条数
func (s *ShiftStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, records := range s.bySource {
		n += len(records)
	}
	return n
}

// UpdatedAt 返回最近一次写入时间
func (s *ShiftStore) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
