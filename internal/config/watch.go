package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/riderops/riderops/pkg/logger"
)

// WatchReference 监听参照文件变更并热加载，ctx取消时退出
func WatchReference(ctx context.Context, ref *Reference, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// 监听目录而非文件本身，编辑器原子写入会替换文件
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	target := filepath.Clean(path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := ref.Reload(path); err != nil {
					logger.Warn().Err(err).
						Str("path", path).
						Msg("参照数据热加载失败")
					continue
				}
				logger.Info().Str("path", path).Msg("参照数据已热加载")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Msg("参照文件监听错误")
			}
		}
	}()

	return nil
}
