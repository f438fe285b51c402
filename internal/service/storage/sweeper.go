package storage

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Sweeper 定期清理过期音频：本地临时文件按修改时间，远端对象按键里的时间戳。
type Sweeper struct {
	store     ObjectStorage
	tempDir   string
	keyPrefix string
	remoteTTL time.Duration
	localTTL  time.Duration

	now func() time.Time
}

// NewSweeper 创建清理器。store 为 nil 时只清理本地目录。
func NewSweeper(store ObjectStorage, tempDir, keyPrefix string, remoteTTL, localTTL time.Duration) *Sweeper {
	if remoteTTL <= 0 {
		remoteTTL = 24 * time.Hour
	}
	if localTTL <= 0 {
		localTTL = time.Hour
	}
	return &Sweeper{
		store:     store,
		tempDir:   tempDir,
		keyPrefix: keyPrefix,
		remoteTTL: remoteTTL,
		localTTL:  localTTL,
		now:       time.Now,
	}
}

// Start 启动后台清理循环，ctx 取消时退出。
func (s *Sweeper) Start(ctx context.Context) {
	go s.loop(ctx, 30*time.Minute, s.SweepLocal)
	go s.loop(ctx, 24*time.Hour, func() { s.SweepRemote(ctx) })
}

func (s *Sweeper) loop(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// SweepLocal 删除临时目录里超过 localTTL 的文件。
func (s *Sweeper) SweepLocal() {
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[sweeper] 读取临时目录失败: %v", err)
		}
		return
	}

	cutoff := s.now().Add(-s.localTTL)
	cleaned := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.tempDir, entry.Name())); err != nil {
			log.Printf("[sweeper] 删除本地文件失败 %s: %v", entry.Name(), err)
			continue
		}
		cleaned++
	}
	if cleaned > 0 {
		log.Printf("[sweeper] 本地清理完成，共删除%d个文件", cleaned)
	}
}

// SweepRemote 删除对象存储里超过 remoteTTL 的音频对象。
// 对象键形如 audio/<毫秒时间戳>_<uuid8>.<ext>，解析不出时间戳的键跳过。
func (s *Sweeper) SweepRemote(ctx context.Context) {
	if s.store == nil {
		return
	}

	objects, err := s.store.List(ctx, s.keyPrefix, 1000)
	if err != nil {
		log.Printf("[sweeper] 列举远端对象失败: %v", err)
		return
	}

	now := s.now()
	cleaned := 0
	for _, obj := range objects {
		ts, ok := timestampFromKey(obj.Key)
		if !ok {
			continue
		}
		if now.Sub(ts) <= s.remoteTTL {
			continue
		}
		if err := s.store.Delete(ctx, obj.Key); err != nil {
			log.Printf("[sweeper] 删除远端对象失败 %s: %v", obj.Key, err)
			continue
		}
		cleaned++
	}
	if cleaned > 0 {
		log.Printf("[sweeper] 远端清理完成，共删除%d个对象", cleaned)
	}
}

func timestampFromKey(key string) (time.Time, bool) {
	base := filepath.Base(key)
	idx := strings.Index(base, "_")
	if idx <= 0 {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(base[:idx], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}
