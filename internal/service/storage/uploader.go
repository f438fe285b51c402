package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/chenweiyi/roleverse/backend/internal/audio"
)

// Uploader 把音频字节放进对象存储，失败时降级到本地临时目录。
// Upload 永远不会向调用方返回错误，最差情况也能给出一个本地回退地址。
type Uploader struct {
	store     ObjectStorage
	tempDir   string
	publicURL string
	keyPrefix string
	retries   int
	backoff   time.Duration

	// sleep 可在测试中替换以避免真实等待。
	sleep func(time.Duration)
}

// NewUploader 创建上传器。store 为 nil 时所有上传直接走本地回退。
func NewUploader(store ObjectStorage, tempDir, publicURL, keyPrefix string, retries int, backoff time.Duration) *Uploader {
	if retries <= 0 {
		retries = 3
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Uploader{
		store:     store,
		tempDir:   tempDir,
		publicURL: publicURL,
		keyPrefix: keyPrefix,
		retries:   retries,
		backoff:   backoff,
		sleep:     time.Sleep,
	}
}

// Upload 上传音频并返回可访问的 URL。
// 每次尝试生成全新的对象键，重试间隔随尝试次数线性增长。
func (u *Uploader) Upload(ctx context.Context, data []byte, format audio.Format) string {
	if u.store == nil || len(data) == 0 {
		return u.saveLocal(data, format)
	}

	for attempt := 1; attempt <= u.retries; attempt++ {
		key := u.newKey(format)

		err := u.store.Put(ctx, key, data, format.ContentType())
		if err == nil {
			if size, headErr := u.store.Head(ctx, key); headErr != nil {
				log.Printf("[storage] 上传后校验失败 %s: %v", key, headErr)
			} else {
				log.Printf("[storage] 上传成功 %s (%d bytes)", key, size)
			}
			return u.store.PublicURL(key)
		}

		log.Printf("[storage] 第%d次上传失败: %v", attempt, err)
		if attempt < u.retries {
			u.sleep(u.backoff * time.Duration(attempt))
		}
	}

	log.Printf("[storage] 上传重试耗尽，降级到本地保存")
	return u.saveLocal(data, format)
}

// newKey 生成形如 audio/<毫秒时间戳>_<uuid前8位><ext> 的对象键，
// 清理任务依赖键里的时间戳判断过期。
func (u *Uploader) newKey(format audio.Format) string {
	return fmt.Sprintf("%s%d_%s%s",
		u.keyPrefix, time.Now().UnixMilli(), uuid.NewString()[:8], format.Ext())
}

func (u *Uploader) saveLocal(data []byte, format audio.Format) string {
	name := fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], format.Ext())
	path := filepath.Join(u.tempDir, name)

	if err := os.MkdirAll(u.tempDir, 0o755); err != nil {
		log.Printf("[storage] 创建临时目录失败: %v", err)
		return ""
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("[storage] 本地保存失败: %v", err)
		return ""
	}
	return u.publicURL + "/temp/" + name
}
