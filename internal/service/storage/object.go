// Package storage 负责音频对象的上传、回源地址与过期清理。
package storage

import "context"

// ObjectInfo 列举对象时返回的条目。
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage 抽象 S3 兼容的对象存储。
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Head(ctx context.Context, key string) (int64, error)
	List(ctx context.Context, prefix string, maxKeys int) ([]ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	// PublicURL 返回对象的公网访问地址。
	PublicURL(key string) string
}
