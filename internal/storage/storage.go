// Package storage abstracts binary blob storage behind a stable-URL contract.
//
// A store is append-only from the caller's perspective: once Save returns a
// URL, that URL keeps resolving to the same bytes. Orphaned blobs are never
// reclaimed here.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// 逻辑桶名，同时作为存储键的前缀出现于签发的 URL 中。
const (
	CoverBucket     = "covers"
	PostImageBucket = "post_images"
	AvatarBucket    = "avatars"
)

// BlobStore 保存上传的二进制内容并返回稳定的访问 URL。
type BlobStore interface {
	Save(ctx context.Context, bucket, filename string, r io.Reader) (string, error)
}

// objectName 基于上传文件名生成唯一的存储对象名，仅保留原始扩展名。
func objectName(filename string) string {
	ext := filepath.Ext(filename)
	return fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
}
