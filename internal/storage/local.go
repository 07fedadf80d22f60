package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
)

// LocalStore 将上传内容保存到本地磁盘，按桶划分子目录。
type LocalStore struct {
	dir       string
	urlPrefix string
}

// NewLocalStore 构造本地磁盘存储。urlPrefix 是静态文件服务挂载的路径前缀。
func NewLocalStore(dir, urlPrefix string) *LocalStore {
	return &LocalStore{dir: dir, urlPrefix: urlPrefix}
}

// Save 将内容写入 dir/bucket 下的唯一文件并返回其 URL 路径。
func (s *LocalStore) Save(ctx context.Context, bucket, filename string, r io.Reader) (string, error) {
	targetDir := filepath.Join(s.dir, bucket)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", err
	}

	name := objectName(filename)
	target := filepath.Join(targetDir, name)

	f, err := os.Create(target)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(target)
		return "", err
	}

	return path.Join(s.urlPrefix, bucket, name), nil
}
