package storage

import (
	"context"
	"io"
	"path"
	"sync"
)

// MemoryStore 是用于测试的内存实现，记录每次写入。
type MemoryStore struct {
	mu        sync.Mutex
	urlPrefix string
	objects   map[string][]byte
	saveCount int
}

// NewMemoryStore 构造内存存储，URL 以 urlPrefix 开头。
func NewMemoryStore(urlPrefix string) *MemoryStore {
	return &MemoryStore{
		urlPrefix: urlPrefix,
		objects:   make(map[string][]byte),
	}
}

// Save 在内存中记录对象内容。
func (s *MemoryStore) Save(ctx context.Context, bucket, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	url := path.Join(s.urlPrefix, bucket, objectName(filename))
	s.objects[url] = data
	s.saveCount++
	return url, nil
}

// Get 返回已保存对象的内容。
func (s *MemoryStore) Get(url string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[url]
	return data, ok
}

// SaveCount 返回累计写入次数。
func (s *MemoryStore) SaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCount
}
