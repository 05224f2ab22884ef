package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// ErrFileTooLarge 写入内容超出允许大小
var ErrFileTooLarge = errors.New("文件超出允许大小")

// LocalStore 本地磁盘附件存储
// 存储名 = uuid + "-" + slug(原始文件名主干) + 小写扩展名，避免路径穿越与重名
type LocalStore struct {
	dir string
}

// NewLocalStore 创建存储目录（已存在则忽略）
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// StoredName 根据原始文件名生成存储名
func StoredName(original string) string {
	base := filepath.Base(original)
	ext := strings.ToLower(filepath.Ext(base))
	stem := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		stem = "file"
	}
	if len(stem) > 80 {
		stem = stem[:80]
	}
	return uuid.New().String() + "-" + stem + ext
}

// Extension 返回不含点的小写扩展名
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// Save 写入文件，maxBytes<=0 表示不限制
// 返回存储名、相对路径与实际字节数；超限时删除已写入部分
func (s *LocalStore) Save(original string, r io.Reader, maxBytes int64) (name, path string, size int64, err error) {
	name = StoredName(original)
	full := filepath.Join(s.dir, name)

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", "", 0, fmt.Errorf("创建文件失败: %w", err)
	}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	size, err = io.Copy(f, src)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && maxBytes > 0 && size > maxBytes {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(full)
		return "", "", 0, err
	}
	return name, name, size, nil
}

// Open 打开已存储的文件
func (s *LocalStore) Open(path string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.dir, filepath.Base(path)))
}

// Remove 删除已存储的文件，不存在时忽略
func (s *LocalStore) Remove(path string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(path)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
