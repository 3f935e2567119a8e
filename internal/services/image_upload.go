package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"inkpress/internal/ids"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gosimple/slug"
)

// MaxImageSize 封面图最大 10MB
const MaxImageSize = 10 << 20

const coverDir = "cover_images"

var (
	ErrImageTooLarge = errors.New("image exceeds 10MB")
	ErrNotAnImage    = errors.New("file is not an image")
)

// ImageStore 封面图存储
type ImageStore interface {
	// Save 保存上传文件，返回相对存储目录的路径
	Save(header *multipart.FileHeader) (string, error)
	Delete(path string) error
}

// LocalImageStore 将图片写入本地目录，通过 /storage 对外提供
type LocalImageStore struct {
	Root string
}

func NewLocalImageStore(root string) (*LocalImageStore, error) {
	if err := os.MkdirAll(filepath.Join(root, coverDir), 0o755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &LocalImageStore{Root: root}, nil
}

// ValidateImage 校验上传文件的大小和内容类型，不落盘
func ValidateImage(header *multipart.FileHeader) (string, error) {
	if header.Size > MaxImageSize {
		return "", ErrImageTooLarge
	}
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("读取文件失败: %w", err)
	}
	defer file.Close()

	mt, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("读取文件失败: %w", err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotAnImage
	}
	return mt.Extension(), nil
}

func (s *LocalImageStore) Save(header *multipart.FileHeader) (string, error) {
	detectedExt, err := ValidateImage(header)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = detectedExt
	}
	base := slug.Make(strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename)))
	name := ids.New()
	if base != "" {
		name = base + "-" + strings.ToLower(name)
	}
	rel := filepath.ToSlash(filepath.Join(coverDir, name+ext))

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("读取文件失败: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.Root, filepath.FromSlash(rel)))
	if err != nil {
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	return rel, nil
}

// Delete 删除已存储的图片，文件不存在时忽略
func (s *LocalImageStore) Delete(path string) error {
	if path == "" {
		return nil
	}
	clean := filepath.Clean(filepath.FromSlash(path))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("invalid image path %q", path)
	}
	err := os.Remove(filepath.Join(s.Root, clean))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
