package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shouni/gemini-video-kit/pkg/domain"
)

// PreviewStore はプレビュー用のローカルリソースを作成・解放します。
type PreviewStore interface {
	Create(img domain.ReferenceImage) (string, error)
	Release(handle string) error
}

// ImageSelection は選択中の参照画像を保持します。
// 画像本体、base64 表現、プレビューハンドルの3つは常にまとめて設定・消去されます。
type ImageSelection struct {
	store PreviewStore

	mu      sync.Mutex
	image   *domain.ReferenceImage
	encoded string
	preview string
}

// NewImageSelection は store を使う ImageSelection を作成します。
func NewImageSelection(store PreviewStore) (*ImageSelection, error) {
	if store == nil {
		return nil, fmt.Errorf("store (PreviewStore) is required")
	}
	return &ImageSelection{store: store}, nil
}

// Select は画像を選択します。以前のプレビューは先に解放します。
func (s *ImageSelection) Select(img domain.ReferenceImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.releaseLocked(); err != nil {
		return err
	}

	handle, err := s.store.Create(img)
	if err != nil {
		return fmt.Errorf("プレビューの作成に失敗しました: %w", err)
	}
	s.image = &img
	s.encoded = img.Base64()
	s.preview = handle
	return nil
}

// Remove はプレビューを解放し、3つのフィールドをすべて消去します。
func (s *ImageSelection) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseLocked()
}

func (s *ImageSelection) releaseLocked() error {
	handle := s.preview
	s.image = nil
	s.encoded = ""
	s.preview = ""
	if handle == "" {
		return nil
	}
	if err := s.store.Release(handle); err != nil {
		return fmt.Errorf("プレビューの解放に失敗しました: %w", err)
	}
	return nil
}

// Image は選択中の画像を返します。未選択なら nil です。
func (s *ImageSelection) Image() *domain.ReferenceImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

// Base64 は選択中の画像の base64 表現を返します。
func (s *ImageSelection) Base64() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoded
}

// PreviewHandle はプレビューリソースのハンドルを返します。
func (s *ImageSelection) PreviewHandle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview
}

// TempPreviewStore はプレビューを一時ファイルとして書き出します。
type TempPreviewStore struct {
	Dir string // 空なら os.TempDir()
}

func (t TempPreviewStore) Create(img domain.ReferenceImage) (string, error) {
	f, err := os.CreateTemp(t.Dir, "veo-preview-*"+extensionFor(img.MIMEType))
	if err != nil {
		return "", err
	}
	if _, err := f.Write(img.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (t TempPreviewStore) Release(handle string) error {
	if err := os.Remove(filepath.Clean(handle)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ""
}
