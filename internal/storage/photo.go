package storage

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"resumeStudio/internal/resume"
)

// MaxPhotoBytes caps both uploads and inlined photos.
const MaxPhotoBytes = 5 << 20

// DataURIReader 读取对象并编码为 data URI。
type DataURIReader interface {
	DataURI(ctx context.Context, objectKey string, maxBytes int64) (string, error)
}

// UserAssetPrefix is the object prefix owned by one user.
func UserAssetPrefix(userID uint) string {
	return fmt.Sprintf("user-assets/%d/", userID)
}

// IsUserAssetKey 校验对象 Key 属于该用户且是受支持的图片扩展名。
func IsUserAssetKey(userID uint, key string) bool {
	if key == "" || !utf8.ValidString(key) {
		return false
	}
	if !strings.HasPrefix(key, UserAssetPrefix(userID)) {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	if len(key) > 200 {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(key))
	return strings.HasSuffix(lower, ".png") ||
		strings.HasSuffix(lower, ".jpg") ||
		strings.HasSuffix(lower, ".jpeg") ||
		strings.HasSuffix(lower, ".webp")
}

// InlinePhoto 把 personal.photo 中的用户资产 Key 替换为 data URI。
// URL 与 data URI 原样保留；无法解析的 Key 被清空，渲染时显示占位图。
// 返回的文档总是可用的，err 仅用于记录日志。
func InlinePhoto(ctx context.Context, r DataURIReader, userID uint, doc resume.Document) (resume.Document, error) {
	photo := strings.TrimSpace(doc.Personal.Photo)
	lower := strings.ToLower(photo)
	if photo == "" ||
		strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") {
		return doc, nil
	}

	if !IsUserAssetKey(userID, photo) {
		doc.Personal.Photo = ""
		return doc, fmt.Errorf("photo key %q does not belong to user %d", photo, userID)
	}

	uri, err := r.DataURI(ctx, photo, MaxPhotoBytes)
	if err != nil {
		doc.Personal.Photo = ""
		return doc, fmt.Errorf("inline photo %q: %w", photo, err)
	}
	doc.Personal.Photo = uri
	return doc, nil
}
