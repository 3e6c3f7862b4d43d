package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"resumeStudio/internal/api/middleware"
	"resumeStudio/internal/storage"
)

var errMalicious = errors.New("malicious file detected")

// photoExtensions 是允许上传的头像格式。
var photoExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

type assetStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// Scanner 在上传前检查文件内容。
type Scanner interface {
	Scan(ctx context.Context, r io.Reader) error
}

// ClamdScanner 通过 clamd 流式扫描。
type ClamdScanner struct {
	addr string
}

// NewClamdScanner returns nil when addr is empty, which disables scanning.
func NewClamdScanner(addr string) Scanner {
	if addr == "" {
		return nil
	}
	return &ClamdScanner{addr: addr}
}

func (s *ClamdScanner) Scan(ctx context.Context, r io.Reader) error {
	client := clamd.NewClamd(s.addr)
	abort := make(chan bool)
	defer close(abort)

	results, err := client.ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("clamd scan: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case result, ok := <-results:
			if !ok {
				return nil
			}
			if result.Status != clamd.RES_OK {
				return errMalicious
			}
		}
	}
}

// AssetHandler 负责头像上传与访问。
type AssetHandler struct {
	store   assetStore
	scanner Scanner
	logger  *slog.Logger
}

// NewAssetHandler 返回 AssetHandler 实例。scanner 为 nil 时跳过扫描。
func NewAssetHandler(store assetStore, scanner Scanner, logger *slog.Logger) *AssetHandler {
	return &AssetHandler{store: store, scanner: scanner, logger: logger}
}

// UploadPhoto 扫描并保存头像，返回可写入 personal.photo 的对象 key。
func (h *AssetHandler) UploadPhoto(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if file.Size <= 0 || file.Size > storage.MaxPhotoBytes {
		BadRequest(c, fmt.Sprintf("photo must be between 1 byte and %d bytes", storage.MaxPhotoBytes))
		return
	}

	src, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, storage.MaxPhotoBytes+1))
	if err != nil {
		Internal(c, "failed to read file")
		return
	}
	if int64(len(data)) > storage.MaxPhotoBytes {
		BadRequest(c, "photo is too large")
		return
	}

	contentType := http.DetectContentType(data)
	ext, allowed := photoExtensions[contentType]
	if !allowed {
		BadRequest(c, "photo must be a png, jpeg or webp image")
		return
	}

	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	if h.scanner != nil {
		if err := h.scanner.Scan(ctx, bytes.NewReader(data)); err != nil {
			if errors.Is(err, errMalicious) {
				log.Warn("upload rejected by scanner")
				BadRequest(c, errMalicious.Error())
				return
			}
			log.Error("scan file", slog.Any("error", err))
			Internal(c, "failed to scan file")
			return
		}
	}

	objectKey := fmt.Sprintf("%s%s.%s", storage.UserAssetPrefix(userID), uuid.NewString(), ext)
	if _, err := h.store.UploadFile(ctx, objectKey, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		log.Error("upload file", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"objectKey": objectKey})
}

// GetAssetURL 返回资产的临时预签名 URL。
func (h *AssetHandler) GetAssetURL(c *gin.Context) {
	objectKey, ok := h.ownedKey(c)
	if !ok {
		return
	}

	signedURL, err := h.store.GeneratePresignedURL(c.Request.Context(), objectKey, 15*time.Minute)
	if err != nil {
		h.logger.Error("generate presigned url", slog.Any("error", err))
		Internal(c, "failed to generate url")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

// DeletePhoto 删除用户上传的照片；对象已不存在时同样返回 204。
func (h *AssetHandler) DeletePhoto(c *gin.Context) {
	objectKey, ok := h.ownedKey(c)
	if !ok {
		return
	}
	if err := h.store.DeleteObject(c.Request.Context(), objectKey); err != nil {
		h.logger.Error("delete asset", slog.String("key", objectKey), slog.Any("error", err))
		Internal(c, "failed to delete file")
		return
	}
	c.Status(http.StatusNoContent)
}

// ownedKey 取出 ?key= 并确认它属于当前用户，失败时已写好响应。
func (h *AssetHandler) ownedKey(c *gin.Context) (string, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return "", false
	}
	objectKey := c.Query("key")
	if objectKey == "" {
		BadRequest(c, "missing key")
		return "", false
	}
	if !storage.IsUserAssetKey(userID, objectKey) {
		Forbidden(c, "access denied")
		return "", false
	}
	return objectKey, true
}
