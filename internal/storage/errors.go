package storage

import (
	"errors"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
)

// IsNoSuchKey reports whether err means the object is absent.
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}

	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		switch minioErr.Code {
		case "NoSuchKey", "NotFound":
			return true
		}
		return minioErr.StatusCode == http.StatusNotFound
	}

	// 部分网关只返回文本错误。
	return strings.Contains(strings.ToLower(err.Error()), "specified key does not exist")
}

// IsTransient 判断错误是否值得重试（限流或服务端错误）。
func IsTransient(err error) bool {
	var minioErr minio.ErrorResponse
	if !errors.As(err, &minioErr) {
		return false
	}
	return minioErr.StatusCode == http.StatusTooManyRequests || minioErr.StatusCode >= http.StatusInternalServerError
}
