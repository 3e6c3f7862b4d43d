package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeStudio/internal/errcode"
	"resumeStudio/internal/export"
)

// ErrorResponse 是所有错误响应的统一结构。
type ErrorResponse struct {
	Error   errcode.Code `json:"error"`
	Message string       `json:"message,omitempty"`
	Fields  []string     `json:"fields,omitempty"`
}

func Error(c *gin.Context, status int, code errcode.Code, msg string) {
	c.JSON(status, ErrorResponse{Error: code, Message: msg})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: errcode.Unauthorized, Message: "unauthorized"})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, errcode.Unauthorized, "unauthorized")
}
func BadRequest(c *gin.Context, msg string) {
	Error(c, http.StatusBadRequest, errcode.InvalidRequest, msg)
}
func Forbidden(c *gin.Context, msg string) { Error(c, http.StatusForbidden, errcode.Forbidden, msg) }
func NotFound(c *gin.Context, msg string)  { Error(c, http.StatusNotFound, errcode.NotFound, msg) }
func Conflict(c *gin.Context, msg string)  { Error(c, http.StatusConflict, errcode.Conflict, msg) }
func Internal(c *gin.Context, msg string) {
	Error(c, http.StatusInternalServerError, errcode.Internal, msg)
}
func TooManyRequests(c *gin.Context, msg string) {
	Error(c, http.StatusTooManyRequests, errcode.RateLimited, msg)
}

// ValidationFailed 返回字段级校验错误。
func ValidationFailed(c *gin.Context, msg string, fields []string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: errcode.InvalidRequest, Message: msg, Fields: fields})
}

// exportErrorStatus 将导出流水线错误映射为 HTTP 状态码与错误码。
func exportErrorStatus(err error) (int, errcode.Code) {
	switch {
	case errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest, errcode.UnsupportedFormat
	case errors.Is(err, export.ErrCaptureUnavailable):
		return http.StatusInternalServerError, errcode.CaptureUnavailable
	case errors.Is(err, export.ErrRenderTimeout):
		return http.StatusInternalServerError, errcode.RenderTimeout
	default:
		return http.StatusInternalServerError, errcode.CaptureFailure
	}
}

func exportMessage(code errcode.Code) string {
	switch code {
	case errcode.UnsupportedFormat:
		return "format must be png or pdf"
	case errcode.CaptureUnavailable:
		return "export service is unavailable, try again"
	case errcode.RenderTimeout:
		return "resume did not finish rendering in time, try again"
	default:
		return "export failed, try again"
	}
}
