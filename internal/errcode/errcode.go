// Package errcode 定义返回给客户端的机器可读错误码。
package errcode

// Code 是错误响应 {"error": code, "message": ...} 中的 error 字段。
type Code string

const (
	InvalidRequest     Code = "INVALID_REQUEST"
	Unauthorized       Code = "UNAUTHORIZED"
	PaymentRequired    Code = "PAYMENT_REQUIRED"
	Forbidden          Code = "FORBIDDEN"
	DocumentNotFound   Code = "DOCUMENT_NOT_FOUND"
	NotFound           Code = "NOT_FOUND"
	Conflict           Code = "CONFLICT"
	RateLimited        Code = "RATE_LIMITED"
	UnsupportedFormat  Code = "UNSUPPORTED_FORMAT"
	CaptureUnavailable Code = "CAPTURE_UNAVAILABLE"
	RenderTimeout      Code = "RENDER_TIMEOUT"
	CaptureFailure     Code = "CAPTURE_FAILURE"
	Internal           Code = "INTERNAL"
)
