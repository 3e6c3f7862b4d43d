// Package export captures a rendered resume page as PNG or PDF in a headless browser.
//
// Orchestrator owns the capture sequence once; the browser engine behind it is a
// Launcher (go-rod or chromedp) selected by configuration.
package export

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnsupportedFormat 请求的格式不在 {png, pdf} 内，在分配任何浏览器资源之前返回。
	ErrUnsupportedFormat = errors.New("export: unsupported format")
	// ErrCaptureUnavailable 无头浏览器无法启动或无法创建页面。
	ErrCaptureUnavailable = errors.New("export: capture unavailable")
	// ErrRenderTimeout 渲染完成标记未在限定时间内出现，或导航超时。
	ErrRenderTimeout = errors.New("export: render timeout")
	// ErrCaptureFailure 截图或打印 PDF 失败。
	ErrCaptureFailure = errors.New("export: capture failure")
)

// Format is an export output format.
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// ParseFormat normalizes a requested format, rejecting anything outside {png, pdf}.
func ParseFormat(raw string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(raw)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
	return f, nil
}

// Valid reports whether f is png or pdf.
func (f Format) Valid() bool {
	return f == FormatPNG || f == FormatPDF
}

// ContentType 返回响应使用的 MIME 类型。
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Filename is the attachment name offered to the client.
func (f Format) Filename() string {
	return "resume." + string(f)
}

// Target 描述要捕获的页面：要么是内联 HTML，要么是需要导航的 URL。
// Cookies 与 Headers 只在导航 URL 时转发。
type Target struct {
	HTML    []byte
	URL     string
	Cookies []*http.Cookie
	Headers map[string]string
}

func (t Target) empty() bool {
	return len(t.HTML) == 0 && strings.TrimSpace(t.URL) == ""
}

// Capturer is the export capability consumed by the HTTP layer and the preview worker.
type Capturer interface {
	Capture(ctx context.Context, target Target, format Format) ([]byte, error)
}
