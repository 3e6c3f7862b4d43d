package export

import (
	"context"
	"fmt"
	"net/http"
)

// Viewport is the page geometry, in CSS pixels.
type Viewport struct {
	Width  int
	Height int
	Scale  float64
}

// Paper is the PDF paper size, in inches.
type Paper struct {
	Width  float64
	Height float64
}

// Launcher starts one headless browser per capture. Nothing is pooled.
type Launcher interface {
	Name() string
	Launch(ctx context.Context) (Browser, error)
}

// Browser is a running browser process. Close terminates it (or detaches from a
// remote one) and must be called once.
type Browser interface {
	NewPage(ctx context.Context, viewport Viewport) (Page, error)
	Close() error
}

// Page is an isolated browsing context (incognito tab) inside a Browser.
type Page interface {
	SetExtraHeaders(ctx context.Context, headers map[string]string) error
	SetCookies(ctx context.Context, pageURL string, cookies []*http.Cookie) error
	Navigate(ctx context.Context, url string) error
	SetContent(ctx context.Context, html []byte) error
	WaitElement(ctx context.Context, selector string) error
	ScreenshotElement(ctx context.Context, selector string) ([]byte, error)
	PDF(ctx context.Context, paper Paper) ([]byte, error)
	Close() error
}

// Browser engines selectable through EXPORT_BACKEND.
const (
	BackendRod      = "rod"
	BackendChromedp = "chromedp"
)

// networkIdleEvent is the page lifecycle event Navigate waits for.
const networkIdleEvent = "networkIdle"

// LauncherOptions 选择浏览器来源：本地可执行文件，或已在运行的远程 Chromium。
type LauncherOptions struct {
	// Bin is the local Chromium binary. Empty means look it up on PATH.
	Bin string
	// RemoteURL attaches to a shared browser instead of starting one, e.g.
	// "ws://chromium:9222" or a full /devtools/browser/ URL. Close then only
	// releases what the capture opened and never shuts the browser down.
	RemoteURL string
}

// NewLauncher returns the launcher for the configured backend.
func NewLauncher(backend string, opts LauncherOptions) (Launcher, error) {
	switch backend {
	case BackendRod, "":
		return NewRodLauncher(opts), nil
	case BackendChromedp:
		return NewChromedpLauncher(opts), nil
	default:
		return nil, fmt.Errorf("unknown export backend %q", backend)
	}
}
