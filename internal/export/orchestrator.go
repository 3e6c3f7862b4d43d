package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"resumeStudio/internal/metrics"
	"resumeStudio/internal/render"
)

const (
	DefaultMarkerTimeout     = 30 * time.Second
	DefaultNavigationTimeout = 30 * time.Second
	defaultCaptureTimeout    = 20 * time.Second
)

var (
	// PageViewport A4 @96DPI，与模板的页面尺寸一致。
	PageViewport = Viewport{Width: render.PageWidthPx, Height: render.PageHeightPx, Scale: 1}
	// PagePaper is the same geometry expressed in inches for PDF printing.
	PagePaper = Paper{
		Width:  float64(render.PageWidthPx) / 96,
		Height: float64(render.PageHeightPx) / 96,
	}
)

var _ Capturer = (*Orchestrator)(nil)

// Options configures an Orchestrator.
type Options struct {
	MarkerTimeout     time.Duration
	NavigationTimeout time.Duration
	Logger            *slog.Logger
}

// Orchestrator 实现 Capturer：启动浏览器 → 打开隔离页面 → 加载 → 等待标记 → 截图/打印 → 释放。
type Orchestrator struct {
	launcher      Launcher
	markerTimeout time.Duration
	navTimeout    time.Duration
	logger        *slog.Logger
}

// NewOrchestrator wires a Launcher with step timeouts.
func NewOrchestrator(launcher Launcher, opts Options) *Orchestrator {
	if opts.MarkerTimeout <= 0 {
		opts.MarkerTimeout = DefaultMarkerTimeout
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultNavigationTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Orchestrator{
		launcher:      launcher,
		markerTimeout: opts.MarkerTimeout,
		navTimeout:    opts.NavigationTimeout,
		logger:        opts.Logger,
	}
}

// Backend returns the name of the browser engine in use.
func (o *Orchestrator) Backend() string {
	return o.launcher.Name()
}

// Capture runs one full capture. The format is checked before a browser is launched,
// and the browser and page are closed exactly once on every return path.
func (o *Orchestrator) Capture(ctx context.Context, target Target, format Format) (_ []byte, retErr error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
	if target.empty() {
		return nil, fmt.Errorf("%w: nothing to capture", ErrCaptureFailure)
	}

	backend := o.launcher.Name()
	log := o.logger.With(slog.String("backend", backend), slog.String("format", string(format)))
	start := time.Now()
	defer func() {
		metrics.ObserveExport(backend, string(format), outcome(retErr), time.Since(start))
	}()

	log.Info("export: launching browser")
	browser, err := o.launcher.Launch(ctx)
	if err != nil {
		log.Error("export: launch browser failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrCaptureUnavailable, err)
	}
	metrics.BrowserAcquired(backend)
	defer func() {
		if err := browser.Close(); err != nil {
			log.Warn("export: close browser failed", slog.Any("error", err))
		}
		metrics.BrowserReleased(backend)
		log.Info("export: browser released")
	}()

	page, err := browser.NewPage(ctx, PageViewport)
	if err != nil {
		log.Error("export: open page failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: open page: %w", ErrCaptureUnavailable, err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Debug("export: close page failed", slog.Any("error", err))
		}
	}()

	if err := o.load(ctx, log, page, target); err != nil {
		return nil, err
	}

	log.Info("export: waiting for render marker", slog.Duration("timeout", o.markerTimeout))
	if err := o.waitMarker(ctx, page); err != nil {
		log.Warn("export: render marker did not appear", slog.Any("error", err))
		return nil, err
	}

	captureCtx, cancel := context.WithTimeout(ctx, defaultCaptureTimeout)
	defer cancel()

	var data []byte
	switch format {
	case FormatPNG:
		data, err = page.ScreenshotElement(captureCtx, "#"+render.CaptureRootID)
	case FormatPDF:
		data, err = page.PDF(captureCtx, PagePaper)
	}
	if err != nil {
		log.Error("export: capture failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrCaptureFailure, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrCaptureFailure)
	}

	log.Info("export: captured", slog.Int("bytes", len(data)), slog.Duration("elapsed", time.Since(start)))
	return data, nil
}

func (o *Orchestrator) load(ctx context.Context, log *slog.Logger, page Page, target Target) error {
	if len(target.HTML) > 0 {
		log.Info("export: loading inline document", slog.Int("bytes", len(target.HTML)))
		if err := page.SetContent(ctx, target.HTML); err != nil {
			return fmt.Errorf("%w: set content: %w", ErrCaptureFailure, err)
		}
		return nil
	}

	if len(target.Headers) > 0 {
		if err := page.SetExtraHeaders(ctx, target.Headers); err != nil {
			return fmt.Errorf("%w: set headers: %w", ErrCaptureFailure, err)
		}
	}
	if len(target.Cookies) > 0 {
		if err := page.SetCookies(ctx, target.URL, target.Cookies); err != nil {
			return fmt.Errorf("%w: set cookies: %w", ErrCaptureFailure, err)
		}
	}

	log.Info("export: navigating", slog.String("url", target.URL))
	navCtx, cancel := context.WithTimeout(ctx, o.navTimeout)
	defer cancel()
	if err := page.Navigate(navCtx, target.URL); err != nil {
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: navigation: %w", ErrRenderTimeout, err)
		}
		return fmt.Errorf("%w: navigate: %w", ErrCaptureFailure, err)
	}
	return nil
}

func (o *Orchestrator) waitMarker(ctx context.Context, page Page) error {
	waitCtx, cancel := context.WithTimeout(ctx, o.markerTimeout)
	defer cancel()

	err := page.WaitElement(waitCtx, "#"+render.ReadyMarkerID)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrRenderTimeout, err)
	}
	return fmt.Errorf("%w: wait marker: %w", ErrCaptureFailure, err)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrCaptureUnavailable):
		return "capture_unavailable"
	case errors.Is(err, ErrRenderTimeout):
		return "render_timeout"
	default:
		return "capture_failure"
	}
}
