package export

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodLauncher starts Chromium through go-rod's launcher, or attaches to a remote one.
type RodLauncher struct {
	bin       string
	remoteURL string
}

// NewRodLauncher uses opts.Bin when set, otherwise the first Chromium found on PATH.
func NewRodLauncher(opts LauncherOptions) *RodLauncher {
	return &RodLauncher{bin: opts.Bin, remoteURL: opts.RemoteURL}
}

func (l *RodLauncher) Name() string { return BackendRod }

func (l *RodLauncher) Launch(ctx context.Context) (Browser, error) {
	if l.remoteURL != "" {
		return l.connect(ctx)
	}

	launch := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(true).
		Set("disable-dev-shm-usage").
		Set("font-render-hinting", "none")

	if l.bin != "" {
		launch = launch.Bin(l.bin)
	} else if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	controlURL, err := launch.Launch()
	if err != nil {
		launch.Cleanup()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		launch.Kill()
		launch.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	return &rodBrowser{browser: browser, launch: launch}, nil
}

// connect 连接共享的 Chromium。我们自己持有 websocket，Close 时只断开连接。
func (l *RodLauncher) connect(ctx context.Context) (Browser, error) {
	u := l.remoteURL
	if !strings.Contains(u, "/devtools/browser/") {
		resolved, err := launcher.ResolveURL(u)
		if err != nil {
			return nil, fmt.Errorf("resolve browser url: %w", err)
		}
		u = resolved
	}

	ws := &cdp.WebSocket{}
	if err := ws.Connect(ctx, u, nil); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	browser := rod.New().Context(ctx).Client(cdp.New().Start(ws))
	if err := browser.Connect(); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	return &rodBrowser{browser: browser, ws: ws}, nil
}

type rodBrowser struct {
	browser *rod.Browser
	// launch is set for a browser we started, ws for a remote one.
	launch *launcher.Launcher
	ws     *cdp.WebSocket
}

func (b *rodBrowser) NewPage(ctx context.Context, viewport Viewport) (Page, error) {
	incognito, err := b.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("create incognito context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Context(context.Background()).Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewport.Width,
		Height:            viewport.Height,
		DeviceScaleFactor: viewport.Scale,
	}); err != nil {
		_ = page.Close()
		_ = incognito.Context(context.Background()).Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	// 页面后续操作各自绑定调用方的 ctx。
	return &rodPage{page: page.Context(context.Background()), incognito: incognito.Context(context.Background())}, nil
}

func (b *rodBrowser) Close() error {
	if b.ws != nil {
		return b.ws.Close()
	}
	err := b.browser.Close()
	b.launch.Cleanup()
	return err
}

type rodPage struct {
	page      *rod.Page
	incognito *rod.Browser
}

func (p *rodPage) SetExtraHeaders(ctx context.Context, headers map[string]string) error {
	dict := make([]string, 0, len(headers)*2)
	for k, v := range headers {
		dict = append(dict, k, v)
	}
	_, err := p.page.Context(ctx).SetExtraHeaders(dict)
	return err
}

func (p *rodPage) SetCookies(ctx context.Context, pageURL string, cookies []*http.Cookie) error {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		param := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
		if param.Domain == "" {
			param.URL = pageURL
		}
		params = append(params, param)
	}
	return p.page.Context(ctx).SetCookies(params)
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	wait := page.WaitNavigation(proto.PageLifecycleEventNameNetworkIdle)
	if err := page.Navigate(url); err != nil {
		return err
	}
	wait()
	return ctx.Err()
}

func (p *rodPage) SetContent(ctx context.Context, html []byte) error {
	page := p.page.Context(ctx)
	if err := page.SetDocumentContent(string(html)); err != nil {
		return err
	}
	return page.WaitLoad()
}

func (p *rodPage) WaitElement(ctx context.Context, selector string) error {
	_, err := p.page.Context(ctx).Element(selector)
	return err
}

func (p *rodPage) ScreenshotElement(ctx context.Context, selector string) ([]byte, error) {
	el, err := p.page.Context(ctx).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", selector, err)
	}
	return el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
}

func (p *rodPage) PDF(ctx context.Context, paper Paper) ([]byte, error) {
	reader, err := p.page.Context(ctx).PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PaperWidth:        float64Ptr(paper.Width),
		PaperHeight:       float64Ptr(paper.Height),
		MarginTop:         float64Ptr(0),
		MarginBottom:      float64Ptr(0),
		MarginLeft:        float64Ptr(0),
		MarginRight:       float64Ptr(0),
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf bytes: %w", err)
	}
	return data, nil
}

// Close closes the tab and disposes its incognito browser context.
func (p *rodPage) Close() error {
	err := p.page.Close()
	if disposeErr := p.incognito.Close(); err == nil {
		err = disposeErr
	}
	return err
}

func float64Ptr(value float64) *float64 {
	return &value
}
