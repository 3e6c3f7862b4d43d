package export

import (
	"context"
	"fmt"
	"net/http"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromedpLauncher starts Chromium through chromedp's exec allocator, or
// attaches to a remote one.
type ChromedpLauncher struct {
	bin       string
	remoteURL string
}

// NewChromedpLauncher uses opts.Bin when set, otherwise chromedp's default lookup.
func NewChromedpLauncher(opts LauncherOptions) *ChromedpLauncher {
	return &ChromedpLauncher{bin: opts.Bin, remoteURL: opts.RemoteURL}
}

func (l *ChromedpLauncher) Name() string { return BackendChromedp }

func (l *ChromedpLauncher) Launch(ctx context.Context) (Browser, error) {
	allocCtx, cancelAlloc := l.allocator(ctx)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// 第一次 Run 才会真正启动（或连接）浏览器。远程模式下它只开一个空白标签页，Close 时关掉。
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start chromium: %w", err)
	}

	return &chromedpBrowser{ctx: browserCtx, cancel: cancelBrowser, cancelAlloc: cancelAlloc}, nil
}

func (l *ChromedpLauncher) allocator(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.remoteURL != "" {
		return chromedp.NewRemoteAllocator(ctx, l.remoteURL)
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if l.bin != "" {
		opts = append(opts, chromedp.ExecPath(l.bin))
	}
	return chromedp.NewExecAllocator(ctx, opts...)
}

type chromedpBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
}

func (b *chromedpBrowser) NewPage(ctx context.Context, viewport Viewport) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.ctx, chromedp.WithNewBrowserContext())

	// 标签页的事件循环挂在第一次 Run 的 ctx 上，所以这里必须直接用 tabCtx，
	// 调用方的 ctx 只负责提前取消。
	stop := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(tabCtx, chromedp.EmulateViewport(int64(viewport.Width), int64(viewport.Height), chromedp.EmulateScale(viewport.Scale)))
	if !stop() && err == nil {
		err = ctx.Err()
	}
	if err != nil {
		cancel()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("open tab: %w: %w", ctx.Err(), err)
		}
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &chromedpPage{ctx: tabCtx, cancel: cancel}, nil
}

// Close shuts down a launched browser. For a remote browser chromedp only
// closes the blank tab opened by Launch and drops the connection.
func (b *chromedpBrowser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.cancelAlloc()
	return err
}

type chromedpPage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// run executes actions on an already attached tab while honoring the caller's
// deadline. Cancelling a derived context stops the actions without closing the tab.
func (p *chromedpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return err
}

func (p *chromedpPage) SetExtraHeaders(ctx context.Context, headers map[string]string) error {
	h := make(network.Headers, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return p.run(ctx, network.Enable(), network.SetExtraHTTPHeaders(h))
}

func (p *chromedpPage) SetCookies(ctx context.Context, pageURL string, cookies []*http.Cookie) error {
	return p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			set := network.SetCookie(c.Name, c.Value).
				WithHTTPOnly(c.HttpOnly).
				WithSecure(c.Secure)
			if c.Domain != "" {
				set = set.WithDomain(c.Domain)
			} else {
				set = set.WithURL(pageURL)
			}
			if c.Path != "" {
				set = set.WithPath(c.Path)
			}
			if err := set.Do(ctx); err != nil {
				return fmt.Errorf("set cookie %s: %w", c.Name, err)
			}
		}
		return nil
	}))
}

// Navigate loads url and waits until the new document reports network idle.
func (p *chromedpPage) Navigate(ctx context.Context, url string) error {
	listenCtx, stopListening := context.WithCancel(p.ctx)
	defer stopListening()

	// 监听器跑在标签页的事件循环里，不能阻塞。
	idle := make(chan cdp.LoaderID, 8)
	chromedp.ListenTarget(listenCtx, func(ev any) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == networkIdleEvent {
			select {
			case idle <- e.LoaderID:
			default:
			}
		}
	})

	var loaderID cdp.LoaderID
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, loader, errorText, _, err := page.Navigate(url).Do(ctx)
		switch {
		case err != nil:
			return err
		case errorText != "":
			return fmt.Errorf("page load error %s", errorText)
		}
		loaderID = loader
		return nil
	}))
	if err != nil {
		return err
	}

	for {
		select {
		case id := <-idle:
			// 同文档跳转没有 loaderId，任何 networkIdle 都算数。
			if loaderID == "" || id == loaderID {
				return nil
			}
		case <-ctx.Done():
			return fmt.Errorf("wait network idle: %w", ctx.Err())
		}
	}
}

func (p *chromedpPage) SetContent(ctx context.Context, html []byte) error {
	return p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return fmt.Errorf("get frame tree: %w", err)
		}
		return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
	}))
}

func (p *chromedpPage) WaitElement(ctx context.Context, selector string) error {
	return p.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (p *chromedpPage) ScreenshotElement(ctx context.Context, selector string) ([]byte, error) {
	var buf []byte
	if err := p.run(ctx, chromedp.Screenshot(selector, &buf, chromedp.NodeVisible, chromedp.ByQuery)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (p *chromedpPage) PDF(ctx context.Context, paper Paper) ([]byte, error) {
	var buf []byte
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, _, err = page.PrintToPDF().
			WithPrintBackground(true).
			WithPaperWidth(paper.Width).
			WithPaperHeight(paper.Height).
			WithMarginTop(0).
			WithMarginBottom(0).
			WithMarginLeft(0).
			WithMarginRight(0).
			WithPreferCSSPageSize(true).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	return buf, nil
}

// Close detaches the tab, closes it and disposes its browser context.
func (p *chromedpPage) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	return err
}
