package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// ErrLayout is returned when a page loads but the expected element is missing.
var ErrLayout = errors.New("page layout mismatch")

// PageLoader fetches and parses pages. A loader is acquired once per batch of
// fetches and must be closed when the batch ends.
type PageLoader interface {
	Load(ctx context.Context, url, waitSelector string) (*goquery.Document, error)
	Close() error
}

// LoaderFactory acquires a new PageLoader.
type LoaderFactory func(ctx context.Context) (PageLoader, error)

// HTTPLoader loads server-rendered pages with a plain HTTP client.
type HTTPLoader struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPLoader creates a loader with optional proxy support.
func NewHTTPLoader(timeout time.Duration, proxyURL string) *HTTPLoader {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HTTPLoader{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		UserAgent: "Mozilla/5.0",
	}
}

func (l *HTTPLoader) Load(ctx context.Context, pageURL, waitSelector string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	if l.UserAgent != "" {
		req.Header.Set("User-Agent", l.UserAgent)
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: status %d, body: %s", pageURL, resp.StatusCode, string(body))
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	if waitSelector != "" && doc.Find(waitSelector).Length() == 0 {
		return nil, fmt.Errorf("%s: %q not found: %w", pageURL, waitSelector, ErrLayout)
	}
	return doc, nil
}

func (l *HTTPLoader) Close() error {
	l.Client.CloseIdleConnections()
	return nil
}

// ChromeLoader renders pages in a headless Chrome session.
type ChromeLoader struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	Timeout     time.Duration
}

// ChromeOptions configures the headless browser.
type ChromeOptions struct {
	ExecPath string
	Proxy    string
	Timeout  time.Duration
}

// NewChromeLoader starts a headless browser. The browser lives until Close.
func NewChromeLoader(ctx context.Context, o ChromeOptions) (*ChromeLoader, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Headless)
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	if o.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(o.Proxy))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser so startup failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ChromeLoader{ctx: browserCtx, cancel: cancel, allocCancel: allocCancel, Timeout: timeout}, nil
}

func (l *ChromeLoader) Load(ctx context.Context, pageURL, waitSelector string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tctx, cancel := context.WithTimeout(l.ctx, l.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	actions := []chromedp.Action{chromedp.Navigate(pageURL)}
	if waitSelector != "" {
		actions = append(actions, chromedp.WaitReady(waitSelector, chromedp.ByQuery))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err := chromedp.Run(tctx, actions...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && waitSelector != "" {
			return nil, fmt.Errorf("%s: %q not found: %w", pageURL, waitSelector, ErrLayout)
		}
		return nil, fmt.Errorf("render %s: %w", pageURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return doc, nil
}

// Close shuts the browser down.
func (l *ChromeLoader) Close() error {
	l.cancel()
	l.allocCancel()
	return nil
}
