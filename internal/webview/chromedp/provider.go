// Package chromedp implements webview.Provider on top of
// github.com/chromedp/chromedp: it launches a headless Chrome context,
// falling back to non-headless then to failure exactly as this stack's own
// browser bring-up logic does, and drives a Request through its
// navigate/inject/poll/finish phases.
package chromedp

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	cdpkg "github.com/chromedp/chromedp"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/logging"
	"github.com/nickheyer/crawlkit/internal/webview"
)

// Provider is a reference webview.Provider backed by a real Chrome/Chromium
// instance via the Chrome DevTools Protocol.
type Provider struct{}

// New returns a chromedp-backed provider.
func New() *Provider { return &Provider{} }

func (p *Provider) Render(ctx context.Context, req webview.Request) (webview.Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = webview.DefaultTimeout
	}
	checkInterval := req.CheckInterval
	if checkInterval <= 0 {
		checkInterval = webview.DefaultCheckInterval
	}

	browserCtx, cancel, err := newBrowserContext(ctx, req, true)
	if err != nil {
		logging.Get("").Warn("headless browser init failed, falling back to non-headless", map[string]any{"error": err.Error()})
		cancel()
		browserCtx, cancel, err = newBrowserContext(ctx, req, false)
		if err != nil {
			cancel()
			return webview.Response{Success: false, Error: err.Error(), CloseReason: webview.CloseError},
				crawlerr.ExecutionTimeout("webview_render", 0, timeout.Milliseconds())
		}
	}
	defer cancel()

	runCtx, runCancel := context.WithTimeout(browserCtx, timeout)
	defer runCancel()

	resp := webview.Response{}

	actions := []cdpkg.Action{network.Enable()}
	if len(req.InitialCookies) > 0 {
		actions = append(actions, cdpkg.ActionFunc(func(ctx context.Context) error {
			return setInitialCookies(ctx, req.URL, req.InitialCookies)
		}))
	}
	actions = append(actions, cdpkg.Navigate(req.URL))
	actions = append(actions, cdpkg.ActionFunc(func(ctx context.Context) error {
		return waitReady(ctx)
	}))
	if req.InjectScript != "" {
		actions = append(actions, cdpkg.ActionFunc(func(ctx context.Context) error {
			var result any
			return cdpkg.Evaluate(req.InjectScript, &result).Do(ctx)
		}))
	}
	if req.SuccessCheck != "" {
		actions = append(actions, cdpkg.ActionFunc(func(ctx context.Context) error {
			return pollSuccess(ctx, req.SuccessCheck, checkInterval, timeout)
		}))
	}
	actions = append(actions, cdpkg.Location(&resp.FinalURL))
	actions = append(actions, cdpkg.OuterHTML("html", &resp.HTML))
	if req.FinishScript != "" {
		actions = append(actions, cdpkg.ActionFunc(func(ctx context.Context) error {
			return cdpkg.Evaluate(req.FinishScript, &resp.ScriptResult).Do(ctx)
		}))
	}
	var cookies []*network.Cookie
	if req.ExtractCookies {
		actions = append(actions, cdpkg.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetAllCookies().Do(ctx)
			return err
		}))
	}

	runErr := cdpkg.Run(runCtx, actions...)
	if runErr != nil {
		resp.Success = false
		resp.Error = runErr.Error()
		if runCtx.Err() == context.DeadlineExceeded {
			resp.CloseReason = webview.CloseTimeout
		} else {
			resp.CloseReason = webview.CloseError
		}
		return resp, nil
	}

	resp.Success = true
	resp.CloseReason = webview.CloseSuccess
	if req.ExtractCookies {
		resp.Cookies = make(map[string]string, len(cookies))
		for _, c := range cookies {
			resp.Cookies[c.Name] = c.Value
		}
	}
	return resp, nil
}

// setInitialCookies seeds the browser's cookie jar for pageURL before
// navigation, so a rule that carries session state from a prior step can
// replay it into the webview.
func setInitialCookies(ctx context.Context, pageURL string, cookies map[string]string) error {
	for name, value := range cookies {
		if err := network.SetCookie(name, value).WithURL(pageURL).Do(ctx); err != nil {
			return err
		}
	}
	return nil
}

func newBrowserContext(parent context.Context, req webview.Request, headless bool) (context.Context, context.CancelFunc, error) {
	opts := []cdpkg.ExecAllocatorOption{
		cdpkg.NoFirstRun,
		cdpkg.NoDefaultBrowserCheck,
		cdpkg.DisableGPU,
		cdpkg.Flag("disable-dev-shm-usage", true),
		cdpkg.Flag("ignore-certificate-errors", true),
		cdpkg.Flag("no-sandbox", true),
	}
	if req.UserAgent != "" {
		opts = append(opts, cdpkg.UserAgent(req.UserAgent))
	}
	if req.WindowSize[0] > 0 && req.WindowSize[1] > 0 {
		opts = append(opts, cdpkg.WindowSize(req.WindowSize[0], req.WindowSize[1]))
	}
	if headless {
		opts = append(opts, cdpkg.Headless)
	}

	allocCtx, allocCancel := cdpkg.NewExecAllocator(parent, opts...)
	browserCtx, browserCancel := cdpkg.NewContext(allocCtx)

	var version string
	if err := cdpkg.Run(browserCtx, cdpkg.Evaluate(`navigator.userAgent`, &version)); err != nil {
		combined := func() {
			browserCancel()
			allocCancel()
		}
		return browserCtx, combined, fmt.Errorf("browser init failed (headless=%v): %w", headless, err)
	}

	combined := func() {
		browserCancel()
		allocCancel()
	}
	return browserCtx, combined, nil
}

func waitReady(ctx context.Context) error {
	var readyState string
	if err := cdpkg.Evaluate(`document.readyState`, &readyState).Do(ctx); err != nil {
		return err
	}
	if readyState != "complete" {
		return cdpkg.Sleep(500 * time.Millisecond).Do(ctx)
	}
	return nil
}

func pollSuccess(ctx context.Context, script string, interval, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		var ok bool
		if err := cdpkg.Evaluate(script, &ok).Do(ctx); err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return context.DeadlineExceeded
		}
		if err := cdpkg.Sleep(interval).Do(ctx); err != nil {
			return err
		}
	}
}

var _ webview.Provider = (*Provider)(nil)
