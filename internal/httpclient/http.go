// Package httpclient implements the HTTP collaborator contract (§6.2):
// Get(ctx, url) -> Response, Response.Text() -> string. Adapted from this
// stack's own fetch routine, generalized to take a rule.HTTPConfig instead
// of hardcoded constants.
package httpclient

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/logging"
	"github.com/nickheyer/crawlkit/internal/rule"
)

// maxBodyBytes caps a single response body read, guarding against
// unbounded/streamed responses.
const maxBodyBytes = 10 * 1024 * 1024

// Response is the fetched page wrapper the engine wraps as Value.Html.
type Response struct {
	StatusCode int
	Header     http.Header
	body       []byte
}

// Text returns the response body decoded as UTF-8 text.
func (r *Response) Text() (string, error) {
	return string(r.body), nil
}

// Client issues Get requests per a resolved rule.HTTPConfig.
type Client struct {
	http   *http.Client
	config rule.ResolvedHTTPConfig
}

// New builds a Client from a rule's (possibly nil) HTTP config, applying
// every documented default for unset fields.
func New(cfg *rule.HTTPConfig) (*Client, error) {
	resolved := cfg.Resolved()

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, crawlerr.IO(fmt.Sprintf("failed to build cookie jar: %v", err))
	}

	transport := &http.Transport{
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: !resolved.VerifySSL},
		MaxIdleConns:          100,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		ExpectContinueTimeout: 5 * time.Second,
	}
	if resolved.Proxy != "" {
		proxyURL, err := url.Parse(resolved.Proxy)
		if err != nil {
			return nil, crawlerr.InvalidConfigValue("http.proxy", err.Error())
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	httpClient := &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   resolved.Timeout,
	}
	if !resolved.FollowRedirects {
		httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else {
		httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= resolved.MaxRedirects {
				return http.ErrUseLastResponse
			}
			for key, val := range via[0].Header {
				if _, ok := req.Header[key]; !ok {
					req.Header[key] = val
				}
			}
			return nil
		}
	}

	return &Client{http: httpClient, config: resolved}, nil
}

// Get fetches url, retrying per the resolved config's RetryCount with a
// linear backoff of RetryDelay, and honoring RequestDelay before sending.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	if c.config.RequestDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, crawlerr.HTTPRequest(ctx.Err().Error())
		case <-time.After(c.config.RequestDelay):
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, crawlerr.HTTPRequest(fmt.Sprintf("building request: %v", err))
	}
	c.setBrowserHeaders(req)

	var resp *http.Response
	var lastErr error
	attempts := c.config.RetryCount + 1
	for attempt := 0; attempt < attempts; attempt++ {
		resp, err = c.http.Do(req)
		if err == nil && resp.StatusCode < 500 {
			break
		}
		if resp != nil {
			resp.Body.Close()
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, crawlerr.HTTPRequest(ctx.Err().Error())
		case <-time.After(time.Duration(attempt+1) * c.config.RetryDelay):
		}
		logging.Get("").Debug("retrying HTTP fetch", map[string]any{
			"url": rawURL, "attempt": attempt + 1, "attempts": attempts, "lastError": lastErr.Error(),
		})
	}
	if resp == nil {
		return nil, crawlerr.HTTPRequest(fmt.Sprintf("fetch failed after %d attempts: %v", attempts, lastErr))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, crawlerr.HTTPRequest(fmt.Sprintf("server returned status code %d", resp.StatusCode))
	}

	var reader io.ReadCloser = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, crawlerr.HTTPRequest(fmt.Sprintf("gzip decode: %v", err))
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxBodyBytes))
	if err != nil {
		return nil, crawlerr.HTTPRequest(fmt.Sprintf("reading body: %v", err))
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, body: body}, nil
}

func (c *Client) setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Connection", "keep-alive")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
}
