package rule

import "time"

// Default HTTP collaborator settings (§6.2), reproduced exactly from the
// documented defaults.
const (
	DefaultUserAgent       = "Mozilla/5.0 (compatible; YingJuCrawler/1.0)"
	DefaultTimeoutSeconds  = 30
	DefaultFollowRedirects = true
	DefaultMaxRedirects    = 10
)

// HTTPConfig configures the HTTP collaborator. Every field is optional;
// unset fields fall back to the documented default, and merging two configs
// follows "override wins if set" per field (ConfigMerge discipline).
type HTTPConfig struct {
	UserAgent       *string           `json:"userAgent,omitempty"`
	TimeoutSeconds  *int              `json:"timeoutSeconds,omitempty"`
	Proxy           *string           `json:"proxy,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
	FollowRedirects *bool             `json:"followRedirects,omitempty"`
	MaxRedirects    *int              `json:"maxRedirects,omitempty"`
	VerifySSL       *bool             `json:"verifySsl,omitempty"`
	RequestDelayMs  *int              `json:"requestDelayMs,omitempty"`
	MaxConcurrent   *int              `json:"maxConcurrent,omitempty"`
	RetryCount      *int              `json:"retryCount,omitempty"`
	RetryDelayMs    *int              `json:"retryDelayMs,omitempty"`
}

// Merge returns a new config where every field set on override replaces the
// corresponding field of c ("other wins if Some").
func (c HTTPConfig) Merge(override HTTPConfig) HTTPConfig {
	out := c
	if override.UserAgent != nil {
		out.UserAgent = override.UserAgent
	}
	if override.TimeoutSeconds != nil {
		out.TimeoutSeconds = override.TimeoutSeconds
	}
	if override.Proxy != nil {
		out.Proxy = override.Proxy
	}
	if override.Headers != nil {
		merged := make(map[string]string, len(c.Headers)+len(override.Headers))
		for k, v := range c.Headers {
			merged[k] = v
		}
		for k, v := range override.Headers {
			merged[k] = v
		}
		out.Headers = merged
	}
	if override.FollowRedirects != nil {
		out.FollowRedirects = override.FollowRedirects
	}
	if override.MaxRedirects != nil {
		out.MaxRedirects = override.MaxRedirects
	}
	if override.VerifySSL != nil {
		out.VerifySSL = override.VerifySSL
	}
	if override.RequestDelayMs != nil {
		out.RequestDelayMs = override.RequestDelayMs
	}
	if override.MaxConcurrent != nil {
		out.MaxConcurrent = override.MaxConcurrent
	}
	if override.RetryCount != nil {
		out.RetryCount = override.RetryCount
	}
	if override.RetryDelayMs != nil {
		out.RetryDelayMs = override.RetryDelayMs
	}
	return out
}

// Resolved materializes every field with its documented default applied.
type ResolvedHTTPConfig struct {
	UserAgent       string
	Timeout         time.Duration
	Proxy           string
	Headers         map[string]string
	FollowRedirects bool
	MaxRedirects    int
	VerifySSL       bool
	RequestDelay    time.Duration
	MaxConcurrent   int
	RetryCount      int
	RetryDelay      time.Duration
}

func (c *HTTPConfig) Resolved() ResolvedHTTPConfig {
	if c == nil {
		c = &HTTPConfig{}
	}
	return ResolvedHTTPConfig{
		UserAgent:       deref(c.UserAgent, DefaultUserAgent),
		Timeout:         time.Duration(deref(c.TimeoutSeconds, DefaultTimeoutSeconds)) * time.Second,
		Proxy:           deref(c.Proxy, ""),
		Headers:         c.Headers,
		FollowRedirects: deref(c.FollowRedirects, DefaultFollowRedirects),
		MaxRedirects:    deref(c.MaxRedirects, DefaultMaxRedirects),
		VerifySSL:       deref(c.VerifySSL, true),
		RequestDelay:    time.Duration(deref(c.RequestDelayMs, 0)) * time.Millisecond,
		MaxConcurrent:   deref(c.MaxConcurrent, 1),
		RetryCount:      deref(c.RetryCount, 3),
		RetryDelay:      time.Duration(deref(c.RetryDelayMs, 2000)) * time.Millisecond,
	}
}
