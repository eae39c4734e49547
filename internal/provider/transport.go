package provider

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// ClientOptions configures a REST client for one provider.
type ClientOptions struct {
	Timeout  time.Duration
	Headers  Headers
	ProxyURL string
}

// baseTransportConfig returns the shared HTTP transport configuration used by provider clients.
func baseTransportConfig(proxyURL string) *http.Transport {
	t := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          4,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
	}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			t.Proxy = http.ProxyURL(u)
		}
	}
	return t
}

// NewRESTClient creates a resty client with the given timeout and headers.
// No retries are configured: fallback between tiers is the only recovery.
func NewRESTClient(opts ClientOptions) *resty.Client {
	hc := &http.Client{
		Transport: baseTransportConfig(opts.ProxyURL),
		Timeout:   opts.Timeout,
	}
	c := resty.NewWithClient(hc)
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	c.SetHeaders(opts.Headers.Map())
	return c
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.Code, body)
}

// CheckResponse converts a non-2xx resty response into a *StatusError.
func CheckResponse(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	u := ""
	if resp.Request != nil {
		u = resp.Request.URL
	}
	return &StatusError{URL: u, Code: resp.StatusCode(), Body: resp.String()}
}
