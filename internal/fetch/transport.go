package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Response is what a Transport hands back for one GET: the final resolved
// response after any redirect chain.
type Response struct {
	FinalURL    string
	StatusCode  int
	Headers     http.Header
	ContentType string
	Body        []byte
}

// Status renders the numeric status code for error detail strings.
func (r Response) Status() string {
	return strconv.Itoa(r.StatusCode)
}

// Transport issues one HTTP GET. Implementations must honor the context and
// follow redirects transparently.
type Transport interface {
	Get(ctx context.Context, url string) (Response, error)
}

// browser-like headers; some targets refuse obvious bot traffic.
var defaultHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.101 Safari/537.36"

// HTTPTransport is the stock Transport built on net/http with a tuned
// connection pool.
type HTTPTransport struct {
	client    *http.Client
	userAgent string
}

// NewHTTPTransport builds an HTTPTransport. An empty userAgent selects the
// default browser string.
func NewHTTPTransport(userAgent string) *HTTPTransport {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &HTTPTransport{
		client: &http.Client{
			Transport: newPooledTransport(),
		},
		userAgent: userAgent,
	}
}

// Get issues the request and reads the full body. Timeouts come from the
// context; the client itself has none so per-call deadlines stay in charge.
func (t *HTTPTransport) Get(ctx context.Context, url string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	for key, value := range defaultHeaders {
		req.Header.Set(key, value)
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read body of %s: %w", url, err)
	}

	return Response{
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header.Clone(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func newPooledTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
