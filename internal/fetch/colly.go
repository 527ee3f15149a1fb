package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyTransport implements Transport on top of a gocolly collector. Each
// Get clones the base collector so per-request timeouts never leak between
// calls.
type CollyTransport struct {
	base      *colly.Collector
	userAgent string
}

// NewCollyTransport builds a CollyTransport.
func NewCollyTransport(userAgent string) *CollyTransport {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	// Surface 4xx/5xx as responses, matching the Transport contract.
	c.ParseHTTPErrorResponse = true
	c.WithTransport(newPooledTransport())
	return &CollyTransport{base: c, userAgent: userAgent}
}

// Get visits the URL once and captures the final response.
func (t *CollyTransport) Get(ctx context.Context, url string) (Response, error) {
	collector := t.base.Clone()
	collector.UserAgent = t.userAgent
	collector.IgnoreRobotsTxt = true
	collector.ParseHTTPErrorResponse = true
	if deadline, ok := ctx.Deadline(); ok {
		collector.SetRequestTimeout(time.Until(deadline))
	}

	var (
		result   Response
		fetchErr error
	)
	collector.OnRequest(func(r *colly.Request) {
		for key, value := range defaultHeaders {
			r.Headers.Set(key, value)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		result = Response{
			FinalURL:    r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			Headers:     r.Headers.Clone(),
			ContentType: r.Headers.Get("Content-Type"),
			Body:        append([]byte(nil), r.Body...),
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return Response{}, fmt.Errorf("get %s: %w", url, ctx.Err())
	case err := <-done:
		if err != nil {
			return Response{}, fmt.Errorf("get %s: %w", url, err)
		}
		if fetchErr != nil {
			return Response{}, fmt.Errorf("get %s: %w", url, fetchErr)
		}
		return result, nil
	}
}
