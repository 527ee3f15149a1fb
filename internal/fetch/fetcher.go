package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hncrawl/hncrawl/internal/gate"
	"github.com/hncrawl/hncrawl/internal/metrics"
)

// Fetcher performs single gated, timed GETs. It never returns an error to
// its caller: every failure mode is folded into the Outcome.
type Fetcher struct {
	gate      *gate.Gate
	transport Transport
	timeout   time.Duration
	logger    *zap.Logger
}

// NewFetcher wires a Fetcher. A non-positive timeout falls back to 16s, the
// crawler's stock request deadline.
func NewFetcher(g *gate.Gate, transport Transport, timeout time.Duration, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 16 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{gate: g, transport: transport, timeout: timeout, logger: logger}
}

// Timeout returns the per-request deadline the Fetcher applies.
func (f *Fetcher) Timeout() time.Duration {
	return f.timeout
}

// Fetch acquires a gate ticket for the URL's host, issues one GET under the
// configured deadline and classifies the result. The ticket is released on
// every exit path.
func (f *Fetcher) Fetch(ctx context.Context, url string) Outcome {
	return f.FetchWithTimeout(ctx, url, f.timeout)
}

// FetchWithTimeout is Fetch with an explicit per-request deadline.
func (f *Fetcher) FetchWithTimeout(ctx context.Context, url string, timeout time.Duration) Outcome {
	host := gate.HostKey(url)

	waitStart := time.Now()
	ticket, err := f.gate.Acquire(ctx, url)
	if err != nil {
		// Admission aborted before a request went out.
		out := Outcome{URL: url, Status: StatusCancelled, Detail: err.Error()}
		metrics.ObserveFetch(host, string(out.Status), 0, 0)
		return out
	}
	defer ticket.Release()
	metrics.ObserveGateWait(time.Since(waitStart))

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	metrics.IncInFlight()
	start := time.Now()
	resp, err := f.transport.Get(reqCtx, url)
	elapsed := time.Since(start)
	metrics.DecInFlight()

	out := Outcome{URL: url, Elapsed: elapsed}
	switch {
	case err != nil:
		out.Status, out.Detail = classifyError(err, reqCtx, ctx)
		f.logger.Debug("fetch failed",
			zap.String("url", url),
			zap.String("status", string(out.Status)),
			zap.String("detail", out.Detail),
		)
	case resp.StatusCode >= 400:
		out.Status = StatusHTTPError
		out.HTTPStatus = resp.StatusCode
		out.Body = resp.Body
		out.ByteCount = len(resp.Body)
		out.ContentType = resp.ContentType
		out.Detail = "http status " + resp.Status()
	default:
		out.Status = StatusOK
		out.HTTPStatus = resp.StatusCode
		out.Body = resp.Body
		out.ByteCount = len(resp.Body)
		out.ContentType = resp.ContentType
		f.logger.Debug("fetch succeeded",
			zap.String("url", url),
			zap.Int("bytes", out.ByteCount),
			zap.Duration("elapsed", elapsed),
		)
	}
	metrics.ObserveFetch(host, string(out.Status), out.ByteCount, elapsed)
	return out
}
