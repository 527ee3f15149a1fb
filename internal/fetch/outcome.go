// Package fetch implements the bounded-concurrency fetch engine: gated,
// timed HTTP GETs whose every failure mode is expressed as data rather than
// as a raised error.
package fetch

import (
	"context"
	"errors"
	"net"
	"time"
)

// Status classifies the terminal state of one fetch attempt.
type Status string

// Outcome statuses. IOError is produced by the batch layer when a body
// fetched fine but could not be written to disk.
const (
	StatusOK           Status = "ok"
	StatusHTTPError    Status = "http_error"
	StatusNetworkError Status = "network_error"
	StatusTimeout      Status = "timeout"
	StatusCancelled    Status = "cancelled"
	StatusIOError      Status = "io_error"
)

// Outcome is the uniform result of one URL fetch attempt. Body is populated
// for OK responses and, when the server sent one, for HTTP errors; ByteCount
// always equals len(Body).
type Outcome struct {
	URL         string
	Status      Status
	HTTPStatus  int
	Body        []byte
	ByteCount   int
	ContentType string
	Elapsed     time.Duration
	Detail      string
}

// OK reports whether the fetch succeeded.
func (o Outcome) OK() bool {
	return o.Status == StatusOK
}

// classifyError maps a transport failure onto the outcome taxonomy. The
// request context is consulted to distinguish our own deadline from a caller
// cancellation.
func classifyError(err error, reqCtx, parentCtx context.Context) (Status, string) {
	switch {
	case parentCtx.Err() != nil:
		return StatusCancelled, err.Error()
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.DeadlineExceeded):
		return StatusTimeout, err.Error()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusTimeout, err.Error()
	}
	return StatusNetworkError, err.Error()
}
