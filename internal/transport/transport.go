// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package transport dispatches built REST requests off the caller's goroutine and
// hands back typed results. Each Send produces exactly one Result on a single
// queue: either a decoded value or a ResponseError. The caller drains results
// with Poll, which never blocks, so a tick loop can issue and collect without
// waiting on the network.
//
// Results are stamped with a sequence number taken at issuance. Responses may
// arrive in a different order than requests were sent; Seq lets the consumer
// tell a stale response from a newer one.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	apperrors "supatodo/cli/internal/errors"
	"supatodo/cli/internal/postgrest"
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Typed binds a request to the shape its response decodes into.
type Typed[T any] struct {
	Request *postgrest.Request
}

// As declares the expected response type of req.
func As[T any](req *postgrest.Request) Typed[T] {
	return Typed[T]{Request: req}
}

// ResponseError describes a failed request. Body holds the raw response bytes
// when the server answered; it is nil for network failures.
type ResponseError struct {
	Kind   apperrors.Kind
	Status int
	Detail string
	Body   []byte
}

func (e *ResponseError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Result is the outcome of one request: Value is set when Err is nil.
type Result[T any] struct {
	Seq      int64
	Resource string
	Method   string
	Value    T
	Err      *ResponseError
}

// OK reports whether the request succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Client sends typed requests asynchronously and queues their results.
type Client[T any] struct {
	ctx     context.Context
	doer    Doer
	limiter *rate.Limiter
	seq     atomic.Int64
	flight  atomic.Int64
	wg      sync.WaitGroup

	mu      sync.Mutex
	pending []Result[T]
}

// DefaultHTTPClient is used when NewClient is given a nil Doer.
func DefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// NewClient creates a client whose requests run under ctx.
func NewClient[T any](ctx context.Context, doer Doer) *Client[T] {
	if doer == nil {
		doer = DefaultHTTPClient()
	}
	return &Client[T]{ctx: ctx, doer: doer}
}

// WithRateLimit caps dispatch at perSecond requests with the given burst.
// Requests over the cap wait on their own goroutine; Send never blocks.
// A non-positive perSecond removes the cap.
func (c *Client[T]) WithRateLimit(perSecond float64, burst int) *Client[T] {
	if perSecond <= 0 {
		c.limiter = nil
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return c
}

// Send dispatches req on a new goroutine and returns its sequence number.
func (c *Client[T]) Send(req Typed[T]) int64 {
	seq := c.seq.Add(1)
	c.flight.Add(1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		res := c.do(seq, req.Request)
		c.mu.Lock()
		c.pending = append(c.pending, res)
		c.mu.Unlock()
		c.flight.Add(-1)
	}()
	return seq
}

// Poll returns every result delivered since the last call, in delivery order.
func (c *Client[T]) Poll() []Result[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.pending
	c.pending = nil
	return out
}

// InFlight returns the number of requests that have not completed yet.
func (c *Client[T]) InFlight() int { return int(c.flight.Load()) }

// Wait blocks until every sent request has delivered its result.
func (c *Client[T]) Wait() { c.wg.Wait() }

func (c *Client[T]) do(seq int64, req *postgrest.Request) Result[T] {
	res := Result[T]{Seq: seq, Resource: req.Resource, Method: req.Method}

	if c.limiter != nil {
		if err := c.limiter.Wait(c.ctx); err != nil {
			res.Err = &ResponseError{Kind: apperrors.TransportFailed, Detail: fmt.Sprintf("rate limit: %v", err)}
			return res
		}
	}

	httpReq, err := req.HTTPRequest(c.ctx)
	if err != nil {
		res.Err = &ResponseError{Kind: apperrors.TransportFailed, Detail: fmt.Sprintf("create request: %v", err)}
		return res
	}

	resp, err := c.doer.Do(httpReq)
	if err != nil {
		res.Err = &ResponseError{Kind: apperrors.TransportFailed, Detail: fmt.Sprintf("http request: %v", err)}
		return res
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Err = &ResponseError{Kind: apperrors.TransportFailed, Status: resp.StatusCode, Detail: fmt.Sprintf("read response: %v", err)}
		return res
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Err = &ResponseError{
			Kind:   apperrors.TransportFailed,
			Status: resp.StatusCode,
			Detail: errorMessage(resp.StatusCode, body),
			Body:   body,
		}
		return res
	}

	if err := json.Unmarshal(body, &res.Value); err != nil {
		var zero T
		res.Value = zero
		res.Err = &ResponseError{
			Kind:   apperrors.DecodeFailed,
			Status: resp.StatusCode,
			Detail: fmt.Sprintf("decode response: %v", err),
			Body:   body,
		}
	}
	return res
}

// errorMessage pulls a human-readable message out of a PostgREST error body.
func errorMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		res := gjson.GetManyBytes(body, "message", "error", "hint")
		msg := res[0].String()
		if msg == "" {
			msg = res[1].String()
		}
		if msg != "" {
			if hint := res[2].String(); hint != "" {
				msg += " (hint: " + hint + ")"
			}
			return msg
		}
	}
	return strings.ToLower(http.StatusText(status))
}
