package postgrest

import (
	"bytes"
	"context"
	"net/http"
)

// Request is a fully formed REST call waiting to be dispatched.
type Request struct {
	Method   string
	URL      string
	Header   http.Header
	Body     []byte
	Resource string
}

// HasBearer reports whether an Authorization header was attached.
func (r *Request) HasBearer() bool {
	return r.Header.Get("Authorization") != ""
}

// HTTPRequest materializes the request for net/http. Each call returns a fresh
// request so the value can be sent more than once.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body *bytes.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, r.Method, r.URL, nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header = r.Header.Clone()
	return req, nil
}
