// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package postgrest builds PostgREST requests. It never touches the network:
// Build produces an inert Request value that a transport dispatches later.
package postgrest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	apperrors "supatodo/cli/internal/errors"
)

// Client holds the REST endpoint and the project API key sent on every request.
type Client struct {
	endpoint string
	apiKey   string
}

// New creates a client for a REST endpoint such as http://127.0.0.1:54321/rest/v1.
func New(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
	}
}

// Endpoint returns the REST base URL.
func (c *Client) Endpoint() string { return c.endpoint }

// From starts a builder for a resource (table or view).
func (c *Client) From(resource string) *Builder {
	return &Builder{client: c, resource: resource}
}

// Builder accumulates a query or mutation against one resource.
type Builder struct {
	client   *Client
	resource string
	columns  string
	filters  url.Values
	orders   []string
	limit    int
	payload  *string
	token    string
}

// Select specifies columns to select, e.g. "*".
func (b *Builder) Select(columns string) *Builder {
	b.columns = columns
	return b
}

// Eq adds an equality filter.
func (b *Builder) Eq(column string, value any) *Builder {
	if b.filters == nil {
		b.filters = url.Values{}
	}
	b.filters.Add(column, fmt.Sprintf("eq.%v", value))
	return b
}

// Order adds an ORDER BY clause.
func (b *Builder) Order(column string, ascending bool) *Builder {
	dir := "asc"
	if !ascending {
		dir = "desc"
	}
	b.orders = append(b.orders, column+"."+dir)
	return b
}

// Limit sets the LIMIT.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// Insert turns the builder into an insert of an already-serialized JSON payload.
func (b *Builder) Insert(payload string) *Builder {
	b.payload = &payload
	return b
}

// Auth attaches a bearer token. An empty token attaches nothing.
func (b *Builder) Auth(token string) *Builder {
	b.token = token
	return b
}

// Build validates the builder and returns the request. Errors are construction
// errors; nothing has been sent.
func (b *Builder) Build() (*Request, error) {
	if strings.TrimSpace(b.resource) == "" {
		return nil, apperrors.New(apperrors.ConstructionFailed, "resource name is required")
	}

	params := url.Values{}
	for k, vs := range b.filters {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	if b.columns != "" {
		params.Set("select", b.columns)
	}
	if len(b.orders) > 0 {
		params.Set("order", strings.Join(b.orders, ","))
	}
	if b.limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", b.limit))
	}

	reqURL := b.client.endpoint + "/" + url.PathEscape(b.resource)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	if b.client.apiKey != "" {
		header.Set("apikey", b.client.apiKey)
	}
	if b.token != "" {
		header.Set("Authorization", "Bearer "+b.token)
	}

	req := &Request{Method: http.MethodGet, URL: reqURL, Header: header, Resource: b.resource}
	if b.payload != nil {
		if !json.Valid([]byte(*b.payload)) {
			return nil, apperrors.New(apperrors.ConstructionFailed, "insert payload is not valid JSON")
		}
		req.Method = http.MethodPost
		req.Body = []byte(*b.payload)
		header.Set("Content-Type", "application/json")
		header.Set("Prefer", "return=representation")
	}
	return req, nil
}
