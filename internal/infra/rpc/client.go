// Package rpc wraps outbound HTTP calls in the retry executor.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vietddude/retrypolicy/internal/infra/errclass"
	"github.com/vietddude/retrypolicy/internal/infra/rpc/routing"
)

// RequestFunc builds a fresh request for each attempt so bodies can be replayed.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Client is the high-level interface for making HTTP calls with retry.
type Client struct {
	http *http.Client
	exec *routing.Executor
}

// NewClient creates a client. A nil httpClient uses http.DefaultClient.
func NewClient(httpClient *http.Client, exec *routing.Executor) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, exec: exec}
}

// Do sends the request, retrying failed attempts per policy. Non-2xx
// responses are failures; the returned response is always successful.
func (c *Client) Do(ctx context.Context, name string, newReq RequestFunc) (*http.Response, error) {
	var resp *http.Response

	err := c.exec.Execute(ctx, routing.Operation{
		Name: name,
		Invoke: func(ctx context.Context) error {
			req, err := newReq(ctx)
			if err != nil {
				return errclass.Wrap(errclass.CategoryValidationError, err)
			}

			r, err := c.http.Do(req)
			if err != nil {
				return err
			}
			if httpErr := errclass.FromResponse(r); httpErr != nil {
				_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, 64<<10))
				_ = r.Body.Close()
				return httpErr
			}
			resp = r
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetJSON fetches url and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, name, url string, out any) error {
	resp, err := c.Do(ctx, name, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", name, err)
	}
	return nil
}
