// Package api talks to the remote persons collection over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/N3moAhead/roster/internal/person"
)

// DefaultCollectionURL is used when nothing else is configured.
const DefaultCollectionURL = "https://task-sever.onrender.com/api/persons"

// ErrMalformedResponse is returned when the body is not the JSON we expect.
var ErrMalformedResponse = errors.New("malformed response")

// StatusError reports a non-2xx answer from the backend.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

type Client struct {
	collection string
	http       *http.Client
}

// NewClient returns a client for the given collection URL, e.g.
// https://host/api/persons. A zero timeout means no timeout.
func NewClient(collectionURL string, timeout time.Duration) *Client {
	return &Client{
		collection: strings.TrimRight(collectionURL, "/"),
		http:       &http.Client{Timeout: timeout},
	}
}

// CollectionURL returns the endpoint the client was built for.
func (c *Client) CollectionURL() string { return c.collection }

// List fetches the whole collection.
func (c *Client) List(ctx context.Context) ([]person.Person, error) {
	var persons []person.Person
	if err := c.do(ctx, http.MethodGet, c.collection, nil, &persons); err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	if persons == nil {
		persons = []person.Person{}
	}
	return persons, nil
}

// Create posts a new record. Any 2xx answer counts as success; the body is
// discarded since callers reload the collection afterwards.
func (c *Client) Create(ctx context.Context, d person.Draft) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	if err := c.do(ctx, http.MethodPost, c.collection, body, nil); err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

// Delete removes the record with the given id. The response body is ignored.
func (c *Client) Delete(ctx context.Context, id person.ID) error {
	target := c.collection + "/" + url.PathEscape(string(id))
	if err := c.do(ctx, http.MethodDelete, target, nil, nil); err != nil {
		return fmt.Errorf("delete person %s: %w", id, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, target string, body []byte, out any) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if out != nil {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: method, URL: target, Code: resp.StatusCode}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return ErrMalformedResponse
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
