package e2e

import (
	"context"
	"io"
	"net/http"
)

// Document is one delivered payload as seen from the consumer side.
type Document struct {
	Status      int
	ContentType string
	Body        []byte
}

// Client plays the role of the browser: it requests arbitrary paths and
// keeps whatever document comes back.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// Fetch issues one delivery session and drains the response.
func (c *Client) Fetch(ctx context.Context, method, path string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return Document{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Document{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
