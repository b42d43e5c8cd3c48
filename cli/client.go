package cli

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/frankonly/uptree/api"
)

// APIClient talks to the uptree HTTP API.
type APIClient struct {
	base   string
	client *http.Client
}

var apiClient *APIClient

// Client news or returns an uptree API client
func Client() *APIClient {
	if apiClient == nil {
		scheme := "http"
		httpClient := &http.Client{}

		if secureConn {
			scheme = "https"
			httpClient.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{},
			}
		}

		apiClient = &APIClient{
			base:   scheme + "://" + endpoint,
			client: httpClient,
		}
	}

	return apiClient
}

// Build replaces the server's tree with one built from the given leaf values.
func (c *APIClient) Build(ctx context.Context, leaves []interface{}) (api.TreeResponse, error) {
	var resp api.TreeResponse
	err := c.do(ctx, http.MethodPost, "/v1/tree", buildRequest{Leaves: leaves}, &resp)
	return resp, err
}

// Root fetches the current root digest.
func (c *APIClient) Root(ctx context.Context) (string, error) {
	var resp api.RootResponse
	if err := c.do(ctx, http.MethodGet, "/v1/root", nil, &resp); err != nil {
		return "", err
	}
	return resp.Root, nil
}

// Update replaces the leaf at index with a new value.
func (c *APIClient) Update(ctx context.Context, index int, value interface{}) (api.TreeResponse, error) {
	var resp api.TreeResponse
	path := fmt.Sprintf("/v1/leaves/%d", index)
	err := c.do(ctx, http.MethodPut, path, updateRequest{Value: value}, &resp)
	return resp, err
}

// Leaf fetches the digest of the leaf at index.
func (c *APIClient) Leaf(ctx context.Context, index int) (api.LeafResponse, error) {
	var resp api.LeafResponse
	path := fmt.Sprintf("/v1/leaves/%d", index)
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp, err
}

// buildRequest and updateRequest mirror the api request bodies with
// unencoded values, so the caller can pass any JSON-encodable leaf.
type buildRequest struct {
	Leaves []interface{} `json:"leaves"`
}

type updateRequest struct {
	Value interface{} `json:"value"`
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var status api.StatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&status); err == nil && status.Message != "" {
			return fmt.Errorf("%s %s: %s", method, path, status.Message)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}

	return nil
}
