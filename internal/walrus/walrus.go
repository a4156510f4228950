// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package walrus stores and retrieves blobs through Walrus HTTP gateways:
// a publisher for writes and an aggregator for reads.
package walrus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const defaultTimeout = 30 * time.Second

// maxBlobSize caps reads of retrieved blobs.
const maxBlobSize = 16 << 20

// Client reads and writes content-addressed blobs.
type Client struct {
	PublisherURL  string
	AggregatorURL string
	HTTP          *http.Client
	Epochs        int
	Timeout       time.Duration
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

// putResponse covers both publisher outcomes: a freshly stored blob or one
// the network already held.
type putResponse struct {
	NewlyCreated *struct {
		BlobObject struct {
			BlobID string `json:"blobId"`
		} `json:"blobObject"`
	} `json:"newlyCreated"`
	AlreadyCertified *struct {
		BlobID string `json:"blobId"`
	} `json:"alreadyCertified"`
}

// Put stores data for the configured number of epochs and returns the blob
// id. Re-uploading identical bytes returns the existing id.
func (c *Client) Put(ctx context.Context, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	epochs := c.Epochs
	if epochs < 1 {
		epochs = 1
	}
	url := c.PublisherURL + "/v1/blobs?epochs=" + strconv.Itoa(epochs)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("building store request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("storing blob: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBlobSize))
	if err != nil {
		return "", fmt.Errorf("reading publisher response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("publisher returned status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var decoded putResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decoding publisher response: %w", err)
	}
	switch {
	case decoded.NewlyCreated != nil && decoded.NewlyCreated.BlobObject.BlobID != "":
		return decoded.NewlyCreated.BlobObject.BlobID, nil
	case decoded.AlreadyCertified != nil && decoded.AlreadyCertified.BlobID != "":
		return decoded.AlreadyCertified.BlobID, nil
	}
	return "", fmt.Errorf("publisher response carries no blob id")
}

// Get retrieves a blob by id from the aggregator.
func (c *Client) Get(ctx context.Context, blobID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.AggregatorURL+"/v1/blobs/"+blobID, nil)
	if err != nil {
		return nil, fmt.Errorf("building retrieve request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieving blob %s: %w", blobID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBlobSize))
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", blobID, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aggregator returned status %d for blob %s: %s", resp.StatusCode, blobID, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
