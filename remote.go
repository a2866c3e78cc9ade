package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxBody bounds a downloaded list.
const maxBody = 256 << 20

// Get returns the body of the response for the given url
// by making an HTTP GET request. A body larger than limit is an error
// rather than a truncated list; limit <= 0 means maxBody.
func Get(
	ctx context.Context,
	client *http.Client,
	url string,
	limit int64,
) ([]byte, error) {
	if limit <= 0 {
		limit = maxBody
	}

	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}

	if int64(len(data)) > limit {
		return nil, fmt.Errorf("body of %s exceeds %d bytes", url, limit)
	}

	return data, nil
}
