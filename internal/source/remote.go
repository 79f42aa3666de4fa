package source

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// NewRemoteClient returns a resty client for fetching sheets over HTTP.
func NewRemoteClient(timeout time.Duration) *resty.Client {
	client := resty.New().
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "text/csv, application/json;q=0.9, */*;q=0.5")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return client
}

// NewURLSource downloads a CSV or JSON sheet with client. The format follows
// the URL path extension, then the response content type.
func NewURLSource(client *resty.Client, url string) *SheetAdapter {
	return newSheetAdapter("url:"+url, fmt.Sprintf("URL (%s)", url), func(ctx context.Context) (*Sheet, error) {
		resp, err := client.R().SetContext(ctx).Get(url)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
		}
		format := DetectFormat(url, resp.Header().Get("Content-Type"))
		return ParseSheet(format, bytes.NewReader(resp.Body()))
	})
}
