package deeplink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

// Client is the HTTP implementation of Shortener against a link-shortening
// service. Transient failures are retried a few times; any terminal failure
// degrades to "no link".
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a shortener client for the given service endpoint.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type shortenResponse struct {
	URL string `json:"url"`
}

// ShortURL requests a short link for the target. An empty component block id
// is not a shortenable target.
func (c *Client) ShortURL(ctx context.Context, req Request) (string, bool) {
	if req.ComponentBlockID == "" {
		return "", false
	}
	if req.ScreenName == "" {
		req.ScreenName = ScreenCourseComponent
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", false
	}

	var short string
	err = retry.Do(
		func() error {
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/url", bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			httpReq.Header.Set("Content-Type", "application/json")
			if c.apiKey != "" {
				httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
			}

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return retry.Unrecoverable(fmt.Errorf("shortener rejected request: %s", resp.Status))
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("shortener returned %s", resp.Status)
			}

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			var decoded shortenResponse
			if err := json.Unmarshal(data, &decoded); err != nil {
				return retry.Unrecoverable(err)
			}
			short = decoded.URL
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.Printf("[deeplink] shorten failed for block %s: %v", req.ComponentBlockID, err)
		return "", false
	}
	if short == "" {
		return "", false
	}
	return short, true
}
