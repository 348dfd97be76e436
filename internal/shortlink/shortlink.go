// Package shortlink wraps the third-party ad-shortlink provider. The
// provider is best-effort: any failure degrades to the raw target URL
// so a broken shortener never breaks the bot.
package shortlink

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	apiURL string
	apiKey string
	httpc  *http.Client
}

func New(apiURL, apiKey string) *Client {
	if apiURL != "" && !strings.Contains(apiURL, "://") {
		apiURL = "https://" + apiURL
	}
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		httpc:  &http.Client{Timeout: 10 * time.Second},
	}
}

type apiResponse struct {
	Status       string `json:"status"`
	ShortenedURL string `json:"shortenedUrl"`
	Message      string `json:"message"`
}

// Shorten returns the ad-gated short URL for target, or target itself
// when the provider is unconfigured or fails.
func (c *Client) Shorten(target string) string {
	if c.apiURL == "" || c.apiKey == "" {
		return target
	}
	u := fmt.Sprintf("%s/api?api=%s&url=%s",
		c.apiURL, url.QueryEscape(c.apiKey), url.QueryEscape(target))

	resp, err := c.httpc.Get(u)
	if err != nil {
		log.Printf("shortlink: %v", err)
		return target
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("shortlink: %s", resp.Status)
		return target
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Printf("shortlink: decode: %v", err)
		return target
	}
	if !strings.EqualFold(out.Status, "success") || out.ShortenedURL == "" {
		log.Printf("shortlink: provider status %q: %s", out.Status, out.Message)
		return target
	}
	return out.ShortenedURL
}
