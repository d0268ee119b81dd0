package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/yevgeniy8/books-reading-backend/cli/config"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// apiRequest performs an authenticated JSON request against the configured
// server. withTimezone appends the configured timezone as a query parameter,
// which every plan and progress endpoint expects.
func apiRequest(method, path string, payload any, withTimezone bool) (int, []byte, error) {
	cfg, err := config.Load()
	if err != nil {
		return 0, nil, fmt.Errorf("configuration not initialized, run: readingctl init")
	}
	if cfg.Server.URL == "" {
		return 0, nil, fmt.Errorf("server URL is not configured, run: readingctl init")
	}

	fullURL := cfg.Server.URL + path
	if withTimezone {
		tz := cfg.Timezone
		if tz == "" {
			tz = "UTC"
		}
		sep := "?"
		if u, err := url.Parse(fullURL); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		fullURL += sep + "timezone=" + url.QueryEscape(tz)
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, fullURL, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.User.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.User.AccessToken)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("server connection error: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody, nil
}

func apiErrorMessage(body []byte) string {
	var errResp map[string]string
	json.Unmarshal(body, &errResp)
	if msg := errResp["message"]; msg != "" {
		return msg
	}
	return "unexpected server response"
}
