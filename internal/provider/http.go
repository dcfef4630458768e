package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aniladanir/lead-finder-service/internal/domain"
	"github.com/tidwall/gjson"
)

// maxBodySize bounds how much of an upstream response is read
const maxBodySize = 4 << 20

// fetch executes req and returns the response body. Every failure is
// reported as a *domain.ProviderError tagged with source.
func fetch(client *http.Client, source string, req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Source: source, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &domain.ProviderError{Source: source, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &domain.ProviderError{
			Source:     source,
			StatusCode: resp.StatusCode,
			Err:        errors.New(upstreamMessage(body, resp.StatusCode)),
		}
	}

	if !gjson.ValidBytes(body) {
		return nil, &domain.ProviderError{Source: source, StatusCode: resp.StatusCode, Err: errors.New("malformed json response")}
	}

	return body, nil
}

func newGetRequest(ctx context.Context, source, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.ProviderError{Source: source, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	return req, nil
}

func newPostRequest(ctx context.Context, source, url string, payload any) (*http.Request, error) {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, &domain.ProviderError{Source: source, Err: fmt.Errorf("failed to encode request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return nil, &domain.ProviderError{Source: source, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// upstreamMessage extracts a human readable error out of common error shapes
func upstreamMessage(body []byte, statusCode int) string {
	for _, path := range []string{"error.description", "error.message", "error_message", "error", "message"} {
		if res := gjson.GetBytes(body, path); res.Exists() && res.Type == gjson.String && res.String() != "" {
			return res.String()
		}
	}
	return http.StatusText(statusCode)
}

func joinNonEmpty(sep string, parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, sep)
}
