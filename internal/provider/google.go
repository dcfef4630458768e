package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aniladanir/lead-finder-service/internal/domain"
	"github.com/tidwall/gjson"
)

const DefaultGoogleBaseURL = "https://maps.googleapis.com/maps/api/place"

type google struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGooglePlaces creates a provider backed by the Places text search api
func NewGooglePlaces(baseURL, apiKey string, client *http.Client) Provider {
	if baseURL == "" {
		baseURL = DefaultGoogleBaseURL
	}
	return &google{baseURL: baseURL, apiKey: apiKey, client: client}
}

func (g *google) Name() string {
	return SourceGoogle
}

func (g *google) Search(ctx context.Context, q domain.Query) ([]domain.SearchResult, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf("%s in %s", q.Term, q.Location))
	params.Set("key", g.apiKey)
	if q.Radius > 0 {
		params.Set("radius", strconv.Itoa(q.Radius))
	}

	req, err := newGetRequest(ctx, SourceGoogle, g.baseURL+"/textsearch/json?"+params.Encode())
	if err != nil {
		return nil, err
	}

	body, err := fetch(g.client, SourceGoogle, req)
	if err != nil {
		return nil, err
	}

	// places api reports failures with 200 and a status field
	switch status := gjson.GetBytes(body, "status").String(); status {
	case "OK", "ZERO_RESULTS":
	default:
		msg := gjson.GetBytes(body, "error_message").String()
		if msg == "" {
			msg = "request failed"
		}
		return nil, &domain.ProviderError{
			Source:     SourceGoogle,
			StatusCode: http.StatusOK,
			Err:        errors.New(status + ": " + msg),
		}
	}

	results := parseGoogle(body)
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

func parseGoogle(body []byte) []domain.SearchResult {
	places := gjson.GetBytes(body, "results").Array()
	results := make([]domain.SearchResult, 0, len(places))
	for _, p := range places {
		results = append(results, domain.SearchResult{
			ID:          p.Get("place_id").String(),
			Name:        p.Get("name").String(),
			Address:     p.Get("formatted_address").String(),
			Phone:       p.Get("formatted_phone_number").String(),
			Rating:      p.Get("rating").Float(),
			Source:      SourceGoogle,
			Website:     p.Get("website").String(),
			ReviewCount: int(p.Get("user_ratings_total").Int()),
			Category:    p.Get("types.0").String(),
		})
	}
	return results
}
