package provider

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aniladanir/lead-finder-service/internal/domain"
	"github.com/tidwall/gjson"
)

const DefaultYelpBaseURL = "https://api.yelp.com/v3"

// yelp radius is capped at 40km
const yelpMaxRadius = 40000

type yelp struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewYelp creates a provider backed by the Yelp Fusion business search
func NewYelp(baseURL, apiKey string, client *http.Client) Provider {
	if baseURL == "" {
		baseURL = DefaultYelpBaseURL
	}
	return &yelp{baseURL: baseURL, apiKey: apiKey, client: client}
}

func (y *yelp) Name() string {
	return SourceYelp
}

func (y *yelp) Search(ctx context.Context, q domain.Query) ([]domain.SearchResult, error) {
	params := url.Values{}
	params.Set("term", q.Term)
	params.Set("location", q.Location)
	if q.Radius > 0 {
		params.Set("radius", strconv.Itoa(min(q.Radius, yelpMaxRadius)))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	req, err := newGetRequest(ctx, SourceYelp, y.baseURL+"/businesses/search?"+params.Encode())
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+y.apiKey)

	body, err := fetch(y.client, SourceYelp, req)
	if err != nil {
		return nil, err
	}

	return parseYelp(body), nil
}

func parseYelp(body []byte) []domain.SearchResult {
	businesses := gjson.GetBytes(body, "businesses").Array()
	results := make([]domain.SearchResult, 0, len(businesses))
	for _, b := range businesses {
		address := make([]string, 0, 3)
		for _, line := range b.Get("location.display_address").Array() {
			address = append(address, line.String())
		}

		phone := b.Get("display_phone").String()
		if phone == "" {
			phone = b.Get("phone").String()
		}

		results = append(results, domain.SearchResult{
			ID:          b.Get("id").String(),
			Name:        b.Get("name").String(),
			Address:     joinNonEmpty(", ", address...),
			Phone:       phone,
			Rating:      b.Get("rating").Float(),
			Source:      SourceYelp,
			Website:     b.Get("url").String(),
			ReviewCount: int(b.Get("review_count").Int()),
			Category:    b.Get("categories.0.title").String(),
		})
	}
	return results
}
