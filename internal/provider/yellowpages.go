package provider

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aniladanir/lead-finder-service/internal/domain"
	"github.com/tidwall/gjson"
)

const DefaultYellowPagesBaseURL = "http://api2.yp.com/listings/v1"

type yellowPages struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewYellowPages creates a provider backed by the Yellow Pages listings api
func NewYellowPages(baseURL, apiKey string, client *http.Client) Provider {
	if baseURL == "" {
		baseURL = DefaultYellowPagesBaseURL
	}
	return &yellowPages{baseURL: baseURL, apiKey: apiKey, client: client}
}

func (y *yellowPages) Name() string {
	return SourceYellowPages
}

func (y *yellowPages) Search(ctx context.Context, q domain.Query) ([]domain.SearchResult, error) {
	params := url.Values{}
	params.Set("searchloc", q.Location)
	params.Set("term", q.Term)
	params.Set("format", "json")
	params.Set("key", y.apiKey)
	if q.Radius > 0 {
		// listings api takes the radius in miles
		params.Set("radius", strconv.FormatFloat(float64(q.Radius)/1609.34, 'f', 1, 64))
	}
	if q.Limit > 0 {
		params.Set("listingcount", strconv.Itoa(q.Limit))
	}

	req, err := newGetRequest(ctx, SourceYellowPages, y.baseURL+"/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	body, err := fetch(y.client, SourceYellowPages, req)
	if err != nil {
		return nil, err
	}

	return parseYellowPages(body), nil
}

func parseYellowPages(body []byte) []domain.SearchResult {
	listings := gjson.GetBytes(body, "searchResult.searchListings.searchListing")
	// a single listing is returned as an object instead of an array
	items := listings.Array()

	results := make([]domain.SearchResult, 0, len(items))
	for _, l := range items {
		results = append(results, domain.SearchResult{
			ID:   l.Get("listingId").String(),
			Name: l.Get("businessName").String(),
			Address: joinNonEmpty(", ",
				l.Get("street").String(),
				l.Get("city").String(),
				joinNonEmpty(" ", l.Get("state").String(), l.Get("zip").String()),
			),
			Phone:       l.Get("phone").String(),
			Rating:      l.Get("averageRating").Float(),
			Source:      SourceYellowPages,
			Website:     l.Get("websiteURL").String(),
			ReviewCount: int(l.Get("ratingCount").Int()),
			Category:    l.Get("primaryCategory").String(),
		})
	}
	return results
}
