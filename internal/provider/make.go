package provider

import (
	"context"
	"net/http"

	"github.com/aniladanir/lead-finder-service/internal/domain"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

type makeWebhook struct {
	webhookURL string
	client     *http.Client
}

// NewMakeWebhook creates a provider that delegates the search to a Make.com
// scenario. The scenario responds with an array of business objects whose
// field names vary with the modules used inside it.
func NewMakeWebhook(webhookURL string, client *http.Client) Provider {
	return &makeWebhook{webhookURL: webhookURL, client: client}
}

func (m *makeWebhook) Name() string {
	return SourceMake
}

func (m *makeWebhook) Search(ctx context.Context, q domain.Query) ([]domain.SearchResult, error) {
	req, err := newPostRequest(ctx, SourceMake, m.webhookURL, q)
	if err != nil {
		return nil, err
	}

	body, err := fetch(m.client, SourceMake, req)
	if err != nil {
		return nil, err
	}

	return parseMake(body), nil
}

func parseMake(body []byte) []domain.SearchResult {
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		root = root.Get("results")
	}

	items := root.Array()
	results := make([]domain.SearchResult, 0, len(items))
	for _, it := range items {
		name := firstOf(it, "name", "title", "businessName")
		if name == "" {
			continue
		}
		address := firstOf(it, "address", "formatted_address", "full_address")

		id := firstOf(it, "id", "place_id", "placeId")
		if id == "" {
			// scenarios without a stable id still need a deterministic one
			id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(name+"|"+address)).String()
		}

		results = append(results, domain.SearchResult{
			ID:          id,
			Name:        name,
			Address:     address,
			Phone:       firstOf(it, "phone", "phone_number", "formatted_phone_number"),
			Rating:      it.Get("rating").Float(),
			Source:      SourceMake,
			Website:     firstOf(it, "website", "url"),
			ReviewCount: int(it.Get("reviews").Int()),
			Category:    firstOf(it, "category", "type"),
		})
	}
	return results
}

func firstOf(res gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := res.Get(p).String(); v != "" {
			return v
		}
	}
	return ""
}
