package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aniladanir/lead-finder-service/internal/domain"
)

var testQuery = domain.Query{Term: "pizza", Location: "New York", Radius: 1000, Limit: 5}

func newUpstream(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func testClient() *http.Client {
	return &http.Client{Timeout: 2 * time.Second}
}

func TestYelpSearch(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/businesses/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if r.URL.Query().Get("term") != "pizza" || r.URL.Query().Get("location") != "New York" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"businesses":[{
			"id":"joes-pizza",
			"name":"Joe's Pizza",
			"display_phone":"(212) 366-1182",
			"rating":4.5,
			"review_count":120,
			"url":"https://yelp.com/biz/joes-pizza",
			"categories":[{"title":"Pizza"}],
			"location":{"display_address":["7 Carmine St","New York, NY 10014"]}
		}]}`))
	})

	results, err := NewYelp(srv.URL, "secret", testClient()).Search(context.Background(), testQuery)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	want := domain.SearchResult{
		ID:          "joes-pizza",
		Name:        "Joe's Pizza",
		Address:     "7 Carmine St, New York, NY 10014",
		Phone:       "(212) 366-1182",
		Rating:      4.5,
		Source:      SourceYelp,
		Website:     "https://yelp.com/biz/joes-pizza",
		ReviewCount: 120,
		Category:    "Pizza",
	}
	if len(results) != 1 || results[0] != want {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestYelpUpstreamError(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"TOKEN_INVALID","description":"Invalid access token"}}`))
	})

	_, err := NewYelp(srv.URL, "bad", testClient()).Search(context.Background(), testQuery)

	var providerErr *domain.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if providerErr.Source != SourceYelp || providerErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected provider error: %+v", providerErr)
	}
	if providerErr.Err.Error() != "Invalid access token" {
		t.Fatalf("unexpected upstream message %q", providerErr.Err.Error())
	}
}

func TestGooglePlacesSearch(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/textsearch/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "pizza in New York" {
			t.Errorf("unexpected query parameter %q", got)
		}
		if r.URL.Query().Get("key") != "secret" {
			t.Errorf("missing api key")
		}
		w.Write([]byte(`{"status":"OK","results":[
			{"place_id":"p1","name":"Joe's Pizza","formatted_address":"7 Carmine St, New York","rating":4.6,"user_ratings_total":900,"types":["restaurant"]},
			{"place_id":"p2","name":"Prince Street Pizza","formatted_address":"27 Prince St, New York","rating":4.4}
		]}`))
	})

	q := testQuery
	q.Limit = 1
	results, err := NewGooglePlaces(srv.URL, "secret", testClient()).Search(context.Background(), q)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected limit to be applied, got %d results", len(results))
	}
	if r := results[0]; r.ID != "p1" || r.Source != SourceGoogle || r.ReviewCount != 900 || r.Category != "restaurant" {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestGooglePlacesStatusError(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","results":[]}`))
	})

	_, err := NewGooglePlaces(srv.URL, "bad", testClient()).Search(context.Background(), testQuery)

	var providerErr *domain.ProviderError
	if !errors.As(err, &providerErr) || providerErr.Source != SourceGoogle {
		t.Fatalf("expected google provider error, got %v", err)
	}
}

func TestGooglePlacesZeroResults(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})

	results, err := NewGooglePlaces(srv.URL, "secret", testClient()).Search(context.Background(), testQuery)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestYellowPagesSearch(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		count int
	}{
		{
			name: "many listings",
			body: `{"searchResult":{"searchListings":{"searchListing":[
				{"listingId":1,"businessName":"Joe's Pizza","street":"7 Carmine St","city":"New York","state":"NY","zip":"10014","phone":"2123661182","averageRating":4,"primaryCategory":"Pizza"},
				{"listingId":2,"businessName":"Lombardi's","city":"New York","state":"NY"}
			]}}}`,
			count: 2,
		},
		{
			name:  "single listing object",
			body:  `{"searchResult":{"searchListings":{"searchListing":{"listingId":1,"businessName":"Joe's Pizza","street":"7 Carmine St","city":"New York","state":"NY","zip":"10014"}}}}`,
			count: 1,
		},
		{
			name:  "no listings",
			body:  `{"searchResult":{"searchListings":null}}`,
			count: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("searchloc") != "New York" || r.URL.Query().Get("format") != "json" {
					t.Errorf("unexpected query %s", r.URL.RawQuery)
				}
				w.Write([]byte(tt.body))
			})

			results, err := NewYellowPages(srv.URL, "secret", testClient()).Search(context.Background(), testQuery)
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			if len(results) != tt.count {
				t.Fatalf("expected %d results, got %d", tt.count, len(results))
			}
			if tt.count > 0 {
				if r := results[0]; r.ID != "1" || r.Address != "7 Carmine St, New York, NY 10014" || r.Source != SourceYellowPages {
					t.Fatalf("unexpected result: %+v", r)
				}
			}
		})
	}
}

func TestMakeWebhookSearch(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var q domain.Query
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil || q != testQuery {
			t.Errorf("unexpected request body %+v (%v)", q, err)
		}
		w.Write([]byte(`[
			{"place_id":"abc","title":"Joe's Pizza","address":"7 Carmine St","phone_number":"2123661182","rating":"4.5"},
			{"name":"No Id Pizza","address":"1 Main St"},
			{"address":"nameless"}
		]`))
	})

	results, err := NewMakeWebhook(srv.URL, testClient()).Search(context.Background(), testQuery)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected entries without a name to be skipped, got %d results", len(results))
	}
	if r := results[0]; r.ID != "abc" || r.Name != "Joe's Pizza" || r.Phone != "2123661182" || r.Rating != 4.5 {
		t.Fatalf("unexpected result: %+v", r)
	}

	// generated ids are stable across calls
	again := parseMake([]byte(`[{"name":"No Id Pizza","address":"1 Main St"}]`))
	if results[1].ID == "" || results[1].ID != again[0].ID {
		t.Fatalf("expected deterministic id, got %q and %q", results[1].ID, again[0].ID)
	}
}

func TestMalformedBody(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>oops</html>`))
	})

	_, err := NewYelp(srv.URL, "secret", testClient()).Search(context.Background(), testQuery)

	var providerErr *domain.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewMakeWebhook(srv.URL, testClient()).Search(context.Background(), testQuery)

	var providerErr *domain.ProviderError
	if !errors.As(err, &providerErr) || providerErr.StatusCode != 0 || providerErr.Source != SourceMake {
		t.Fatalf("expected transport provider error, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(
		NewYelp("", "k", testClient()),
		NewMakeWebhook("http://localhost", testClient()),
		NewGooglePlaces("", "k", testClient()),
	)

	names := r.Names()
	want := []string{SourceGoogle, SourceMake, SourceYelp}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}

	if _, ok := r.Lookup(SourceYellowPages); ok {
		t.Fatal("expected yellowpages to be disabled")
	}
	if !Known(SourceYellowPages) || Known("bing") {
		t.Fatal("unexpected known sources")
	}
}
