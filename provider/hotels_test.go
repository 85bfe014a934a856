package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbt "tripbot/db/db"
)

func newHotelTestClient(t *testing.T, handler http.Handler) *HotelClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &HotelClient{
		httpClient: srv.Client(),
		cache:      testCache(t),
		baseURL:    srv.URL,
		apiKey:     "test-key",
	}
}

func hotelsSearchBody(n int) string {
	body := `{"properties": [`
	for i := 0; i < n; i++ {
		if i > 0 {
			body += ","
		}
		star := `4`
		if i == 1 {
			star = "null"
		}
		body += fmt.Sprintf(`{
			"name": "Hotel %d",
			"star": %s,
			"reviews": {"score": %d.5},
			"price": {"lead": {"formatted": "$%d"}},
			"destinationInfo": {"distanceFromDestination": {"value": %d.2}}
		}`, i+1, star, 9-i, 100+i, i+1)
	}
	return body + `]}`
}

func TestTopHotels(t *testing.T) {
	var searchCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/regions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "Lyon", r.URL.Query().Get("query"))
		fmt.Fprint(w, `{"data": [{"gaiaId": "1234"}]}`)
	})
	mux.HandleFunc("/v2/hotels/search", func(w http.ResponseWriter, r *http.Request) {
		searchCalls++
		assert.Equal(t, "1234", r.URL.Query().Get("region_id"))
		assert.Equal(t, "REVIEW", r.URL.Query().Get("sort_order"))
		assert.Equal(t, "2099-08-01", r.URL.Query().Get("checkin_date"))
		assert.Equal(t, "2099-08-10", r.URL.Query().Get("checkout_date"))
		fmt.Fprint(w, hotelsSearchBody(7))
	})
	client := newHotelTestClient(t, mux)

	cities := []dbt.City{{ID: 2, Name: "Lyon"}}
	start := time.Date(2099, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2099, 8, 10, 0, 0, 0, 0, time.UTC)

	result, err := client.TopHotels(context.Background(), cities, start, end)
	require.NoError(t, err)
	hotels := result["Lyon"]
	require.Len(t, hotels, hotelsPerCity, "results are capped per city")

	assert.Equal(t, "Hotel 1", hotels[0].Name)
	require.NotNil(t, hotels[0].Stars)
	assert.Equal(t, 4.0, *hotels[0].Stars)
	assert.Equal(t, 9.5, hotels[0].UserRating)
	assert.Equal(t, "$100", hotels[0].Price)
	assert.Equal(t, 1.2, hotels[0].Distance)

	// The second property has no star rating.
	assert.Nil(t, hotels[1].Stars)

	// The search for the same region and window is served from cache.
	_, err = client.TopHotels(context.Background(), cities, start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, searchCalls)
}

func TestTopHotelsUnknownLocation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/regions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": []}`)
	})
	client := newHotelTestClient(t, mux)

	cities := []dbt.City{{ID: 9, Name: "Nowhere"}}
	_, err := client.TopHotels(context.Background(), cities, time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestTopHotelsUpstreamFailure(t *testing.T) {
	client := newHotelTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))

	cities := []dbt.City{{ID: 2, Name: "Lyon"}}
	_, err := client.TopHotels(context.Background(), cities, time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrProvider)
}
