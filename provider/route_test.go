package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"

	dbt "tripbot/db/db"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func newRouteTestClient(t *testing.T, handler http.HandlerFunc) *RouteClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &RouteClient{
		httpClient: srv.Client(),
		cache:      testCache(t),
		baseURL:    srv.URL,
	}
}

func TestMapPNG(t *testing.T) {
	var calls int
	geometry := polyline.EncodeCoords([][]float64{{48.85, 2.35}, {45.76, 4.83}})
	client := newRouteTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprintf(w, `{"routes": [{"geometry": %q}]}`, geometry)
	})

	cities := []dbt.City{
		{ID: 1, Name: "Paris", Latitude: 48.85, Longitude: 2.35},
		{ID: 2, Name: "Lyon", Latitude: 45.76, Longitude: 4.83},
		{ID: 3, Name: "Nice", Latitude: 43.71, Longitude: 7.26},
	}

	img, err := client.MapPNG(context.Background(), cities)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic), "rendered map should be a PNG")
	assert.Equal(t, 2, calls, "one leg per consecutive city pair")

	// The same itinerary is served from cache.
	again, err := client.MapPNG(context.Background(), cities)
	require.NoError(t, err)
	assert.Equal(t, img, again)
	assert.Equal(t, 2, calls)
}

func TestMapPNGDegradesOnFailedLegs(t *testing.T) {
	client := newRouteTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no route", http.StatusInternalServerError)
	})

	cities := []dbt.City{
		{ID: 1, Name: "Paris", Latitude: 48.85, Longitude: 2.35},
		{ID: 2, Name: "Lyon", Latitude: 45.76, Longitude: 4.83},
	}

	// Failed legs are skipped; the caller still gets a blank map.
	img, err := client.MapPNG(context.Background(), cities)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))
}

func TestMapPNGSingleCity(t *testing.T) {
	client := newRouteTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no legs should be requested for a single city")
	})

	img, err := client.MapPNG(context.Background(), []dbt.City{{ID: 1, Name: "Paris"}})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))
}
