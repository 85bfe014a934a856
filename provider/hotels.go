package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	dbt "tripbot/db/db"
)

const defaultHotelsURL = "https://hotels-com-provider.p.rapidapi.com"

const hotelsPerCity = 5

// HotelClient queries the hotels.com RapidAPI provider: a region lookup to
// resolve the city, then a search sorted by review score.
type HotelClient struct {
	httpClient *http.Client
	cache      *Cache
	baseURL    string
	apiKey     string
}

func NewHotelClient(cacheDir string) (*HotelClient, error) {
	cache, err := NewCache(cacheDir)
	if err != nil {
		return nil, err
	}
	return &HotelClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      cache,
		baseURL:    defaultHotelsURL,
		apiKey:     os.Getenv("RAPIDAPI_KEY"),
	}, nil
}

func (c *HotelClient) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", "hotels-com-provider.p.rapidapi.com")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrProvider, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return nil
}

type regionsResponse struct {
	Data []struct {
		GaiaID string `json:"gaiaId"`
	} `json:"data"`
}

// regionID resolves a city name to the provider's region identifier.
func (c *HotelClient) regionID(ctx context.Context, city string) (string, error) {
	q := url.Values{}
	q.Set("query", city)
	q.Set("domain", "GB")
	q.Set("locale", "en_GB")

	var body regionsResponse
	if err := c.get(ctx, "/v2/regions", q, &body); err != nil {
		return "", err
	}
	if len(body.Data) == 0 || body.Data[0].GaiaID == "" {
		return "", fmt.Errorf("region for %q: %w", city, ErrLocationNotFound)
	}
	return body.Data[0].GaiaID, nil
}

type hotelsSearchResponse struct {
	Properties []struct {
		Name    string   `json:"name"`
		Star    *float64 `json:"star"`
		Reviews struct {
			Score float64 `json:"score"`
		} `json:"reviews"`
		Price struct {
			Lead struct {
				Formatted string `json:"formatted"`
			} `json:"lead"`
		} `json:"price"`
		DestinationInfo struct {
			DistanceFromDestination struct {
				Value float64 `json:"value"`
			} `json:"distanceFromDestination"`
		} `json:"destinationInfo"`
	} `json:"properties"`
}

// search returns the top hotels for a region, best-reviewed first.
func (c *HotelClient) search(ctx context.Context, regionID, start, end string) ([]Hotel, error) {
	cacheKey := fmt.Sprintf("hotels_%s_%s_%s", regionID, start, end)
	var hotels []Hotel
	if c.cache.Get(cacheKey, &hotels) {
		return hotels, nil
	}

	q := url.Values{}
	q.Set("region_id", regionID)
	q.Set("checkin_date", start)
	q.Set("checkout_date", end)
	q.Set("sort_order", "REVIEW")
	q.Set("adults_number", "1")
	q.Set("domain", "GB")
	q.Set("locale", "en_GB")
	q.Set("available_filter", "SHOW_AVAILABLE_ONLY")

	var body hotelsSearchResponse
	if err := c.get(ctx, "/v2/hotels/search", q, &body); err != nil {
		return nil, err
	}

	for i, p := range body.Properties {
		if i == hotelsPerCity {
			break
		}
		hotels = append(hotels, Hotel{
			Name:       p.Name,
			Stars:      p.Star,
			UserRating: p.Reviews.Score,
			Price:      p.Price.Lead.Formatted,
			Distance:   p.DestinationInfo.DistanceFromDestination.Value,
		})
	}

	if err := c.cache.Put(cacheKey, hotels); err != nil {
		return hotels, nil
	}
	return hotels, nil
}

// TopHotels returns up to five best-reviewed hotels per city for the stay
// window.
func (c *HotelClient) TopHotels(ctx context.Context, cities []dbt.City, start, end time.Time) (map[string][]Hotel, error) {
	startStr := dbt.Date(start).Format("2006-01-02")
	endStr := dbt.Date(end).Format("2006-01-02")

	result := make(map[string][]Hotel, len(cities))
	for _, city := range cities {
		regionID, err := c.regionID(ctx, city.Name)
		if err != nil {
			return nil, err
		}
		hotels, err := c.search(ctx, regionID, startStr, endStr)
		if err != nil {
			return nil, fmt.Errorf("hotels for %s: %w", city.Name, err)
		}
		result[city.Name] = hotels
	}
	return result, nil
}
