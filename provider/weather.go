package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	dbt "tripbot/db/db"
)

// ForecastHorizon is how far ahead the upstream serves daily forecasts.
const ForecastHorizon = 14 * 24 * time.Hour

const defaultWeatherURL = "https://api.open-meteo.com/v1/forecast"

// DayForecast is one city-day of the raw forecast.
type DayForecast struct {
	MaxTemp float64 `json:"max_temp"`
	MinTemp float64 `json:"min_temp"`
	// Precip is the maximum precipitation probability for the day, 0-100.
	Precip float64 `json:"precip"`
}

// WeatherClient queries the open-meteo daily forecast API.
type WeatherClient struct {
	httpClient *http.Client
	cache      *Cache
	baseURL    string
	now        func() time.Time
}

func NewWeatherClient(cacheDir string) (*WeatherClient, error) {
	cache, err := NewCache(cacheDir)
	if err != nil {
		return nil, err
	}
	return &WeatherClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache,
		baseURL:    defaultWeatherURL,
		now:        time.Now,
	}, nil
}

type openMeteoResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
	Daily  struct {
		Time                        []string  `json:"time"`
		TemperatureMax              []float64 `json:"temperature_2m_max"`
		TemperatureMin              []float64 `json:"temperature_2m_min"`
		PrecipitationProbabilityMax []float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
}

// forecast fetches the per-day forecast for one coordinate pair, keyed by
// date, serving from cache when possible.
func (c *WeatherClient) forecast(ctx context.Context, lat, lon float64, start, end string) (map[string]DayForecast, error) {
	cacheKey := fmt.Sprintf("weather_%v_%v_%s_%s", lat, lon, start, end)
	days := make(map[string]DayForecast)
	if c.cache.Get(cacheKey, &days) {
		return days, nil
	}

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%v", lat))
	q.Set("longitude", fmt.Sprintf("%v", lon))
	q.Set("start_date", start)
	q.Set("end_date", end)
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_probability_max")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	var body openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if body.Error {
		return nil, fmt.Errorf("%w: %s", ErrProvider, body.Reason)
	}
	if len(body.Daily.Time) != len(body.Daily.TemperatureMax) ||
		len(body.Daily.Time) != len(body.Daily.TemperatureMin) ||
		len(body.Daily.Time) != len(body.Daily.PrecipitationProbabilityMax) {
		return nil, fmt.Errorf("%w: mismatched daily series", ErrProvider)
	}

	for i, day := range body.Daily.Time {
		days[day] = DayForecast{
			MaxTemp: body.Daily.TemperatureMax[i],
			MinTemp: body.Daily.TemperatureMin[i],
			Precip:  body.Daily.PrecipitationProbabilityMax[i],
		}
	}

	if err := c.cache.Put(cacheKey, days); err != nil {
		return days, nil // serve the data even when caching fails
	}
	return days, nil
}

// Summary returns one condensed forecast per city. A window entirely
// beyond the horizon yields ErrUnavailable; an end date beyond it is
// clamped.
func (c *WeatherClient) Summary(ctx context.Context, cities []dbt.City, start, end time.Time) (map[string]WeatherSummary, error) {
	horizon := dbt.Date(c.now()).Add(ForecastHorizon)
	if dbt.Date(start).After(horizon) {
		return nil, fmt.Errorf("weather for %s: %w", start.Format("2006-01-02"), ErrUnavailable)
	}
	if dbt.Date(end).After(horizon) {
		end = horizon
	}

	startStr := dbt.Date(start).Format("2006-01-02")
	endStr := dbt.Date(end).Format("2006-01-02")

	summaries := make(map[string]WeatherSummary, len(cities))
	for _, city := range cities {
		days, err := c.forecast(ctx, city.Latitude, city.Longitude, startStr, endStr)
		if err != nil {
			return nil, fmt.Errorf("weather for %s: %w", city.Name, err)
		}
		if len(days) == 0 {
			return nil, fmt.Errorf("weather for %s: %w", city.Name, ErrProvider)
		}

		var dayTotal, nightTotal float64
		var rainy []string
		for day, f := range days {
			dayTotal += f.MaxTemp
			nightTotal += f.MinTemp
			if f.Precip > 50 {
				rainy = append(rainy, day)
			}
		}
		sort.Strings(rainy)

		summaries[city.Name] = WeatherSummary{
			AvgDayTemp:   dayTotal / float64(len(days)),
			AvgNightTemp: nightTotal / float64(len(days)),
			RainyDays:    rainy,
		}
	}
	return summaries, nil
}
