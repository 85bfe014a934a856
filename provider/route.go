package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/twpayne/go-polyline"

	dbt "tripbot/db/db"
)

const defaultOSRMURL = "http://router.project-osrm.org"

const (
	mapWidth  = 800
	mapHeight = 600
	mapMargin = 40.0
)

// RouteClient renders a driving route through a trip's cities as a PNG:
// one OSRM leg per consecutive city pair, drawn as blue polylines.
type RouteClient struct {
	httpClient *http.Client
	cache      *Cache
	baseURL    string
}

func NewRouteClient(cacheDir string) (*RouteClient, error) {
	cache, err := NewCache(cacheDir)
	if err != nil {
		return nil, err
	}
	return &RouteClient{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		cache:      cache,
		baseURL:    defaultOSRMURL,
	}, nil
}

type osrmResponse struct {
	Routes []struct {
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

// leg fetches one driving route as a list of {lat, lon} points. Any
// failure degrades to an empty leg; the map just misses that segment.
func (c *RouteClient) leg(ctx context.Context, fromLon, fromLat, toLon, toLat float64) [][]float64 {
	loc := fmt.Sprintf("%v,%v;%v,%v", fromLon, fromLat, toLon, toLat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/route/v1/driving/"+loc, nil)
	if err != nil {
		return nil
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil
	}
	if len(body.Routes) == 0 {
		return nil
	}

	coords, _, err := polyline.DecodeCoords([]byte(body.Routes[0].Geometry))
	if err != nil {
		return nil
	}
	return coords
}

// MapPNG renders the route through cities in order, cached by the exact
// city ID sequence.
func (c *RouteClient) MapPNG(ctx context.Context, cities []dbt.City) ([]byte, error) {
	ids := make([]string, len(cities))
	for i, city := range cities {
		ids[i] = strconv.Itoa(city.ID)
	}
	cacheKey := "map_" + strings.Join(ids, "-") + ".png"
	if img, ok := c.cache.GetBytes(cacheKey); ok {
		return img, nil
	}

	var legs [][][]float64
	for i := 0; i+1 < len(cities); i++ {
		from, to := cities[i], cities[i+1]
		legs = append(legs, c.leg(ctx, from.Longitude, from.Latitude, to.Longitude, to.Latitude))
	}

	img, err := renderLegs(legs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	if err := c.cache.PutBytes(cacheKey, img); err != nil {
		return img, nil
	}
	return img, nil
}

// renderLegs projects the route points onto a fixed canvas and strokes
// each leg in blue.
func renderLegs(legs [][][]float64) ([]byte, error) {
	minLat, maxLat := 90.0, -90.0
	minLon, maxLon := 180.0, -180.0
	var points int
	for _, leg := range legs {
		for _, p := range leg {
			lat, lon := p[0], p[1]
			minLat = min(minLat, lat)
			maxLat = max(maxLat, lat)
			minLon = min(minLon, lon)
			maxLon = max(maxLon, lon)
			points++
		}
	}

	dc := gg.NewContext(mapWidth, mapHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	if points > 0 {
		latSpan := maxLat - minLat
		lonSpan := maxLon - minLon
		// Degenerate spans (single point, straight vertical/horizontal
		// leg) still need a nonzero divisor.
		if latSpan == 0 {
			latSpan = 1e-6
		}
		if lonSpan == 0 {
			lonSpan = 1e-6
		}

		project := func(lat, lon float64) (float64, float64) {
			x := mapMargin + (lon-minLon)/lonSpan*(mapWidth-2*mapMargin)
			y := mapMargin + (maxLat-lat)/latSpan*(mapHeight-2*mapMargin)
			return x, y
		}

		dc.SetRGB(0, 0, 1)
		dc.SetLineWidth(5)
		for _, leg := range legs {
			if len(leg) == 0 {
				continue
			}
			x, y := project(leg[0][0], leg[0][1])
			dc.MoveTo(x, y)
			for _, p := range leg[1:] {
				x, y = project(p[0], p[1])
				dc.LineTo(x, y)
			}
			dc.Stroke()
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
