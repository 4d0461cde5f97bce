// Package places queries the Google Places Nearby Search API for the
// traffic generators around a candidate site.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"

// POITypes is the business-defined list of place types fetched per site.
var POITypes = []string{
	"supermarket", "convenience_store", "shopping_mall", "department_store",
	"store", "bus_station", "subway_station", "train_station", "transit_station",
	"primary_school", "secondary_school", "university",
	"hospital", "pharmacy", "drugstore",
	"atm", "bank",
	"bakery", "restaurant", "cafe", "bar",
	"hardware_store", "home_goods_store",
	"gas_station", "car_repair", "car_wash", "laundry",
	"church", "city_hall", "local_government_office",
	"courthouse", "police", "fire_station",
	"park", "stadium", "cemetery",
}

// Client performs Places API operations.
type Client interface {
	NearbyByType(ctx context.Context, lat, lon float64, radiusM int, poiType string) ([]Result, error)
}

// Result is one place returned by Nearby Search.
type Result struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	BusinessStatus   string   `json:"business_status"`
	Lat              float64  `json:"lat"`
	Lon              float64  `json:"lon"`
	Vicinity         string   `json:"vicinity"`
	Types            []string `json:"types"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
}

// nearbyResponse is the wire shape of a Nearby Search page.
type nearbyResponse struct {
	Status        string `json:"status"`
	NextPageToken string `json:"next_page_token"`
	Results       []struct {
		PlaceID        string `json:"place_id"`
		Name           string `json:"name"`
		BusinessStatus string `json:"business_status"`
		Geometry       struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Vicinity         string   `json:"vicinity"`
		Types            []string `json:"types"`
		Rating           float64  `json:"rating"`
		UserRatingsTotal int      `json:"user_ratings_total"`
	} `json:"results"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default one-request-per-second limiter.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NearbyByType fetches all pages of a Nearby Search for one place type.
// Pagination follows next_page_token until exhausted.
func (c *httpClient) NearbyByType(ctx context.Context, lat, lon float64, radiusM int, poiType string) ([]Result, error) {
	var out []Result
	pageToken := ""

	for {
		page, err := c.fetchPage(ctx, lat, lon, radiusM, poiType, pageToken)
		if err != nil {
			return nil, err
		}

		for _, r := range page.Results {
			out = append(out, Result{
				PlaceID:          r.PlaceID,
				Name:             r.Name,
				BusinessStatus:   r.BusinessStatus,
				Lat:              r.Geometry.Location.Lat,
				Lon:              r.Geometry.Location.Lng,
				Vicinity:         r.Vicinity,
				Types:            r.Types,
				Rating:           r.Rating,
				UserRatingsTotal: r.UserRatingsTotal,
			})
		}

		if page.NextPageToken == "" {
			return out, nil
		}
		pageToken = page.NextPageToken
	}
}

func (c *httpClient) fetchPage(ctx context.Context, lat, lon float64, radiusM int, poiType, pageToken string) (*nearbyResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "places: rate limit wait")
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	if pageToken != "" {
		q.Set("pagetoken", pageToken)
	} else {
		q.Set("location", fmt.Sprintf("%f,%f", lat, lon))
		q.Set("radius", fmt.Sprintf("%d", radiusM))
		q.Set("type", poiType)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result nearbyResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "places: unmarshal response")
	}

	if result.Status != "OK" && result.Status != "ZERO_RESULTS" {
		return nil, eris.Errorf("places: api status %s", result.Status)
	}

	return &result, nil
}

// FetchAll runs a Nearby Search per POI type and groups the results.
// Individual type failures abort the whole fetch: a partial place set
// would silently skew the integration score.
func FetchAll(ctx context.Context, c Client, lat, lon float64, radiusM int) (map[string][]Result, error) {
	byType := make(map[string][]Result, len(POITypes))
	total := 0

	for _, poiType := range POITypes {
		results, err := c.NearbyByType(ctx, lat, lon, radiusM, poiType)
		if err != nil {
			return nil, eris.Wrapf(err, "places: fetch type %s", poiType)
		}
		if len(results) > 0 {
			byType[poiType] = results
			total += len(results)
		}
	}

	zap.L().Debug("places fetched",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.Int("radius_m", radiusM),
		zap.Int("total", total),
	)
	return byType, nil
}
