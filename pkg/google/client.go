// Package google is a thin client for the Google Places web service
// (find place, text search, nearby search).
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/address-classifier/internal/resilience"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// DefaultFindPlaceFields are the fields requested for a main-place lookup.
var DefaultFindPlaceFields = []string{
	"name",
	"formatted_address",
	"types",
	"business_status",
	"user_ratings_total",
	"rating",
	"geometry",
}

// Client performs Google Places API operations.
type Client interface {
	FindPlace(ctx context.Context, input string, fields []string) (*FindPlaceResponse, error)
	TextSearch(ctx context.Context, query string) (*SearchResponse, error)
	NearbySearch(ctx context.Context, req NearbyRequest) (*SearchResponse, error)
}

// FindPlaceResponse is the response from Find Place From Text.
type FindPlaceResponse struct {
	Candidates   []Place `json:"candidates"`
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
}

// SearchResponse is the response from Text Search and Nearby Search.
type SearchResponse struct {
	Results      []Place `json:"results"`
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
}

// NearbyRequest locates a radius search.
type NearbyRequest struct {
	Lat     float64
	Lng     float64
	RadiusM int
}

// Place is a candidate or result returned by the API. Optional fields are
// pointers so an absent value can be told apart from a zero value.
type Place struct {
	Name             string    `json:"name"`
	FormattedAddress string    `json:"formatted_address,omitempty"`
	Types            []string  `json:"types,omitempty"`
	BusinessStatus   string    `json:"business_status,omitempty"`
	UserRatingsTotal int       `json:"user_ratings_total,omitempty"`
	Rating           *float64  `json:"rating,omitempty"`
	Geometry         *Geometry `json:"geometry,omitempty"`
}

// Geometry holds the place location.
type Geometry struct {
	Location *LatLng `json:"location,omitempty"`
}

// LatLng is a coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location returns the place coordinates, or nil when the API omitted them.
func (p Place) Location() *LatLng {
	if p.Geometry == nil {
		return nil
	}
	return p.Geometry.Location
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout. A client passed through
// WithHTTPClient is copied first and never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	if c.timeout > 0 && c.http.Timeout != c.timeout {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

func (c *httpClient) FindPlace(ctx context.Context, input string, fields []string) (*FindPlaceResponse, error) {
	if len(fields) == 0 {
		fields = DefaultFindPlaceFields
	}
	params := url.Values{
		"input":     {input},
		"inputtype": {"textquery"},
		"fields":    {strings.Join(fields, ",")},
	}

	var result FindPlaceResponse
	if err := c.get(ctx, "findplacefromtext", params, &result); err != nil {
		return nil, eris.Wrap(err, "google: find place")
	}
	if err := checkStatus(result.Status, result.ErrorMessage); err != nil {
		return nil, eris.Wrap(err, "google: find place")
	}
	return &result, nil
}

func (c *httpClient) TextSearch(ctx context.Context, query string) (*SearchResponse, error) {
	params := url.Values{"query": {query}}

	var result SearchResponse
	if err := c.get(ctx, "textsearch", params, &result); err != nil {
		return nil, eris.Wrap(err, "google: text search")
	}
	if err := checkStatus(result.Status, result.ErrorMessage); err != nil {
		return nil, eris.Wrap(err, "google: text search")
	}
	return &result, nil
}

func (c *httpClient) NearbySearch(ctx context.Context, req NearbyRequest) (*SearchResponse, error) {
	if req.RadiusM <= 0 {
		return nil, eris.Errorf("google: nearby search: invalid radius %d", req.RadiusM)
	}
	params := url.Values{
		"location": {formatLatLng(req.Lat, req.Lng)},
		"radius":   {strconv.Itoa(req.RadiusM)},
	}

	var result SearchResponse
	if err := c.get(ctx, "nearbysearch", params, &result); err != nil {
		return nil, eris.Wrap(err, "google: nearby search")
	}
	if err := checkStatus(result.Status, result.ErrorMessage); err != nil {
		return nil, eris.Wrap(err, "google: nearby search")
	}
	return &result, nil
}

func (c *httpClient) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.apiKey == "" {
		return eris.New("api key not configured")
	}
	params.Set("key", c.apiKey)

	reqURL := fmt.Sprintf("%s/%s/json?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// The request URL carries the API key; keep it out of error text.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return statusErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}

// checkStatus maps the Places "status" field onto an error. OK and
// ZERO_RESULTS are both successful responses.
func checkStatus(status, message string) error {
	switch status {
	case "OK", "ZERO_RESULTS":
		return nil
	case "":
		return eris.New("missing status")
	}

	err := eris.Errorf("status %s", status)
	if message != "" {
		err = eris.Errorf("status %s: %s", status, message)
	}
	if status == "OVER_QUERY_LIMIT" || status == "UNKNOWN_ERROR" {
		return resilience.NewTransientError(err, 0)
	}
	return err
}

func formatLatLng(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}
