// Package geocode resolves coordinates to a human readable place using a
// Nominatim-compatible reverse geocoding API.
package geocode

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
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "surf-market/1.0"
)

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrNoResult           = errors.New("no geocoding result")

	// ErrUnavailable wraps transport failures and timeouts talking to the geocoder.
	ErrUnavailable = errors.New("geocoder unavailable")
)

// APIError is returned for non-2xx responses from the geocoder.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("geocoder error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("geocoder error %d", e.StatusCode)
}

type Place struct {
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
	DisplayName string `json:"displayName"`
}

// Display is the short label stored on listings and profiles.
func (p Place) Display() string {
	switch {
	case p.City != "" && p.State != "":
		return p.City + ", " + p.State
	case p.City != "" && p.Country != "":
		return p.City + ", " + p.Country
	case p.State != "" && p.Country != "":
		return p.State + ", " + p.Country
	case p.City != "":
		return p.City
	default:
		return p.DisplayName
	}
}

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type reverseResponse struct {
	Error       string `json:"error"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		Hamlet      string `json:"hamlet"`
		State       string `json:"state"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// Reverse looks up the place at lat/lng.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (Place, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Place{}, ErrInvalidCoordinates
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', 6, 64))
	q.Set("zoom", "10")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return Place{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Place{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &errResp)
		return Place{}, &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	var rr reverseResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return Place{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if rr.Error != "" {
		return Place{}, fmt.Errorf("%w: %s", ErrNoResult, rr.Error)
	}

	p := Place{
		City:        firstNonEmpty(rr.Address.City, rr.Address.Town, rr.Address.Village, rr.Address.Hamlet),
		State:       rr.Address.State,
		Country:     rr.Address.Country,
		CountryCode: strings.ToUpper(rr.Address.CountryCode),
		DisplayName: rr.DisplayName,
	}
	if p.Display() == "" {
		return Place{}, ErrNoResult
	}
	return p, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
