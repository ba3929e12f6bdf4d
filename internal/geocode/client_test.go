package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "36.974100", r.URL.Query().Get("lat"))
		assert.Equal(t, "-122.030800", r.URL.Query().Get("lon"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte(`{
			"display_name": "Santa Cruz, Santa Cruz County, California, United States",
			"address": {"city": "Santa Cruz", "state": "California", "country": "United States", "country_code": "us"}
		}`))
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL+"/"), WithUserAgent("test-agent"))
	p, err := c.Reverse(context.Background(), 36.9741, -122.0308)

	require.NoError(t, err)
	assert.Equal(t, "Santa Cruz", p.City)
	assert.Equal(t, "US", p.CountryCode)
	assert.Equal(t, "Santa Cruz, California", p.Display())
}

func TestReverse_FallsBackToTown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address": {"town": "Hossegor", "country": "France"}}`))
	}))
	defer server.Close()

	p, err := NewClient(WithBaseURL(server.URL)).Reverse(context.Background(), 43.66, -1.44)
	require.NoError(t, err)
	assert.Equal(t, "Hossegor, France", p.Display())
}

func TestReverse_InvalidCoordinatesSkipRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	_, err := NewClient(WithBaseURL(server.URL)).Reverse(context.Background(), 91, 0)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestReverse_Errors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		response   string
		check      func(t *testing.T, err error)
	}{
		{
			name:       "unable to geocode",
			statusCode: http.StatusOK,
			response:   `{"error": "Unable to geocode"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNoResult)
			},
		},
		{
			name:       "empty address",
			statusCode: http.StatusOK,
			response:   `{"address": {}}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNoResult)
			},
		},
		{
			name:       "rate limited",
			statusCode: http.StatusTooManyRequests,
			response:   `{"error": "slow down"}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
				assert.Equal(t, "slow down", apiErr.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.response))
			}))
			defer server.Close()

			_, err := NewClient(WithBaseURL(server.URL)).Reverse(context.Background(), 1, 1)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestReverse_TransportFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	_, err := NewClient(WithBaseURL(baseURL)).Reverse(context.Background(), 1, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
