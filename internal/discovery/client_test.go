package discovery_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/UnknownOlympus/compass/internal/discovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

type lookup struct {
	operation string
	source    discovery.Source
}

type fakeRecorder struct {
	mu      sync.Mutex
	lookups []lookup
}

func (f *fakeRecorder) ObserveLookup(operation string, source discovery.Source, _ float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, lookup{operation: operation, source: source})
}

func respond(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(_ *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
		}, nil
	}
}

func newClient(t *testing.T, doFunc func(*http.Request) (*http.Response, error)) *discovery.Client {
	t.Helper()
	client, err := discovery.New(discovery.Options{
		BaseURL:    "http://maps.test",
		HTTPClient: &mockHTTPClient{doFunc: doFunc},
		Logger:     slog.Default(),
	})
	require.NoError(t, err)
	return client
}

// unreachableBaseURL returns the address of a server that is already closed.
func unreachableBaseURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	return addr
}

func TestNew(t *testing.T) {
	t.Run("valid base URL", func(t *testing.T) {
		client, err := discovery.New(discovery.Options{BaseURL: "http://localhost:8000/"})

		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8000", client.BaseURL())
	})

	t.Run("missing scheme", func(t *testing.T) {
		client, err := discovery.New(discovery.Options{BaseURL: "localhost:8000"})

		require.ErrorIs(t, err, discovery.ErrInvalidBaseURL)
		assert.Nil(t, client)
	})

	t.Run("empty base URL", func(t *testing.T) {
		_, err := discovery.New(discovery.Options{})

		require.ErrorIs(t, err, discovery.ErrInvalidBaseURL)
	})
}

func TestClient_Geocode(t *testing.T) {
	ctx := t.Context()

	t.Run("successful response is passed through", func(t *testing.T) {
		body := `{"query":"Kuala Lumpur","results":[` +
			`{"display_name":"KLCC, Kuala Lumpur","lat":3.1579,"lon":101.7116,"type":"attraction"},` +
			`{"display_name":"Kuala Lumpur, Malaysia","lat":3.139,"lon":101.6869,"type":"city"}]}`
		client := newClient(t, func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, "/api/maps/geocode", req.URL.Path)
			assert.Equal(t, "Kuala Lumpur", req.URL.Query().Get("q"))
			assert.Equal(t, "5", req.URL.Query().Get("limit"))
			assert.Equal(t, "application/json", req.Header.Get("Accept"))
			return respond(http.StatusOK, body)(req)
		})

		result := client.Geocode(ctx, "Kuala Lumpur", 5)

		assert.Equal(t, discovery.SourceLive, result.Source)
		assert.False(t, result.Fallback())
		require.NoError(t, result.Cause)
		assert.Equal(t, "Kuala Lumpur", result.Query)
		require.Len(t, result.Results, 2)
		assert.Equal(t, "KLCC, Kuala Lumpur", result.Results[0].DisplayName)
		assert.InDelta(t, 3.1579, result.Results[0].Latitude, 1e-9)
		assert.InDelta(t, 101.7116, result.Results[0].Longitude, 1e-9)
		assert.Equal(t, "attraction", result.Results[0].Type)
		assert.Equal(t, "city", result.Results[1].Type)
	})

	t.Run("empty results are live", func(t *testing.T) {
		client := newClient(t, respond(http.StatusOK, `{"query":"nowhere","results":[]}`))

		result := client.Geocode(ctx, "nowhere", 5)

		assert.Equal(t, discovery.SourceLive, result.Source)
		assert.Empty(t, result.Results)
	})

	t.Run("limit zero is forwarded unchanged", func(t *testing.T) {
		client := newClient(t, func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "0", req.URL.Query().Get("limit"))
			return respond(http.StatusOK, `{"query":"x","results":[]}`)(req)
		})

		result := client.Geocode(ctx, "x", 0)

		assert.Equal(t, discovery.SourceLive, result.Source)
	})

	t.Run("query is URL encoded", func(t *testing.T) {
		client := newClient(t, func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Jalan Ampang & Jalan Tun Razak", req.URL.Query().Get("q"))
			return respond(http.StatusOK, `{"query":"x","results":[]}`)(req)
		})

		client.Geocode(ctx, "Jalan Ampang & Jalan Tun Razak", 3)
	})

	t.Run("unreachable backend falls back", func(t *testing.T) {
		client, err := discovery.New(discovery.Options{BaseURL: unreachableBaseURL(t)})
		require.NoError(t, err)

		result := client.Geocode(ctx, "Kuala Lumpur", 5)

		assert.True(t, result.Fallback())
		require.Error(t, result.Cause)
		require.Len(t, result.Results, 1)
		assert.Equal(t, "Kuala Lumpur, Malaysia", result.Results[0].DisplayName)
		assert.InDelta(t, 3.1390, result.Results[0].Latitude, 1e-9)
		assert.InDelta(t, 101.6869, result.Results[0].Longitude, 1e-9)
		assert.Equal(t, "city", result.Results[0].Type)
	})

	t.Run("fallback ignores query content", func(t *testing.T) {
		client := newClient(t, func(_ *http.Request) (*http.Response, error) {
			return nil, assert.AnError
		})

		first := client.Geocode(ctx, "Paris", 5)
		second := client.Geocode(ctx, "Tokyo", 1)

		require.ErrorIs(t, first.Cause, assert.AnError)
		assert.Equal(t, first.Results, second.Results)
		assert.Equal(t, "Paris", first.Query)
		assert.Equal(t, "Tokyo", second.Query)
	})

	t.Run("non-success status falls back", func(t *testing.T) {
		client := newClient(t, respond(http.StatusBadGateway, `{"error":"upstream"}`))

		result := client.Geocode(ctx, "Kuala Lumpur", 5)

		assert.True(t, result.Fallback())
		require.ErrorIs(t, result.Cause, discovery.ErrUnexpectedStatus)
		assert.Contains(t, result.Cause.Error(), "502")
	})

	t.Run("invalid JSON falls back", func(t *testing.T) {
		client := newClient(t, respond(http.StatusOK, `invalid json`))

		result := client.Geocode(ctx, "Kuala Lumpur", 5)

		assert.True(t, result.Fallback())
		require.ErrorIs(t, result.Cause, discovery.ErrMalformedPayload)
	})

	t.Run("payload without results falls back", func(t *testing.T) {
		client := newClient(t, respond(http.StatusOK, `{"message":"Backend deployed"}`))

		result := client.Geocode(ctx, "Kuala Lumpur", 5)

		assert.True(t, result.Fallback())
		require.ErrorIs(t, result.Cause, discovery.ErrMalformedPayload)
	})

	t.Run("canceled context falls back", func(t *testing.T) {
		newCtx, cancel := context.WithCancel(context.Background())
		cancel()
		client := newClient(t, func(req *http.Request) (*http.Response, error) {
			return nil, req.Context().Err()
		})

		result := client.Geocode(newCtx, "Kuala Lumpur", 5)

		assert.True(t, result.Fallback())
		require.ErrorIs(t, result.Cause, context.Canceled)
	})
}

func TestClient_GetRoute(t *testing.T) {
	ctx := t.Context()

	t.Run("successful response is passed through", func(t *testing.T) {
		body := `{"profile":"bike","distance_m":3456.7,"duration_s":789.1,"geometry":{"type":"LineString",` +
			`"coordinates":[[101.6869,3.139],[101.69,3.145],[101.7,3.15],[101.712,3.157]]}}`
		client := newClient(t, func(req *http.Request) (*http.Response, error) {
			query := req.URL.Query()
			assert.Equal(t, "/api/maps/route", req.URL.Path)
			assert.Equal(t, "3.139", query.Get("origin_lat"))
			assert.Equal(t, "101.6869", query.Get("origin_lon"))
			assert.Equal(t, "3.157", query.Get("dest_lat"))
			assert.Equal(t, "101.712", query.Get("dest_lon"))
			assert.Equal(t, "bike", query.Get("profile"))
			return respond(http.StatusOK, body)(req)
		})

		result := client.GetRoute(ctx, 3.1390, 101.6869, 3.1570, 101.7120, "bike")

		assert.Equal(t, discovery.SourceLive, result.Source)
		require.NoError(t, result.Cause)
		assert.Equal(t, "bike", result.Profile)
		assert.InDelta(t, 3456.7, result.DistanceM, 1e-9)
		assert.InDelta(t, 789.1, result.DurationS, 1e-9)
		assert.Equal(t, "LineString", result.Geometry.Type)
		require.Len(t, result.Geometry.Coordinates, 4)
		assert.Equal(t, [2]float64{101.712, 3.157}, result.Geometry.Coordinates[3])
	})

	t.Run("profile is not validated", func(t *testing.T) {
		client := newClient(t, func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "hovercraft", req.URL.Query().Get("profile"))
			return respond(http.StatusOK, `{"profile":"hovercraft","distance_m":1,"duration_s":1,`+
				`"geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}}`)(req)
		})

		result := client.GetRoute(ctx, 0, 0, 1, 1, "hovercraft")

		assert.Equal(t, discovery.SourceLive, result.Source)
		assert.Equal(t, "hovercraft", result.Profile)
	})

	t.Run("empty profile defaults to foot", func(t *testing.T) {
		client := newClient(t, func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "foot", req.URL.Query().Get("profile"))
			return nil, assert.AnError
		})

		result := client.GetRoute(ctx, 0, 0, 1, 1, "")

		assert.Equal(t, "foot", result.Profile)
	})

	t.Run("unreachable backend falls back to midpoint route", func(t *testing.T) {
		client, err := discovery.New(discovery.Options{BaseURL: unreachableBaseURL(t)})
		require.NoError(t, err)

		result := client.GetRoute(ctx, 3.1390, 101.6869, 3.1570, 101.7120, "foot")

		assert.True(t, result.Fallback())
		require.Error(t, result.Cause)
		assert.Equal(t, "foot", result.Profile)
		assert.InDelta(t, 5000, result.DistanceM, 1e-9)
		assert.InDelta(t, 1200, result.DurationS, 1e-9)
		assert.Equal(t, "LineString", result.Geometry.Type)
		require.Len(t, result.Geometry.Coordinates, 3)

		expected := [][2]float64{{101.6869, 3.1390}, {101.69945, 3.1480}, {101.7120, 3.1570}}
		for i, point := range expected {
			assert.InDelta(t, point[0], result.Geometry.Coordinates[i][0], 1e-9)
			assert.InDelta(t, point[1], result.Geometry.Coordinates[i][1], 1e-9)
		}
	})

	t.Run("fallback echoes the requested profile", func(t *testing.T) {
		client := newClient(t, respond(http.StatusInternalServerError, ``))

		result := client.GetRoute(ctx, 0, 0, 2, 4, "car")

		assert.True(t, result.Fallback())
		require.ErrorIs(t, result.Cause, discovery.ErrUnexpectedStatus)
		assert.Equal(t, "car", result.Profile)
		assert.Equal(t, [2]float64{2, 1}, result.Geometry.Coordinates[1])
	})

	t.Run("geometry with a single point falls back", func(t *testing.T) {
		client := newClient(t, respond(http.StatusOK, `{"profile":"foot","distance_m":0,"duration_s":0,`+
			`"geometry":{"type":"LineString","coordinates":[[0,0]]}}`))

		result := client.GetRoute(ctx, 0, 0, 1, 1, "foot")

		assert.True(t, result.Fallback())
		require.ErrorIs(t, result.Cause, discovery.ErrMalformedPayload)
	})

	t.Run("invalid JSON falls back", func(t *testing.T) {
		client := newClient(t, respond(http.StatusOK, `{"profile":`))

		result := client.GetRoute(ctx, 0, 0, 1, 1, "foot")

		assert.True(t, result.Fallback())
		require.ErrorIs(t, result.Cause, discovery.ErrMalformedPayload)
	})
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client, err := discovery.New(discovery.Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	result := client.Geocode(t.Context(), "slow", 5)

	assert.True(t, result.Fallback())
	require.ErrorIs(t, result.Cause, context.DeadlineExceeded)
}

func TestClient_Idempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/maps/geocode":
			_, _ = w.Write([]byte(`{"query":"KL","results":[{"display_name":"KL","lat":3.1,"lon":101.6,"type":"city"}]}`))
		default:
			_, _ = w.Write([]byte(`{"profile":"foot","distance_m":10,"duration_s":8,` +
				`"geometry":{"type":"LineString","coordinates":[[1,2],[3,4]]}}`))
		}
	}))
	defer srv.Close()

	client, err := discovery.New(discovery.Options{BaseURL: srv.URL})
	require.NoError(t, err)

	ctx := t.Context()
	assert.Equal(t, client.Geocode(ctx, "KL", 5), client.Geocode(ctx, "KL", 5))
	assert.Equal(t, client.GetRoute(ctx, 2, 1, 4, 3, "foot"), client.GetRoute(ctx, 2, 1, 4, 3, "foot"))
}

func TestClient_Recorder(t *testing.T) {
	recorder := &fakeRecorder{}
	client, err := discovery.New(discovery.Options{
		BaseURL: "http://maps.test",
		HTTPClient: &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
			if req.URL.Path == "/api/maps/geocode" {
				return respond(http.StatusOK, `{"query":"x","results":[]}`)(req)
			}
			return nil, assert.AnError
		}},
		Recorder: recorder,
	})
	require.NoError(t, err)

	client.Geocode(t.Context(), "x", 5)
	client.GetRoute(t.Context(), 0, 0, 1, 1, "foot")

	assert.Equal(t, []lookup{
		{operation: discovery.OperationGeocode, source: discovery.SourceLive},
		{operation: discovery.OperationRoute, source: discovery.SourceFallback},
	}, recorder.lookups)
}
