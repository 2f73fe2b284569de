package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjenolov/route-service/internal/routing"
)

func TestOSRMPlannerParsesRouteDistance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"Ok","routes":[{"distance":12500.0}]}`))
	}))
	defer server.Close()

	p := NewOSRMPlanner(server.URL, 100, 0)
	km, err := p.RouteDistanceKm(context.Background(),
		routing.Location{Lat: 45.81, Lng: 15.97},
		[]routing.Location{{Lat: 45.80, Lng: 15.98}})
	require.NoError(t, err)
	assert.InDelta(t, 12.5, km, 0.001)
}

func TestOSRMPlannerNoWaypointsIsZero(t *testing.T) {
	p := NewOSRMPlanner("http://unused.invalid", 100, 0)
	km, err := p.RouteDistanceKm(context.Background(), routing.Location{}, nil)
	require.NoError(t, err)
	assert.Zero(t, km)
}

func TestOSRMPlannerNoRouteKeepsBreakerClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer server.Close()

	p := NewOSRMPlanner(server.URL, 100, 0)
	_, err := p.RouteDistanceKm(context.Background(),
		routing.Location{Lat: 45.81, Lng: 15.97},
		[]routing.Location{{Lat: 45.80, Lng: 15.98}})
	require.Error(t, err)
	assert.Equal(t, BreakerClosed, p.breaker.State())
}

func TestOSRMPlannerBreakerOpensDuringOutage(t *testing.T) {
	var requests int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := NewOSRMPlanner(server.URL, 1000, 0)
	p.breaker = NewCircuitBreaker("osrm", &BreakerConfig{
		MaxFailures:      3,
		ResetTimeout:     time.Minute,
		HalfOpenMaxCalls: 1,
	})

	start := routing.Location{Lat: 45.81, Lng: 15.97}
	waypoints := []routing.Location{{Lat: 45.80, Lng: 15.98}}

	for i := 0; i < 3; i++ {
		_, err := p.RouteDistanceKm(context.Background(), start, waypoints)
		require.Error(t, err)
	}
	require.Equal(t, int64(3), atomic.LoadInt64(&requests))
	require.Equal(t, BreakerOpen, p.breaker.State())

	// The open circuit sheds load: no further requests reach the server.
	_, err := p.RouteDistanceKm(context.Background(), start, waypoints)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int64(3), atomic.LoadInt64(&requests))
}
