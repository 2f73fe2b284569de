package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/cjenolov/route-service/internal/routing"
)

// OSRMPlanner resolves road-network travel distance from an OSRM-compatible
// routing server. Requests are throttled and retried with exponential
// backoff; callers treat any returned error as "fall back to straight line".
type OSRMPlanner struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *CircuitBreaker
	maxRetries int
	logger     zerolog.Logger
}

// NewOSRMPlanner creates a planner against the given base URL, e.g.
// "https://router.project-osrm.org".
func NewOSRMPlanner(baseURL string, requestsPerSecond float64, maxRetries int) *OSRMPlanner {
	return &OSRMPlanner{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		breaker:    NewCircuitBreaker("osrm", DefaultBreakerConfig()),
		maxRetries: maxRetries,
		logger:     log.With().Str("component", "osrm_planner").Logger(),
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
	} `json:"routes"`
}

// RouteDistanceKm returns the driving distance visiting the waypoints in
// order from the start location.
func (p *OSRMPlanner) RouteDistanceKm(ctx context.Context, start routing.Location, waypoints []routing.Location) (float64, error) {
	if len(waypoints) == 0 {
		return 0, nil
	}

	var coords strings.Builder
	fmt.Fprintf(&coords, "%f,%f", start.Lng, start.Lat)
	for _, wp := range waypoints {
		fmt.Fprintf(&coords, ";%f,%f", wp.Lng, wp.Lat)
	}
	url := fmt.Sprintf("%s/route/v1/driving/%s?overview=false", p.baseURL, coords.String())

	if !p.breaker.Allow() {
		return 0, ErrCircuitOpen
	}

	body, err := p.get(ctx, url)
	if err != nil {
		p.breaker.RecordFailure(err)
		return 0, err
	}

	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		p.breaker.RecordFailure(err)
		return 0, fmt.Errorf("failed to parse routing response: %w", err)
	}
	p.breaker.RecordSuccess()

	// A reachable server that finds no route is not an outage; the
	// breaker stays closed and the caller falls back to straight line.
	if parsed.Code != "Ok" || len(parsed.Routes) == 0 {
		return 0, fmt.Errorf("routing server returned no route (code %s)", parsed.Code)
	}

	return parsed.Routes[0].Distance / 1000.0, nil
}

// get performs a throttled GET with retry on transient failures.
func (p *OSRMPlanner) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "RouteService/1.0")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if !p.backoff(ctx, attempt) {
				break
			}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			data, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return nil, fmt.Errorf("failed to read routing response: %w", readErr)
			}
			return data, nil
		}

		lastErr = fmt.Errorf("routing server returned status %d", resp.StatusCode)
		resp.Body.Close()

		if !retryableStatus(resp.StatusCode) || !p.backoff(ctx, attempt) {
			break
		}
	}

	p.logger.Warn().Err(lastErr).Msg("Routing request failed")
	return nil, lastErr
}

// backoff sleeps the exponential delay for the attempt; false means the
// context died or attempts ran out.
func (p *OSRMPlanner) backoff(ctx context.Context, attempt int) bool {
	if attempt >= p.maxRetries {
		return false
	}
	delay := time.Duration(1<<uint(attempt)) * 250 * time.Millisecond
	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
