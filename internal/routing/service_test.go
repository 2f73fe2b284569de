package routing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider is an in-memory DataProvider for service tests.
type mockProvider struct {
	mu         sync.Mutex
	stores     []*Store
	storesErr  error
	offers     map[string][]*ProductOffer
	offerErrs  map[string]error
	storeCalls int
}

func (m *mockProvider) GetStoresNearby(_ context.Context, _ Location, _ float64) ([]*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeCalls++
	if m.storesErr != nil {
		return nil, m.storesErr
	}
	out := make([]*Store, len(m.stores))
	copy(out, m.stores)
	return out, nil
}

func (m *mockProvider) SearchOffers(_ context.Context, itemName string, _ Location) ([]*ProductOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.offerErrs[itemName]; ok {
		return nil, err
	}
	return m.offers[itemName], nil
}

func (m *mockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeCalls
}

func newServiceFixture() (*Service, *mockProvider) {
	provider := &mockProvider{
		stores: []*Store{
			{ID: "k1", Name: "Konzum Ilica 5", Chain: "konzum", Distance: 0.5},
			{ID: "l1", Name: "Lidl Zagreb", Chain: "lidl", Distance: 1.5},
		},
		offers: map[string][]*ProductOffer{
			"mlijeko": {
				{ID: "km", Name: "Dukat Mlijeko", Price: 150, Chain: "konzum"},
				{ID: "lm", Name: "Milbona Mlijeko", Price: 120, Chain: "lidl"},
			},
			"kruh": {
				{ID: "kk", Name: "Kruh", Price: 100, Chain: "konzum"},
				{ID: "lk", Name: "Kruh", Price: 130, Chain: "lidl"},
			},
		},
	}
	service := NewService(provider, nil, DefaultChainRegistry(), DefaultConfig())
	return service, provider
}

func serviceRequest(names ...string) *OptimizeRequest {
	items := make([]*RequestedItem, len(names))
	for i, n := range names {
		items[i] = &RequestedItem{Name: n, Quantity: 1}
	}
	return &OptimizeRequest{
		Items:    items,
		Location: Location{Lat: 45.815, Lng: 15.982},
	}
}

func TestService_OptimizeEndToEnd(t *testing.T) {
	service, _ := newServiceFixture()

	result, hit, err := service.Optimize(context.Background(), serviceRequest("mlijeko", "kruh"))
	require.NoError(t, err)
	assert.False(t, hit)
	require.NotNil(t, result.SingleStore)
	require.NotNil(t, result.Recommendation)

	// Both stores cover both items at 250, so the closer store wins.
	assert.Equal(t, "k1", result.SingleStore.Store.ID)
	assert.Equal(t, int64(250), result.SingleStore.TotalCost)
	assert.Len(t, result.Candidates, 2)
}

func TestService_SecondIdenticalRequestIsCacheHit(t *testing.T) {
	service, provider := newServiceFixture()
	req := serviceRequest("mlijeko")

	first, hit, err := service.Optimize(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := service.Optimize(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first, second)
	assert.Equal(t, 1, provider.calls())
}

func TestService_ConcurrentIdenticalRequestsFetchOnce(t *testing.T) {
	service, provider := newServiceFixture()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := service.Optimize(context.Background(), serviceRequest("mlijeko", "kruh"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, provider.calls())
}

func TestService_DegradesWhenOneItemSearchFails(t *testing.T) {
	service, provider := newServiceFixture()
	provider.offerErrs = map[string]error{"kruh": errors.New("search backend down")}

	result, _, err := service.Optimize(context.Background(), serviceRequest("mlijeko", "kruh"))
	require.NoError(t, err)
	assert.Contains(t, result.SingleStore.MissingItems, "kruh")
	assert.Len(t, result.SingleStore.Items, 1)
}

func TestService_UpstreamErrorWhenAllSearchesFail(t *testing.T) {
	service, provider := newServiceFixture()
	provider.offerErrs = map[string]error{
		"mlijeko": errors.New("down"),
		"kruh":    errors.New("down"),
	}

	_, _, err := service.Optimize(context.Background(), serviceRequest("mlijeko", "kruh"))
	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	// An outage must stay distinguishable from an empty catalog.
	assert.NotErrorIs(t, err, ErrNoViableOption)
	assert.ErrorContains(t, err, "down")
}

func TestService_UpstreamErrorWhenStoresFail(t *testing.T) {
	service, provider := newServiceFixture()
	provider.storesErr = errors.New("database down")

	_, _, err := service.Optimize(context.Background(), serviceRequest("mlijeko"))
	var upErr *UpstreamError
	assert.ErrorAs(t, err, &upErr)
}

func TestService_NoViableOptionWhenNoStores(t *testing.T) {
	service, provider := newServiceFixture()
	provider.stores = nil

	_, _, err := service.Optimize(context.Background(), serviceRequest("mlijeko"))
	assert.ErrorIs(t, err, ErrNoViableOption)
}

func TestService_ExcludedChainsAreSkipped(t *testing.T) {
	service, _ := newServiceFixture()
	req := serviceRequest("mlijeko")
	req.Preferences.ExcludedChains = []string{"konzum"}

	result, _, err := service.Optimize(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "l1", result.SingleStore.Store.ID)
	for _, opt := range result.Candidates {
		assert.NotEqual(t, "konzum", opt.Store.Chain)
	}
}

func TestService_ValidationRejectsBadRequests(t *testing.T) {
	service, provider := newServiceFixture()

	var valErr *ValidationError

	_, _, err := service.Optimize(context.Background(), serviceRequest())
	assert.ErrorAs(t, err, &valErr)

	bad := serviceRequest("mlijeko")
	bad.Items[0].Quantity = 0
	_, _, err = service.Optimize(context.Background(), bad)
	assert.ErrorAs(t, err, &valErr)

	// Validation failures never reach the provider.
	assert.Equal(t, 0, provider.calls())
}

func TestService_FailedComputationIsRetried(t *testing.T) {
	service, provider := newServiceFixture()
	provider.storesErr = errors.New("transient")

	_, _, err := service.Optimize(context.Background(), serviceRequest("mlijeko"))
	require.Error(t, err)

	provider.mu.Lock()
	provider.storesErr = nil
	provider.mu.Unlock()

	result, hit, err := service.Optimize(context.Background(), serviceRequest("mlijeko"))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotNil(t, result)
}

func TestService_CalculateComparison(t *testing.T) {
	service, _ := newServiceFixture()

	result, err := service.CalculateComparison(context.Background(), serviceRequest("mlijeko", "kruh"))
	require.NoError(t, err)
	assert.Len(t, result.ByStore, 2)
	assert.False(t, result.Partial)
	assert.NotEmpty(t, result.CheapestStoreID)
}

func TestService_ResultsExpireWithTTL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheTTL = 20 * time.Millisecond
	provider := &mockProvider{
		stores: []*Store{{ID: "k1", Name: "Konzum Ilica 5", Chain: "konzum", Distance: 0.5}},
		offers: map[string][]*ProductOffer{
			"mlijeko": {{ID: "km", Name: "Mlijeko", Price: 150, Chain: "konzum"}},
		},
	}
	service := NewService(provider, nil, DefaultChainRegistry(), cfg)

	_, _, err := service.Optimize(context.Background(), serviceRequest("mlijeko"))
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	_, hit, err := service.Optimize(context.Background(), serviceRequest("mlijeko"))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, provider.calls())
}
