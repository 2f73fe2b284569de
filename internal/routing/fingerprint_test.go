package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fingerprintRequest(names ...string) *OptimizeRequest {
	items := make([]*RequestedItem, len(names))
	for i, n := range names {
		items[i] = &RequestedItem{Name: n, Quantity: 1}
	}
	return &OptimizeRequest{
		Items:    items,
		Location: Location{Lat: 45.8150, Lng: 15.9819},
	}
}

func TestFingerprint_ItemOrderIrrelevant(t *testing.T) {
	a := Fingerprint(fingerprintRequest("mlijeko", "kruh", "jaja"), 3)
	b := Fingerprint(fingerprintRequest("jaja", "mlijeko", "kruh"), 3)
	assert.Equal(t, a, b)
}

func TestFingerprint_NearbyLocationsCollapse(t *testing.T) {
	a := fingerprintRequest("mlijeko")
	a.Location = Location{Lat: 45.81502, Lng: 15.98191}
	b := fingerprintRequest("mlijeko")
	b.Location = Location{Lat: 45.81498, Lng: 15.98189} // across the street

	assert.Equal(t, Fingerprint(a, 3), Fingerprint(b, 3))

	far := fingerprintRequest("mlijeko")
	far.Location = Location{Lat: 45.9, Lng: 15.98}
	assert.NotEqual(t, Fingerprint(a, 3), Fingerprint(far, 3))
}

func TestFingerprint_SensitiveToContent(t *testing.T) {
	base := Fingerprint(fingerprintRequest("mlijeko"), 3)

	differentItem := Fingerprint(fingerprintRequest("kruh"), 3)
	assert.NotEqual(t, base, differentItem)

	moreOfIt := fingerprintRequest("mlijeko")
	moreOfIt.Items[0].Quantity = 2
	assert.NotEqual(t, base, Fingerprint(moreOfIt, 3))

	locked := fingerprintRequest("mlijeko")
	locked.Items[0].LockedProductID = "offer-1"
	assert.NotEqual(t, base, Fingerprint(locked, 3))
}

func TestFingerprint_PreferencesMatter(t *testing.T) {
	base := fingerprintRequest("mlijeko")
	withExclusion := fingerprintRequest("mlijeko")
	withExclusion.Preferences.ExcludedChains = []string{"lidl"}

	assert.NotEqual(t, Fingerprint(base, 3), Fingerprint(withExclusion, 3))

	// Exclusion order and case are canonicalized.
	reordered := fingerprintRequest("mlijeko")
	reordered.Preferences.ExcludedChains = []string{"Konzum", "lidl"}
	same := fingerprintRequest("mlijeko")
	same.Preferences.ExcludedChains = []string{"LIDL", "konzum"}
	assert.Equal(t, Fingerprint(reordered, 3), Fingerprint(same, 3))
}
