package routing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Fingerprint derives a stable cache key from a request. Item order does
// not matter, and nearby coordinates collapse onto the same key by rounding
// to the configured precision, so two shoppers across the street share a
// computation.
func Fingerprint(req *OptimizeRequest, precision int) string {
	lines := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, fmt.Sprintf("%s|%d|%s|%s|%s",
			strings.ToLower(strings.TrimSpace(item.Name)),
			item.Quantity,
			strings.ToLower(item.Unit),
			item.LockedProductID,
			strings.ToLower(item.LockedStore),
		))
	}
	sort.Strings(lines)

	excluded := make([]string, 0, len(req.Preferences.ExcludedChains))
	for _, c := range req.Preferences.ExcludedChains {
		excluded = append(excluded, strings.ToLower(c))
	}
	sort.Strings(excluded)

	var b strings.Builder
	b.WriteString(strings.Join(lines, "\n"))
	fmt.Fprintf(&b, "\n@%.*f,%.*f", precision, req.Location.Lat, precision, req.Location.Lng)
	fmt.Fprintf(&b, "\nprefs:%d|%.1f|%s|%s",
		req.Preferences.MaxStores,
		req.Preferences.MaxDistanceKm,
		strings.Join(excluded, ","),
		strings.ToLower(req.Preferences.SortBy),
	)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
