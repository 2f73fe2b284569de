package routing

import "math"

// HaversineKm calculates the great-circle distance between two points in
// kilometers.
func HaversineKm(a, b Location) float64 {
	const earthRadiusKm = 6371.0
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RouteDistanceKm sums the straight-line legs of a trip starting at the
// shopper and visiting each waypoint in order. It is the fallback when the
// routing provider is unavailable.
func RouteDistanceKm(start Location, waypoints []Location) float64 {
	total := 0.0
	prev := start
	for _, wp := range waypoints {
		total += HaversineKm(prev, wp)
		prev = wp
	}
	return total
}
