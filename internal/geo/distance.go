package geo

import (
	"math"
	"sort"
)

const earthRadiusKm = 6371.0

// Point is a coordinate pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceKm returns the great-circle distance between a and b in kilometres.
func DistanceKm(a, b Point) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can leave h just outside [0, 1] near antipodes
	h = min(max(h, 0), 1)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// Earning is the courier payout for a delivery of distanceKm.
func Earning(distanceKm, ratePerKm float64) float64 {
	return distanceKm * ratePerKm
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Ranked pairs an item with its distance to the ranking origin.
type Ranked[T any] struct {
	Item       T
	DistanceKm float64
}

// RankByDistance returns items ordered nearest-first from origin.
// Items with equal distance keep their input order.
func RankByDistance[T any](items []T, origin Point, pointOf func(T) Point) []Ranked[T] {
	out := make([]Ranked[T], 0, len(items))
	for _, it := range items {
		out = append(out, Ranked[T]{Item: it, DistanceKm: DistanceKm(pointOf(it), origin)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}
