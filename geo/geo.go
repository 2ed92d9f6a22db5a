package geo

import (
	"math"
	"sort"

	"github.com/russe11bryan/TripTally-sub000/models"
)

// earthRadiusKM is the spherical-Earth approximation radius.
const earthRadiusKM = 6371.0

// HaversineKM returns the great-circle distance between two coordinates in
// kilometres.
func HaversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// PointToSegmentKM projects p onto the segment [a,b] in a local planar
// (radians-as-Cartesian) approximation and returns the distance in km plus
// the clamped fractional position t in [0,1] of the closest point. A
// degenerate segment (a == b) falls back to the point-to-point distance with
// t=0.
func PointToSegmentKM(p, a, b models.Point) (float64, float64) {
	ax, ay := toRad(a.Lng), toRad(a.Lat)
	bx, by := toRad(b.Lng), toRad(b.Lat)
	px, py := toRad(p.Lng), toRad(p.Lat)

	dx, dy := bx-ax, by-ay
	segLenSq := dx*dx + dy*dy
	if segLenSq == 0 {
		return HaversineKM(p.Lat, p.Lng, a.Lat, a.Lng), 0
	}

	t := ((px-ax)*dx + (py-ay)*dy) / segLenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	closestLat := a.Lat + t*(b.Lat-a.Lat)
	closestLng := a.Lng + t*(b.Lng-a.Lng)
	return HaversineKM(p.Lat, p.Lng, closestLat, closestLng), t
}

// CamerasAlongRoute returns the cameras within radiusKM of the route
// polyline, each with its minimum distance over all segments and its global
// fractional position (segmentIndex+t)/numSegments, sorted ascending by
// position. A route with fewer than two points matches nothing. Ties on
// distance keep the first segment encountered.
func CamerasAlongRoute(route []models.Point, cameras []models.Camera, radiusKM float64) []models.RouteCameraInfo {
	if len(route) < 2 {
		return nil
	}
	numSegments := len(route) - 1

	var matched []models.RouteCameraInfo
	for _, cam := range cameras {
		p := models.Point{Lat: cam.Lat, Lng: cam.Lng}
		bestDist := math.Inf(1)
		bestPos := 0.0
		for i := 0; i < numSegments; i++ {
			dist, t := PointToSegmentKM(p, route[i], route[i+1])
			if dist < bestDist {
				bestDist = dist
				bestPos = (float64(i) + t) / float64(numSegments)
			}
		}
		if bestDist <= radiusKM {
			matched = append(matched, models.RouteCameraInfo{
				CameraID:   cam.CameraID,
				DistanceKM: bestDist,
				Position:   bestPos,
			})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Position < matched[j].Position
	})
	return matched
}

// RouteLengthKM sums the haversine distances between consecutive route
// points. Routes with fewer than two points have zero length.
func RouteLengthKM(route []models.Point) float64 {
	total := 0.0
	for i := 1; i < len(route); i++ {
		total += HaversineKM(route[i-1].Lat, route[i-1].Lng, route[i].Lat, route[i].Lng)
	}
	return total
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
