package geo

import (
	"math"
	"testing"

	"github.com/russe11bryan/TripTally-sub000/models"
)

func TestHaversineKM(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		wantMin                float64
		wantMax                float64
	}{
		{"zero distance", 1.3521, 103.8198, 1.3521, 103.8198, 0.0, 0.0001},
		{"orchard to marina bay", 1.3048, 103.8318, 1.2806, 103.8611, 3.5, 4.0},
		{"one degree latitude", 0.0, 0.0, 1.0, 0.0, 110.0, 112.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKM(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("got %v, want [%v, %v]", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestHaversineSymmetry(t *testing.T) {
	d1 := HaversineKM(1.3048, 103.8318, 1.2806, 103.8611)
	d2 := HaversineKM(1.2806, 103.8611, 1.3048, 103.8318)
	if math.Abs(d1-d2) > 1e-12 {
		t.Errorf("haversine not symmetric: %v vs %v", d1, d2)
	}
}

func TestPointToSegmentKM(t *testing.T) {
	a := models.Point{Lat: 1.30, Lng: 103.80}
	b := models.Point{Lat: 1.30, Lng: 103.90}

	t.Run("point on segment", func(t *testing.T) {
		mid := models.Point{Lat: 1.30, Lng: 103.85}
		dist, pos := PointToSegmentKM(mid, a, b)
		if dist > 0.001 {
			t.Errorf("distance = %v, want ~0", dist)
		}
		if math.Abs(pos-0.5) > 0.001 {
			t.Errorf("t = %v, want ~0.5", pos)
		}
	})

	t.Run("point beyond endpoint clamps", func(t *testing.T) {
		beyond := models.Point{Lat: 1.30, Lng: 103.95}
		_, pos := PointToSegmentKM(beyond, a, b)
		if pos != 1.0 {
			t.Errorf("t = %v, want 1.0", pos)
		}
	})

	t.Run("point before start clamps", func(t *testing.T) {
		before := models.Point{Lat: 1.30, Lng: 103.75}
		_, pos := PointToSegmentKM(before, a, b)
		if pos != 0.0 {
			t.Errorf("t = %v, want 0.0", pos)
		}
	})

	t.Run("degenerate segment", func(t *testing.T) {
		p := models.Point{Lat: 1.31, Lng: 103.80}
		dist, pos := PointToSegmentKM(p, a, a)
		want := HaversineKM(p.Lat, p.Lng, a.Lat, a.Lng)
		if math.Abs(dist-want) > 1e-9 {
			t.Errorf("dist = %v, want %v", dist, want)
		}
		if pos != 0 {
			t.Errorf("t = %v, want 0", pos)
		}
	})
}

func TestCamerasAlongRoute(t *testing.T) {
	route := []models.Point{
		{Lat: 1.30, Lng: 103.80},
		{Lat: 1.30, Lng: 103.85},
		{Lat: 1.30, Lng: 103.90},
	}
	cameras := []models.Camera{
		{CameraID: "far", Lat: 1.40, Lng: 103.85},
		{CameraID: "end", Lat: 1.3001, Lng: 103.899},
		{CameraID: "start", Lat: 1.3001, Lng: 103.801},
	}

	got := CamerasAlongRoute(route, cameras, 0.5)
	if len(got) != 2 {
		t.Fatalf("matched %d cameras, want 2", len(got))
	}
	if got[0].CameraID != "start" || got[1].CameraID != "end" {
		t.Errorf("order = [%s, %s], want position-sorted [start, end]", got[0].CameraID, got[1].CameraID)
	}
	if got[0].Position >= got[1].Position {
		t.Errorf("positions not ascending: %v >= %v", got[0].Position, got[1].Position)
	}
}

func TestCamerasAlongRouteDegenerate(t *testing.T) {
	cameras := []models.Camera{{CameraID: "c1", Lat: 1.30, Lng: 103.80}}

	if got := CamerasAlongRoute([]models.Point{{Lat: 1.30, Lng: 103.80}}, cameras, 5.0); got != nil {
		t.Errorf("single-point route matched %d cameras, want none", len(got))
	}

	route := []models.Point{{Lat: 1.30, Lng: 103.80}, {Lat: 1.30, Lng: 103.90}}
	offRoute := []models.Camera{{CameraID: "c2", Lat: 1.31, Lng: 103.85}}
	if got := CamerasAlongRoute(route, offRoute, 0.0); len(got) != 0 {
		t.Errorf("zero radius matched %d cameras, want 0", len(got))
	}
}

func TestRouteLengthKM(t *testing.T) {
	route := []models.Point{
		{Lat: 1.30, Lng: 103.80},
		{Lat: 1.30, Lng: 103.85},
		{Lat: 1.30, Lng: 103.90},
	}
	total := RouteLengthKM(route)
	direct := HaversineKM(1.30, 103.80, 1.30, 103.90)
	if math.Abs(total-direct) > 0.01 {
		t.Errorf("collinear route length %v != direct distance %v", total, direct)
	}

	if got := RouteLengthKM(nil); got != 0 {
		t.Errorf("empty route length = %v, want 0", got)
	}
	if got := RouteLengthKM(route[:1]); got != 0 {
		t.Errorf("single-point route length = %v, want 0", got)
	}
}
