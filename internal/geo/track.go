package geo

import (
	"math"

	"github.com/OCAP2/trajgen/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// WGS84 ellipsoid constants.
const (
	semiMajorAxis = 6378137.0
	eccentricitySq = 6.69437999014e-3
)

// Origin anchors the local NED frame on the WGS84 ellipsoid.
type Origin struct {
	Latitude  float64 `json:"latitude" mapstructure:"latitude"`   // degrees
	Longitude float64 `json:"longitude" mapstructure:"longitude"` // degrees
	Altitude  float64 `json:"altitude" mapstructure:"altitude"`   // meters
}

// Projector maps local NED positions onto geodetic and web-mercator
// coordinates using a tangent-plane approximation around Origin.
type Projector struct {
	origin     Origin
	toMercator func(a, b, c float64) (float64, float64, float64)
	meridian   float64 // meridional radius of curvature at the origin
	normal     float64 // prime-vertical radius of curvature at the origin
}

// NewProjector creates a projector anchored at origin.
func NewProjector(origin Origin) *Projector {
	sinLat := math.Sin(Radians(origin.Latitude))
	w := 1 - eccentricitySq*sinLat*sinLat

	// tracks are always stored as 3857 so they can be read back without
	// spatial extensions
	epsg := wgs84.EPSG()
	return &Projector{
		origin:     origin,
		toMercator: epsg.Transform(4326, 3857),
		meridian:   semiMajorAxis * (1 - eccentricitySq) / math.Pow(w, 1.5),
		normal:     semiMajorAxis / math.Sqrt(w),
	}
}

// Geodetic converts a NED offset from the origin into longitude, latitude
// (degrees) and altitude (meters).
func (p *Projector) Geodetic(pos core.NED) (lon, lat, alt float64) {
	h := p.origin.Altitude
	lat = p.origin.Latitude + Degrees(pos.N/(p.meridian+h))
	lon = p.origin.Longitude + Degrees(pos.E/((p.normal+h)*math.Cos(Radians(p.origin.Latitude))))
	alt = h - pos.D
	return lon, lat, alt
}

// Mercator converts a NED offset into an EPSG:3857 point with altitude as Z.
func (p *Projector) Mercator(pos core.NED) geom.Point {
	lon, lat, alt := p.Geodetic(pos)
	x, y, _ := p.toMercator(lon, lat, 0)
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: x, Y: y},
		Z:    alt,
		Type: geom.DimXYZ,
	})
}

// TrackLine builds an EPSG:3857 LineString through the sample positions.
// Fewer than two samples yield an empty LineString.
func (p *Projector) TrackLine(samples []core.Sample) geom.LineString {
	if len(samples) < 2 {
		return geom.LineString{}
	}
	flat := make([]float64, 0, len(samples)*3)
	for _, s := range samples {
		lon, lat, alt := p.Geodetic(s.Position)
		x, y, _ := p.toMercator(lon, lat, 0)
		flat = append(flat, x, y, alt)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXYZ))
}

// GroundTrack builds a LineString of the horizontal (north, east) path in
// local meters.
func GroundTrack(samples []core.Sample) geom.LineString {
	if len(samples) < 2 {
		return geom.LineString{}
	}
	flat := make([]float64, 0, len(samples)*2)
	for _, s := range samples {
		flat = append(flat, s.Position.E, s.Position.N)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
}

// GroundTrackLength returns the horizontal path length in meters.
func GroundTrackLength(samples []core.Sample) float64 {
	return GroundTrack(samples).Length()
}
