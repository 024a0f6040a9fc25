package geo

import (
	"math"

	"github.com/OCAP2/trajgen/pkg/core"
	"github.com/golang/geo/r3"
)

// DefaultThreshold is the separation in degrees under which two orientations
// are treated as coincident (or, measured from 180, antipodal).
const DefaultThreshold = 0.1

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

// OrientationToVector converts bearing/pitch (degrees) and a magnitude into a
// North-East-Down vector. Positive pitch points up, so D is negative.
func OrientationToVector(bearing, pitch, magnitude float64) r3.Vector {
	az, el := Radians(bearing), Radians(pitch)
	return r3.Vector{
		X: magnitude * math.Cos(el) * math.Cos(az),
		Y: magnitude * math.Cos(el) * math.Sin(az),
		Z: -magnitude * math.Sin(el),
	}
}

// VectorToOrientation is the inverse of OrientationToVector. Bearing is
// returned in (-180, 180].
func VectorToOrientation(v r3.Vector) (bearing, pitch, magnitude float64) {
	magnitude = v.Norm()
	if magnitude == 0 {
		return 0, 0, 0
	}
	bearing = Degrees(math.Atan2(v.Y, v.X))
	pitch = Degrees(math.Asin(clamp(-v.Z/magnitude, -1, 1)))
	return bearing, pitch, magnitude
}

// ToNED converts an r3 vector to the core NED type.
func ToNED(v r3.Vector) core.NED {
	return core.NED{N: v.X, E: v.Y, D: v.Z}
}

// FromNED converts a core NED to an r3 vector.
func FromNED(n core.NED) r3.Vector {
	return r3.Vector{X: n.N, Y: n.E, Z: n.D}
}

// AngleInfo classifies a pair of orientations.
type AngleInfo struct {
	Close     bool
	Antipodal bool
	P         r3.Vector // unit vector of the first orientation
	Q         r3.Vector // unit vector of the second orientation
	Angle     float64   // great-circle separation, degrees in [0, 180]
}

// Generic reports whether the pair spans a unique great circle.
func (a AngleInfo) Generic() bool {
	return !a.Close && !a.Antipodal
}

// Separation computes the great-circle angle between two orientations and
// classifies the pair against threshold (degrees).
func Separation(from, to core.Orientation, threshold float64) AngleInfo {
	p := OrientationToVector(from.Bearing, from.Pitch, 1)
	q := OrientationToVector(to.Bearing, to.Pitch, 1)
	angle := Degrees(math.Acos(clamp(p.Dot(q), -1, 1)))

	info := AngleInfo{P: p, Q: q, Angle: angle}
	switch {
	case angle < threshold:
		info.Close = true
	case angle > 180-threshold:
		info.Antipodal = true
	}
	return info
}

// ResolveAntipodalThird bisects the bearings and pitches of an antipodal pair
// to get an orientation that fixes the plane of the turn. The result is
// deterministic and never close to either endpoint.
func ResolveAntipodalThird(from, to core.Orientation) core.Orientation {
	third := core.Orientation{
		Bearing: WrapBearing((from.Bearing + to.Bearing) / 2),
		Pitch:   clamp((from.Pitch+to.Pitch)/2, -90, 90),
	}

	// Bisecting can land back on an endpoint when the pair is nearly vertical
	// and the bearings agree; step a quarter turn until the third is usable.
	for i := 0; i < 4; i++ {
		if Separation(from, third, DefaultThreshold).Generic() &&
			Separation(to, third, DefaultThreshold).Generic() {
			break
		}
		third.Bearing = WrapBearing(third.Bearing + 90)
		third.Pitch = 0
	}
	return third
}

// BuildFrame returns the plane normal v = p×q and the in-plane unit vector
// u = v×p orthogonal to p. p and q must not be close or antipodal.
func BuildFrame(p, q r3.Vector) (v, u r3.Vector) {
	v = p.Cross(q).Normalize()
	u = v.Cross(p).Normalize()
	return v, u
}

// Frame is the great-circle basis of one maneuver.
type Frame struct {
	P     r3.Vector // start orientation
	U     r3.Vector // in-plane unit vector orthogonal to P
	V     r3.Vector // plane normal
	Angle float64   // separation between start and end, degrees
}

// NewFrame builds the basis from p toward through, sweeping angle degrees.
// For a generic pair through is the end orientation itself; for an antipodal
// pair it is the connecting orientation.
func NewFrame(p, through r3.Vector, angle float64) Frame {
	v, u := BuildFrame(p, through)
	return Frame{P: p, U: u, V: v, Angle: angle}
}

// Direction returns the unit direction after sweeping theta radians.
func (f Frame) Direction(theta float64) r3.Vector {
	return f.P.Mul(math.Cos(theta)).Add(f.U.Mul(math.Sin(theta)))
}

// WrapBearing wraps a bearing into [0, 360).
func WrapBearing(b float64) float64 {
	b = math.Mod(b, 360)
	if b < 0 {
		b += 360
	}
	return b
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
