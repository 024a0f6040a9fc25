package geo

import (
	"math"
	"testing"

	"github.com/OCAP2/trajgen/pkg/core"
	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func TestOrientationToVector(t *testing.T) {
	tests := []struct {
		name           string
		bearing, pitch float64
		n, e, d        float64
	}{
		{"north", 0, 0, 1, 0, 0},
		{"east", 90, 0, 0, 1, 0},
		{"south", 180, 0, -1, 0, 0},
		{"west", -90, 0, 0, -1, 0},
		{"straight up", 0, 90, 0, 0, -1},
		{"straight down", 0, -90, 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := OrientationToVector(tt.bearing, tt.pitch, 1)
			assert.InDelta(t, tt.n, v.X, eps)
			assert.InDelta(t, tt.e, v.Y, eps)
			assert.InDelta(t, tt.d, v.Z, eps)
		})
	}
}

func TestOrientationToVector_Magnitude(t *testing.T) {
	v := OrientationToVector(37, 12, 250)
	assert.InDelta(t, 250, v.Norm(), 1e-9)
}

func TestVectorToOrientation_RoundTrip(t *testing.T) {
	for _, o := range []core.Orientation{{Bearing: 45, Pitch: 10}, {Bearing: -120, Pitch: -30}, {Bearing: 170, Pitch: 80}} {
		b, p, m := VectorToOrientation(OrientationToVector(o.Bearing, o.Pitch, 3))
		assert.InDelta(t, o.Bearing, b, 1e-9)
		assert.InDelta(t, o.Pitch, p, 1e-9)
		assert.InDelta(t, 3, m, 1e-9)
	}
}

func TestSeparation(t *testing.T) {
	tests := []struct {
		name      string
		from, to  core.Orientation
		angle     float64
		close     bool
		antipodal bool
	}{
		{"quarter turn", core.Orientation{Bearing: 0}, core.Orientation{Bearing: 90}, 90, false, false},
		{"same", core.Orientation{Bearing: 10, Pitch: 5}, core.Orientation{Bearing: 10, Pitch: 5}, 0, true, false},
		{"within threshold", core.Orientation{Bearing: 10}, core.Orientation{Bearing: 10.05}, 0.05, true, false},
		{"reverse", core.Orientation{Bearing: 0}, core.Orientation{Bearing: 180}, 180, false, true},
		{"offset from reverse", core.Orientation{Bearing: 180}, core.Orientation{Bearing: 179}, 1, false, false},
		{"vertical reverse", core.Orientation{Pitch: 90}, core.Orientation{Pitch: -90}, 180, false, true},
		{"bearing equivalent", core.Orientation{Bearing: -90}, core.Orientation{Bearing: 270}, 0, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Separation(tt.from, tt.to, DefaultThreshold)
			assert.InDelta(t, tt.angle, info.Angle, 1e-5)
			assert.Equal(t, tt.close, info.Close)
			assert.Equal(t, tt.antipodal, info.Antipodal)
			assert.False(t, info.Close && info.Antipodal)
		})
	}
}

func TestResolveAntipodalThird(t *testing.T) {
	pairs := [][2]core.Orientation{
		{{Bearing: 0}, {Bearing: 180}},
		{{Bearing: 10, Pitch: 30}, {Bearing: 190, Pitch: -30}},
		{{Bearing: 0, Pitch: 90}, {Bearing: 0, Pitch: -90}},
		{{Bearing: 350, Pitch: 0}, {Bearing: 170, Pitch: 0}},
	}

	for _, pair := range pairs {
		third := ResolveAntipodalThird(pair[0], pair[1])
		assert.True(t, Separation(pair[0], third, DefaultThreshold).Generic(), "%v", third)
		assert.True(t, Separation(pair[1], third, DefaultThreshold).Generic(), "%v", third)
		assert.GreaterOrEqual(t, third.Bearing, 0.0)
		assert.Less(t, third.Bearing, 360.0)
		assert.LessOrEqual(t, math.Abs(third.Pitch), 90.0)

		// deterministic
		assert.Equal(t, third, ResolveAntipodalThird(pair[0], pair[1]))
	}
}

func TestBuildFrame(t *testing.T) {
	p := OrientationToVector(20, 10, 1)
	q := OrientationToVector(80, -5, 1)

	v, u := BuildFrame(p, q)
	assert.InDelta(t, 1, u.Norm(), eps)
	assert.InDelta(t, 1, v.Norm(), eps)
	assert.InDelta(t, 0, p.Dot(u), eps)
	assert.InDelta(t, 0, p.Dot(v), eps)
	assert.InDelta(t, 0, q.Dot(v), eps)

	angle := Separation(core.Orientation{Bearing: 20, Pitch: 10}, core.Orientation{Bearing: 80, Pitch: -5}, DefaultThreshold).Angle
	f := NewFrame(p, q, angle)
	end := f.Direction(Radians(angle))
	assert.InDelta(t, q.X, end.X, 1e-9)
	assert.InDelta(t, q.Y, end.Y, 1e-9)
	assert.InDelta(t, q.Z, end.Z, 1e-9)
}

func TestWrapBearing(t *testing.T) {
	assert.InDelta(t, 270, WrapBearing(-90), eps)
	assert.InDelta(t, 0, WrapBearing(360), eps)
	assert.InDelta(t, 10, WrapBearing(370), eps)
	assert.InDelta(t, 0, WrapBearing(0), eps)
}
