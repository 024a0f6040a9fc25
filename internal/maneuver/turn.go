package maneuver

import (
	"fmt"
	"math"

	"github.com/OCAP2/trajgen/internal/geo"
	"github.com/OCAP2/trajgen/pkg/core"
	"github.com/golang/geo/r3"
)

// turn is the great-circle geometry shared by direction and combined
// maneuvers.
type turn struct {
	info  geo.AngleInfo
	frame geo.Frame

	spiral   bool
	cosPitch float64 // horizontal share of speed under spiral, else 1
	sinPitch float64 // vertical share of speed under spiral
}

// planTurn classifies the turn from the state's orientation to `to` and
// resolves its frame. The turn always follows the shorter great-circle arc,
// so its angle never exceeds 180 degrees. A close pair returns a turn with info.Close set and
// no frame.
func (g *Generator) planTurn(st core.TargetState, to core.Orientation, opts Options) (turn, error) {
	from := st.Orientation()
	tr := turn{cosPitch: 1}

	if opts.Spiral {
		if to.Pitch != st.Pitch {
			return turn{}, fmt.Errorf("%w: current %v, requested %v", ErrSpiralPitchMismatch, st.Pitch, to.Pitch)
		}
		sin, cos := math.Sincos(geo.Radians(st.Pitch))
		if cos < 1e-9 {
			return turn{}, fmt.Errorf("%w: pitch %v", ErrSpiralVertical, st.Pitch)
		}
		tr.spiral, tr.cosPitch, tr.sinPitch = true, cos, sin
		from.Pitch, to.Pitch = 0, 0
	}

	tr.info = geo.Separation(from, to, AngleThreshold)
	if tr.info.Close {
		return tr, nil
	}

	through := tr.info.Q
	if tr.info.Antipodal {
		third, err := g.connecting(from, to, opts)
		if err != nil {
			return turn{}, err
		}
		through = geo.OrientationToVector(third.Bearing, third.Pitch, 1)
	}

	tr.frame = geo.NewFrame(tr.info.P, through, tr.info.Angle)
	return tr, nil
}

// connecting returns the orientation that fixes the plane of an antipodal
// turn, validating a caller-supplied one or synthesizing it.
func (g *Generator) connecting(from, to core.Orientation, opts Options) (core.Orientation, error) {
	if opts.Connecting == nil {
		third := geo.ResolveAntipodalThird(from, to)
		g.advise("synthesized connecting orientation",
			"bearing", third.Bearing, "pitch", third.Pitch)
		return third, nil
	}

	third := *opts.Connecting
	if err := validateOrientation(third); err != nil {
		return core.Orientation{}, err
	}
	if opts.Spiral {
		third.Pitch = 0
	}
	if !geo.Separation(from, third, AngleThreshold).Generic() || !geo.Separation(to, third, AngleThreshold).Generic() {
		return core.Orientation{}, fmt.Errorf("%w: bearing %v pitch %v", ErrConnectingTooClose, third.Bearing, third.Pitch)
	}
	return third, nil
}

// velocity returns the velocity after sweeping theta radians at speed.
// Under spiral the swept direction is horizontal and the vertical component
// comes from the unchanged pitch.
func (t turn) velocity(theta, speed float64) r3.Vector {
	dir := t.frame.Direction(theta)
	if !t.spiral {
		return dir.Mul(speed)
	}
	v := dir.Mul(speed * t.cosPitch)
	v.Z = -speed * t.sinPitch
	return v
}

// finalPitch is the pitch a completed turn leaves the target at.
func (t turn) finalPitch(st core.TargetState, to core.Orientation) float64 {
	if t.spiral {
		return st.Pitch
	}
	return to.Pitch
}
