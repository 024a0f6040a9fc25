package core

// NED is a North-East-Down vector.
type NED struct {
	N float64
	E float64
	D float64
}

// Add returns v + o.
func (v NED) Add(o NED) NED {
	return NED{N: v.N + o.N, E: v.E + o.E, D: v.D + o.D}
}

// Scale returns v scaled by k.
func (v NED) Scale(k float64) NED {
	return NED{N: v.N * k, E: v.E * k, D: v.D * k}
}

// NUE returns the vector in North-Up-East order.
func (v NED) NUE() [3]float64 {
	return [3]float64{v.N, -v.D, v.E}
}

// Array returns the vector in North-East-Down order.
func (v NED) Array() [3]float64 {
	return [3]float64{v.N, v.E, v.D}
}

// Sample is one time-stamped kinematic output record. Position and velocity
// are always NED; sinks apply the alternate convention on output.
type Sample struct {
	Time     float64
	Position NED
	Velocity NED
}

// Components returns position and velocity in the requested convention.
func (s Sample) Components(alt bool) (pos, vel [3]float64) {
	if alt {
		return s.Position.NUE(), s.Velocity.NUE()
	}
	return s.Position.Array(), s.Velocity.Array()
}
