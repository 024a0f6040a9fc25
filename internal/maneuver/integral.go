package maneuver

import "math"

// Relative tolerances for treating a denominator as linear or its
// discriminant as zero.
const (
	linearTolerance       = 1e-12
	discriminantTolerance = 1e-12
)

// rateRatio is the integrand (p·t + q) / (a·t² + b·t + c): a linearly
// varying centripetal acceleration over a speed that is at most quadratic
// in phase-local time. The denominator must not vanish on the interval.
type rateRatio struct {
	p, q    float64
	a, b, c float64
}

// integrate returns the definite integral from 0 to T.
func (r rateRatio) integrate(T float64) float64 {
	if math.Abs(r.a)*T*T <= linearTolerance*(math.Abs(r.b)*T+math.Abs(r.c)) {
		return r.integrateLinear(T)
	}

	den0 := r.c
	denT := (r.a*T+r.b)*T + r.c
	logPart := r.p / (2 * r.a) * math.Log(math.Abs(denT/den0))

	// remainder of the numerator once its share of the denominator's
	// derivative is taken out
	rest := r.q - r.p*r.b/(2*r.a)
	if rest == 0 {
		return logPart
	}
	return logPart + rest*r.reciprocal(T)
}

// integrateLinear handles a == 0.
func (r rateRatio) integrateLinear(T float64) float64 {
	if r.b == 0 {
		return (r.p*T*T/2 + r.q*T) / r.c
	}
	return r.p*T/r.b + (r.q-r.p*r.c/r.b)/r.b*math.Log(math.Abs((r.b*T+r.c)/r.c))
}

// reciprocal returns ∫₀ᵀ dt / (a·t² + b·t + c), choosing the arctangent,
// area-hyperbolic-tangent or rational form by the sign of the discriminant.
func (r rateRatio) reciprocal(T float64) float64 {
	disc := r.b*r.b - 4*r.a*r.c
	u0 := r.b
	uT := 2*r.a*T + r.b

	switch {
	case math.Abs(disc) <= discriminantTolerance*math.Max(r.b*r.b, math.Abs(4*r.a*r.c)):
		// repeated root
		return 2/u0 - 2/uT
	case disc < 0:
		s := math.Sqrt(-disc)
		return 2 / s * (math.Atan(uT/s) - math.Atan(u0/s))
	default:
		s := math.Sqrt(disc)
		if math.Abs(u0) < s && math.Abs(uT) < s {
			return -2 / s * (math.Atanh(uT/s) - math.Atanh(u0/s))
		}
		return math.Log(math.Abs((uT-s)*(u0+s)/((uT+s)*(u0-s)))) / s
	}
}
