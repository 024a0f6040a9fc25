package maneuver

import "errors"

// Fatal errors. A maneuver returning one of these leaves the target state
// unchanged and emits nothing.
var (
	ErrInvalidTime         = errors.New("start time must be >= 0")
	ErrInvalidSpeed        = errors.New("speed must be > 0")
	ErrInvalidBearing      = errors.New("bearing must be within [-360, 360] degrees")
	ErrInvalidPitch        = errors.New("pitch must be within [-90, 90] degrees")
	ErrInvalidAcceleration = errors.New("acceleration must be > 0")
	ErrInvalidJerk         = errors.New("jerk must be > 0")
	ErrSpiralPitchMismatch = errors.New("spiral requires the final pitch to equal the current pitch")
	ErrSpiralVertical      = errors.New("spiral is undefined for a vertical flight path")
	ErrConnectingTooClose  = errors.New("connecting orientation is too close to an endpoint")
	ErrNoConvergence       = errors.New("acceleration split search did not converge")
	ErrConfigLocked        = errors.New("configuration is locked once the first maneuver has run")
	ErrStaleState          = errors.New("target state is behind the last emitted sample")
	ErrSink                = errors.New("output sink rejected samples")
)
