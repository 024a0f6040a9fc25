package core

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a Configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Minimum values accepted by Validate.
const (
	MinUpdateRate      = 0.01
	MinOutputPrecision = 5
)

// Configuration holds the per-target generator limits and output options.
type Configuration struct {
	MaxAcceleration float64 `json:"maxAcceleration" mapstructure:"maxAcceleration"` // g
	MaxJerk         float64 `json:"maxJerk" mapstructure:"maxJerk"`                 // g/s
	UpdateRate      float64 `json:"updateRate" mapstructure:"updateRate"`           // seconds between samples
	OutputPrecision int     `json:"outputPrecision" mapstructure:"outputPrecision"` // decimal digits
	ThickUpdates    bool    `json:"thickUpdates" mapstructure:"thickUpdates"`
	AltCoordinates  bool    `json:"altCoordinates" mapstructure:"altCoordinates"` // NUE instead of NED
}

// DefaultConfiguration returns 6 g, 3 g/s, 0.1 s updates and 6 digits of precision.
func DefaultConfiguration() Configuration {
	return Configuration{
		MaxAcceleration: 6,
		MaxJerk:         3,
		UpdateRate:      0.1,
		OutputPrecision: 6,
	}
}

// Validate checks each field against its constraint.
func (c Configuration) Validate() error {
	switch {
	case !(c.MaxAcceleration > 0):
		return fmt.Errorf("%w: maxAcceleration must be > 0, got %v", ErrInvalidConfig, c.MaxAcceleration)
	case !(c.MaxJerk > 0):
		return fmt.Errorf("%w: maxJerk must be > 0, got %v", ErrInvalidConfig, c.MaxJerk)
	case !(c.UpdateRate >= MinUpdateRate):
		return fmt.Errorf("%w: updateRate must be >= %v s, got %v", ErrInvalidConfig, MinUpdateRate, c.UpdateRate)
	case c.OutputPrecision < MinOutputPrecision:
		return fmt.Errorf("%w: outputPrecision must be >= %d, got %d", ErrInvalidConfig, MinOutputPrecision, c.OutputPrecision)
	}
	return nil
}
