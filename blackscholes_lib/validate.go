package blackscholes

import (
	"errors"
	"fmt"
	"math"
)

// ValidationError describes one model input outside the domain where the
// closed-form formulas produce finite values.
type ValidationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s (got %g)", e.Field, e.Reason, e.Value)
}

// Validate is an opt-in strict check. Price, Greeks and the solver never call
// it; they let bad inputs propagate as NaN or Inf.
func (m Model) Validate() error {
	var errs []error

	check := func(field string, v float64, mustBePositive bool) {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			errs = append(errs, &ValidationError{Field: field, Value: v, Reason: "must be finite"})
		case mustBePositive && v <= 0:
			errs = append(errs, &ValidationError{Field: field, Value: v, Reason: "must be positive"})
		}
	}

	check("spot_price", m.spotPrice, true)
	check("strike_price", m.strikePrice, true)
	check("time_to_expiry", m.timeToExpiry, true)
	check("risk_free_rate", m.riskFreeRate, false)
	check("standard_deviation", m.standardDeviation, true)

	return errors.Join(errs...)
}
