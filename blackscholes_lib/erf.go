package blackscholes

import "math"

// Abramowitz & Stegun 7.1.26 coefficients.
const (
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
	erfP  = 0.3275911
)

// Erf approximates the Gauss error function with the Abramowitz & Stegun
// rational approximation. Maximum absolute error is about 1.5e-7.
func Erf(x float64) float64 {
	// the polynomial leaves a 1e-9 residue at the origin
	if x == 0 {
		return 0
	}

	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	x = math.Abs(x)

	t := 1.0 / (1.0 + erfP*x)
	y := 1.0 - (((((erfA5*t+erfA4)*t)+erfA3)*t+erfA2)*t+erfA1)*t*math.Exp(-x*x)

	return sign * y
}
