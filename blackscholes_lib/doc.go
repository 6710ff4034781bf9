// Package blackscholes prices European calls and puts under the
// Black-Scholes model, computes their Greeks and solves for implied
// volatility.
//
// All pricing functions are pure. Inputs are not validated: a zero
// volatility or expiry yields NaN or Inf rather than an error. The only
// failing operation is the implied volatility search, which returns a
// *SolverError wrapping ErrVegaTooSmall or ErrConvergenceFailure.
package blackscholes
