package blackscholes

import (
	"errors"
	"fmt"
	"math"
)

const (
	// InitialVolatilityGuess is where every Newton search starts.
	InitialVolatilityGuess = 0.2
	// VolatilityFloor replaces a non-positive Newton step.
	VolatilityFloor = 0.001
	// MinVega is the smallest |dPrice/dSigma| the solver will divide by.
	MinVega = 1e-10
)

var (
	ErrVegaTooSmall       = errors.New("vega too small, cannot converge")
	ErrConvergenceFailure = errors.New("failed to converge")
)

// SolverError reports why an implied volatility search stopped and where.
type SolverError struct {
	Err            error
	Iterations     int
	LastVolatility float64
	LastPrice      float64
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("implied volatility: %v after %d iterations (last volatility %g, last price %g)",
		e.Err, e.Iterations, e.LastVolatility, e.LastPrice)
}

func (e *SolverError) Unwrap() error {
	return e.Err
}

// Step is one Newton-Raphson iteration, reported to Solver.Trace.
type Step struct {
	Iteration  int
	Volatility float64
	Price      float64
	Vega       float64
	Diff       float64
}

// Result is a converged search.
type Result struct {
	Volatility float64
	Iterations int
}

// Solver finds the volatility that reproduces a market price.
type Solver struct {
	MaxIterations int
	Tolerance     float64

	// Trace, when set, is called once per iteration before the convergence check.
	Trace func(Step)
}

// ImpliedVolatility runs a Newton-Raphson search on vega starting from 20%.
// The model is taken by value; its volatility is ignored and never changed.
func ImpliedVolatility(m Model, marketPrice float64, t OptionType, maxIterations int, tolerance float64) (float64, error) {
	s := Solver{MaxIterations: maxIterations, Tolerance: tolerance}
	return s.Solve(m, marketPrice, t)
}

// Solve returns the implied volatility or a *SolverError.
func (s Solver) Solve(m Model, marketPrice float64, t OptionType) (float64, error) {
	res, err := s.SolveDetailed(m, marketPrice, t)
	if err != nil {
		return 0, err
	}
	return res.Volatility, nil
}

// SolveDetailed is Solve with the iteration count of a successful search.
//
// Convergence is on the absolute price difference and is tested before the
// vega guard, so an exact hit returns even where vega is flat.
func (s Solver) SolveDetailed(m Model, marketPrice float64, t OptionType) (Result, error) {
	vol := InitialVolatilityGuess
	lastVol := vol
	lastPrice := math.NaN()
	iterations := 0

	for i := 0; i < s.MaxIterations; i++ {
		iterations = i + 1
		trial := m.WithStandardDeviation(vol)
		price := trial.Price(t)
		vega := trial.Greeks(t).Vega * 100
		diff := price - marketPrice

		lastVol, lastPrice = vol, price

		if s.Trace != nil {
			s.Trace(Step{Iteration: i + 1, Volatility: vol, Price: price, Vega: vega, Diff: diff})
		}

		if math.Abs(diff) < s.Tolerance {
			return Result{Volatility: vol, Iterations: i + 1}, nil
		}

		if math.Abs(vega) < MinVega {
			return Result{}, &SolverError{Err: ErrVegaTooSmall, Iterations: i + 1, LastVolatility: vol, LastPrice: price}
		}

		vol = vol - diff/vega

		if vol <= 0 {
			vol = VolatilityFloor
		}
	}

	return Result{}, &SolverError{Err: ErrConvergenceFailure, Iterations: iterations, LastVolatility: lastVol, LastPrice: lastPrice}
}
