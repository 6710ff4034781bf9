// Package heatmap evaluates the pricing engine over strike × volatility
// grids and strike curves for charting.
package heatmap

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	blackscholes "github.com/jwaldner/blackscholes/blackscholes_lib"
)

// MaxCells bounds the grid size of a single request.
const MaxCells = 10000

var ErrInvalidAxis = errors.New("invalid axis")

// Params describes a strike × volatility grid at fixed spot, time and rate.
type Params struct {
	Spot       float64 `json:"spot"`
	Time       float64 `json:"time"`
	Rate       float64 `json:"rate"`
	MinStrike  float64 `json:"min_strike"`
	MaxStrike  float64 `json:"max_strike"`
	StrikeStep float64 `json:"strike_step"`
	MinVol     float64 `json:"min_vol"`
	MaxVol     float64 `json:"max_vol"`
	VolStep    float64 `json:"vol_step"`
}

// Surface holds one option type's values, indexed [vol][strike].
type Surface struct {
	Prices [][]float64
	Greeks [][]blackscholes.Greeks
}

// Grid is a generated heatmap for both option types.
type Grid struct {
	Params       Params
	Strikes      []float64
	Volatilities []float64
	Calls        Surface
	Puts         Surface
}

// Axis returns min, min+step, ... with floor((max-min)/step)+1 points.
func Axis(min, max, step float64) ([]float64, error) {
	switch {
	case !(step > 0):
		return nil, fmt.Errorf("%w: step %g must be positive", ErrInvalidAxis, step)
	case max < min:
		return nil, fmt.Errorf("%w: max %g below min %g", ErrInvalidAxis, max, min)
	case math.IsInf(max-min, 0) || math.IsNaN(max-min):
		return nil, fmt.Errorf("%w: bounds must be finite", ErrInvalidAxis)
	}

	// bound the span as a float; converting a huge one to int wraps negative
	span := (max - min) / step
	if !(span+1 <= MaxCells) {
		return nil, fmt.Errorf("%w: %g points exceeds %d", ErrInvalidAxis, math.Floor(span)+1, MaxCells)
	}

	// tolerate 80 + 8*5 landing a hair under 120
	n := int(math.Floor(span+1e-9)) + 1

	axis := make([]float64, n)
	if n == 1 {
		axis[0] = min
		return axis, nil
	}
	return floats.Span(axis, min, min+float64(n-1)*step), nil
}

// Generate prices every grid cell for calls and puts, sequentially.
func Generate(p Params) (*Grid, error) {
	strikes, err := Axis(p.MinStrike, p.MaxStrike, p.StrikeStep)
	if err != nil {
		return nil, fmt.Errorf("strikes: %w", err)
	}
	vols, err := Axis(p.MinVol, p.MaxVol, p.VolStep)
	if err != nil {
		return nil, fmt.Errorf("volatilities: %w", err)
	}
	if cells := len(strikes) * len(vols); cells > MaxCells {
		return nil, fmt.Errorf("%w: %d cells exceeds %d", ErrInvalidAxis, cells, MaxCells)
	}

	base := blackscholes.New(p.Spot, 0, p.Time, p.Rate, 0)

	return &Grid{
		Params:       p,
		Strikes:      strikes,
		Volatilities: vols,
		Calls:        surface(base, strikes, vols, blackscholes.Call),
		Puts:         surface(base, strikes, vols, blackscholes.Put),
	}, nil
}

func surface(base blackscholes.Model, strikes, vols []float64, t blackscholes.OptionType) Surface {
	s := Surface{
		Prices: make([][]float64, len(vols)),
		Greeks: make([][]blackscholes.Greeks, len(vols)),
	}
	for i, vol := range vols {
		s.Prices[i] = make([]float64, len(strikes))
		s.Greeks[i] = make([]blackscholes.Greeks, len(strikes))
		for j, strike := range strikes {
			m := base.WithStrikePrice(strike).WithStandardDeviation(vol)
			s.Prices[i][j] = m.Price(t)
			s.Greeks[i][j] = m.Greeks(t)
		}
	}
	return s
}

// Range returns the min and max of one field ("price" or a greek name)
// over the finite cells, for colour scaling. NaN, NaN when no cell is finite
// or the field is unknown.
func (s Surface) Range(field string) (float64, float64) {
	var values []float64
	for i := range s.Prices {
		for j := range s.Prices[i] {
			var v float64
			if field == "price" {
				v = s.Prices[i][j]
			} else {
				g, err := Pick(s.Greeks[i][j], field)
				if err != nil {
					return math.NaN(), math.NaN()
				}
				v = g
			}
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				values = append(values, v)
			}
		}
	}
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Min(values), floats.Max(values)
}
