package heatmap

import (
	"errors"
	"fmt"
	"strings"

	blackscholes "github.com/jwaldner/blackscholes/blackscholes_lib"
)

var ErrUnknownGreek = errors.New("unknown greek")

// Greeks lists the names accepted by Pick and Curve.
var Greeks = []string{"delta", "gamma", "theta", "vega", "rho"}

// Point is one sample of a curve.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pick returns the named field of g.
func Pick(g blackscholes.Greeks, name string) (float64, error) {
	switch strings.ToLower(name) {
	case "delta":
		return g.Delta, nil
	case "gamma":
		return g.Gamma, nil
	case "theta":
		return g.Theta, nil
	case "vega":
		return g.Vega, nil
	case "rho":
		return g.Rho, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownGreek, name)
	}
}

// DefaultStrikes is 50 strikes starting at 50 in steps of 2.
func DefaultStrikes() []float64 {
	strikes, _ := Axis(50, 148, 2)
	return strikes
}

// Curve evaluates one greek across strikes, keeping every other input of base.
func Curve(base blackscholes.Model, greek string, t blackscholes.OptionType, strikes []float64) ([]Point, error) {
	if _, err := Pick(blackscholes.Greeks{}, greek); err != nil {
		return nil, err
	}

	points := make([]Point, len(strikes))
	for i, k := range strikes {
		y, _ := Pick(base.WithStrikePrice(k).Greeks(t), greek)
		points[i] = Point{X: k, Y: y}
	}
	return points, nil
}
