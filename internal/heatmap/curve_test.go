package heatmap

import (
	"errors"
	"testing"

	blackscholes "github.com/jwaldner/blackscholes/blackscholes_lib"
)

func TestDefaultStrikes(t *testing.T) {
	s := DefaultStrikes()
	if len(s) != 50 {
		t.Fatalf("len = %d, want 50", len(s))
	}
	if s[0] != 50 || s[49] != 148 {
		t.Errorf("range = [%v, %v], want [50, 148]", s[0], s[49])
	}
}

func TestPick(t *testing.T) {
	g := blackscholes.Greeks{Delta: 1, Gamma: 2, Theta: 3, Vega: 4, Rho: 5}
	for i, name := range Greeks {
		v, err := Pick(g, name)
		if err != nil {
			t.Fatalf("Pick(%q): %v", name, err)
		}
		if v != float64(i+1) {
			t.Errorf("Pick(%q) = %v, want %v", name, v, i+1)
		}
	}
	if v, err := Pick(g, "VEGA"); err != nil || v != 4 {
		t.Errorf("Pick(VEGA) = %v, %v", v, err)
	}
	if _, err := Pick(g, "vanna"); !errors.Is(err, ErrUnknownGreek) {
		t.Errorf("expected ErrUnknownGreek, got %v", err)
	}
}

func TestCurve(t *testing.T) {
	base := blackscholes.New(100, 0, 1, 0.05, 0.2)
	strikes := DefaultStrikes()

	points, err := Curve(base, "delta", blackscholes.Call, strikes)
	if err != nil {
		t.Fatalf("Curve: %v", err)
	}
	if len(points) != len(strikes) {
		t.Fatalf("len = %d, want %d", len(points), len(strikes))
	}

	for i, p := range points {
		if p.X != strikes[i] {
			t.Errorf("x[%d] = %v, want %v", i, p.X, strikes[i])
		}
		want := base.WithStrikePrice(p.X).Greeks(blackscholes.Call).Delta
		if p.Y != want {
			t.Errorf("y[%d] = %v, want %v", i, p.Y, want)
		}
		// call delta falls as the strike rises
		if i > 0 && p.Y > points[i-1].Y {
			t.Errorf("delta rose between %v and %v", points[i-1].X, p.X)
		}
	}

	if _, err := Curve(base, "speed", blackscholes.Call, strikes); !errors.Is(err, ErrUnknownGreek) {
		t.Errorf("expected ErrUnknownGreek, got %v", err)
	}
}
