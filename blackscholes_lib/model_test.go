package blackscholes

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func referenceModel() Model {
	return New(100, 100, 1, 0.05, 0.2)
}

func TestReferenceScenario(t *testing.T) {
	m := referenceModel()

	tests := []struct {
		name string
		got  float64
		want float64
		tol  float64
	}{
		{"call price", m.Price(Call), 10.4506, 1e-3},
		{"put price", m.Price(Put), 5.5735, 1e-3},
		{"call delta", m.Greeks(Call).Delta, 0.6368, 1e-3},
		{"gamma", m.Greeks(Call).Gamma, 0.0188, 1e-3},
		{"vega", m.Greeks(Call).Vega, 0.3752, 1e-3},
		{"d1", m.D1(), 0.35, 1e-12},
		{"d2", m.D2(), 0.15, 1e-12},
		// per-day theta is small; compare to the sixth decimal
		{"call theta per day", m.Greeks(Call).Theta, -0.0175727, 1e-6},
		{"put theta per day", m.Greeks(Put).Theta, -0.0045421, 1e-6},
		{"call rho per point", m.Greeks(Call).Rho, 0.532325, 1e-5},
		{"put rho per point", m.Greeks(Put).Rho, -0.418905, 1e-5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !almostEqual(tt.got, tt.want, tt.tol) {
				t.Errorf("got %.8f, want %.8f (tol %g)", tt.got, tt.want, tt.tol)
			}
		})
	}
}

func TestBreakeven(t *testing.T) {
	m := referenceModel()
	if got := m.Breakeven(Call); !almostEqual(got, 110.4506, 1e-3) {
		t.Errorf("call breakeven = %.6f, want 110.4506", got)
	}
	if got := m.Breakeven(Put); !almostEqual(got, 94.4265, 1e-3) {
		t.Errorf("put breakeven = %.6f, want 94.4265", got)
	}
	if got := m.Breakeven(OptionType(7)); !math.IsNaN(got) {
		t.Errorf("unknown type breakeven = %v, want NaN", got)
	}
}

// Short-dated out-of-the-money put, 21 days to expiry.
func TestShortDatedPut(t *testing.T) {
	m := New(188.36, 166, 21.0/365, 0.03983, 0.39963570444400937)

	if got := m.Price(Put); !almostEqual(got, 0.70366, 1e-4) {
		t.Errorf("put price = %.6f, want 0.70366", got)
	}
	if got := m.Greeks(Put).Delta; !almostEqual(got, -0.08225, 1e-4) {
		t.Errorf("put delta = %.6f, want -0.08225", got)
	}
}

func TestGammaAndVegaIndependentOfType(t *testing.T) {
	m := New(120, 95, 0.4, 0.03, 0.35)
	call, put := m.Greeks(Call), m.Greeks(Put)
	if call.Gamma != put.Gamma {
		t.Errorf("gamma differs: call %v put %v", call.Gamma, put.Gamma)
	}
	if call.Vega != put.Vega {
		t.Errorf("vega differs: call %v put %v", call.Vega, put.Vega)
	}
	if !almostEqual(call.Delta-put.Delta, 1, 1e-15) {
		t.Errorf("call delta - put delta = %v, want 1", call.Delta-put.Delta)
	}
}

func TestPutCallParity(t *testing.T) {
	spots := []float64{50, 80, 100, 130, 250}
	strikes := []float64{60, 100, 140}
	times := []float64{0.05, 0.5, 1, 3}
	rates := []float64{-0.01, 0, 0.05, 0.12}
	vols := []float64{0.05, 0.2, 0.6, 1.5}

	for _, S := range spots {
		for _, K := range strikes {
			for _, T := range times {
				for _, r := range rates {
					for _, sigma := range vols {
						m := New(S, K, T, r, sigma)
						lhs := m.Price(Call) - m.Price(Put)
						rhs := S - K*math.Exp(-r*T)
						if diff := math.Abs(lhs - rhs); diff > 1e-9*math.Max(1, math.Abs(rhs)) {
							t.Fatalf("parity broken S=%v K=%v T=%v r=%v sigma=%v: %v vs %v", S, K, T, r, sigma, lhs, rhs)
						}
					}
				}
			}
		}
	}
}

func TestDeltaBounds(t *testing.T) {
	for _, K := range []float64{70, 90, 100, 110, 130} {
		for _, sigma := range []float64{0.1, 0.3, 0.8} {
			m := New(100, K, 0.75, 0.04, sigma)
			if d := m.Greeks(Call).Delta; d <= 0 || d >= 1 {
				t.Errorf("call delta K=%v sigma=%v = %v, want (0, 1)", K, sigma, d)
			}
			if d := m.Greeks(Put).Delta; d <= -1 || d >= 0 {
				t.Errorf("put delta K=%v sigma=%v = %v, want (-1, 0)", K, sigma, d)
			}
		}
	}
}

func TestDegenerateInputsPropagate(t *testing.T) {
	tests := []struct {
		name string
		m    Model
	}{
		{"zero volatility", New(100, 100, 1, 0.05, 0)},
		{"zero expiry", New(100, 100, 0, 0.05, 0.2)},
		{"zero strike", New(100, 0, 1, 0.05, 0.2)},
		{"negative strike", New(100, -10, 1, 0.05, 0.2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := tt.m.Greeks(Call)
			finite := !math.IsNaN(g.Gamma) && !math.IsInf(g.Gamma, 0) &&
				!math.IsNaN(tt.m.D1()) && !math.IsInf(tt.m.D1(), 0)
			if finite {
				t.Errorf("expected a non-finite d1 or gamma, got d1=%v gamma=%v", tt.m.D1(), g.Gamma)
			}
		})
	}

	if p := New(100, -10, 1, 0.05, 0.2).Price(Call); !math.IsNaN(p) {
		t.Errorf("negative strike price = %v, want NaN", p)
	}
}

func TestUnknownOptionTypeYieldsNaN(t *testing.T) {
	m := referenceModel()
	bogus := OptionType(7)
	if p := m.Price(bogus); !math.IsNaN(p) {
		t.Errorf("Price(bogus) = %v, want NaN", p)
	}
	if g := m.Greeks(bogus); !math.IsNaN(g.Delta) || !math.IsNaN(g.Rho) {
		t.Errorf("Greeks(bogus) = %+v, want NaN fields", g)
	}
}

func TestWithLeavesOriginalUntouched(t *testing.T) {
	base := referenceModel()
	spot, vol := 110.0, 0.3

	changed := base.With(Overrides{SpotPrice: &spot, StandardDeviation: &vol})

	if base.SpotPrice() != 100 || base.StandardDeviation() != 0.2 {
		t.Fatalf("base model changed: %+v", base)
	}
	if changed.SpotPrice() != 110 || changed.StandardDeviation() != 0.3 {
		t.Errorf("overrides not applied: %+v", changed)
	}
	if changed.StrikePrice() != 100 || changed.TimeToExpiry() != 1 || changed.RiskFreeRate() != 0.05 {
		t.Errorf("untouched fields changed: %+v", changed)
	}

	single := base.WithSpotPrice(1).WithStrikePrice(2).WithTimeToExpiry(3).WithRiskFreeRate(4).WithStandardDeviation(5)
	if single != New(1, 2, 3, 4, 5) {
		t.Errorf("single-field helpers = %+v", single)
	}
}

func TestConvenienceMatchesModel(t *testing.T) {
	m := New(95, 105, 0.5, 0.02, 0.27)
	for _, ot := range []OptionType{Call, Put} {
		if got, want := CalculateOptionPrice(95, 105, 0.5, 0.02, 0.27, ot), m.Price(ot); got != want {
			t.Errorf("%v price %v != %v", ot, got, want)
		}
		if got, want := CalculateGreeks(95, 105, 0.5, 0.02, 0.27, ot), m.Greeks(ot); got != want {
			t.Errorf("%v greeks %+v != %+v", ot, got, want)
		}
	}
}

func TestParseOptionType(t *testing.T) {
	tests := []struct {
		in      string
		want    OptionType
		wantErr bool
	}{
		{"call", Call, false},
		{"C", Call, false},
		{" Put ", Put, false},
		{"p", Put, false},
		{"straddle", Call, true},
		{"", Call, true},
	}

	for _, tt := range tests {
		got, err := ParseOptionType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOptionType(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseOptionType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOptionTypeText(t *testing.T) {
	var ot OptionType
	if err := ot.UnmarshalText([]byte("put")); err != nil || ot != Put {
		t.Fatalf("UnmarshalText(put) = %v, %v", ot, err)
	}
	b, err := Call.MarshalText()
	if err != nil || string(b) != "call" {
		t.Fatalf("MarshalText(Call) = %q, %v", b, err)
	}
	if _, err := OptionType(9).MarshalText(); err == nil {
		t.Error("expected error marshalling unknown option type")
	}
}

func TestValidate(t *testing.T) {
	if err := referenceModel().Validate(); err != nil {
		t.Fatalf("reference model invalid: %v", err)
	}
	if err := New(100, 100, 1, -0.02, 0.2).Validate(); err != nil {
		t.Errorf("negative rate rejected: %v", err)
	}

	err := New(-1, 100, 0, math.NaN(), 0.2).Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"spot_price", "time_to_expiry", "risk_free_rate"} {
		if !containsField(err, field) {
			t.Errorf("error %q does not mention %s", err, field)
		}
	}
}

func containsField(err error, field string) bool {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return false
	}
	for _, e := range joined.Unwrap() {
		if ve, ok := e.(*ValidationError); ok && ve.Field == field {
			return true
		}
	}
	return false
}
