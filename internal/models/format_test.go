package models

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestNumberNonFiniteIsNull(t *testing.T) {
	out, err := json.Marshal(PriceResponse{
		OptionType: "call",
		Price:      Number(math.NaN()),
		D1:         Number(math.Inf(1)),
		D2:         Number(-0.25),
		Breakeven:  Number(math.NaN()),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"option_type":"call","price":null,"d1":null,"d2":-0.25,"breakeven":null}`
	if string(out) != want {
		t.Errorf("got %s, want %s", out, want)
	}

	var back PriceResponse
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Price.IsFinite() || !back.D2.IsFinite() {
		t.Errorf("decoded = %+v", back)
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		v      float64
		places int32
		want   string
	}{
		{10.450583572185565, 4, "10.4506"},
		{10.450583572185565, 2, "10.45"},
		{-0.0175727, 4, "-0.0176"},
		{3, 2, "3.00"},
		{math.NaN(), 2, "NaN"},
		{math.Inf(1), 2, "+Inf"},
		{math.Inf(-1), 2, "-Inf"},
	}
	for _, tt := range tests {
		if got := Round(tt.v, tt.places); got != tt.want {
			t.Errorf("Round(%v, %d) = %q, want %q", tt.v, tt.places, got, tt.want)
		}
	}
}

func TestFormatter(t *testing.T) {
	f := Formatter{PricePlaces: 2, GreekPlaces: 4}

	if got := f.Currency(10.4506); got.Display != "$10.45" || got.Type != "currency" {
		t.Errorf("Currency = %+v", got)
	}
	if got := f.Currency(math.NaN()); got.Display != "NaN" {
		t.Errorf("Currency(NaN) = %+v", got)
	}
	if got := f.Greek(0.636831); got.Display != "0.6368" {
		t.Errorf("Greek = %+v", got)
	}
	if got := f.Percentage(0.2); got.Display != "20.00%" {
		t.Errorf("Percentage = %+v", got)
	}
	if got := f.Plain(0.951229, 6); got.Display != "0.951229" {
		t.Errorf("Plain = %+v", got)
	}
}

func TestFieldMetadataFor(t *testing.T) {
	meta := FieldMetadataFor()
	if len(meta) != 4+2*7 {
		t.Errorf("got %d fields, want 18", len(meta))
	}
	if got := meta["call_breakeven"]; got.DisplayName != "Call Breakeven" || got.Type != "currency" {
		t.Errorf("call_breakeven metadata = %+v", got)
	}
	if got := meta["put_theta"].DisplayName; got != "Put Theta" {
		t.Errorf("put_theta display name = %q", got)
	}
	for key, m := range meta {
		if strings.HasPrefix(key, "call_") && !m.Sortable {
			t.Errorf("%s not sortable", key)
		}
	}
}
