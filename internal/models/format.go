package models

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a float64 that encodes NaN and ±Inf as JSON null instead of
// failing the whole response.
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func (n *Number) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = Number(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// IsFinite reports whether the value is neither NaN nor infinite.
func (n Number) IsFinite() bool {
	f := float64(n)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FieldValue represents a field with both raw data and formatted display
type FieldValue struct {
	Raw     Number `json:"raw"`     // For CSV/sorting: 1234.56
	Display string `json:"display"` // For UI: "$1234.56"
	Type    string `json:"type"`    // For CSS: "currency"
}

// FormattedResult represents a result with formatted fields
type FormattedResult map[string]FieldValue

type FieldMetadata struct {
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	Sortable    bool   `json:"sortable"`
	Alignment   string `json:"alignment"`
}

// Formatter renders numbers with fixed decimal places.
type Formatter struct {
	PricePlaces int32
	GreekPlaces int32
}

// Round renders v with the given places, or "NaN", "+Inf", "-Inf".
func Round(v float64, places int32) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func (f Formatter) Currency(v float64) FieldValue {
	display := Round(v, f.PricePlaces)
	if Number(v).IsFinite() {
		display = "$" + display
	}
	return FieldValue{Raw: Number(v), Display: display, Type: "currency"}
}

func (f Formatter) Greek(v float64) FieldValue {
	return FieldValue{Raw: Number(v), Display: Round(v, f.GreekPlaces), Type: "greek"}
}

func (f Formatter) Percentage(v float64) FieldValue {
	display := Round(v*100, 2)
	if Number(v).IsFinite() {
		display += "%"
	}
	return FieldValue{Raw: Number(v), Display: display, Type: "percentage"}
}

func (f Formatter) Plain(v float64, places int) FieldValue {
	return FieldValue{Raw: Number(v), Display: Round(v, int32(places)), Type: "number"}
}

// FieldMetadataFor describes the display fields of a calculation response.
func FieldMetadataFor() map[string]FieldMetadata {
	meta := map[string]FieldMetadata{
		"d1":              {DisplayName: "d1", Type: "number", Alignment: "right"},
		"d2":              {DisplayName: "d2", Type: "number", Alignment: "right"},
		"discount_factor": {DisplayName: "Discount Factor", Type: "number", Alignment: "right"},
		"volatility":      {DisplayName: "Volatility", Type: "percentage", Alignment: "right"},
	}
	for _, side := range []string{"call", "put"} {
		title := map[string]string{"call": "Call", "put": "Put"}[side]
		meta[side+"_price"] = FieldMetadata{DisplayName: title + " Price", Type: "currency", Sortable: true, Alignment: "right"}
		meta[side+"_breakeven"] = FieldMetadata{DisplayName: title + " Breakeven", Type: "currency", Sortable: true, Alignment: "right"}
		for _, g := range []string{"delta", "gamma", "theta", "vega", "rho"} {
			meta[side+"_"+g] = FieldMetadata{
				DisplayName: title + " " + strings.ToUpper(g[:1]) + g[1:],
				Type:        "greek",
				Sortable:    true,
				Alignment:   "right",
			}
		}
	}
	return meta
}
