package models

import (
	blackscholes "github.com/jwaldner/blackscholes/blackscholes_lib"
	"github.com/jwaldner/blackscholes/internal/heatmap"
)

// PricingRequest carries one set of Black-Scholes inputs.
// Either TimeToExpiry (years) or ExpirationDate (YYYY-MM-DD) is required.
type PricingRequest struct {
	SpotPrice      float64 `json:"spot_price"`
	StrikePrice    float64 `json:"strike_price"`
	TimeToExpiry   float64 `json:"time_to_expiry"`
	ExpirationDate string  `json:"expiration_date,omitempty"`
	RiskFreeRate   float64 `json:"risk_free_rate"`
	Volatility     float64 `json:"volatility"`
	OptionType     string  `json:"option_type"` // "call" or "put"
}

// PriceResponse is the result of /api/price
type PriceResponse struct {
	OptionType string `json:"option_type"`
	Price      Number `json:"price"`
	D1         Number `json:"d1"`
	D2         Number `json:"d2"`
	Breakeven  Number `json:"breakeven"`
}

// GreeksResponse is the result of /api/greeks
type GreeksResponse struct {
	OptionType string      `json:"option_type"`
	Greeks     GreekValues `json:"greeks"`
}

// GreekValues is blackscholes.Greeks with JSON-safe numbers.
type GreekValues struct {
	Delta Number `json:"delta"`
	Gamma Number `json:"gamma"`
	Theta Number `json:"theta"`
	Vega  Number `json:"vega"`
	Rho   Number `json:"rho"`
}

// NewGreekValues wraps a Greeks record.
func NewGreekValues(g blackscholes.Greeks) GreekValues {
	return GreekValues{
		Delta: Number(g.Delta),
		Gamma: Number(g.Gamma),
		Theta: Number(g.Theta),
		Vega:  Number(g.Vega),
		Rho:   Number(g.Rho),
	}
}

// OptionValues is price and Greeks for one option type.
type OptionValues struct {
	Price  Number      `json:"price"`
	Greeks GreekValues `json:"greeks"`
}

// CalculationResponse is the result of /api/calculate: both sides of one
// parameter set, the intermediate terms, break-even levels and display
// strings for a UI panel.
type CalculationResponse struct {
	Inputs         PricingRequest           `json:"inputs"`
	D1             Number                   `json:"d1"`
	D2             Number                   `json:"d2"`
	DiscountFactor Number                   `json:"discount_factor"`
	Call           OptionValues             `json:"call"`
	Put            OptionValues             `json:"put"`
	CallBreakeven  Number                   `json:"call_breakeven"`
	PutBreakeven   Number                   `json:"put_breakeven"`
	Display        FormattedResult          `json:"display"`
	FieldMetadata  map[string]FieldMetadata `json:"field_metadata"`
}

// BatchCalculationRequest for multiple calculations
type BatchCalculationRequest struct {
	Calculations []PricingRequest `json:"calculations"`
}

// BatchItem is one entry of a batch. Error is set instead of the values when
// that entry could not be parsed.
type BatchItem struct {
	Index      int           `json:"index"`
	OptionType string        `json:"option_type,omitempty"`
	Values     *OptionValues `json:"values,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// BatchCalculationResponse for multiple results
type BatchCalculationResponse struct {
	Results           []BatchItem `json:"results"`
	ProcessedIn       float64     `json:"processed_in_ms"`
	TotalCalculations int         `json:"total_calculations"`
	Failed            int         `json:"failed"`
}

// ImpliedVolRequest asks for the volatility that reproduces MarketPrice.
// MaxIterations and Tolerance fall back to configuration when zero.
type ImpliedVolRequest struct {
	PricingRequest
	MarketPrice   float64 `json:"market_price"`
	MaxIterations int     `json:"max_iterations"`
	Tolerance     float64 `json:"tolerance"`
}

// ImpliedVolResponse is a converged search.
type ImpliedVolResponse struct {
	OptionType        string `json:"option_type"`
	ImpliedVolatility Number `json:"implied_volatility"`
	Iterations        int    `json:"iterations"`
	MarketPrice       Number `json:"market_price"`
	Display           string `json:"display"`
}

// SolverErrorResponse is returned with 422 when the search fails.
type SolverErrorResponse struct {
	Error          string `json:"error"` // VEGA_TOO_SMALL or CONVERGENCE_FAILURE
	Message        string `json:"message"`
	Iterations     int    `json:"iterations"`
	LastVolatility Number `json:"last_volatility"`
	LastPrice      Number `json:"last_price"`
}

// ErrorResponse is the body of every other 4xx/5xx answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HeatmapRequest overrides the configured heatmap grid. Zero fields keep the
// configured value.
type HeatmapRequest struct {
	Spot       float64  `json:"spot"`
	Time       float64  `json:"time"`
	Rate       *float64 `json:"rate,omitempty"`
	MinStrike  float64  `json:"min_strike"`
	MaxStrike  float64  `json:"max_strike"`
	StrikeStep float64  `json:"strike_step"`
	MinVol     float64  `json:"min_vol"`
	MaxVol     float64  `json:"max_vol"`
	VolStep    float64  `json:"vol_step"`
}

// HeatmapResponse wraps a generated grid with JSON-safe cells.
type HeatmapResponse struct {
	Params       heatmap.Params `json:"params"`
	Strikes      []float64      `json:"strikes"`
	Volatilities []float64      `json:"volatilities"`
	Calls        SurfaceValues  `json:"calls"`
	Puts         SurfaceValues  `json:"puts"`
}

// SurfaceValues mirrors heatmap.Surface, indexed [vol][strike].
type SurfaceValues struct {
	Prices     [][]Number      `json:"prices"`
	Greeks     [][]GreekValues `json:"greeks"`
	PriceRange [2]Number       `json:"price_range"`
}

// NewSurfaceValues converts a heatmap surface.
func NewSurfaceValues(s heatmap.Surface) SurfaceValues {
	out := SurfaceValues{
		Prices: make([][]Number, len(s.Prices)),
		Greeks: make([][]GreekValues, len(s.Greeks)),
	}
	for i, row := range s.Prices {
		out.Prices[i] = make([]Number, len(row))
		for j, v := range row {
			out.Prices[i][j] = Number(v)
		}
	}
	for i, row := range s.Greeks {
		out.Greeks[i] = make([]GreekValues, len(row))
		for j, g := range row {
			out.Greeks[i][j] = NewGreekValues(g)
		}
	}
	lo, hi := s.Range("price")
	out.PriceRange = [2]Number{Number(lo), Number(hi)}
	return out
}

// CurvePoint is one (strike, greek) sample.
type CurvePoint struct {
	X Number `json:"x"`
	Y Number `json:"y"`
}

// CurveResponse is the result of /api/curve
type CurveResponse struct {
	Greek      string       `json:"greek"`
	OptionType string       `json:"option_type"`
	Points     []CurvePoint `json:"points"`
}
