package blackscholes

import "math"

// Model holds the five Black-Scholes inputs. It is a value: every "setter"
// returns a new Model, so a Model seen by one caller never changes under it.
//
// No validation happens on construction. Out-of-domain inputs (K <= 0,
// T <= 0, sigma <= 0) flow through the formulas and come out as NaN or Inf.
// Call Validate for a strict check.
type Model struct {
	spotPrice         float64 // S
	strikePrice       float64 // K
	timeToExpiry      float64 // T, years
	riskFreeRate      float64 // r, continuously compounded
	standardDeviation float64 // sigma, annualised
}

// Overrides lists the fields to replace in With. Nil fields keep their value.
type Overrides struct {
	SpotPrice         *float64
	StrikePrice       *float64
	TimeToExpiry      *float64
	RiskFreeRate      *float64
	StandardDeviation *float64
}

// New creates a pricing model.
func New(spotPrice, strikePrice, timeToExpiry, riskFreeRate, standardDeviation float64) Model {
	return Model{
		spotPrice:         spotPrice,
		strikePrice:       strikePrice,
		timeToExpiry:      timeToExpiry,
		riskFreeRate:      riskFreeRate,
		standardDeviation: standardDeviation,
	}
}

// With rebuilds the model with every non-nil override applied at once.
func (m Model) With(o Overrides) Model {
	if o.SpotPrice != nil {
		m.spotPrice = *o.SpotPrice
	}
	if o.StrikePrice != nil {
		m.strikePrice = *o.StrikePrice
	}
	if o.TimeToExpiry != nil {
		m.timeToExpiry = *o.TimeToExpiry
	}
	if o.RiskFreeRate != nil {
		m.riskFreeRate = *o.RiskFreeRate
	}
	if o.StandardDeviation != nil {
		m.standardDeviation = *o.StandardDeviation
	}
	return m
}

func (m Model) WithSpotPrice(v float64) Model {
	m.spotPrice = v
	return m
}

func (m Model) WithStrikePrice(v float64) Model {
	m.strikePrice = v
	return m
}

func (m Model) WithTimeToExpiry(v float64) Model {
	m.timeToExpiry = v
	return m
}

func (m Model) WithRiskFreeRate(v float64) Model {
	m.riskFreeRate = v
	return m
}

func (m Model) WithStandardDeviation(v float64) Model {
	m.standardDeviation = v
	return m
}

func (m Model) SpotPrice() float64         { return m.spotPrice }
func (m Model) StrikePrice() float64       { return m.strikePrice }
func (m Model) TimeToExpiry() float64      { return m.timeToExpiry }
func (m Model) RiskFreeRate() float64      { return m.riskFreeRate }
func (m Model) StandardDeviation() float64 { return m.standardDeviation }

// D1 = (ln(S/K) + (r + sigma^2/2)T) / (sigma sqrt(T))
func (m Model) D1() float64 {
	numerator := math.Log(m.spotPrice/m.strikePrice) +
		(m.riskFreeRate+0.5*m.standardDeviation*m.standardDeviation)*m.timeToExpiry
	denominator := m.standardDeviation * math.Sqrt(m.timeToExpiry)
	return numerator / denominator
}

// D2 = d1 - sigma sqrt(T)
func (m Model) D2() float64 {
	return m.D1() - m.standardDeviation*math.Sqrt(m.timeToExpiry)
}

// DiscountFactor is exp(-rT), the present value of one unit paid at expiry.
func (m Model) DiscountFactor() float64 {
	return math.Exp(-m.riskFreeRate * m.timeToExpiry)
}

// Price returns the closed-form Black-Scholes value of a European option.
func (m Model) Price(t OptionType) float64 {
	d1 := m.D1()
	d2 := m.D2()
	discountFactor := m.DiscountFactor()

	switch t {
	case Call:
		return m.spotPrice*NormCDF(d1) - m.strikePrice*discountFactor*NormCDF(d2)
	case Put:
		return m.strikePrice*discountFactor*NormCDF(-d2) - m.spotPrice*NormCDF(-d1)
	default:
		return math.NaN()
	}
}

// Breakeven is the underlying level at which a position bought today at the
// model price pays back: spot plus the premium for a call, spot minus it for
// a put.
func (m Model) Breakeven(t OptionType) float64 {
	switch t {
	case Call:
		return m.spotPrice + m.Price(Call)
	case Put:
		return m.spotPrice - m.Price(Put)
	default:
		return math.NaN()
	}
}
