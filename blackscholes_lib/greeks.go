package blackscholes

import "math"

// Greeks are the first-order sensitivities of an option price.
//
// Theta is per calendar day (annual theta / 365). Vega and Rho are per one
// percentage point move in volatility and rate (raw derivative / 100).
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

func nanGreeks() Greeks {
	nan := math.NaN()
	return Greeks{Delta: nan, Gamma: nan, Theta: nan, Vega: nan, Rho: nan}
}

// Greeks computes delta, gamma, theta, vega and rho for the option type.
func (m Model) Greeks(t OptionType) Greeks {
	if t != Call && t != Put {
		return nanGreeks()
	}

	S := m.spotPrice
	K := m.strikePrice
	T := m.timeToExpiry
	r := m.riskFreeRate
	sigma := m.standardDeviation

	d1 := m.D1()
	d2 := m.D2()
	discountFactor := m.DiscountFactor()
	sqrtT := math.Sqrt(T)
	pdfD1 := NormPDF(d1)

	var delta, theta, rho float64
	switch t {
	case Call:
		delta = NormCDF(d1)
		theta = -S*pdfD1*sigma/(2*sqrtT) - r*K*discountFactor*NormCDF(d2)
		rho = K * T * discountFactor * NormCDF(d2) / 100
	case Put:
		delta = NormCDF(d1) - 1
		theta = -S*pdfD1*sigma/(2*sqrtT) + r*K*discountFactor*NormCDF(-d2)
		rho = -K * T * discountFactor * NormCDF(-d2) / 100
	}

	return Greeks{
		Delta: delta,
		Gamma: pdfD1 / (S * sigma * sqrtT),
		Theta: theta / 365,
		Vega:  S * pdfD1 * sqrtT / 100,
		Rho:   rho,
	}
}
