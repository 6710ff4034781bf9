package blackscholes

// CalculateOptionPrice prices one option without keeping a model around.
func CalculateOptionPrice(spotPrice, strikePrice, timeToExpiry, riskFreeRate, volatility float64, t OptionType) float64 {
	return New(spotPrice, strikePrice, timeToExpiry, riskFreeRate, volatility).Price(t)
}

// CalculateGreeks computes Greeks for one option without keeping a model around.
func CalculateGreeks(spotPrice, strikePrice, timeToExpiry, riskFreeRate, volatility float64, t OptionType) Greeks {
	return New(spotPrice, strikePrice, timeToExpiry, riskFreeRate, volatility).Greeks(t)
}
