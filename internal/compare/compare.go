// Package compare builds the broker-vs-market rate verdict for a load.
package compare

import (
	"math"
	"strconv"

	"github.com/The-Vigil/DAT-vs-market-Rate/internal/model"
)

// Comparison labels for the non-numeric outcomes.
const (
	AtMarket    = "At market rate"
	NotPossible = "Rate comparison not possible"
)

// Rates compares a broker per-mile rate against the market benchmark. Either
// side absent or non-positive makes the comparison impossible, though a usable
// side still reports its number. The above/below direction is decided on the
// raw difference, so a gap that rounds to 0.00 keeps its direction label.
func Rates(broker, market model.Amount) model.RateComparison {
	if !broker.Positive() || !market.Positive() {
		return model.RateComparison{
			BrokerRatePerMile: usable(broker),
			MarketRatePerMile: usable(market),
			Comparison:        NotPossible,
		}
	}

	diff := (broker.Value - market.Value) / market.Value * 100
	rounded := math.Round(diff*100) / 100

	var label string
	switch {
	case diff > 0:
		label = formatPercent(rounded) + "% above market rate"
	case diff < 0:
		label = formatPercent(rounded) + "% below market rate"
	default:
		label = AtMarket
	}

	return model.RateComparison{
		BrokerRatePerMile:    broker,
		MarketRatePerMile:    market,
		DifferencePercentage: model.Percent(rounded),
		Comparison:           label,
	}
}

// usable blanks an amount that is present but non-positive so the report shows
// the unavailable sentinel instead of a meaningless number.
func usable(a model.Amount) model.Amount {
	if !a.Positive() {
		return model.Amount{}
	}
	return a
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
}
