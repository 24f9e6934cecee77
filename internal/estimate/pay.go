// Package estimate derives a driver pay figure from whatever rate data a load
// carries.
package estimate

import (
	"math"

	"github.com/The-Vigil/DAT-vs-market-Rate/internal/loads"
	"github.com/The-Vigil/DAT-vs-market-Rate/internal/model"
)

// Calculation methods reported alongside the estimate.
const (
	MethodPercentageOfTotal = "percentage_of_total"
	MethodFromRatePerMile   = "calculated_from_rate_per_mile"
	MethodInsufficientData  = "insufficient_data"
)

// payShare is the driver's cut of the load amount.
const payShare = 0.25

// DriverPay estimates pay as 25% of the total load amount. When no total is
// posted it reconstructs one from the per-mile rate and trip length; when that
// is impossible too, the estimate is unavailable.
func DriverPay(m model.Match) model.DriverPay {
	if total := loads.TotalLoadAmount(m); total.Positive() {
		return model.DriverPay{
			Amount: model.USD(round2(total.Value * payShare)),
			Method: MethodPercentageOfTotal,
		}
	}

	rate := loads.BrokerRatePerMile(m)
	if miles := m.TripLength.Miles; rate.Positive() && miles > 0 {
		return model.DriverPay{
			Amount: model.USD(round2(rate.Value * miles * payShare)),
			Method: MethodFromRatePerMile,
		}
	}

	return model.DriverPay{Method: MethodInsufficientData}
}

// round2 rounds to cents, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
