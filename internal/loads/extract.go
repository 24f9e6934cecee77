// Package loads extracts rate figures from partially populated load-search
// records. The load-search API reports absent numeric fields as 0, so the
// extractors treat non-positive values as missing.
package loads

import (
	"github.com/The-Vigil/DAT-vs-market-Rate/internal/model"
)

// BrokerRatePerMile returns the broker's per-mile rate for a load, preferring
// the explicit estimatedRatePerMile, then the private network bookable total
// divided by trip miles, then the load board total divided by trip miles.
// Without a positive trip length the totals are unusable and the rate is
// unavailable.
func BrokerRatePerMile(m model.Match) model.Amount {
	if m.EstimatedRatePerMile > 0 {
		return model.USD(m.EstimatedRatePerMile)
	}

	miles := m.TripLength.Miles
	if miles <= 0 {
		return model.Amount{}
	}

	if private := m.PrivateNetworkRateInfo.Bookable.Rate.RateUsd; private > 0 {
		return model.USD(private / miles)
	}
	if board := m.LoadBoardRateInfo.NonBookable.RateUsd; board > 0 {
		return model.USD(board / miles)
	}

	return model.Amount{}
}

// TotalLoadAmount returns the total posted amount for a load: the private
// network bookable rate when present, else the load board rate. Trip length
// never factors in.
func TotalLoadAmount(m model.Match) model.Amount {
	if private := m.PrivateNetworkRateInfo.Bookable.Rate.RateUsd; private > 0 {
		return model.USD(private)
	}
	if board := m.LoadBoardRateInfo.NonBookable.RateUsd; board > 0 {
		return model.USD(board)
	}
	return model.Amount{}
}
