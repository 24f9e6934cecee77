package main

import (
	"time"

	"github.com/The-Vigil/DAT-vs-market-Rate/pkg/rateview"
)

// newRateviewClient builds the Rateview client from config.
func newRateviewClient() rateview.Client {
	return rateview.NewClient(
		rateview.WithBaseURL(cfg.Rateview.BaseURL),
		rateview.WithTimeout(time.Duration(cfg.Rateview.TimeoutSecs)*time.Second),
	)
}
