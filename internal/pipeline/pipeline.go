// Package pipeline orchestrates enrichment of one load-search batch: extract
// broker rates, classify equipment, look up the market rate per lane, and
// merge the comparison into the report.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/The-Vigil/DAT-vs-market-Rate/internal/compare"
	"github.com/The-Vigil/DAT-vs-market-Rate/internal/config"
	"github.com/The-Vigil/DAT-vs-market-Rate/internal/equipment"
	"github.com/The-Vigil/DAT-vs-market-Rate/internal/estimate"
	"github.com/The-Vigil/DAT-vs-market-Rate/internal/loads"
	"github.com/The-Vigil/DAT-vs-market-Rate/internal/model"
	"github.com/The-Vigil/DAT-vs-market-Rate/pkg/rateview"
)

// Pipeline enriches load-search batches against the Rateview API.
type Pipeline struct {
	cfg      *config.Config
	rateview rateview.Client
	limiter  *rate.Limiter
	progress func(done, total int)
}

// New creates a pipeline. A requests_per_second setting above 0 installs a
// shared limiter across the lookup workers.
func New(cfg *config.Config, rv rateview.Client) *Pipeline {
	p := &Pipeline{cfg: cfg, rateview: rv}
	if rps := cfg.Rateview.RequestsPerSecond; rps > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return p
}

// WithProgress registers a callback invoked after each match finishes. The
// callback may be called from concurrent workers.
func (p *Pipeline) WithProgress(fn func(done, total int)) *Pipeline {
	p.progress = fn
	return p
}

// Process enriches every match in the batch. Matches are processed
// concurrently but the report preserves input order; matches without location
// data are dropped from the report entirely.
func (p *Pipeline) Process(ctx context.Context, freight json.RawMessage, accessToken string) (*model.Result, error) {
	var data model.FreightData
	if err := json.Unmarshal(freight, &data); err != nil {
		return nil, eris.Wrap(err, "pipeline: parse freight data")
	}

	counts := data.MatchCounts
	if len(counts) == 0 {
		counts = json.RawMessage(`{}`)
	}

	concurrency := p.cfg.Batch.MaxConcurrentLookups
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("pipeline: processing batch",
		zap.Int("matches", len(data.Matches)),
		zap.Int("concurrency", concurrency),
	)

	// Slots are positional so the output keeps input order no matter how
	// lookups interleave. Skipped matches leave nil slots.
	slots := make([]*model.ProcessedMatch, len(data.Matches))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, m := range data.Matches {
		i, m := i, m
		g.Go(func() error {
			pm, err := p.processMatch(gctx, m, accessToken)
			if err != nil {
				return err
			}
			slots[i] = pm
			if p.progress != nil {
				p.progress(int(done.Add(1)), len(data.Matches))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: process batch")
	}

	processed := make([]model.ProcessedMatch, 0, len(slots))
	for _, pm := range slots {
		if pm != nil {
			processed = append(processed, *pm)
		}
	}

	zap.L().Info("pipeline: batch complete",
		zap.Int("processed", len(processed)),
		zap.Int("skipped", len(data.Matches)-len(processed)),
	)

	return &model.Result{MatchCounts: counts, ProcessedMatches: processed}, nil
}

// processMatch runs the per-load stages. A nil result with nil error means the
// match was skipped for missing location data. Lookup failures never fail the
// match; they are folded into its market data.
func (p *Pipeline) processMatch(ctx context.Context, m model.Match, accessToken string) (*model.ProcessedMatch, error) {
	log := zap.L().With(zap.String("match_id", m.MatchID))

	origin := m.MatchingAssetInfo.Origin
	dest := m.MatchingAssetInfo.Destination.Place
	if origin.Empty() || dest.Empty() {
		log.Debug("pipeline: skipping match without origin or destination")
		return nil, nil
	}

	code := m.MatchingAssetInfo.EquipmentType
	category := equipment.MapCode(code)

	brokerRate := loads.BrokerRatePerMile(m)
	pay := estimate.DriverPay(m)

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := p.rateview.Lookup(ctx, accessToken, rateview.LookupRequest{
		Origin:      rateview.Place{City: origin.City, StateOrProvince: origin.StateProv},
		Destination: rateview.Place{City: dest.City, StateOrProvince: dest.StateProv},
		Equipment:   string(category),
	})

	marketRate, marketData := mergeMarketData(resp, err, log)

	return &model.ProcessedMatch{
		MatchID:        m.MatchID,
		Origin:         model.ReportPlace{City: origin.City, State: origin.StateProv},
		Destination:    model.ReportPlace{City: dest.City, State: dest.StateProv},
		EquipmentType:  model.EquipmentInfo{Code: code, RateviewType: string(category)},
		TripMiles:      m.TripLength.Miles,
		RateComparison: compare.Rates(brokerRate, marketRate),
		DriverPay:      pay,
		MarketData:     marketData,
	}, nil
}

// mergeMarketData folds the lookup outcome into the optional market snapshot
// and the market per-mile rate used for comparison. Failures become a
// per-match error marker; a response without rate data yields no snapshot.
func mergeMarketData(resp *rateview.LookupResponse, err error, log *zap.Logger) (model.Amount, *model.MarketData) {
	if err != nil {
		var apiErr *rateview.APIError
		if errors.As(err, &apiErr) {
			log.Warn("pipeline: rateview lookup rejected",
				zap.Int("status", apiErr.StatusCode),
				zap.String("detail", apiErr.Detail),
			)
			return model.Amount{}, &model.MarketData{Error: apiErr.Error()}
		}
		log.Warn("pipeline: rateview lookup failed", zap.Error(err))
		return model.Amount{}, &model.MarketData{Error: "Exception: " + err.Error()}
	}

	if len(resp.RateResponses) == 0 {
		return model.Amount{}, nil
	}
	response := resp.RateResponses[0].Response
	rateData := response.Rate
	if rateData == nil || *rateData == (rateview.Rate{}) {
		return model.Amount{}, nil
	}

	var marketRate model.Amount
	if rateData.PerMile != nil && rateData.PerMile.RateUsd != nil {
		marketRate = model.USD(*rateData.PerMile.RateUsd)
	}

	md := &model.MarketData{
		Mileage:              rateData.Mileage,
		Reports:              rateData.Reports,
		Companies:            rateData.Companies,
		StandardDeviation:    rateData.StandardDeviation,
		PerMile:              figureOrEmpty(rateData.PerMile),
		PerTrip:              figureOrEmpty(rateData.PerTrip),
		FuelSurchargePerMile: rateData.AverageFuelSurchargePerMileUsd,
		FuelSurchargePerTrip: rateData.AverageFuelSurchargePerTripUsd,
		Escalation:           response.Escalation,
	}
	return marketRate, md
}

func figureOrEmpty(f *rateview.RateFigure) rateview.RateFigure {
	if f == nil {
		return rateview.RateFigure{}
	}
	return *f
}
