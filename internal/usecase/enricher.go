package usecase

import (
	"context"

	"FolioPull/internal/domain/models"
	domrepo "FolioPull/internal/domain/repository"
	applogger "FolioPull/pkg/logger"

	"github.com/shopspring/decimal"
)

// maxLookback is how many points before the latest are searched for a
// differing price. Runs of equal prices come from non-trading days.
const maxLookback = 5

var hundred = decimal.NewFromInt(100)

// Enricher fills price fields of watchlist items from their market data.
type Enricher struct {
	api    domrepo.PortfolioAPI
	logger *applogger.Logger
}

func NewEnricher(api domrepo.PortfolioAPI, l *applogger.Logger) *Enricher {
	return &Enricher{api: api, logger: l}
}

// EnrichAll fetches market data for every item and returns the enriched
// list. Items whose market data cannot be fetched are kept unchanged.
func (e *Enricher) EnrichAll(ctx context.Context, items []models.WatchlistItem) []models.WatchlistItem {
	out := make([]models.WatchlistItem, 0, len(items))
	for _, item := range items {
		if item.Symbol == "" || item.DataSource == "" {
			out = append(out, item)
			continue
		}

		md, err := e.api.MarketData(ctx, item.DataSource, item.Symbol)
		if err != nil {
			e.logger.Debug("watchlist enrichment failed",
				applogger.String("symbol", item.Symbol),
				applogger.String("data_source", item.DataSource),
				applogger.Error(err))
			out = append(out, item)
			continue
		}
		out = append(out, Enrich(item, md))
	}
	return out
}

// Enrich derives price, date and change of item from md. The history must
// be ordered by date ascending.
func Enrich(item models.WatchlistItem, md models.MarketData) models.WatchlistItem {
	if history := md.MarketData; len(history) > 0 {
		last := history[len(history)-1]
		current := last.Price()

		item.MarketPrice = ptr(current)
		item.MarketDate = last.Date
		item.MarketChange = nil
		item.MarketChangePercentage = nil

		if prev, ok := previousDistinctPrice(history, current); ok && prev > 0 {
			cur := decimal.NewFromFloat(current)
			p := decimal.NewFromFloat(prev)
			change := cur.Sub(p)
			pct := change.Div(p).Mul(hundred)

			item.MarketChange = ptr(change.InexactFloat64())
			item.MarketChangePercentage = ptr(pct.InexactFloat64())
		}
	}

	if item.Currency == "" {
		item.Currency = md.AssetProfile.Currency
	}
	if item.AssetClass == "" {
		item.AssetClass = md.AssetProfile.AssetClass
	}
	return item
}

// previousDistinctPrice walks back over at most maxLookback points before the
// last one and returns the first price that differs from current.
func previousDistinctPrice(history []models.MarketDataPoint, current float64) (float64, bool) {
	last := len(history) - 1
	for i := last - 1; i >= 0 && last-i <= maxLookback; i-- {
		if p := history[i].Price(); p != current {
			return p, true
		}
	}
	return 0, false
}

func ptr[T any](v T) *T {
	return &v
}
