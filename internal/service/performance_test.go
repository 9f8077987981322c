package service

import (
	"testing"
	"time"

	"botdeck/backend/internal/model"
	"botdeck/backend/pkg/threecommas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateDeals(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	closed := func(id int64, profit, pct string, openFor time.Duration) threecommas.Deal {
		closedAt := now.Add(-time.Hour)
		return threecommas.Deal{
			ID:                    id,
			Pair:                  "USDT_BTC",
			Status:                threecommas.DealStatusCompleted,
			FinalProfit:           profit,
			FinalProfitPercentage: pct,
			CreatedAt:             closedAt.Add(-openFor),
			ClosedAt:              &closedAt,
		}
	}

	t.Run("empty history yields a zero report", func(t *testing.T) {
		report := AggregateDeals(nil, now)
		assert.Zero(t, report.TotalDeals)
		assert.Zero(t, report.WinRate)
		assert.Zero(t, report.TotalProfit)
		assert.Nil(t, report.BestDeal)
		assert.Nil(t, report.WorstDeal)
	})

	t.Run("win rate counts only positive profit", func(t *testing.T) {
		report := AggregateDeals([]threecommas.Deal{
			closed(1, "5.0", "2.0", time.Hour),
			closed(2, "-2.0", "-0.8", time.Hour),
		}, now)

		assert.Equal(t, 2, report.TotalDeals)
		assert.Equal(t, 2, report.CompletedDeals)
		assert.InDelta(t, 50.0, report.WinRate, 1e-9)
		assert.InDelta(t, 3.0, report.TotalProfit, 1e-9)
		assert.InDelta(t, 1.5, report.AverageProfit, 1e-9)
		assert.InDelta(t, 1.2, report.TotalProfitPercent, 1e-9)
	})

	t.Run("zero profit is not a win", func(t *testing.T) {
		report := AggregateDeals([]threecommas.Deal{
			closed(1, "0", "0", time.Hour),
			closed(2, "1", "0.5", time.Hour),
		}, now)
		assert.InDelta(t, 50.0, report.WinRate, 1e-9)
	})

	t.Run("best and worst deals", func(t *testing.T) {
		report := AggregateDeals([]threecommas.Deal{
			closed(1, "5.0", "2.0", time.Hour),
			closed(2, "-2.0", "-0.8", time.Hour),
			closed(3, "8.5", "3.1", time.Hour),
		}, now)

		require.NotNil(t, report.BestDeal)
		require.NotNil(t, report.WorstDeal)
		assert.Equal(t, int64(3), report.BestDeal.DealID)
		assert.InDelta(t, 8.5, report.BestDeal.Profit, 1e-9)
		assert.Equal(t, int64(2), report.WorstDeal.DealID)
	})

	t.Run("open deals contribute in-flight duration", func(t *testing.T) {
		open := threecommas.Deal{
			ID:        4,
			Pair:      "USDT_BTC",
			Status:    threecommas.DealStatusActive,
			CreatedAt: now.Add(-30 * time.Minute),
		}
		report := AggregateDeals([]threecommas.Deal{
			closed(1, "5.0", "2.0", time.Hour),
			open,
		}, now)

		assert.Equal(t, 1, report.ActiveDeals)
		assert.Equal(t, 1, report.CompletedDeals)
		// (60m + 30m) / 2 deals
		assert.Equal(t, (45 * time.Minute).Milliseconds(), report.AverageDealDurationMs)
	})

	t.Run("terminal deal without close time falls back to in-flight duration", func(t *testing.T) {
		noClose := threecommas.Deal{
			ID:          5,
			Pair:        "USDT_BTC",
			Status:      threecommas.DealStatusCancelled,
			FinalProfit: "0",
			CreatedAt:   now.Add(-20 * time.Minute),
		}
		report := AggregateDeals([]threecommas.Deal{noClose}, now)

		assert.Equal(t, 1, report.CompletedDeals)
		assert.Equal(t, (20 * time.Minute).Milliseconds(), report.AverageDealDurationMs)
	})

	t.Run("unparseable money counts as zero", func(t *testing.T) {
		bad := closed(1, "not-a-number", "", time.Hour)
		report := AggregateDeals([]threecommas.Deal{bad, closed(2, "2.0", "1.0", time.Hour)}, now)

		assert.InDelta(t, 2.0, report.TotalProfit, 1e-9)
		assert.InDelta(t, 50.0, report.WinRate, 1e-9)
	})
}

func TestRefreshAdvisoryCache(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	older := now.Add(-2 * time.Hour)
	newer := now.Add(-10 * time.Minute)

	bot := &model.Bot{ID: 1, UserID: "alice", Name: "dca-btc"}
	refreshAdvisoryCache(bot, []threecommas.Deal{
		{ID: 1, Status: threecommas.DealStatusCompleted, FinalProfit: "1.5", CreatedAt: older.Add(-time.Hour), ClosedAt: &older},
		{ID: 2, Status: threecommas.DealStatusActive, CreatedAt: newer},
	})

	assert.Equal(t, 2, bot.TotalDeals)
	assert.InDelta(t, 1.5, bot.TotalProfit, 1e-9)
	require.NotNil(t, bot.LastDealAt)
	assert.True(t, bot.LastDealAt.Equal(newer))
}
