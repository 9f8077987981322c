package service

import (
	"time"

	"botdeck/backend/internal/model"
	"botdeck/backend/pkg/threecommas"

	"github.com/shopspring/decimal"
)

// AggregateDeals folds a bot's deal history into a performance report. The
// platform reports money as decimal strings; unparseable values count as
// zero rather than poisoning the whole report. Open deals contribute their
// in-flight duration at evaluation time, so the duration average moves
// between calls while deals are open.
func AggregateDeals(deals []threecommas.Deal, now time.Time) *model.PerformanceReport {
	report := &model.PerformanceReport{
		TotalDeals: len(deals),
	}
	if len(deals) == 0 {
		return report
	}

	totalProfit := decimal.Zero
	totalProfitPct := decimal.Zero
	wins := 0
	var totalDuration time.Duration

	var best, worst *model.DealHighlight
	bestProfit := decimal.Zero
	worstProfit := decimal.Zero

	for i := range deals {
		d := &deals[i]

		profit, err := decimal.NewFromString(d.FinalProfit)
		if err != nil {
			profit = decimal.Zero
		}
		profitPct, err := decimal.NewFromString(d.FinalProfitPercentage)
		if err != nil {
			profitPct = decimal.Zero
		}

		totalProfit = totalProfit.Add(profit)
		totalProfitPct = totalProfitPct.Add(profitPct)

		if profit.IsPositive() {
			wins++
		}

		if d.Finished() {
			report.CompletedDeals++
			// The platform occasionally reports terminal deals without a
			// close timestamp; fall back to the in-flight duration rather
			// than counting them as instantaneous.
			if d.ClosedAt != nil {
				totalDuration += d.ClosedAt.Sub(d.CreatedAt)
			} else {
				totalDuration += now.Sub(d.CreatedAt)
			}
		} else {
			report.ActiveDeals++
			totalDuration += now.Sub(d.CreatedAt)
		}

		highlight := func() *model.DealHighlight {
			pf, _ := profit.Float64()
			pctf, _ := profitPct.Float64()
			return &model.DealHighlight{
				DealID:        d.ID,
				Pair:          d.Pair,
				Profit:        pf,
				ProfitPercent: pctf,
				Status:        d.Status,
			}
		}

		if best == nil || profit.GreaterThan(bestProfit) {
			best = highlight()
			bestProfit = profit
		}
		if worst == nil || profit.LessThan(worstProfit) {
			worst = highlight()
			worstProfit = profit
		}
	}

	count := decimal.NewFromInt(int64(len(deals)))

	report.TotalProfit, _ = totalProfit.Float64()
	report.TotalProfitPercent, _ = totalProfitPct.Float64()
	report.AverageProfit, _ = totalProfit.Div(count).Float64()
	report.WinRate, _ = decimal.NewFromInt(int64(wins)).
		Mul(decimal.NewFromInt(100)).
		Div(count).
		Float64()
	report.BestDeal = best
	report.WorstDeal = worst
	report.AverageDealDurationMs = totalDuration.Milliseconds() / int64(len(deals))

	return report
}

// refreshAdvisoryCache updates the bot's cached counters from a deal page.
// The cache is advisory: it makes list views cheap, never authoritative.
func refreshAdvisoryCache(bot *model.Bot, deals []threecommas.Deal) {
	total := decimal.Zero
	var last *time.Time
	for i := range deals {
		d := &deals[i]
		if profit, err := decimal.NewFromString(d.FinalProfit); err == nil {
			total = total.Add(profit)
		}
		at := d.CreatedAt
		if d.ClosedAt != nil {
			at = *d.ClosedAt
		}
		if last == nil || at.After(*last) {
			t := at
			last = &t
		}
	}

	bot.TotalDeals = len(deals)
	bot.TotalProfit, _ = total.Float64()
	if last != nil {
		bot.LastDealAt = last
	}
	bot.UpdatedAt = time.Now()
}
