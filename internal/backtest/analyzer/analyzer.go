// Package analyzer computes performance statistics from a finished run. All
// functions are pure: they read the equity curve and trade log and never
// mutate them, so analyzing the same run twice yields the same result.
package analyzer

import (
	"math"
	"time"

	"github.com/rxtech-lab/quantback/internal/types"
)

// annualTradingDays is the annualization factor base for the Sharpe ratio.
const annualTradingDays = 252

// Analyze derives the summary statistics for one run. An empty equity curve
// yields the zero statistics.
func Analyze(equity []types.EquityPoint, trades []types.Trade, initialCapital float64) types.Statistics {
	if len(equity) == 0 || initialCapital <= 0 {
		return types.Statistics{}
	}

	finalEquity := equity[len(equity)-1].Equity
	days := elapsedDays(equity)

	stats := types.Statistics{
		TotalReturnPct: (finalEquity - initialCapital) / initialCapital * 100,
		AnnualReturnPct: annualReturnPct(finalEquity, initialCapital, days),
		MaxDrawdownPct: maxDrawdownPct(equity),
		SharpeRatio:    sharpeRatio(equity),
		NumberOfTrades: len(trades),
		TradesPerDay:   float64(len(trades)) / days,
	}

	stats.WinRatePct, stats.WinningTrades, stats.LosingTrades = winRate(trades)
	stats.ProfitFactor = profitFactor(trades)
	stats.RiskRewardRatio = riskRewardRatio(trades)
	stats.ProfitableDaysPct = profitableDaysPct(trades)

	return stats
}

// elapsedDays returns the run length in days, floored at one so that
// sub-daily runs do not explode the annualized figures.
func elapsedDays(equity []types.EquityPoint) float64 {
	span := equity[len(equity)-1].Timestamp.Sub(equity[0].Timestamp)

	days := span.Hours() / 24
	if days < 1 {
		return 1
	}

	return days
}

func annualReturnPct(finalEquity, initialCapital, days float64) float64 {
	ratio := finalEquity / initialCapital
	if ratio <= 0 {
		return -100
	}

	return (math.Pow(ratio, 365/days) - 1) * 100
}

// maxDrawdownPct is the largest peak-to-trough equity decline as a positive
// percentage.
func maxDrawdownPct(equity []types.EquityPoint) float64 {
	peak := equity[0].Equity
	maxDrawdown := 0.0

	for _, point := range equity {
		if point.Equity > peak {
			peak = point.Equity
		}

		if peak > 0 {
			drawdown := (peak - point.Equity) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown * 100
}

// sharpeRatio annualizes the mean per-bar return over its sample standard
// deviation. Fewer than two returns, or zero variance, yields zero.
func sharpeRatio(equity []types.EquityPoint) float64 {
	returns := make([]float64, 0, len(equity))

	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev == 0 {
			continue
		}

		returns = append(returns, (equity[i].Equity-prev)/prev)
	}

	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}

	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}

	variance /= float64(len(returns) - 1)
	if variance == 0 {
		return 0
	}

	return mean / math.Sqrt(variance) * math.Sqrt(annualTradingDays)
}

// winRate counts each completed SELL as one round trip: a SELL with positive
// realized PnL wins, the rest lose. Runs with no SELL have a zero win rate.
func winRate(trades []types.Trade) (ratePct float64, winning, losing int) {
	sells := 0

	for _, trade := range trades {
		if trade.Action != types.SignalActionSell {
			continue
		}

		sells++

		if trade.PnL > 0 {
			winning++
		} else {
			losing++
		}
	}

	if sells == 0 {
		return 0, 0, 0
	}

	return float64(winning) / float64(sells) * 100, winning, losing
}

// profitFactor is gross profit over gross loss across realized PnL. Without
// any losing trade the ratio is undefined and reported as zero.
func profitFactor(trades []types.Trade) float64 {
	grossProfit := 0.0
	grossLoss := 0.0

	for _, trade := range trades {
		switch {
		case trade.PnL > 0:
			grossProfit += trade.PnL
		case trade.PnL < 0:
			grossLoss -= trade.PnL
		}
	}

	if grossLoss == 0 {
		return 0
	}

	return grossProfit / grossLoss
}

// riskRewardRatio is the average winning PnL over the average losing PnL
// magnitude, zero when there is no win or no loss to compare.
func riskRewardRatio(trades []types.Trade) float64 {
	var (
		winSum, lossSum float64
		wins, losses    int
	)

	for _, trade := range trades {
		switch {
		case trade.PnL > 0:
			winSum += trade.PnL
			wins++
		case trade.PnL < 0:
			lossSum -= trade.PnL
			losses++
		}
	}

	if wins == 0 || losses == 0 {
		return 0
	}

	return (winSum / float64(wins)) / (lossSum / float64(losses))
}

// profitableDaysPct sums realized PnL per UTC trading day: a day with at
// least one trade is profitable when its total PnL is positive. Runs without
// trades report zero.
func profitableDaysPct(trades []types.Trade) float64 {
	dailyPnL := make(map[time.Time]float64)

	for _, trade := range trades {
		day := trade.Timestamp.UTC().Truncate(24 * time.Hour)
		dailyPnL[day] += trade.PnL
	}

	if len(dailyPnL) == 0 {
		return 0
	}

	profitable := 0

	for _, pnl := range dailyPnL {
		if pnl > 0 {
			profitable++
		}
	}

	return float64(profitable) / float64(len(dailyPnL)) * 100
}
