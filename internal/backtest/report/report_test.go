package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/quantback/internal/backtest/engine"
	"github.com/rxtech-lab/quantback/internal/types"
)

type ReportTestSuite struct {
	suite.Suite
}

func TestReportSuite(t *testing.T) {
	suite.Run(t, new(ReportTestSuite))
}

func (suite *ReportTestSuite) TestRender() {
	result := &engine.Result{
		InitialCapital: 10000,
		FinalCapital:   11000,
		FinalEquity:    11000,
		StartTime:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		BarsProcessed:  744,
		Statistics: types.Statistics{
			TotalReturnPct: 10,
			MaxDrawdownPct: 3.5,
			WinRatePct:     60,
			NumberOfTrades: 10,
			WinningTrades:  3,
			LosingTrades:   2,
		},
	}

	text := Render("BTCUSDT", "sma-adx", result)

	suite.Contains(text, "Backtest Report: BTCUSDT / sma-adx")
	suite.Contains(text, "2024-03-01T00:00:00Z - 2024-04-01T00:00:00Z")
	suite.Contains(text, "Initial Capital:          10000.00")
	suite.Contains(text, "Total Return:               10.00%")
	suite.Contains(text, "Win Rate:                   60.00%")
	suite.Contains(text, "Number of Trades:               10")
}
