package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/quantback/internal/backtest/engine"
	"github.com/rxtech-lab/quantback/internal/logger"
	"github.com/rxtech-lab/quantback/internal/types"
)

type StoreTestSuite struct {
	suite.Suite

	store *Store
	ctx   context.Context
	start time.Time
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (suite *StoreTestSuite) SetupTest() {
	store, err := NewStore(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)

	suite.store = store
	suite.ctx = context.Background()
	suite.start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *StoreTestSuite) TearDownTest() {
	suite.store.Close()
}

func (suite *StoreTestSuite) bars(count int) []types.MarketData {
	bars := make([]types.MarketData, count)
	for i := range bars {
		price := 100.0 + float64(i)
		bars[i] = types.MarketData{
			Symbol: "BTCUSDT",
			Time:   suite.start.Add(time.Duration(i) * time.Hour),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 10,
		}
	}

	return bars
}

func (suite *StoreTestSuite) TestInsertAndGetKlines() {
	suite.Require().NoError(suite.store.InsertKlines(suite.ctx, suite.bars(5)))

	got, err := suite.store.GetKlines(suite.ctx, "BTCUSDT", suite.start, suite.start.Add(5*time.Hour))
	suite.Require().NoError(err)
	suite.Require().Len(got, 5)

	for i, bar := range got {
		suite.Equal(suite.start.Add(time.Duration(i)*time.Hour), bar.Time)
		suite.InDelta(100.0+float64(i), bar.Close, 1e-9)
	}
}

func (suite *StoreTestSuite) TestGetKlinesRangeIsHalfOpen() {
	suite.Require().NoError(suite.store.InsertKlines(suite.ctx, suite.bars(5)))

	// start inclusive, end exclusive
	got, err := suite.store.GetKlines(suite.ctx, "BTCUSDT", suite.start.Add(time.Hour), suite.start.Add(3*time.Hour))
	suite.Require().NoError(err)
	suite.Require().Len(got, 2)
	suite.Equal(suite.start.Add(time.Hour), got[0].Time)
	suite.Equal(suite.start.Add(2*time.Hour), got[1].Time)
}

func (suite *StoreTestSuite) TestGetKlinesFiltersBySymbol() {
	suite.Require().NoError(suite.store.InsertKlines(suite.ctx, suite.bars(2)))

	got, err := suite.store.GetKlines(suite.ctx, "ETHUSDT", suite.start, suite.start.Add(time.Hour))
	suite.Require().NoError(err)
	suite.Empty(got)
}

func (suite *StoreTestSuite) TestReinsertReplacesExistingBar() {
	bars := suite.bars(1)
	suite.Require().NoError(suite.store.InsertKlines(suite.ctx, bars))

	bars[0].Close = 999
	suite.Require().NoError(suite.store.InsertKlines(suite.ctx, bars))

	got, err := suite.store.GetKlines(suite.ctx, "BTCUSDT", suite.start, suite.start.Add(time.Hour))
	suite.Require().NoError(err)
	suite.Require().Len(got, 1)
	suite.InDelta(999.0, got[0].Close, 1e-9)
}

func (suite *StoreTestSuite) TestLatestKlineTime() {
	latest, err := suite.store.LatestKlineTime(suite.ctx, "BTCUSDT")
	suite.Require().NoError(err)
	suite.True(latest.IsNone())

	suite.Require().NoError(suite.store.InsertKlines(suite.ctx, suite.bars(3)))

	latest, err = suite.store.LatestKlineTime(suite.ctx, "BTCUSDT")
	suite.Require().NoError(err)
	suite.Require().True(latest.IsSome())
	suite.Equal(suite.start.Add(2*time.Hour), latest.Unwrap())
}

func (suite *StoreTestSuite) TestSaveAndListResults() {
	result := &engine.Result{
		InitialCapital: 10000,
		FinalEquity:    11000,
		StartTime:      suite.start,
		EndTime:        suite.start.Add(48 * time.Hour),
		BarsProcessed:  49,
		Trades: []types.Trade{
			{Timestamp: suite.start, Action: types.SignalActionBuy, Price: 100, Size: 100},
			{Timestamp: suite.start.Add(time.Hour), Action: types.SignalActionSell, Price: 110, Size: 100, PnL: 1000, Reason: "Take Profit at 10.00%"},
		},
		EquityCurve: []types.EquityPoint{
			{Timestamp: suite.start, Equity: 10000},
			{Timestamp: suite.start.Add(time.Hour), Equity: 11000, ReturnsPct: 10},
		},
		Statistics: types.Statistics{
			TotalReturnPct: 10,
			WinRatePct:     100,
			NumberOfTrades: 2,
		},
	}

	runID, err := suite.store.SaveResult(suite.ctx, "BTCUSDT", "sma-adx", result)
	suite.Require().NoError(err)
	suite.NotEmpty(runID)

	runs, err := suite.store.ListRuns(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(runs, 1)
	suite.Equal(runID, runs[0].RunID)
	suite.Equal("BTCUSDT", runs[0].Symbol)
	suite.Equal("sma-adx", runs[0].Strategy)
	suite.InDelta(10.0, runs[0].TotalReturnPct, 1e-9)
	suite.Equal(2, runs[0].NumberOfTrades)

	trades, err := suite.store.GetTrades(suite.ctx, runID)
	suite.Require().NoError(err)
	suite.Require().Len(trades, 2)
	suite.Equal(types.SignalActionBuy, trades[0].Action)
	suite.InDelta(1000.0, trades[1].PnL, 1e-9)
	suite.Equal("Take Profit at 10.00%", trades[1].Reason)
}

func (suite *StoreTestSuite) TestSaveResultRequiresResult() {
	_, err := suite.store.SaveResult(suite.ctx, "BTCUSDT", "sma-adx", nil)
	suite.Require().Error(err)
}
