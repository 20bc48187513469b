package datasource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/quantback/internal/logger"
	"github.com/rxtech-lab/quantback/internal/types"
	"github.com/rxtech-lab/quantback/pkg/errors"
)

type FeedTestSuite struct {
	suite.Suite
	logger *logger.Logger
}

func TestFeedSuite(t *testing.T) {
	suite.Run(t, new(FeedTestSuite))
}

func (suite *FeedTestSuite) SetupTest() {
	suite.logger = logger.NewNopLogger()
}

func (suite *FeedTestSuite) makeBars(count int) []types.MarketData {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.MarketData, count)

	for i := range bars {
		price := 100.0 + float64(i)
		bars[i] = types.MarketData{
			Symbol: "BTCUSDT",
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 10,
		}
	}

	return bars
}

func (suite *FeedTestSuite) TestEmptyCollectionRejected() {
	_, err := NewFeed(nil, suite.logger)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeEmptyDataset))
}

func (suite *FeedTestSuite) TestZeroTimestampRejected() {
	bars := suite.makeBars(3)
	bars[1].Time = time.Time{}

	_, err := NewFeed(bars, suite.logger)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidInput))
}

func (suite *FeedTestSuite) TestDuplicateTimestampRejected() {
	bars := suite.makeBars(3)
	bars[2].Time = bars[1].Time

	_, err := NewFeed(bars, suite.logger)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidInput))
}

func (suite *FeedTestSuite) TestNonPositivePriceRejected() {
	bars := suite.makeBars(3)
	bars[0].Low = 0

	_, err := NewFeed(bars, suite.logger)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidInput))
}

func (suite *FeedTestSuite) TestTimestampsNormalizedToUTC() {
	loc := time.FixedZone("UTC+8", 8*3600)
	bars := suite.makeBars(2)
	bars[0].Time = bars[0].Time.In(loc)

	feed, err := NewFeed(bars, suite.logger)
	suite.NoError(err)

	first := feed.Next()
	suite.True(first.IsSome())
	suite.Equal(time.UTC, first.Unwrap().Time.Location())
}

func (suite *FeedTestSuite) TestNextAdvancesOneBarPerCall() {
	feed, err := NewFeed(suite.makeBars(3), suite.logger)
	suite.NoError(err)

	for i := 0; i < 3; i++ {
		bar := feed.Next()
		suite.True(bar.IsSome())
		suite.InDelta(100.0+float64(i), bar.Unwrap().Close, 1e-9)
	}

	suite.True(feed.Next().IsNone())
	suite.True(feed.Next().IsNone())
}

func (suite *FeedTestSuite) TestUnsortedInputIsSorted() {
	bars := suite.makeBars(3)
	bars[0], bars[2] = bars[2], bars[0]

	feed, err := NewFeed(bars, suite.logger)
	suite.NoError(err)

	prev := feed.Next().Unwrap().Time
	for {
		bar := feed.Next()
		if bar.IsNone() {
			break
		}

		suite.True(bar.Unwrap().Time.After(prev))
		prev = bar.Unwrap().Time
	}
}

func (suite *FeedTestSuite) TestLookBackEmptyBeforeFirstNext() {
	feed, err := NewFeed(suite.makeBars(5), suite.logger)
	suite.NoError(err)

	suite.Empty(feed.LookBack(3))
}

func (suite *FeedTestSuite) TestLookBackIncludesCurrentBar() {
	feed, err := NewFeed(suite.makeBars(5), suite.logger)
	suite.NoError(err)

	feed.Next()
	feed.Next()
	current := feed.Next().Unwrap()

	window := feed.LookBack(2)
	suite.Len(window, 2)
	suite.Equal(current.Time, window[len(window)-1].Time)
}

func (suite *FeedTestSuite) TestLookBackBoundedByConsumedBars() {
	feed, err := NewFeed(suite.makeBars(5), suite.logger)
	suite.NoError(err)

	feed.Next()
	feed.Next()

	window := feed.LookBack(10)
	suite.Len(window, 2)
}

func (suite *FeedTestSuite) TestResetEnablesReplay() {
	feed, err := NewFeed(suite.makeBars(3), suite.logger)
	suite.NoError(err)

	first := feed.Next().Unwrap()
	for feed.Next().IsSome() {
	}

	feed.Reset()
	suite.Empty(feed.LookBack(3))
	suite.True(feed.CurrentTime().IsNone())

	replayed := feed.Next().Unwrap()
	suite.Equal(first.Time, replayed.Time)
}

func (suite *FeedTestSuite) TestCurrentTime() {
	feed, err := NewFeed(suite.makeBars(2), suite.logger)
	suite.NoError(err)

	suite.True(feed.CurrentTime().IsNone())

	bar := feed.Next().Unwrap()
	suite.Equal(bar.Time, feed.CurrentTime().Unwrap())
}
