package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/quantback/internal/logger"
	"github.com/rxtech-lab/quantback/internal/types"
	"github.com/rxtech-lab/quantback/pkg/errors"
	"github.com/rxtech-lab/quantback/pkg/marketdata/provider"
)

type ClientTestSuite struct {
	suite.Suite
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

type memoryWriter struct {
	bars []types.MarketData
}

func (w *memoryWriter) InsertKlines(_ context.Context, bars []types.MarketData) error {
	w.bars = append(w.bars, bars...)
	return nil
}

func (suite *ClientTestSuite) newClient() *Client {
	client, err := NewClient(
		ClientConfig{ProviderType: ProviderBinance},
		&memoryWriter{},
		nil,
		logger.NewNopLogger(),
	)
	suite.Require().NoError(err)

	return client
}

func (suite *ClientTestSuite) TestNewClientRejectsUnknownProvider() {
	_, err := NewClient(ClientConfig{ProviderType: "kraken"}, &memoryWriter{}, nil, logger.NewNopLogger())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ClientTestSuite) TestNewClientRequiresWriter() {
	_, err := NewClient(ClientConfig{ProviderType: ProviderBinance}, nil, nil, logger.NewNopLogger())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ClientTestSuite) TestDownloadValidatesParams() {
	client := suite.newClient()

	_, err := client.Download(context.Background(), DownloadParams{
		Interval:  types.Interval1h,
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now(),
	})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *ClientTestSuite) TestDownloadRejectsInvertedDateRange() {
	client := suite.newClient()

	_, err := client.Download(context.Background(), DownloadParams{
		Symbol:    "BTCUSDT",
		Interval:  types.Interval1h,
		StartDate: time.Now(),
		EndDate:   time.Now().Add(-time.Hour),
	})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *ClientTestSuite) TestDownloadRejectsUnknownInterval() {
	client := suite.newClient()

	_, err := client.Download(context.Background(), DownloadParams{
		Symbol:    "BTCUSDT",
		Interval:  types.Interval("3s"),
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now(),
	})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidInterval))
}

var _ provider.KlineWriter = (*memoryWriter)(nil)
