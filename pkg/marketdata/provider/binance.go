package provider

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"github.com/rxtech-lab/quantback/internal/types"
	"github.com/rxtech-lab/quantback/pkg/errors"
)

// binancePageSize is the maximum number of klines Binance returns per
// request; a shorter page marks the last one.
const binancePageSize = 500

// BinanceClient downloads historical klines from the public Binance API. No
// API key is needed for kline data.
type BinanceClient struct {
	client *binance.Client
	writer KlineWriter
}

// NewBinanceClient creates an unauthenticated Binance client.
func NewBinanceClient() *BinanceClient {
	return &BinanceClient{
		client: binance.NewClient("", ""),
		writer: nil,
	}
}

// ConfigWriter implements Provider.
func (c *BinanceClient) ConfigWriter(w KlineWriter) {
	c.writer = w
}

// Download implements Provider. It pages through the kline endpoint using the
// close time of the last kline plus one millisecond as the next start, which
// avoids duplicate bars across pages.
func (c *BinanceClient) Download(ctx context.Context, symbol string, interval types.Interval, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (int, error) {
	if c.writer == nil {
		return 0, errors.New(errors.ErrCodeInvalidConfiguration, "writer is not configured")
	}

	if !interval.IsValid() {
		return 0, errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval %s", interval)
	}

	if !startDate.Before(endDate) {
		return 0, errors.Newf(errors.ErrCodeInvalidTimeRange,
			"start date %s must be before end date %s",
			startDate.Format(time.RFC3339), endDate.Format(time.RFC3339))
	}

	startMillis := startDate.UnixMilli()
	endMillis := endDate.UnixMilli()
	currentStart := startMillis
	total := 0

	for {
		klines, err := c.client.NewKlinesService().
			Symbol(symbol).
			Interval(string(interval)).
			StartTime(currentStart).
			EndTime(endMillis).
			Do(ctx)
		if err != nil {
			return total, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err,
				"failed to fetch %s klines from binance", symbol)
		}

		if onProgress != nil {
			onProgress(float64(currentStart-startMillis), float64(endMillis-startMillis), "Downloading "+symbol)
		}

		bars := convertKlines(symbol, klines)
		if err := c.writer.InsertKlines(ctx, bars); err != nil {
			return total, err
		}

		total += len(bars)

		if len(klines) < binancePageSize {
			break
		}

		currentStart = klines[len(klines)-1].CloseTime + 1
		if currentStart >= endMillis {
			break
		}
	}

	if onProgress != nil {
		onProgress(float64(endMillis-startMillis), float64(endMillis-startMillis), "Download complete")
	}

	return total, nil
}

// convertKlines maps Binance kline rows to bars, stamping each bar with its
// open time in UTC.
func convertKlines(symbol string, klines []*binance.Kline) []types.MarketData {
	bars := make([]types.MarketData, 0, len(klines))

	for _, k := range klines {
		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		closePrice, _ := strconv.ParseFloat(k.Close, 64)
		volume, _ := strconv.ParseFloat(k.Volume, 64)

		bars = append(bars, types.MarketData{
			Symbol: symbol,
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}

	return bars
}
