// Package provider contains the exchange clients that download historical
// klines and hand them to a kline writer.
package provider

import (
	"context"
	"time"

	"github.com/rxtech-lab/quantback/internal/types"
)

// OnDownloadProgress reports download progress. current and total are in the
// provider's native units (Binance uses epoch milliseconds).
type OnDownloadProgress func(current float64, total float64, message string)

// KlineWriter receives downloaded bars in pages. The store satisfies this.
type KlineWriter interface {
	InsertKlines(ctx context.Context, bars []types.MarketData) error
}

// Provider downloads historical klines for one symbol and date range into the
// configured writer, returning the number of bars written.
type Provider interface {
	ConfigWriter(w KlineWriter)
	Download(ctx context.Context, symbol string, interval types.Interval, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (int, error)
}
