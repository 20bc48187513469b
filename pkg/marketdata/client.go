// Package marketdata exposes a validated client for downloading historical
// klines from an exchange into a kline writer.
package marketdata

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rxtech-lab/quantback/internal/logger"
	"github.com/rxtech-lab/quantback/internal/types"
	"github.com/rxtech-lab/quantback/pkg/errors"
	"github.com/rxtech-lab/quantback/pkg/marketdata/provider"
)

// ProviderType selects the exchange backend.
type ProviderType string

const (
	ProviderBinance ProviderType = "binance"
)

// ClientConfig configures the market data client.
type ClientConfig struct {
	ProviderType ProviderType `validate:"required,oneof=binance"`
}

// DownloadParams describes one download request.
type DownloadParams struct {
	Symbol    string         `validate:"required"`
	Interval  types.Interval `validate:"required"`
	StartDate time.Time      `validate:"required"`
	EndDate   time.Time      `validate:"required,gtfield=StartDate"`
}

// Client validates download requests and drives the configured provider.
type Client struct {
	provider   provider.Provider
	validate   *validator.Validate
	log        *logger.Logger
	onProgress provider.OnDownloadProgress
}

// NewClient creates a client for the configured provider, writing downloaded
// bars through w.
func NewClient(config ClientConfig, w provider.KlineWriter, onProgress provider.OnDownloadProgress, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid market data client config", err)
	}

	if w == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "kline writer is required")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	var marketProvider provider.Provider

	switch config.ProviderType {
	case ProviderBinance:
		marketProvider = provider.NewBinanceClient()
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported provider type: %s", config.ProviderType)
	}

	marketProvider.ConfigWriter(w)

	return &Client{
		provider:   marketProvider,
		validate:   validate,
		log:        log,
		onProgress: onProgress,
	}, nil
}

// Download validates params and downloads the requested range, returning the
// number of bars written.
func (c *Client) Download(ctx context.Context, params DownloadParams) (int, error) {
	if err := c.validate.Struct(params); err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	if !params.Interval.IsValid() {
		return 0, errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval %s", params.Interval)
	}

	c.log.Info("downloading market data",
		zap.String("symbol", params.Symbol),
		zap.String("interval", string(params.Interval)),
		zap.Time("start", params.StartDate),
		zap.Time("end", params.EndDate),
	)

	count, err := c.provider.Download(ctx, params.Symbol, params.Interval, params.StartDate, params.EndDate, c.onProgress)
	if err != nil {
		return count, err
	}

	c.log.Info("download finished",
		zap.String("symbol", params.Symbol),
		zap.Int("bars", count),
	)

	return count, nil
}
