// Package datasource provides the ordered bar sequence consumed by the
// backtest engine: a single-pass cursor over timestamp-indexed OHLCV bars
// with a bounded look-back window.
package datasource

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/quantback/internal/logger"
	"github.com/rxtech-lab/quantback/internal/types"
	"github.com/rxtech-lab/quantback/pkg/errors"
)

// Feed is a single-pass cursor over an ordered bar sequence. It is stateful
// and not safe for concurrent use; independent backtest runs should each hold
// their own Feed instance.
type Feed struct {
	bars    []types.MarketData
	cursor  int
	current optional.Option[types.MarketData]
	logger  *logger.Logger
}

// NewFeed validates and loads a bar collection. Timestamps are normalized to
// UTC before first use; construction fails on an empty collection, a zero or
// duplicate timestamp, a non-positive price, or a negative volume.
func NewFeed(bars []types.MarketData, log *logger.Logger) (*Feed, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if len(bars) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDataset, "bar collection is empty")
	}

	normalized := make([]types.MarketData, len(bars))

	for i, bar := range bars {
		if bar.Time.IsZero() {
			return nil, errors.Newf(errors.ErrCodeInvalidInput, "bar %d has no timestamp", i)
		}

		if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
			return nil, errors.Newf(errors.ErrCodeInvalidInput,
				"bar at %s has a non-positive price", bar.Time)
		}

		if bar.Volume < 0 {
			return nil, errors.Newf(errors.ErrCodeInvalidInput,
				"bar at %s has a negative volume", bar.Time)
		}

		bar.Time = bar.Time.UTC()
		normalized[i] = bar
	}

	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].Time.Before(normalized[j].Time)
	})

	for i := 1; i < len(normalized); i++ {
		if normalized[i].Time.Equal(normalized[i-1].Time) {
			return nil, errors.Newf(errors.ErrCodeInvalidInput,
				"duplicate bar timestamp %s", normalized[i].Time)
		}
	}

	log.Info("Loaded bar sequence",
		zap.Int("bars", len(normalized)),
		zap.Time("first", normalized[0].Time),
		zap.Time("last", normalized[len(normalized)-1].Time),
	)

	return &Feed{
		bars:    normalized,
		cursor:  0,
		current: optional.None[types.MarketData](),
		logger:  log,
	}, nil
}

// Next advances the cursor by exactly one bar and returns it, or None when
// the sequence is exhausted.
func (f *Feed) Next() optional.Option[types.MarketData] {
	if f.cursor >= len(f.bars) {
		return optional.None[types.MarketData]()
	}

	bar := f.bars[f.cursor]
	f.cursor++
	f.current = optional.Some(bar)

	return optional.Some(bar)
}

// LookBack returns up to periods most recent bars ending at (and including)
// the bar last returned by Next. Before the cursor has advanced the window is
// empty.
func (f *Feed) LookBack(periods int) []types.MarketData {
	if f.cursor == 0 || periods <= 0 {
		return nil
	}

	start := f.cursor - periods
	if start < 0 {
		start = 0
	}

	return f.bars[start:f.cursor]
}

// CurrentTime returns the timestamp of the bar last returned by Next.
func (f *Feed) CurrentTime() optional.Option[time.Time] {
	if f.current.IsNone() {
		return optional.None[time.Time]()
	}

	return optional.Some(f.current.Unwrap().Time)
}

// Reset rewinds the cursor to the start of the sequence, enabling replay.
func (f *Feed) Reset() {
	f.cursor = 0
	f.current = optional.None[types.MarketData]()
}

// Len returns the total number of bars in the sequence.
func (f *Feed) Len() int {
	return len(f.bars)
}

// Bars returns the full underlying bar sequence in timestamp order.
func (f *Feed) Bars() []types.MarketData {
	return f.bars
}
