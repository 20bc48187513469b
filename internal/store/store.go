// Package store persists kline history and backtest results in DuckDB. One
// Store owns one database handle; ":memory:" gives an ephemeral database for
// tests and one-shot runs.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/quantback/internal/backtest/engine"
	"github.com/rxtech-lab/quantback/internal/logger"
	"github.com/rxtech-lab/quantback/internal/types"
	"github.com/rxtech-lab/quantback/pkg/errors"
)

// Store wraps the DuckDB connection used for kline history and run results.
type Store struct {
	db  *sql.DB
	sq  squirrel.StatementBuilderType
	log *logger.Logger
}

// NewStore opens the database at path and creates the schema.
func NewStore(path string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to open database", err)
	}

	s := &Store{
		db:  db,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		log: log,
	}

	if err := s.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return s, nil
}

func (s *Store) initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS kline_data (
			symbol TEXT,
			time TIMESTAMP,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE,
			PRIMARY KEY (symbol, time)
		)`,
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			run_id TEXT PRIMARY KEY,
			symbol TEXT,
			strategy TEXT,
			initial_capital DOUBLE,
			final_equity DOUBLE,
			total_return_pct DOUBLE,
			max_drawdown_pct DOUBLE,
			sharpe_ratio DOUBLE,
			win_rate_pct DOUBLE,
			number_of_trades INTEGER,
			start_time TIMESTAMP,
			end_time TIMESTAMP,
			created_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS backtest_trades (
			run_id TEXT,
			timestamp TIMESTAMP,
			action TEXT,
			price DOUBLE,
			size DOUBLE,
			pnl DOUBLE,
			reason TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS backtest_equity (
			run_id TEXT,
			timestamp TIMESTAMP,
			equity DOUBLE,
			position DOUBLE,
			returns_pct DOUBLE
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create schema", err)
		}
	}

	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertKlines writes bars in one transaction. Bars whose (symbol, time) key
// already exists are replaced, so re-downloading a range is safe.
func (s *Store) InsertKlines(ctx context.Context, bars []types.MarketData) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to begin transaction", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO kline_data (symbol, time, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to prepare insert", err)
	}
	defer stmt.Close()

	for _, bar := range bars {
		if _, err := stmt.ExecContext(ctx,
			bar.Symbol, bar.Time.UTC(), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume,
		); err != nil {
			tx.Rollback()

			return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err,
				"failed to insert kline %s@%s", bar.Symbol, bar.Time.Format(time.RFC3339))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to commit klines", err)
	}

	s.log.Debug("klines inserted", zap.Int("count", len(bars)))

	return nil
}

// GetKlines returns the bars for symbol with start <= time < end, ordered by
// time ascending.
func (s *Store) GetKlines(ctx context.Context, symbol string, start, end time.Time) ([]types.MarketData, error) {
	query, args, err := s.sq.
		Select("symbol", "time", "open", "high", "low", "close", "volume").
		From("kline_data").
		Where(squirrel.Eq{"symbol": symbol}).
		Where(squirrel.GtOrEq{"time": start.UTC()}).
		Where(squirrel.Lt{"time": end.UTC()}).
		OrderBy("time ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build kline query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query klines", err)
	}
	defer rows.Close()

	var bars []types.MarketData

	for rows.Next() {
		var bar types.MarketData
		if err := rows.Scan(
			&bar.Symbol, &bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume,
		); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan kline", err)
		}

		bar.Time = bar.Time.UTC()
		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read klines", err)
	}

	return bars, nil
}

// LatestKlineTime returns the newest stored bar time for the symbol, or None
// when nothing is stored yet.
func (s *Store) LatestKlineTime(ctx context.Context, symbol string) (optional.Option[time.Time], error) {
	query, args, err := s.sq.
		Select("MAX(time)").
		From("kline_data").
		Where(squirrel.Eq{"symbol": symbol}).
		ToSql()
	if err != nil {
		return optional.None[time.Time](), errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var latest sql.NullTime
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&latest); err != nil {
		return optional.None[time.Time](), errors.Wrap(errors.ErrCodeQueryFailed, "failed to query latest kline", err)
	}

	if !latest.Valid {
		return optional.None[time.Time](), nil
	}

	return optional.Some(latest.Time.UTC()), nil
}

// RunRecord is one persisted backtest run summary.
type RunRecord struct {
	RunID          string    `json:"run_id"`
	Symbol         string    `json:"symbol"`
	Strategy       string    `json:"strategy"`
	InitialCapital float64   `json:"initial_capital"`
	FinalEquity    float64   `json:"final_equity"`
	TotalReturnPct float64   `json:"total_return_pct"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	WinRatePct     float64   `json:"win_rate_pct"`
	NumberOfTrades int       `json:"number_of_trades"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	CreatedAt      time.Time `json:"created_at"`
}

// SaveResult persists a run summary with its trades and equity curve in one
// transaction and returns the generated run id.
func (s *Store) SaveResult(ctx context.Context, symbol, strategyName string, result *engine.Result) (string, error) {
	if result == nil {
		return "", errors.New(errors.ErrCodeInvalidInput, "result is required")
	}

	runID := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to begin transaction", err)
	}

	stats := result.Statistics

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO backtest_runs (
			run_id, symbol, strategy, initial_capital, final_equity,
			total_return_pct, max_drawdown_pct, sharpe_ratio, win_rate_pct,
			number_of_trades, start_time, end_time, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID, symbol, strategyName, result.InitialCapital, result.FinalEquity,
		stats.TotalReturnPct, stats.MaxDrawdownPct, stats.SharpeRatio, stats.WinRatePct,
		stats.NumberOfTrades, result.StartTime.UTC(), result.EndTime.UTC(), time.Now().UTC(),
	); err != nil {
		tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert run", err)
	}

	for _, trade := range result.Trades {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO backtest_trades (run_id, timestamp, action, price, size, pnl, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, runID, trade.Timestamp.UTC(), string(trade.Action), trade.Price, trade.Size, trade.PnL, trade.Reason); err != nil {
			tx.Rollback()

			return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert trade", err)
		}
	}

	for _, point := range result.EquityCurve {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO backtest_equity (run_id, timestamp, equity, position, returns_pct)
			VALUES (?, ?, ?, ?, ?)
		`, runID, point.Timestamp.UTC(), point.Equity, point.Position, point.ReturnsPct); err != nil {
			tx.Rollback()

			return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert equity point", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to commit result", err)
	}

	s.log.Info("backtest result saved",
		zap.String("run_id", runID),
		zap.String("symbol", symbol),
		zap.String("strategy", strategyName),
	)

	return runID, nil
}

// ListRuns returns the persisted run summaries, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunRecord, error) {
	query, args, err := s.sq.
		Select(
			"run_id", "symbol", "strategy", "initial_capital", "final_equity",
			"total_return_pct", "max_drawdown_pct", "sharpe_ratio", "win_rate_pct",
			"number_of_trades", "start_time", "end_time", "created_at",
		).
		From("backtest_runs").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build run query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query runs", err)
	}
	defer rows.Close()

	var runs []RunRecord

	for rows.Next() {
		var run RunRecord
		if err := rows.Scan(
			&run.RunID, &run.Symbol, &run.Strategy, &run.InitialCapital, &run.FinalEquity,
			&run.TotalReturnPct, &run.MaxDrawdownPct, &run.SharpeRatio, &run.WinRatePct,
			&run.NumberOfTrades, &run.StartTime, &run.EndTime, &run.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan run", err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read runs", err)
	}

	return runs, nil
}

// GetTrades returns the trades of one persisted run in execution order.
func (s *Store) GetTrades(ctx context.Context, runID string) ([]types.Trade, error) {
	query, args, err := s.sq.
		Select("timestamp", "action", "price", "size", "pnl", "reason").
		From("backtest_trades").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("timestamp ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build trade query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var (
			trade  types.Trade
			action string
		)

		if err := rows.Scan(&trade.Timestamp, &action, &trade.Price, &trade.Size, &trade.PnL, &trade.Reason); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		trade.Timestamp = trade.Timestamp.UTC()
		trade.Action = types.SignalAction(action)
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read trades", err)
	}

	return trades, nil
}
