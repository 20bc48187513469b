// Command quantback downloads kline history, runs backtests against it, and
// serves the HTTP API.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/quantback/internal/api"
	"github.com/rxtech-lab/quantback/internal/backtest/datasource"
	"github.com/rxtech-lab/quantback/internal/backtest/engine"
	"github.com/rxtech-lab/quantback/internal/backtest/report"
	"github.com/rxtech-lab/quantback/internal/logger"
	"github.com/rxtech-lab/quantback/internal/store"
	"github.com/rxtech-lab/quantback/internal/strategy"
	"github.com/rxtech-lab/quantback/internal/types"
	"github.com/rxtech-lab/quantback/pkg/marketdata"
)

var dateLayouts = cli.TimestampConfig{
	Layouts: []string{"2006-01-02", time.RFC3339},
}

func dataFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "data",
		Aliases: []string{"d"},
		Usage:   "Path to the DuckDB database file",
		Value:   "data/quantback.duckdb",
	}
}

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download historical klines from Binance",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Trading pair symbol, e.g. BTCUSDT",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Kline interval (1m, 5m, 15m, 30m, 1h, 4h, 1d, ...)",
				Value:   string(types.Interval1h),
			},
			&cli.TimestampFlag{
				Name:     "start",
				Usage:    "Start date in `YYYY-MM-DD` format",
				Required: true,
				Config:   dateLayouts,
			},
			&cli.TimestampFlag{
				Name:   "end",
				Usage:  "End date in `YYYY-MM-DD` format. Defaults to now.",
				Value:  time.Now(),
				Config: dateLayouts,
			},
			dataFlag(),
		},
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewDevelopmentLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := store.NewStore(cmd.String("data"), log)
	if err != nil {
		return err
	}
	defer st.Close()

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription("Downloading"),
		progressbar.OptionShowCount(),
	)

	onProgress := func(current, total float64, message string) {
		if total > 0 {
			bar.Describe(message)
			_ = bar.Set(int(current / total * 100))
		}
	}

	client, err := marketdata.NewClient(
		marketdata.ClientConfig{ProviderType: marketdata.ProviderBinance},
		st, onProgress, log,
	)
	if err != nil {
		return err
	}

	count, err := client.Download(ctx, marketdata.DownloadParams{
		Symbol:    cmd.String("symbol"),
		Interval:  types.Interval(cmd.String("interval")),
		StartDate: cmd.Timestamp("start"),
		EndDate:   cmd.Timestamp("end"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("\nDownloaded %d bars for %s\n", count, cmd.String("symbol"))

	return nil
}

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Run a backtest against stored history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Trading pair symbol, e.g. BTCUSDT",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "strategy",
				Usage:   "Strategy identifier (see 'quantback strategies')",
				Value:   "sma-adx",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML backtest config file",
			},
			&cli.FloatFlag{
				Name:  "capital",
				Usage: "Initial capital",
				Value: 10000,
			},
			&cli.FloatFlag{
				Name:  "commission",
				Usage: "Commission rate per trade, e.g. 0.001",
				Value: 0.001,
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Kline interval of the stored data",
				Value:   string(types.Interval1h),
			},
			&cli.TimestampFlag{
				Name:   "start",
				Usage:  "Trade window start in `YYYY-MM-DD` format",
				Config: dateLayouts,
			},
			&cli.TimestampFlag{
				Name:   "end",
				Usage:  "Trade window end in `YYYY-MM-DD` format",
				Config: dateLayouts,
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Persist the run result in the database",
				Value: true,
			},
			dataFlag(),
		},
		Action: backtestAction,
	}
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewDevelopmentLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	config, err := backtestConfig(cmd)
	if err != nil {
		return err
	}

	strat, err := strategy.New(cmd.String("strategy"), nil)
	if err != nil {
		return err
	}

	st, err := store.NewStore(cmd.String("data"), log)
	if err != nil {
		return err
	}
	defer st.Close()

	interval := types.Interval(cmd.String("interval"))
	buffer := interval.Duration() * time.Duration(2*strat.LookbackPeriods())

	loadStart := time.Unix(0, 0).UTC()
	if config.StartTime.IsSome() {
		loadStart = config.StartTime.Unwrap().Add(-buffer)
	}

	loadEnd := time.Now().UTC()
	if config.EndTime.IsSome() {
		loadEnd = config.EndTime.Unwrap()
	}

	bars, err := st.GetKlines(ctx, cmd.String("symbol"), loadStart, loadEnd)
	if err != nil {
		return err
	}

	feed, err := datasource.NewFeed(bars, log)
	if err != nil {
		return err
	}

	eng, err := engine.NewEngine(config, strat, log)
	if err != nil {
		return err
	}

	result, err := eng.Run(feed)
	if err != nil {
		return err
	}

	fmt.Print(report.Render(cmd.String("symbol"), strat.Name(), result))

	if cmd.Bool("save") {
		runID, err := st.SaveResult(ctx, cmd.String("symbol"), strat.Name(), result)
		if err != nil {
			return err
		}

		fmt.Printf("Saved run %s\n", runID)
	}

	return nil
}

// backtestConfig builds the engine config from the config file when given,
// otherwise from the CLI flags.
func backtestConfig(cmd *cli.Command) (engine.Config, error) {
	if path := cmd.String("config"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return engine.Config{}, err
		}

		return engine.ParseConfig(string(raw))
	}

	config := engine.DefaultConfig()
	config.InitialCapital = cmd.Float("capital")
	config.Commission = cmd.Float("commission")

	if start := cmd.Timestamp("start"); !start.IsZero() {
		config.StartTime = optional.Some(start.UTC())
	}

	if end := cmd.Timestamp("end"); !end.IsZero() {
		config.EndTime = optional.Some(end.UTC())
	}

	return config, config.Validate()
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the backtest HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: ":8080",
			},
			dataFlag(),
		},
		Action: serveAction,
	}
}

func serveAction(_ context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := store.NewStore(cmd.String("data"), log)
	if err != nil {
		return err
	}
	defer st.Close()

	return api.NewServer(st, log).Start(cmd.String("addr"))
}

func strategiesCommand() *cli.Command {
	return &cli.Command{
		Name:  "strategies",
		Usage: "List the available strategies",
		Action: func(_ context.Context, _ *cli.Command) error {
			for _, id := range strategy.List() {
				fmt.Println(id)
			}

			return nil
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "quantback",
		Usage: "Crypto backtesting engine",
		Commands: []*cli.Command{
			downloadCommand(),
			backtestCommand(),
			serveCommand(),
			strategiesCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
