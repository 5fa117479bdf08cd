package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/polytoolkit/config"
	"github.com/alejandrodnm/polytoolkit/internal/adapters/notify"
	"github.com/alejandrodnm/polytoolkit/internal/adapters/polymarket"
	"github.com/alejandrodnm/polytoolkit/internal/adapters/storage"
	"github.com/alejandrodnm/polytoolkit/internal/application/toolkit"
	"github.com/alejandrodnm/polytoolkit/internal/domain"
)

// flagParams mapea los flags de la CLI a los parámetros de las tools.
var flagParams = map[string]string{
	"query":     "query",
	"limit":     "limit",
	"id":        "market_id",
	"user":      "user_address",
	"outcome":   "outcome",
	"min-value": "min_value",
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	tool := flag.String("tool", toolkit.OpTrendingMarkets, "tool to call (see -list)")
	flag.String("query", "", "search term (search_markets)")
	flag.Int("limit", 0, "max results (default depends on the tool)")
	flag.String("id", "", "market id (get_market_details, get_market_holders)")
	flag.String("user", "", "wallet address (get_user_positions)")
	flag.String("outcome", "", "only this outcome (get_market_holders)")
	flag.Float64("min-value", 0, "minimum position size (get_user_positions)")
	asJSON := flag.Bool("json", false, "print the result as JSON instead of a table")
	record := flag.Bool("record", false, "persist upstream fetches to the snapshot store")
	history := flag.Int("history", 0, "print the last N recorded snapshots and exit")
	list := flag.Bool("list", false, "list the available tools and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	if *list {
		printTools(os.Stdout, toolkit.Tools())
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	console := notify.NewConsole()

	var store *storage.SQLiteStore
	if *record || cfg.Storage.Record || *history > 0 {
		store, err = storage.NewSQLiteStore(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()
	}

	if *history > 0 {
		snaps, err := store.RecentSnapshots(ctx, "", *history)
		if err != nil {
			slog.Error("failed to read snapshots", "err", err)
			os.Exit(1)
		}
		if err := output(console, snaps, *asJSON); err != nil {
			slog.Error("failed to print snapshots", "err", err)
			os.Exit(1)
		}
		return
	}

	client := polymarket.NewClient(cfg.API.GammaBase, cfg.API.DataBase,
		polymarket.WithTimeout(cfg.Timeout()),
		polymarket.WithRetryPolicy(polymarket.RetryPolicy{
			MaxAttempts: cfg.Toolkit.MaxAttempts,
			Backoff:     cfg.RetryBackoff(),
			Retryable:   polymarket.IsTransient,
		}),
		polymarket.WithRateLimits(cfg.Toolkit.GammaRatePerSec, cfg.Toolkit.DataRatePerSec),
	)

	tkCfg := toolkit.DefaultConfig()
	tkCfg.CacheTTL = cfg.CacheTTL()

	var opts []toolkit.Option
	if store != nil {
		opts = append(opts, toolkit.WithRecorder(store))
	}
	tk := toolkit.New(tkCfg, client, client, opts...)

	params := map[string]any{}
	flag.Visit(func(f *flag.Flag) {
		if name, ok := flagParams[f.Name]; ok {
			params[name] = f.Value.String()
		}
	})

	slog.Debug("calling tool", "tool", *tool, "params", params)

	result, err := tk.Call(ctx, *tool, params)
	if err != nil {
		slog.Error("tool call failed", "tool", *tool, "kind", domain.Kind(err), "err", err)
		os.Exit(1)
	}

	if err := output(console, result, *asJSON); err != nil {
		slog.Error("failed to print result", "err", err)
		os.Exit(1)
	}
}

func output(console *notify.Console, v any, asJSON bool) error {
	if !asJSON {
		return console.Render(v)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTools(w io.Writer, tools []toolkit.Tool) {
	table := tablewriter.NewWriter(w)
	table.Header("Tool", "Params", "Description")

	for _, t := range tools {
		var params string
		for i, p := range t.Params {
			if i > 0 {
				params += " "
			}
			if p.Required {
				params += p.Name
			} else {
				params += fmt.Sprintf("[%s=%v]", p.Name, p.Default)
			}
		}
		table.Append(t.Name, params, t.Description)
	}

	table.Render()
}

// setupLogger escribe a stderr para no mezclar logs con la salida -json.
func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
