package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tbessho/matchbook/params"
	"github.com/tbessho/matchbook/pkg/engine"
	"github.com/tbessho/matchbook/pkg/storage"
	"github.com/tbessho/matchbook/pkg/util"
)

func main() {
	cfg, err := params.Load("") // "" means load from .env in current directory
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := util.NewLogger()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	store, err := storage.OpenTradeStore(cfg.TradeDBPath)
	if err != nil {
		sugar.Fatalw("trade_store_open_failed", "path", cfg.TradeDBPath, "err", err)
	}
	defer store.Close()

	eng := engine.New(cfg.EngineParams(), engine.WithLogger(logger))

	// Journal every trade as it prints.
	eng.Events().SubscribeTrade(func(t engine.Trade) {
		if err := store.Append(t); err != nil {
			sugar.Errorw("trade_journal_failed", "err", err)
		}
	})

	// Restore the resting book from the last shutdown, if any.
	if _, err := os.Stat(cfg.SnapshotPath); err == nil {
		if err := eng.LoadSnapshot(cfg.SnapshotPath); err != nil {
			sugar.Fatalw("snapshot_load_failed", "path", cfg.SnapshotPath, "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sugar.Infow("bookd_starting",
		"tick", cfg.TickSize,
		"lot", cfg.LotSize,
		"snapshot", cfg.SnapshotPath,
		"trade_db", cfg.TradeDBPath)

	// Optional synthetic order flow for load testing and demos.
	// Enable with: ENABLE_ORDERFLOW=true
	if os.Getenv("ENABLE_ORDERFLOW") == "true" {
		go feedOrders(ctx, eng, cfg)
		sugar.Info("synthetic order flow enabled")
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := eng.SaveSnapshot(cfg.SnapshotPath); err != nil {
				sugar.Errorw("snapshot_save_failed", "path", cfg.SnapshotPath, "err", err)
			}
			sugar.Info("bookd_stopped")
			return
		case <-ticker.C:
			bid, _ := eng.BestBid()
			ask, _ := eng.BestAsk()
			last, _ := eng.LastPrice()
			sugar.Infow("book_status",
				"best_bid", bid,
				"best_ask", ask,
				"last", last,
				"trades", len(eng.Trades()))
		}
	}
}

// feedOrders submits random limit orders around a drifting mid price.
// Single goroutine, so engine calls stay serialized.
func feedOrders(ctx context.Context, eng *engine.Engine, cfg params.Config) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	mid := 100.0

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			side := engine.Buy
			if rng.Intn(2) == 0 {
				side = engine.Sell
			}
			offset := float64(rng.Intn(20)-10) * cfg.TickSize
			price := mid + offset
			if price < cfg.TickSize {
				price = cfg.TickSize
			}
			qty := float64(rng.Intn(100)+1) * cfg.LotSize * 1000

			eng.Submit(engine.SubmitRequest{
				ClientID: "feeder",
				Side:     side,
				Type:     engine.Limit,
				Price:    price,
				Quantity: qty,
			})

			if last, ok := eng.LastPrice(); ok {
				mid = last
			}
		}
	}
}
