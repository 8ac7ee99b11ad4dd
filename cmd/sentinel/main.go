package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PriceSentinel/internal/collector"
	"PriceSentinel/internal/config"
	"PriceSentinel/internal/detector"
	"PriceSentinel/internal/metrics"
	"PriceSentinel/internal/monitor"
	"PriceSentinel/internal/notifier"
	"PriceSentinel/internal/recorder"
	"PriceSentinel/internal/scheduler"
	"PriceSentinel/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] PriceSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	loc, _ := cfg.Location() // checked by Validate

	// Init fetcher
	fetcher := collector.NewListingFetcher(cfg.Source.URL, cfg.Source.UserAgent, collector.ListingOptions{
		ItemSelector:  cfg.Source.ItemSelector,
		NameSelector:  cfg.Source.NameSelector,
		PriceSelector: cfg.Source.PriceSelector,
		MaxItems:      cfg.Source.MaxItems,
		NameMaxLen:    cfg.Source.NameMaxLen,
	}, cfg.Source.Timeout, cfg.Proxy)
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init notifier
	var tn *notifier.TelegramNotifier
	var nt notifier.Notifier
	switch cfg.Notify.Provider {
	case "telegram":
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		nt = tn
	case "line":
		nt = notifier.NewLineNotifier(cfg.Line.ChannelToken, cfg.Line.APIURL, cfg.Proxy)
	default:
		nt = notifier.NewNoopNotifier()
	}
	log.Printf("[INFO] notifier: %s (mode %s)", nt.Name(), cfg.Notify.Mode)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	met := metrics.New()

	mon := monitor.New(monitor.Options{
		TopN: cfg.Notify.TopN,
		Mode: monitor.NotifyMode(cfg.Notify.Mode),
		Policy: detector.Policy{
			MinAmount:  cfg.Notify.MinDrop,
			MinPercent: cfg.Notify.MinDropPercent,
		},
		Format: notifier.FormatOptions{
			Title:      cfg.Source.Title,
			Currency:   cfg.Notify.Currency,
			Location:   loc,
			NameMaxLen: cfg.Notify.NameMaxLen,
			LinePrefix: cfg.Notify.LinePrefix,
		},
	}, store.NewFileStore(cfg.Store.BaselineFile), fetcher, nt, rec, met)

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Schedule.Cron == "" {
		runOnce(ctx, mon, met, cfg.Metrics.Textfile)
		return
	}
	runDaemon(ctx, cfg, mon, met, tn)
}

// runOnce performs a single run. A failed run is logged but still exits 0 so that the
// host schedule keeps invoking us.
func runOnce(ctx context.Context, mon *monitor.Monitor, met *metrics.Metrics, textfile string) {
	mon.Run(ctx)
	if textfile != "" {
		if err := met.WriteTextfile(textfile); err != nil {
			log.Printf("[WARN] write metrics textfile: %v", err)
		}
	}
}

func runDaemon(ctx context.Context, cfg *config.Config, mon *monitor.Monitor, met *metrics.Metrics, tn *notifier.TelegramNotifier) {
	sched := scheduler.NewScheduler(ctx, mon)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Metrics.ListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", met.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		srv := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[ERROR] metrics server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			srv.Shutdown(shutdownCtx)
		}()
		log.Printf("[INFO] metrics listening on %s", cfg.Metrics.ListenAddr)
	}

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing a check now")
		go sched.RunNow()
	}

	log.Printf("[INFO] PriceSentinel is running (cron %q). Press Ctrl+C to stop.", cfg.Schedule.Cron)
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
}
