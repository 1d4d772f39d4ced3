package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"stocklens/analyzer"
	"stocklens/db"
	qhttp "stocklens/http"
	"stocklens/logger"
	"stocklens/market"
	"stocklens/monitoring"
)

// Config is the service configuration, loaded from config.yaml.
type Config struct {
	Symbols  []string `yaml:"symbols"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Http struct {
		Port int `yaml:"port"`
	} `yaml:"http"`
	Log      logger.Config `yaml:"log"`
	Analysis struct {
		Days           int `yaml:"days"`
		PredictionDays int `yaml:"prediction_days"`
		CacheSize      int `yaml:"cache_size"`
		RefreshMinutes int `yaml:"refresh_minutes"`
	} `yaml:"analysis"`

	mu sync.RWMutex
}

// WatchSymbols returns the current symbol list under the config lock.
func (c *Config) WatchSymbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.Symbols...)
}

func main() {
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	config, err := loadConfig(configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(config.Log)
	defer log.Sync()

	if err := db.InitDB(config.Database.Path); err != nil {
		log.Fatalw("failed to initialize database", "path", config.Database.Path, "error", err)
	}
	defer db.Close()
	log.Infow("database initialized", "path", config.Database.Path)

	fetcher, err := market.NewFetcher(config.Analysis.CacheSize)
	if err != nil {
		log.Fatalw("failed to create fetcher", "error", err)
	}

	hub := monitoring.NewHub()
	core := analyzer.New(fetcher, log)
	core.SetPublisher(hub)
	core.SetQuoteProvider(fetcher)

	serverCfg := qhttp.DefaultServerConfig()
	if config.Http.Port > 0 {
		serverCfg.Port = config.Http.Port
	}
	server := qhttp.NewServer(serverCfg, core, hub, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalw("http server failed", "error", err)
		}
	}()

	stopWatch := watchConfig(configPath, config, log)
	defer stopWatch()

	go refreshWatchlist(config, core, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	if err := server.Stop(); err != nil {
		log.Warnw("server forced to shutdown", "error", err)
	}
	log.Info("exiting")
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	if config.Analysis.Days <= 0 {
		config.Analysis.Days = 365
	}
	if config.Analysis.PredictionDays <= 0 {
		config.Analysis.PredictionDays = 5
	}
	if config.Analysis.RefreshMinutes <= 0 {
		config.Analysis.RefreshMinutes = 60
	}
	return &config, nil
}

// refreshWatchlist analyzes the configured symbols at startup and on a fixed
// interval, persisting each successful report. Progress events reach
// websocket subscribers through the analyzer's publisher.
func refreshWatchlist(config *Config, core *analyzer.Analyzer, log *zap.SugaredLogger) {
	run := func() {
		symbols := config.WatchSymbols()
		if len(symbols) == 0 {
			return
		}
		log.Infow("refreshing watchlist", "symbols", len(symbols))
		reports := core.BatchAnalyze(symbols, config.Analysis.Days, config.Analysis.PredictionDays, false)
		for _, report := range reports {
			if report.Error != "" {
				continue
			}
			if err := db.SaveReport(report.StockCode, report.Volatility.Trend,
				report.TradingSignals.CurrentSignal, report.Recommendation, report); err != nil {
				log.Warnw("persist watchlist report failed", "symbol", report.StockCode, "error", err)
			}
		}
	}

	run()
	ticker := time.NewTicker(time.Duration(config.Analysis.RefreshMinutes) * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		run()
	}
}

// watchConfig hot-reloads the symbol list when config.yaml changes. Other
// settings need a restart.
func watchConfig(path string, config *Config, log *zap.SugaredLogger) func() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warnw("config watcher disabled", "error", err)
		return func() {}
	}
	if err := watcher.Add(path); err != nil {
		log.Warnw("config watcher disabled", "path", path, "error", err)
		watcher.Close()
		return func() {}
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				updated, err := loadConfig(path)
				if err != nil {
					log.Warnw("config reload failed", "error", err)
					continue
				}
				config.mu.Lock()
				config.Symbols = updated.Symbols
				config.mu.Unlock()
				log.Infow("config reloaded", "symbols", len(updated.Symbols))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnw("config watcher error", "error", err)
			}
		}
	}()
	return func() { watcher.Close() }
}
