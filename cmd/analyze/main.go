// Command analyze runs a one-shot analysis from the terminal and prints the
// report as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"stocklens/analyzer"
	"stocklens/logger"
	"stocklens/market"
)

func main() {
	var (
		symbols        = flag.String("symbols", "", "comma separated stock codes, e.g. sh600036,sz000001")
		days           = flag.Int("days", 365, "history window in calendar days")
		predictionDays = flag.Int("prediction-days", 5, "forecast horizon in days")
		predict        = flag.Bool("predict", false, "train the model ensemble and attach a prediction")
		summary        = flag.Bool("summary", false, "print a text summary instead of JSON (batch only)")
		logLevel       = flag.String("log-level", "warn", "console log level")
	)
	flag.Parse()

	if *symbols == "" {
		fmt.Fprintln(os.Stderr, "usage: analyze -symbols sh600036[,sz000001...] [-days N] [-predict]")
		os.Exit(2)
	}
	codes := strings.Split(*symbols, ",")
	for i := range codes {
		codes[i] = strings.TrimSpace(codes[i])
	}

	log := logger.New(logger.Config{Level: *logLevel})
	defer log.Sync()

	fetcher, err := market.NewFetcher(len(codes))
	if err != nil {
		log.Fatalw("create fetcher", "error", err)
	}
	core := analyzer.New(fetcher, log)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if len(codes) == 1 {
		report, err := core.AnalyzeStock(codes[0], *days, *predictionDays, *predict)
		if err != nil {
			log.Fatalw("analysis failed", "symbol", codes[0], "error", err)
		}
		enc.Encode(report)
		return
	}

	reports := core.BatchAnalyze(codes, *days, *predictionDays, *predict)
	if *summary {
		fmt.Print(analyzer.Summarize(reports).Format(codes))
		return
	}
	enc.Encode(map[string]interface{}{
		"reports": reports,
		"summary": analyzer.Summarize(reports),
	})
}
