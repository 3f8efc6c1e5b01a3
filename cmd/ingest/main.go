package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bakesales/internal/config"
	"bakesales/internal/exporter"
	"bakesales/internal/files"
	"bakesales/internal/infrastructure"
	"bakesales/internal/sales"
	"bakesales/internal/service"
)

const dateLayout = "2006-01-02"

func main() {
	inDir := flag.String("dir", "", "input directory with POS export files (default: configured data dir)")
	outDir := flag.String("out", "", "output directory for CSV reports (default: configured reports dir)")
	fromArg := flag.String("from", "", "start date, YYYY-MM-DD (default: first sale date)")
	toArg := flag.String("to", "", "end date, YYYY-MM-DD (default: today)")
	category := flag.String("category", "", "restrict to one category")
	product := flag.String("product", "", "restrict to one product")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}

	if *inDir == "" {
		*inDir = cfg.Paths.DataDir
	}
	if *outDir == "" {
		*outDir = cfg.Paths.ReportsDir
	}

	from, to, err := resolveRange(cfg, *fromArg, *toArg)
	if err != nil {
		logger.Error("invalid date range", "error", err)
		os.Exit(1)
	}

	loader := service.LocalSource{Discovery: files.NewDiscovery(""), Dir: *inDir}
	analytics, err := service.NewAnalytics(loader, logger, cfg.Analytics)
	if err != nil {
		logger.Error("failed to create analytics service", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	filter := service.Filter{Category: *category, Product: *product}

	records, err := analytics.LoadRange(ctx, from, to, filter)
	if err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		logger.Error("no records in range",
			slog.String("from", from.Format(dateLayout)),
			slog.String("to", to.Format(dateLayout)))
		os.Exit(1)
	}

	summary := analytics.Summarize(records, filter)
	printSummary(summary)

	if err := writeReports(*outDir, from, to, records); err != nil {
		logger.Error("failed to write reports", "error", err)
		os.Exit(1)
	}
	logger.Info("reports written", slog.String("dir", *outDir))
}

func resolveRange(cfg *config.Config, fromArg, toArg string) (time.Time, time.Time, error) {
	from, err := cfg.Analytics.FirstSale()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if fromArg != "" {
		if from, err = time.Parse(dateLayout, fromArg); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -from: %w", err)
		}
	}

	to := time.Now().UTC().Truncate(24 * time.Hour)
	if toArg != "" {
		if to, err = time.Parse(dateLayout, toArg); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -to: %w", err)
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s precedes start date %s",
			to.Format(dateLayout), from.Format(dateLayout))
	}
	return from, to, nil
}

func printSummary(s *service.Summary) {
	fmt.Printf("Period:        %s to %s (%s mode, %d days active)\n", s.From, s.To, s.Mode, s.DaysActive)
	fmt.Printf("Records:       %d\n", s.RecordCount)
	fmt.Printf("Revenue:       %s\n", s.TotalRevenue.StringFixed(2))
	fmt.Printf("Items sold:    %s\n", s.TotalQuantity.String())
	fmt.Printf("Avg price:     %s\n", s.AvgPrice.StringFixed(2))
	fmt.Printf("Avg daily rev: %s\n", s.AvgDailyRevenue.StringFixed(2))
	fmt.Println()
	fmt.Println("Top products:")
	for i, p := range s.TopProducts {
		fmt.Printf("  %2d. %-40s %12s  x%s\n", i+1, p.Key, p.Revenue.StringFixed(2), p.Quantity.String())
	}
}

func writeReports(outDir string, from, to time.Time, records sales.RecordSet) error {
	stamp := fmt.Sprintf("%s_%s", from.Format("20060102"), to.Format("20060102"))
	writer := exporter.NewCSVWriter()

	byProduct := sales.GroupBy(records, sales.GroupProduct)
	products := sales.TopN(byProduct, len(byProduct)).Ranked
	if err := writer.WriteAggregatesFile(
		filepath.Join(outDir, fmt.Sprintf("products_%s.csv", stamp)), "Product", products); err != nil {
		return err
	}

	byCategory := sales.GroupBy(records, sales.GroupCategory)
	categories := sales.TopN(byCategory, len(byCategory)).Ranked
	return writer.WriteAggregatesFile(
		filepath.Join(outDir, fmt.Sprintf("categories_%s.csv", stamp)), "Category", categories)
}
