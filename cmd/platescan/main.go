// Command platescan processes nameplate photos from the command line:
// extract, print an inspection report, persist when the key is complete.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"
	"irisplate/internal/app"
	"irisplate/internal/config"
	"irisplate/internal/util"
	"irisplate/pkg/docai"
	"irisplate/pkg/report"
)

func main() {
	configPath := flag.String("config", config.ConfigPath, "path to config file")
	reportsDir := flag.String("reports", "", "directory for report files (default: config reportsDir or current dir)")
	concurrency := flag.Int("concurrency", 4, "number of images processed in parallel")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: platescan [flags] image.jpg [image2.jpg ...]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.InitLogger(cfg.LogLevel)

	dir := *reportsDir
	if dir == "" {
		dir = cfg.ReportsDir
	}
	if dir == "" {
		dir = "."
	}

	processor, err := docai.NewClient(docai.Config{
		ProjectID:   cfg.DocAIProjectID,
		Location:    cfg.DocAILocation,
		ProcessorID: cfg.DocAIProcessorID,
		AccessToken: cfg.DocAIAccessToken,
		Endpoint:    cfg.DocAIEndpoint,
	})
	if err != nil {
		log.Fatalf("failed to init document processor: %v", err)
	}
	pipeline, err := app.New(app.Config{
		DatabaseURL: cfg.DatabaseURL,
		Processor:   processor,
	})
	if err != nil {
		log.Fatalf("failed to init pipeline: %v", err)
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(*concurrency)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			return scanOne(ctx, pipeline, dir, path)
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("scan failed: %v", err)
	}
}

func scanOne(ctx context.Context, pipeline *app.App, reportsDir, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	record, extraction, err := pipeline.ProcessAndPersist(ctx, raw)
	if err != nil {
		if vErr, ok := app.AsValidation(err); ok {
			// Keep the partial result visible instead of dropping it.
			fmt.Printf("\n%s: not persisted (%v)\n", path, vErr)
			_ = report.Render(os.Stdout, vErr.Info)
			return nil
		}
		return fmt.Errorf("process %s: %w", path, err)
	}

	fmt.Printf("\n%s: stored %s / %s / %s\n", path, record.Manufacturer, record.Model, record.SerialNumber)
	if err := report.Render(os.Stdout, extraction.Info); err != nil {
		return err
	}
	reportPath, err := report.SaveFile(reportsDir, extraction.Info)
	if err != nil {
		return fmt.Errorf("save report for %s: %w", path, err)
	}
	fmt.Printf("report saved to %s\n", reportPath)
	return nil
}
