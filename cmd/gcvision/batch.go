package main

import (
	"fmt"
	"os"

	"gcvision-go/internal/core/models"
	"gcvision-go/internal/core/processor"
	"gcvision-go/internal/integrations/gvision"
	"gcvision-go/internal/integrations/mqtt"
	"gcvision-go/internal/output"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	batchDir     string
	batchMode    string
	batchResults int
	batchWorkers int
	batchFormat  string
	batchSave    bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Annotate every image in a directory",
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchDir, "dir", "d", "", "directory containing image files")
	batchCmd.MarkFlagRequired("dir")
	batchCmd.Flags().StringVarP(&batchMode, "mode", "m", "labels", "analysis mode: labels, text, faces, logos, landmarks, web or all")
	batchCmd.Flags().IntVarP(&batchResults, "results", "r", 0, "max number of results per feature (default from config: 5)")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "worker count (default: 75% of CPUs, min 2)")
	batchCmd.Flags().StringVar(&batchFormat, "format", "text", "output format: text or json")
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "record each run in the history database")
}

func runBatch(cmd *cobra.Command, args []string) error {
	mode, err := models.ParseMode(batchMode)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(batchFormat)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	client, err := gvision.NewClient(ctx, cfg.Vision)
	if err != nil {
		return err
	}
	defer client.Close()

	service := gvision.NewService(client, cfg.Vision)

	publisher := mqtt.NewPublisher(cfg.MQTT)
	if cfg.MQTT.Enabled {
		if err := publisher.Start(); err != nil {
			log.Warnf("Failed to start MQTT publisher: %v. Continuing without MQTT.", err)
		} else {
			defer publisher.Stop()
		}
	}

	batch := processor.NewBatchProcessor(service, batchWorkers, publisher)
	defer batch.Shutdown()

	results, err := batch.ProcessDirectory(ctx, batchDir, mode, batchResults)
	if err != nil {
		return err
	}

	printer := output.NewPrinter(os.Stdout, format)
	failed := 0
	for _, result := range results {
		if result.Err != nil {
			log.Errorf("Failed to annotate %s: %v", result.Path, result.Err)
			failed++
			continue
		}
		if format == output.FormatText {
			fmt.Printf("\n=== %s ===\n", result.Path)
		}
		if err := printer.Print(result.Report); err != nil {
			return err
		}
	}

	if batchSave {
		repo, err := openHistory()
		if err != nil {
			return err
		}
		for _, result := range results {
			if result.Err != nil {
				continue
			}
			if err := recordReport(repo, result.Report, result.Path, mode, "batch"); err != nil {
				log.Warnf("Failed to record annotation for %s: %v", result.Path, err)
			}
		}
	}

	if failed > 0 && failed == len(results) {
		return fmt.Errorf("all %d image(s) failed to annotate", failed)
	}

	return nil
}
