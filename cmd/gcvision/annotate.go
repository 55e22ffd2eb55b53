package main

import (
	"os"

	"gcvision-go/internal/core/models"
	"gcvision-go/internal/integrations/gvision"
	"gcvision-go/internal/output"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	annotateImage   string
	annotateMode    string
	annotateResults int
	annotateFormat  string
	annotateSave    bool
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Annotate a single image file",
	RunE:  runAnnotate,
}

func init() {
	annotateCmd.Flags().StringVarP(&annotateImage, "image", "i", "", "image file name")
	annotateCmd.MarkFlagRequired("image")
	annotateCmd.Flags().StringVarP(&annotateMode, "mode", "m", "labels", "analysis mode: labels, text, faces, logos, landmarks, web or all")
	annotateCmd.Flags().IntVarP(&annotateResults, "results", "r", 0, "max number of results per feature (default from config: 5)")
	annotateCmd.Flags().StringVar(&annotateFormat, "format", "text", "output format: text or json")
	annotateCmd.Flags().BoolVar(&annotateSave, "save", false, "record the run in the history database")
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	mode, err := models.ParseMode(annotateMode)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(annotateFormat)
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

	report, err := service.AnnotateFile(ctx, annotateImage, mode, annotateResults)
	if err != nil {
		return err
	}

	printer := output.NewPrinter(os.Stdout, format)
	if err := printer.Print(report); err != nil {
		return err
	}

	if annotateSave {
		repo, err := openHistory()
		if err != nil {
			return err
		}
		if err := recordReport(repo, report, annotateImage, mode, "cli"); err != nil {
			log.Warnf("Failed to record annotation in history: %v", err)
		}
	}

	return nil
}
