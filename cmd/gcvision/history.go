package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"gcvision-go/internal/cleanup"
	"gcvision-go/internal/core/models"
	"gcvision-go/internal/output"

	"github.com/spf13/cobra"
)

var (
	historyPage      int
	historyLimit     int
	historySource    string
	historyFormat    string
	historyOlderThan int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and prune the annotation history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded annotation runs",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the full report of one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show history totals",
	RunE:  runHistoryStats,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete recorded runs older than the retention period",
	RunE:  runHistoryClear,
}

func init() {
	historyListCmd.Flags().IntVar(&historyPage, "page", 1, "page number")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "entries per page")
	historyListCmd.Flags().StringVar(&historySource, "source", "", "filter by source (cli, batch, api)")

	historyShowCmd.Flags().StringVar(&historyFormat, "format", "text", "output format: text or json")

	historyClearCmd.Flags().IntVar(&historyOlderThan, "older-than", 0, "delete entries older than this many days (default from config)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	repo, err := openHistory()
	if err != nil {
		return err
	}

	if historyPage < 1 {
		historyPage = 1
	}
	offset := (historyPage - 1) * historyLimit

	annotations, total, err := repo.GetAnnotations(historyLimit, offset, historySource)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSOURCE\tMODES\tRESULTS\tIMAGE")
	for _, a := range annotations {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
			a.ID, a.CreatedAt.Format(time.RFC3339), a.Source, a.Modes, a.ResultCount, a.ImagePath)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d of %d entries (page %d)\n", len(annotations), total, historyPage)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid annotation ID %q", args[0])
	}

	format, err := output.ParseFormat(historyFormat)
	if err != nil {
		return err
	}

	repo, err := openHistory()
	if err != nil {
		return err
	}

	annotation, err := repo.GetAnnotationByID(uint(id))
	if err != nil {
		return err
	}
	if annotation == nil {
		return fmt.Errorf("annotation %d not found", id)
	}

	var report models.Report
	if err := json.Unmarshal(annotation.Report, &report); err != nil {
		return fmt.Errorf("failed to decode stored report: %w", err)
	}

	fmt.Printf("Annotation %d (%s, %s, recorded %s)\n",
		annotation.ID, annotation.Source, annotation.Modes, annotation.CreatedAt.Format(time.RFC3339))

	return output.NewPrinter(os.Stdout, format).Print(&report)
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	repo, err := openHistory()
	if err != nil {
		return err
	}

	stats, err := repo.GetStatistics()
	if err != nil {
		return err
	}

	fmt.Printf("Annotations: %d\n", stats.TotalAnnotations)
	fmt.Printf("Results:     %d\n", stats.TotalResults)
	if !stats.LatestAnnotation.IsZero() {
		fmt.Printf("Latest:      %s\n", stats.LatestAnnotation.Format(time.RFC3339))
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	repo, err := openHistory()
	if err != nil {
		return err
	}

	retentionDays := historyOlderThan
	if retentionDays <= 0 {
		retentionDays = cfg.Cleanup.RetentionDays
	}

	service := cleanup.NewService(repo, retentionDays, time.Hour)
	if service == nil {
		return fmt.Errorf("cleanup is disabled (retention_days <= 0)")
	}

	deleted := service.RunCleanupCycle()
	fmt.Printf("Deleted %d entries older than %d day(s)\n", deleted, retentionDays)
	return nil
}
