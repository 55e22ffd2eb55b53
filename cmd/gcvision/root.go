package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gcvision-go/config"
	"gcvision-go/internal/core/models"
	"gcvision-go/internal/db"
	"gcvision-go/internal/db/repository"
	"gcvision-go/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gcvision",
	Short: "Analyze images with the Google Cloud Vision API",
	Long: `gcvision sends local image files to the Google Cloud Vision API and
reports the returned labels, text, faces, logos, landmarks or web entities.

Runs can be recorded in a local history database, whole directories can be
annotated in batch, and 'gcvision serve' exposes the same functionality as
a small JSON API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		return logger.Init(cfg.Log)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	rootCmd.AddCommand(annotateCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// openHistory opens the history database for the commands that need it.
func openHistory() (repository.Repository, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	database, err := db.Open(cfg.DB.File)
	if err != nil {
		return nil, err
	}
	return repository.NewSQLiteRepository(database), nil
}

// recordReport stores one completed run in the history database.
func recordReport(repo repository.Repository, report *models.Report, imagePath string, mode models.Mode, source string) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	annotation := &models.Annotation{
		ImagePath:   imagePath,
		ContentHash: hashFile(imagePath),
		Source:      source,
		Modes:       models.JoinModes(mode.Features()),
		ResultCount: report.ResultCount(),
		DurationMs:  report.DurationMs,
		Report:      raw,
	}
	return repo.SaveAnnotation(annotation)
}

// hashFile returns the hex SHA-256 of a file, or "" when it cannot be read.
func hashFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return ""
	}
	return hex.EncodeToString(hash.Sum(nil))
}
