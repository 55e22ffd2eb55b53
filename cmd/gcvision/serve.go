package main

import (
	"fmt"
	"time"

	"gcvision-go/internal/api/handlers"
	"gcvision-go/internal/cleanup"
	"gcvision-go/internal/core/processor"
	"gcvision-go/internal/integrations/gvision"
	"gcvision-go/internal/integrations/mqtt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the annotation HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repo, err := openHistory()
	if err != nil {
		return err
	}

	cleanupService := cleanup.NewService(repo, cfg.Cleanup.RetentionDays, 24*time.Hour)
	if cleanupService != nil {
		cleanupService.StartBackgroundCleanup()
		defer cleanupService.StopBackgroundCleanup()
	}

	publisher := mqtt.NewPublisher(cfg.MQTT)
	if cfg.MQTT.Enabled {
		if err := publisher.Start(); err != nil {
			log.Warnf("Failed to start MQTT publisher: %v. Continuing without MQTT.", err)
		} else {
			defer publisher.Stop()
		}
	}

	client, err := gvision.NewClient(ctx, cfg.Vision)
	if err != nil {
		return err
	}
	defer client.Close()

	service := gvision.NewService(client, cfg.Vision)

	pool := processor.NewWorkerPool(service, 0)
	defer pool.Shutdown()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.AllowOrigins) == 1 && cfg.Server.AllowOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.Server.AllowOrigins
	}
	router.Use(cors.New(corsConfig))

	apiHandler := handlers.NewAPIHandler(cfg, repo, pool, publisher)
	apiHandler.RegisterRoutes(router.Group("/api"))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Infof("Starting server on %s", addr)

	return router.Run(addr)
}
